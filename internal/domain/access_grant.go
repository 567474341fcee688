package domain

import "time"

// AccessLevel 授权级别
type AccessLevel string

const (
	AccessRead  AccessLevel = "read"
	AccessWrite AccessLevel = "write"
	AccessAdmin AccessLevel = "admin"
)

// Rank orders levels: read < write < admin. Unknown levels rank 0.
func (l AccessLevel) Rank() int {
	switch l {
	case AccessRead:
		return 1
	case AccessWrite:
		return 2
	case AccessAdmin:
		return 3
	}
	return 0
}

// Satisfies reports whether l grants at least min.
func (l AccessLevel) Satisfies(min AccessLevel) bool {
	return l.Rank() > 0 && l.Rank() >= min.Rank()
}

// ApprovalStatus 审批状态
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// AccessGrant 用户对某个维度成员的授权（user_dimension_access 表）
// Only approved grants constrain visibility.
type AccessGrant struct {
	ID                string         `json:"id"`
	UserID            string         `json:"user_id"`
	DimensionType     DimensionType  `json:"dimension_type"`
	DimensionMemberID string         `json:"dimension_member_id"`
	AccessLevel       AccessLevel    `json:"access_level"`
	ApprovalStatus    ApprovalStatus `json:"approval_status"`
	RequestedBy       *string        `json:"requested_by,omitempty"`
	DecidedBy         *string        `json:"decided_by,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	DecidedAt         *time.Time     `json:"decided_at,omitempty"`
}
