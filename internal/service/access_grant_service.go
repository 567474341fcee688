package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/raviakasapu/generative-planner-vision-sub000/internal/domain"
	"github.com/raviakasapu/generative-planner-vision-sub000/internal/events"
	"github.com/raviakasapu/generative-planner-vision-sub000/internal/grid"
	"github.com/raviakasapu/generative-planner-vision-sub000/internal/repository"

	"go.uber.org/zap"
)

// GrantInvalidator drops cached grants of a user.
type GrantInvalidator interface {
	Invalidate(ctx context.Context, userID string)
}

// IsAdminRole reports whether role may decide access grants.
func IsAdminRole(role string) bool {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "admin", "systemadmin":
		return true
	}
	return false
}

// AccessGrantService 维度授权服务
type AccessGrantService struct {
	grants    repository.AccessGrantsRepository
	dims      repository.DimensionsRepository
	cache     GrantInvalidator
	sessions  *grid.SessionStore
	publisher events.Publisher
	logger    *zap.Logger
}

// NewAccessGrantService 创建授权服务。cache / sessions 可为空
func NewAccessGrantService(grants repository.AccessGrantsRepository, dims repository.DimensionsRepository, cache GrantInvalidator, sessions *grid.SessionStore, publisher events.Publisher, logger *zap.Logger) *AccessGrantService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &AccessGrantService{
		grants:    grants,
		dims:      dims,
		cache:     cache,
		sessions:  sessions,
		publisher: publisher,
		logger:    logger,
	}
}

// RequestGrantRequest 授权申请请求
type RequestGrantRequest struct {
	RequestedBy       string `validate:"required"`
	UserRole          string
	UserID            string // 被授权用户，默认申请人本人
	DimensionType     string `validate:"required,dimension_type"`
	DimensionMemberID string `validate:"required"`
	AccessLevel       string `validate:"required,oneof=read write admin"`
}

// RequestGrant files a pending grant. Only admins may file for someone else.
func (s *AccessGrantService) RequestGrant(ctx context.Context, req RequestGrantRequest) (string, error) {
	req.AccessLevel = strings.ToLower(strings.TrimSpace(req.AccessLevel))
	if err := validateStruct(req); err != nil {
		return "", err
	}
	target := req.UserID
	if target == "" {
		target = req.RequestedBy
	}
	if target != req.RequestedBy && !IsAdminRole(req.UserRole) {
		return "", fmt.Errorf("%w: only admins may request grants for other users", ErrAccessDenied)
	}

	t, _ := domain.ParseDimensionType(req.DimensionType)
	if _, err := s.dims.GetMember(ctx, t, req.DimensionMemberID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", fmt.Errorf("%w: %s member %s", ErrNotFound, t, req.DimensionMemberID)
		}
		return "", fmt.Errorf("failed to check dimension member: %w", err)
	}

	requestedBy := req.RequestedBy
	id, err := s.grants.CreateGrant(ctx, &domain.AccessGrant{
		UserID:            target,
		DimensionType:     t,
		DimensionMemberID: req.DimensionMemberID,
		AccessLevel:       domain.AccessLevel(req.AccessLevel),
		ApprovalStatus:    domain.ApprovalPending,
		RequestedBy:       &requestedBy,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create access grant: %w", err)
	}
	s.publish(ctx, events.New(events.TypeGrantRequested, id, req.RequestedBy, map[string]any{
		"user_id":             target,
		"dimension_type":      string(t),
		"dimension_member_id": req.DimensionMemberID,
		"access_level":        req.AccessLevel,
	}))
	return id, nil
}

// ListGrantsRequest 授权列表请求
type ListGrantsRequest struct {
	UserID         string
	UserRole       string
	ForUserID      string // 仅管理员可查询他人
	DimensionType  string
	ApprovalStatus string
	Page           int
	Size           int
}

// ListGrantsResponse 授权列表响应
type ListGrantsResponse struct {
	Items []domain.AccessGrant `json:"items"`
	Total int                  `json:"total"`
}

// ListGrants lists grants. Non-admins only ever see their own.
func (s *AccessGrantService) ListGrants(ctx context.Context, req ListGrantsRequest) (*ListGrantsResponse, error) {
	if req.UserID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidRequest)
	}
	filter := repository.AccessGrantsFilter{UserID: req.ForUserID}
	if !IsAdminRole(req.UserRole) {
		filter.UserID = req.UserID
	}
	if req.DimensionType != "" {
		t, err := domain.ParseDimensionType(req.DimensionType)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		filter.DimensionType = t
	}
	if req.ApprovalStatus != "" {
		st := domain.ApprovalStatus(strings.ToLower(req.ApprovalStatus))
		if st != domain.ApprovalPending && st != domain.ApprovalApproved && st != domain.ApprovalRejected {
			return nil, fmt.Errorf("%w: unknown approval status %q", ErrInvalidRequest, req.ApprovalStatus)
		}
		filter.ApprovalStatus = st
	}

	items, total, err := s.grants.ListGrants(ctx, filter, req.Page, req.Size)
	if err != nil {
		return nil, fmt.Errorf("failed to list access grants: %w", err)
	}
	return &ListGrantsResponse{Items: items, Total: total}, nil
}

// DecideGrantRequest 审批请求
type DecideGrantRequest struct {
	UserID   string
	UserRole string
	GrantID  string
	Approve  bool
}

// DecideGrant approves or rejects a pending grant and drops the grantee's
// cached grants and grid sessions.
func (s *AccessGrantService) DecideGrant(ctx context.Context, req DecideGrantRequest) (*domain.AccessGrant, error) {
	if req.UserID == "" || req.GrantID == "" {
		return nil, fmt.Errorf("%w: user id and grant id are required", ErrInvalidRequest)
	}
	if !IsAdminRole(req.UserRole) {
		return nil, fmt.Errorf("%w: only admins may decide access grants", ErrAccessDenied)
	}

	status := domain.ApprovalRejected
	if req.Approve {
		status = domain.ApprovalApproved
	}
	g, err := s.grants.DecideGrant(ctx, req.GrantID, status, req.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: pending access grant %s", ErrNotFound, req.GrantID)
		}
		return nil, fmt.Errorf("failed to decide access grant: %w", err)
	}

	s.forget(ctx, g.UserID)
	s.logger.Info("Access grant decided",
		zap.String("grant_id", g.ID),
		zap.String("user_id", g.UserID),
		zap.String("status", string(g.ApprovalStatus)),
		zap.String("decided_by", req.UserID),
	)
	s.publish(ctx, events.New(events.TypeGrantDecided, g.ID, req.UserID, map[string]any{
		"user_id": g.UserID,
		"status":  string(g.ApprovalStatus),
	}))
	return g, nil
}

// HandleGrantDecided applies a grant decision taken by any instance: the
// grantee's cached grants and grid sessions are dropped so the next fetch
// sees the new allow-list.
func (s *AccessGrantService) HandleGrantDecided(ctx context.Context, ev events.Event) error {
	userID, _ := ev.Payload["user_id"].(string)
	if userID == "" {
		return fmt.Errorf("grant decision %s carries no user_id", ev.EntityID)
	}
	s.forget(ctx, userID)
	return nil
}

func (s *AccessGrantService) forget(ctx context.Context, userID string) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, userID)
	}
	if s.sessions != nil {
		s.sessions.Drop(userID)
	}
}

func (s *AccessGrantService) publish(ctx context.Context, ev events.Event) {
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Warn("Failed to publish event", zap.String("event_type", ev.Type), zap.Error(err))
	}
}
