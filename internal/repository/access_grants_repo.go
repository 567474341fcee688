package repository

import (
	"context"

	"github.com/raviakasapu/generative-planner-vision-sub000/internal/domain"
)

// AccessGrantsRepository 维度授权 Repository 接口（user_dimension_access 表）
type AccessGrantsRepository interface {
	ListGrantsByUser(ctx context.Context, userID string) ([]domain.AccessGrant, error)
	ListGrants(ctx context.Context, filter AccessGrantsFilter, page, size int) ([]domain.AccessGrant, int, error)
	GetGrant(ctx context.Context, id string) (*domain.AccessGrant, error)
	CreateGrant(ctx context.Context, g *domain.AccessGrant) (string, error)
	// DecideGrant sets the approval status of a pending grant.
	DecideGrant(ctx context.Context, id string, status domain.ApprovalStatus, decidedBy string) (*domain.AccessGrant, error)
}

// AccessGrantsFilter 授权查询过滤器
type AccessGrantsFilter struct {
	UserID         string                // 可选
	DimensionType  domain.DimensionType  // 可选
	ApprovalStatus domain.ApprovalStatus // 可选
}
