package repository

import (
	"context"

	"github.com/raviakasapu/generative-planner-vision-sub000/internal/domain"
)

// DimensionsRepository 维度主数据 Repository 接口
// One implementation covers every master dimension table; the catalog
// decides which table a type lives in.
type DimensionsRepository interface {
	GetMember(ctx context.Context, t domain.DimensionType, id string) (*domain.DimensionMember, error)
	GetMemberByBusinessID(ctx context.Context, t domain.DimensionType, businessID string) (*domain.DimensionMember, error)
	ListMembers(ctx context.Context, t domain.DimensionType, filter DimensionFilter, page, size int) ([]*domain.DimensionMember, int, error)
	CreateMember(ctx context.Context, m *domain.DimensionMember) (string, error)
	UpdateMember(ctx context.Context, m *domain.DimensionMember) error
}

// DimensionFilter 维度查询过滤器
type DimensionFilter struct {
	Search string // 可选，business id / description 模糊匹配
}
