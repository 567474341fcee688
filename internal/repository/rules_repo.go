package repository

import (
	"context"

	"github.com/raviakasapu/generative-planner-vision-sub000/internal/domain"
)

// BusinessRulesRepository 业务规则 Repository 接口
type BusinessRulesRepository interface {
	ListRules(ctx context.Context, filter RulesFilter) ([]domain.BusinessRule, error)
	GetRule(ctx context.Context, id string) (*domain.BusinessRule, error)
	CreateRule(ctx context.Context, rule *domain.BusinessRule) (string, error)
	UpdateRule(ctx context.Context, rule *domain.BusinessRule) error
	DeleteRule(ctx context.Context, id string) error
}

// RulesFilter 规则查询过滤器
type RulesFilter struct {
	ActiveOnly    bool
	DimensionType domain.DimensionType // 可选
	RuleType      domain.RuleType      // 可选
}
