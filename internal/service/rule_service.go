package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/raviakasapu/generative-planner-vision-sub000/internal/domain"
	"github.com/raviakasapu/generative-planner-vision-sub000/internal/repository"

	"go.uber.org/zap"
)

// RuleService 业务规则服务
type RuleService struct {
	rules  repository.BusinessRulesRepository
	logger *zap.Logger
}

// NewRuleService 创建业务规则服务
func NewRuleService(rules repository.BusinessRulesRepository, logger *zap.Logger) *RuleService {
	return &RuleService{rules: rules, logger: logger}
}

// ListRulesRequest 规则列表请求
type ListRulesRequest struct {
	ActiveOnly    bool
	DimensionType string
	RuleType      string
}

// ListRules 查询业务规则
func (s *RuleService) ListRules(ctx context.Context, req ListRulesRequest) ([]domain.BusinessRule, error) {
	filter := repository.RulesFilter{ActiveOnly: req.ActiveOnly}
	if req.DimensionType != "" {
		t, err := domain.ParseDimensionType(req.DimensionType)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		filter.DimensionType = t
	}
	if req.RuleType != "" {
		rt := domain.RuleType(strings.ToLower(req.RuleType))
		if !rt.Valid() {
			return nil, fmt.Errorf("%w: unknown rule type %q", ErrInvalidRequest, req.RuleType)
		}
		filter.RuleType = rt
	}
	rules, err := s.rules.ListRules(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list business rules: %w", err)
	}
	return rules, nil
}

// GetRule 查询业务规则
func (s *RuleService) GetRule(ctx context.Context, id string) (*domain.BusinessRule, error) {
	rule, err := s.rules.GetRule(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: business rule %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get business rule: %w", err)
	}
	return rule, nil
}

// SaveRuleRequest 创建/更新规则请求
type SaveRuleRequest struct {
	UserID        string
	ID            string          // 更新时必填
	Name          string          `validate:"required,max=200"`
	Description   *string         `validate:"omitempty,max=1000"`
	DimensionType *string         `validate:"omitempty,dimension_type"`
	RuleType      string          `validate:"required,oneof=validation calculation allocation"`
	Definition    json.RawMessage `validate:"json_object"`
	IsActive      *bool
}

func (r *SaveRuleRequest) toRule() *domain.BusinessRule {
	rule := &domain.BusinessRule{
		ID:          r.ID,
		Name:        strings.TrimSpace(r.Name),
		Description: r.Description,
		RuleType:    domain.RuleType(r.RuleType),
		Definition:  r.Definition,
		IsActive:    true,
		CreatedBy:   r.UserID,
	}
	if r.DimensionType != nil && *r.DimensionType != "" {
		t, _ := domain.ParseDimensionType(*r.DimensionType)
		rule.DimensionType = &t
	}
	if r.IsActive != nil {
		rule.IsActive = *r.IsActive
	}
	return rule
}

// CreateRule 创建业务规则
func (s *RuleService) CreateRule(ctx context.Context, req SaveRuleRequest) (string, error) {
	req.RuleType = strings.ToLower(strings.TrimSpace(req.RuleType))
	if err := validateStruct(req); err != nil {
		return "", err
	}
	id, err := s.rules.CreateRule(ctx, req.toRule())
	if err != nil {
		return "", fmt.Errorf("failed to create business rule: %w", err)
	}
	s.logger.Info("Created business rule", zap.String("rule_id", id), zap.String("name", req.Name))
	return id, nil
}

// UpdateRule 更新业务规则
func (s *RuleService) UpdateRule(ctx context.Context, req SaveRuleRequest) (*domain.BusinessRule, error) {
	if req.ID == "" {
		return nil, fmt.Errorf("%w: rule id is required", ErrInvalidRequest)
	}
	req.RuleType = strings.ToLower(strings.TrimSpace(req.RuleType))
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if err := s.rules.UpdateRule(ctx, req.toRule()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: business rule %s", ErrNotFound, req.ID)
		}
		return nil, fmt.Errorf("failed to update business rule: %w", err)
	}
	return s.GetRule(ctx, req.ID)
}

// DeleteRule 删除业务规则
func (s *RuleService) DeleteRule(ctx context.Context, id string) error {
	if err := s.rules.DeleteRule(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: business rule %s", ErrNotFound, id)
		}
		return fmt.Errorf("failed to delete business rule: %w", err)
	}
	return nil
}
