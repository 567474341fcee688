package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/raviakasapu/generative-planner-vision-sub000/internal/domain"
)

// PostgresBusinessRulesRepository 业务规则 Repository 实现（business_rules 表）
type PostgresBusinessRulesRepository struct {
	db *sql.DB
}

func NewPostgresBusinessRulesRepository(db *sql.DB) *PostgresBusinessRulesRepository {
	return &PostgresBusinessRulesRepository{db: db}
}

var _ BusinessRulesRepository = (*PostgresBusinessRulesRepository)(nil)

const ruleColumns = `id::text, name, description, dimension_type, rule_type, definition, is_active, created_by, created_at, updated_at`

func scanRule(s rowScanner) (domain.BusinessRule, error) {
	var (
		rule                 domain.BusinessRule
		description, dimType sql.NullString
		ruleType             string
		definition           []byte
	)
	if err := s.Scan(&rule.ID, &rule.Name, &description, &dimType, &ruleType, &definition,
		&rule.IsActive, &rule.CreatedBy, &rule.CreatedAt, &rule.UpdatedAt); err != nil {
		return rule, err
	}
	rule.Description = nullStringPtr(description)
	if dimType.Valid && dimType.String != "" {
		t := domain.DimensionType(dimType.String)
		rule.DimensionType = &t
	}
	rule.RuleType = domain.RuleType(ruleType)
	if len(definition) == 0 {
		definition = []byte("{}")
	}
	rule.Definition = definition
	return rule, nil
}

func dimensionTypeArg(t *domain.DimensionType) any {
	if t == nil {
		return nil
	}
	return string(*t)
}

// ListRules 查询业务规则
func (r *PostgresBusinessRulesRepository) ListRules(ctx context.Context, filter RulesFilter) ([]domain.BusinessRule, error) {
	where := []string{}
	args := []any{}
	if filter.ActiveOnly {
		where = append(where, "is_active = TRUE")
	}
	if filter.DimensionType != "" {
		args = append(args, string(filter.DimensionType))
		where = append(where, fmt.Sprintf("dimension_type = $%d", len(args)))
	}
	if filter.RuleType != "" {
		args = append(args, string(filter.RuleType))
		where = append(where, fmt.Sprintf("rule_type = $%d", len(args)))
	}
	query := `SELECT ` + ruleColumns + ` FROM business_rules`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY name, id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query business rules: %w", err)
	}
	defer rows.Close()

	rules := []domain.BusinessRule{}
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan business rule: %w", err)
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return rules, nil
}

// GetRule 按 id 查询
func (r *PostgresBusinessRulesRepository) GetRule(ctx context.Context, id string) (*domain.BusinessRule, error) {
	rule, err := scanRule(r.db.QueryRowContext(ctx, `SELECT `+ruleColumns+` FROM business_rules WHERE id::text = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query business rule: %w", err)
	}
	return &rule, nil
}

// CreateRule 创建规则
func (r *PostgresBusinessRulesRepository) CreateRule(ctx context.Context, rule *domain.BusinessRule) (string, error) {
	var id string
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO business_rules (name, description, dimension_type, rule_type, definition, is_active, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING id::text
	`, rule.Name, ptrArg(rule.Description), dimensionTypeArg(rule.DimensionType), string(rule.RuleType),
		[]byte(rule.Definition), rule.IsActive, rule.CreatedBy).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to create business rule: %w", err)
	}
	return id, nil
}

// UpdateRule 更新规则
func (r *PostgresBusinessRulesRepository) UpdateRule(ctx context.Context, rule *domain.BusinessRule) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE business_rules
		SET name = $2, description = $3, dimension_type = $4, rule_type = $5, definition = $6, is_active = $7, updated_at = NOW()
		WHERE id::text = $1
	`, rule.ID, rule.Name, ptrArg(rule.Description), dimensionTypeArg(rule.DimensionType), string(rule.RuleType),
		[]byte(rule.Definition), rule.IsActive)
	if err != nil {
		return fmt.Errorf("failed to update business rule: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteRule 删除规则
func (r *PostgresBusinessRulesRepository) DeleteRule(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM business_rules WHERE id::text = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete business rule: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
