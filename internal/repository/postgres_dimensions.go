package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/raviakasapu/generative-planner-vision-sub000/internal/catalog"
	"github.com/raviakasapu/generative-planner-vision-sub000/internal/domain"
)

// PostgresDimensionsRepository 维度主数据 Repository 实现
// Every master table shares one layout:
// id uuid, <business id column> text, description text, attributes jsonb, created_at, updated_at.
type PostgresDimensionsRepository struct {
	db *sql.DB
}

// NewPostgresDimensionsRepository 创建维度 Repository
func NewPostgresDimensionsRepository(db *sql.DB) *PostgresDimensionsRepository {
	return &PostgresDimensionsRepository{db: db}
}

// 确保实现了接口
var _ DimensionsRepository = (*PostgresDimensionsRepository)(nil)

func entryFor(t domain.DimensionType) (catalog.Entry, error) {
	e, ok := catalog.Lookup(t)
	if !ok {
		return catalog.Entry{}, fmt.Errorf("unknown dimension type: %s", t)
	}
	return e, nil
}

func memberColumns(e catalog.Entry) string {
	return fmt.Sprintf(`id::text, %s, description, attributes, created_at, updated_at`, e.BusinessIDField)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMember(s rowScanner, t domain.DimensionType) (*domain.DimensionMember, error) {
	var (
		m           domain.DimensionMember
		description sql.NullString
		attrs       []byte
	)
	if err := s.Scan(&m.ID, &m.BusinessID, &description, &attrs, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	m.Type = t
	m.Description = nullStringPtr(description)
	m.Attributes = unmarshalAttributes(attrs)
	return &m, nil
}

// GetMember 按 id 查询维度成员
func (r *PostgresDimensionsRepository) GetMember(ctx context.Context, t domain.DimensionType, id string) (*domain.DimensionMember, error) {
	e, err := entryFor(t)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id::text = $1`, memberColumns(e), e.Table)
	m, err := scanMember(r.db.QueryRowContext(ctx, query, id), t)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query %s member: %w", t, err)
	}
	return m, nil
}

// GetMemberByBusinessID 按业务标识查询（用于唯一性校验）
func (r *PostgresDimensionsRepository) GetMemberByBusinessID(ctx context.Context, t domain.DimensionType, businessID string) (*domain.DimensionMember, error) {
	e, err := entryFor(t)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 ORDER BY created_at LIMIT 1`, memberColumns(e), e.Table, e.BusinessIDField)
	m, err := scanMember(r.db.QueryRowContext(ctx, query, businessID), t)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query %s member by business id: %w", t, err)
	}
	return m, nil
}

// ListMembers 查询维度成员列表（支持模糊搜索和分页）
func (r *PostgresDimensionsRepository) ListMembers(ctx context.Context, t domain.DimensionType, filter DimensionFilter, page, size int) ([]*domain.DimensionMember, int, error) {
	e, err := entryFor(t)
	if err != nil {
		return nil, 0, err
	}
	page, size = normalizePage(page, size, 100)

	whereClause := ""
	args := []any{}
	if s := strings.TrimSpace(filter.Search); s != "" {
		args = append(args, "%"+s+"%")
		whereClause = fmt.Sprintf(`WHERE %s ILIKE $1 OR description ILIKE $1`, e.BusinessIDField)
	}

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s %s`, e.Table, whereClause)
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count %s members: %w", t, err)
	}

	offset, end := pageBounds(total, page, size)
	if offset == end {
		return []*domain.DimensionMember{}, total, nil
	}
	args = append(args, size, offset)
	query := fmt.Sprintf(`SELECT %s FROM %s %s ORDER BY %s, id LIMIT $%d OFFSET $%d`,
		memberColumns(e), e.Table, whereClause, e.BusinessIDField, len(args)-1, len(args))
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list %s members: %w", t, err)
	}
	defer rows.Close()

	members := []*domain.DimensionMember{}
	for rows.Next() {
		m, err := scanMember(rows, t)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan %s member: %w", t, err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return members, total, nil
}

// CreateMember 创建维度成员，返回新 id
func (r *PostgresDimensionsRepository) CreateMember(ctx context.Context, m *domain.DimensionMember) (string, error) {
	e, err := entryFor(m.Type)
	if err != nil {
		return "", err
	}
	attrs, err := marshalAttributes(m.Attributes)
	if err != nil {
		return "", fmt.Errorf("invalid attributes: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (%s, description, attributes, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING id::text
	`, e.Table, e.BusinessIDField)

	var id string
	if err := r.db.QueryRowContext(ctx, query, m.BusinessID, ptrArg(m.Description), attrs).Scan(&id); err != nil {
		return "", fmt.Errorf("failed to create %s member: %w", m.Type, err)
	}
	return id, nil
}

// UpdateMember 更新维度成员（business id / description / attributes）
func (r *PostgresDimensionsRepository) UpdateMember(ctx context.Context, m *domain.DimensionMember) error {
	e, err := entryFor(m.Type)
	if err != nil {
		return err
	}
	if m.ID == "" {
		return fmt.Errorf("member id is required")
	}
	attrs, err := marshalAttributes(m.Attributes)
	if err != nil {
		return fmt.Errorf("invalid attributes: %w", err)
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, description = $3, attributes = $4, updated_at = $5
		WHERE id::text = $1
	`, e.Table, e.BusinessIDField)
	res, err := r.db.ExecContext(ctx, query, m.ID, m.BusinessID, ptrArg(m.Description), attrs, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update %s member: %w", m.Type, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
