package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/raviakasapu/generative-planner-vision-sub000/internal/domain"
)

// PostgresAccessGrantsRepository 维度授权 Repository 实现
type PostgresAccessGrantsRepository struct {
	db *sql.DB
}

// NewPostgresAccessGrantsRepository 创建授权 Repository
func NewPostgresAccessGrantsRepository(db *sql.DB) *PostgresAccessGrantsRepository {
	return &PostgresAccessGrantsRepository{db: db}
}

var _ AccessGrantsRepository = (*PostgresAccessGrantsRepository)(nil)

const grantColumns = `
	id::text,
	user_id,
	dimension_type,
	dimension_member_id::text,
	access_level,
	approval_status,
	requested_by,
	decided_by,
	created_at,
	decided_at
`

func scanGrant(s rowScanner) (domain.AccessGrant, error) {
	var (
		g                      domain.AccessGrant
		dimType, level, status string
		requestedBy, decidedBy sql.NullString
		decidedAt              sql.NullTime
	)
	err := s.Scan(&g.ID, &g.UserID, &dimType, &g.DimensionMemberID, &level, &status,
		&requestedBy, &decidedBy, &g.CreatedAt, &decidedAt)
	if err != nil {
		return g, err
	}
	g.DimensionType = domain.DimensionType(dimType)
	g.AccessLevel = domain.AccessLevel(level)
	g.ApprovalStatus = domain.ApprovalStatus(status)
	g.RequestedBy = nullStringPtr(requestedBy)
	g.DecidedBy = nullStringPtr(decidedBy)
	g.DecidedAt = nullTimePtr(decidedAt)
	return g, nil
}

// ListGrantsByUser 查询用户的全部授权（任意审批状态）
func (r *PostgresAccessGrantsRepository) ListGrantsByUser(ctx context.Context, userID string) ([]domain.AccessGrant, error) {
	if userID == "" {
		return nil, fmt.Errorf("user_id is required")
	}
	query := `SELECT ` + grantColumns + ` FROM user_dimension_access WHERE user_id = $1 ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query access grants: %w", err)
	}
	defer rows.Close()

	grants := []domain.AccessGrant{}
	for rows.Next() {
		g, err := scanGrant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan access grant: %w", err)
		}
		grants = append(grants, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read access grants: %w", err)
	}
	return grants, nil
}

// ListGrants 查询授权列表（管理端）
func (r *PostgresAccessGrantsRepository) ListGrants(ctx context.Context, filter AccessGrantsFilter, page, size int) ([]domain.AccessGrant, int, error) {
	page, size = normalizePage(page, size, 100)

	where := []string{}
	args := []any{}
	if filter.UserID != "" {
		args = append(args, filter.UserID)
		where = append(where, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if filter.DimensionType != "" {
		args = append(args, string(filter.DimensionType))
		where = append(where, fmt.Sprintf("dimension_type = $%d", len(args)))
	}
	if filter.ApprovalStatus != "" {
		args = append(args, string(filter.ApprovalStatus))
		where = append(where, fmt.Sprintf("approval_status = $%d", len(args)))
	}
	whereClause := ""
	if len(where) > 0 {
		whereClause = "WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM user_dimension_access `+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count access grants: %w", err)
	}

	offset, end := pageBounds(total, page, size)
	if offset == end {
		return []domain.AccessGrant{}, total, nil
	}
	args = append(args, size, offset)
	query := fmt.Sprintf(`SELECT %s FROM user_dimension_access %s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`,
		grantColumns, whereClause, len(args)-1, len(args))
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list access grants: %w", err)
	}
	defer rows.Close()

	grants := []domain.AccessGrant{}
	for rows.Next() {
		g, err := scanGrant(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan access grant: %w", err)
		}
		grants = append(grants, g)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return grants, total, nil
}

// GetGrant 按 id 查询授权
func (r *PostgresAccessGrantsRepository) GetGrant(ctx context.Context, id string) (*domain.AccessGrant, error) {
	g, err := scanGrant(r.db.QueryRowContext(ctx, `SELECT `+grantColumns+` FROM user_dimension_access WHERE id::text = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query access grant: %w", err)
	}
	return &g, nil
}

// CreateGrant 创建授权申请
func (r *PostgresAccessGrantsRepository) CreateGrant(ctx context.Context, g *domain.AccessGrant) (string, error) {
	status := g.ApprovalStatus
	if status == "" {
		status = domain.ApprovalPending
	}
	var id string
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO user_dimension_access (
			user_id, dimension_type, dimension_member_id, access_level, approval_status, requested_by, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING id::text
	`, g.UserID, string(g.DimensionType), g.DimensionMemberID, string(g.AccessLevel), string(status), ptrArg(g.RequestedBy)).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to create access grant: %w", err)
	}
	return id, nil
}

// DecideGrant 审批授权（只处理 pending 状态的记录）
func (r *PostgresAccessGrantsRepository) DecideGrant(ctx context.Context, id string, status domain.ApprovalStatus, decidedBy string) (*domain.AccessGrant, error) {
	query := `
		UPDATE user_dimension_access
		SET approval_status = $2, decided_by = $3, decided_at = NOW()
		WHERE id::text = $1 AND approval_status = 'pending'
		RETURNING ` + grantColumns
	g, err := scanGrant(r.db.QueryRowContext(ctx, query, id, string(status), decidedBy))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to decide access grant: %w", err)
	}
	return &g, nil
}
