package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/raviakasapu/generative-planner-vision-sub000/common/database"
	"github.com/raviakasapu/generative-planner-vision-sub000/internal/domain"
)

// PostgresVersionsRepository 版本 Repository 实现（masterversiondimension + version_status_history + copy_version_data）
type PostgresVersionsRepository struct {
	db *sql.DB
}

func NewPostgresVersionsRepository(db *sql.DB) *PostgresVersionsRepository {
	return &PostgresVersionsRepository{db: db}
}

var _ VersionsRepository = (*PostgresVersionsRepository)(nil)

// CreateVersion 创建版本并复制基准版本数据（同一事务）
func (r *PostgresVersionsRepository) CreateVersion(ctx context.Context, m *domain.DimensionMember, baseVersionID *string) (string, int, error) {
	e, err := entryFor(domain.DimensionVersion)
	if err != nil {
		return "", 0, err
	}
	attrs, err := marshalAttributes(m.Attributes)
	if err != nil {
		return "", 0, fmt.Errorf("invalid attributes: %w", err)
	}

	var (
		id     string
		copied int
	)
	err = database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		query := fmt.Sprintf(`
			INSERT INTO %s (%s, description, attributes, created_at, updated_at)
			VALUES ($1, $2, $3, NOW(), NOW())
			RETURNING id::text
		`, e.Table, e.BusinessIDField)
		if err := tx.QueryRowContext(ctx, query, m.BusinessID, ptrArg(m.Description), attrs).Scan(&id); err != nil {
			return fmt.Errorf("failed to create version: %w", err)
		}
		if baseVersionID == nil {
			return nil
		}
		n, err := copyVersionData(ctx, tx, *baseVersionID, id)
		if err != nil {
			return err
		}
		copied = n
		return nil
	})
	if err != nil {
		return "", 0, err
	}
	return id, copied, nil
}

// ApplyStatusChange 更新版本状态并写入审计记录（同一事务，按原状态加条件）
func (r *PostgresVersionsRepository) ApplyStatusChange(ctx context.Context, c *domain.VersionStatusChange) (string, error) {
	e, err := entryFor(domain.DimensionVersion)
	if err != nil {
		return "", err
	}

	var id string
	err = database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		// 缺省状态视为 draft，与 domain.VersionFromMember 一致
		query := fmt.Sprintf(`
			UPDATE %s
			SET attributes = jsonb_set(attributes, '{%s}', to_jsonb($2::text)), updated_at = NOW()
			WHERE id::text = $1 AND COALESCE(attributes->>'%s', '%s') = $3
		`, e.Table, domain.AttrVersionStatus, domain.AttrVersionStatus, domain.VersionDraft)
		res, err := tx.ExecContext(ctx, query, c.VersionID, string(c.ToStatus), string(c.FromStatus))
		if err != nil {
			return fmt.Errorf("failed to update version status: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to update version status: %w", err)
		}
		if affected == 0 {
			return ErrStatusConflict
		}

		if err := tx.QueryRowContext(ctx, `
			INSERT INTO version_status_history (version_id, from_status, to_status, changed_by, comment, changed_at)
			VALUES ($1, $2, $3, $4, $5, NOW())
			RETURNING id::text
		`, c.VersionID, string(c.FromStatus), string(c.ToStatus), c.ChangedBy, ptrArg(c.Comment)).Scan(&id); err != nil {
			return fmt.Errorf("failed to record version status change: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// ListStatusChanges 查询版本状态历史（按时间升序）
func (r *PostgresVersionsRepository) ListStatusChanges(ctx context.Context, versionID string) ([]domain.VersionStatusChange, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id::text, version_id::text, from_status, to_status, changed_by, comment, changed_at
		FROM version_status_history
		WHERE version_id::text = $1
		ORDER BY changed_at, id
	`, versionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query version history: %w", err)
	}
	defer rows.Close()

	changes := []domain.VersionStatusChange{}
	for rows.Next() {
		var (
			c        domain.VersionStatusChange
			from, to string
			comment  sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.VersionID, &from, &to, &c.ChangedBy, &comment, &c.ChangedAt); err != nil {
			return nil, fmt.Errorf("failed to scan version history: %w", err)
		}
		c.FromStatus = domain.VersionStatus(from)
		c.ToStatus = domain.VersionStatus(to)
		c.Comment = nullStringPtr(comment)
		changes = append(changes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return changes, nil
}

// copyVersionData 调用 copy_version_data 存储过程
func copyVersionData(ctx context.Context, tx *sql.Tx, sourceVersionID, targetVersionID string) (int, error) {
	var n int
	if err := tx.QueryRowContext(ctx, `SELECT copy_version_data($1, $2)`, sourceVersionID, targetVersionID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to copy version data: %w", err)
	}
	return n, nil
}
