package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/raviakasapu/generative-planner-vision-sub000/internal/catalog"
	"github.com/raviakasapu/generative-planner-vision-sub000/internal/domain"

	"github.com/lib/pq"
)

// PostgresFactsRepository 计划数据 Repository 实现（planned_data 表）
// Dimension tables are joined under their own names so ordering can use the
// "<table>.<column>" path directly.
type PostgresFactsRepository struct {
	db *sql.DB
}

// NewPostgresFactsRepository 创建计划数据 Repository
func NewPostgresFactsRepository(db *sql.DB) *PostgresFactsRepository {
	return &PostgresFactsRepository{db: db}
}

var _ FactsRepository = (*PostgresFactsRepository)(nil)

var identPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

func factColumns() []string {
	cols := []string{"f.id::text"}
	for _, e := range catalog.Entries() {
		cols = append(cols, "f."+e.Field+"::text")
	}
	return append(cols, "f.measure1", "f.measure2", "f.owner_user_id", "f.created_at", "f.updated_at")
}

// factScanTargets returns scan destinations for factColumns and a func that
// copies them into f once scanned.
func factScanTargets(f *domain.FactRow) ([]any, func()) {
	entries := catalog.Entries()
	keys := make([]sql.NullString, len(entries))
	var m1, m2 sql.NullFloat64

	dest := []any{&f.ID}
	for i := range keys {
		dest = append(dest, &keys[i])
	}
	dest = append(dest, &m1, &m2, &f.OwnerUserID, &f.CreatedAt, &f.UpdatedAt)

	return dest, func() {
		for i, e := range entries {
			f.SetKey(e.Type, nullStringPtr(keys[i]))
		}
		f.Measure1 = nullFloatPtr(m1)
		f.Measure2 = nullFloatPtr(m2)
	}
}

type joinedMemberScan struct {
	id, businessID, description sql.NullString
	attrs                       []byte
	createdAt, updatedAt        sql.NullTime
}

func (s *joinedMemberScan) member(t domain.DimensionType) *domain.DimensionMember {
	if !s.id.Valid {
		return nil
	}
	m := &domain.DimensionMember{
		ID:          s.id.String,
		Type:        t,
		BusinessID:  s.businessID.String,
		Description: nullStringPtr(s.description),
		Attributes:  unmarshalAttributes(s.attrs),
	}
	if s.createdAt.Valid {
		m.CreatedAt = s.createdAt.Time
	}
	if s.updatedAt.Valid {
		m.UpdatedAt = s.updatedAt.Time
	}
	return m
}

func orderExpr(term OrderTerm) (string, error) {
	dir := " ASC"
	if term.Desc {
		dir = " DESC"
	}
	if term.Dimension == "" {
		if !IsFactOrderColumn(term.Column) {
			return "", fmt.Errorf("cannot order by fact column %q", term.Column)
		}
		return "f." + term.Column + dir, nil
	}
	e, ok := catalog.Lookup(term.Dimension)
	if !ok {
		return "", fmt.Errorf("unknown dimension type: %s", term.Dimension)
	}
	if !identPattern.MatchString(term.Column) {
		return "", fmt.Errorf("invalid order column %q", term.Column)
	}
	if term.Column == e.BusinessIDField || term.Column == "description" {
		return e.Path(term.Column) + dir, nil
	}
	return fmt.Sprintf("%s.attributes->>'%s'%s", e.Table, term.Column, dir), nil
}

// buildJoinedQuery assembles the joined select for q.
func buildJoinedQuery(q FactQuery) (string, []any, error) {
	entries := catalog.Entries()

	cols := factColumns()
	joins := make([]string, 0, len(entries))
	for _, e := range entries {
		cols = append(cols,
			e.Table+".id::text",
			e.Path(e.BusinessIDField),
			e.Table+".description",
			e.Table+".attributes",
			e.Table+".created_at",
			e.Table+".updated_at",
		)
		joins = append(joins, fmt.Sprintf("LEFT JOIN %s ON %s.id = f.%s", e.Table, e.Table, e.Field))
	}

	where := []string{}
	args := []any{}
	for _, e := range entries {
		ids, ok := q.Constraints[e.Type]
		if !ok {
			continue
		}
		if ids == nil {
			ids = []string{}
		}
		args = append(args, pq.Array(ids))
		where = append(where, fmt.Sprintf("(f.%s IS NULL OR f.%s::text = ANY($%d))", e.Field, e.Field, len(args)))
	}

	order := make([]string, 0, len(q.OrderBy)+2)
	for _, term := range q.OrderBy {
		expr, err := orderExpr(term)
		if err != nil {
			return "", nil, err
		}
		order = append(order, expr)
	}
	if len(order) == 0 {
		order = append(order, "f.created_at ASC")
	}
	order = append(order, "f.id ASC")

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(cols, ", "))
	sb.WriteString(" FROM planned_data f ")
	sb.WriteString(strings.Join(joins, " "))
	if len(where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(where, " AND "))
	}
	sb.WriteString(" ORDER BY ")
	sb.WriteString(strings.Join(order, ", "))
	return sb.String(), args, nil
}

// ListJoined 查询计划数据并关联所有维度
func (r *PostgresFactsRepository) ListJoined(ctx context.Context, q FactQuery) ([]domain.JoinedRow, error) {
	query, args, err := buildJoinedQuery(q)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query planned data: %w", err)
	}
	defer rows.Close()

	entries := catalog.Entries()
	out := []domain.JoinedRow{}
	for rows.Next() {
		var row domain.JoinedRow
		dest, finish := factScanTargets(&row.Fact)
		members := make([]joinedMemberScan, len(entries))
		for i := range members {
			m := &members[i]
			dest = append(dest, &m.id, &m.businessID, &m.description, &m.attrs, &m.createdAt, &m.updatedAt)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan planned data: %w", err)
		}
		finish()

		row.Dimensions = make(map[domain.DimensionType]*domain.DimensionMember, len(entries))
		for i, e := range entries {
			if m := members[i].member(e.Type); m != nil {
				row.Dimensions[e.Type] = m
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read planned data: %w", err)
	}
	return out, nil
}

// GetFact 按 id 查询单行
func (r *PostgresFactsRepository) GetFact(ctx context.Context, id string) (*domain.FactRow, error) {
	query := `SELECT ` + strings.Join(factColumns(), ", ") + ` FROM planned_data f WHERE f.id::text = $1`
	var f domain.FactRow
	dest, finish := factScanTargets(&f)
	if err := r.db.QueryRowContext(ctx, query, id).Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query planned data row: %w", err)
	}
	finish()
	return &f, nil
}

// CreateFact 插入一行计划数据
func (r *PostgresFactsRepository) CreateFact(ctx context.Context, f *domain.FactRow) (string, error) {
	entries := catalog.Entries()
	cols := make([]string, 0, len(entries)+3)
	placeholders := make([]string, 0, len(entries)+3)
	args := make([]any, 0, len(entries)+3)
	for _, e := range entries {
		cols = append(cols, e.Field)
		args = append(args, ptrArg(f.Key(e.Type)))
		placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
	}
	for _, v := range []any{floatArg(f.Measure1), floatArg(f.Measure2), f.OwnerUserID} {
		args = append(args, v)
		placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
	}
	cols = append(cols, "measure1", "measure2", "owner_user_id")

	query := fmt.Sprintf(`INSERT INTO planned_data (%s, created_at, updated_at) VALUES (%s, NOW(), NOW()) RETURNING id::text`,
		strings.Join(cols, ", "), strings.Join(placeholders, ", "))

	var id string
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return "", fmt.Errorf("failed to insert planned data: %w", err)
	}
	return id, nil
}

// UpdateMeasure 更新单个度量值并返回更新后的行
func (r *PostgresFactsRepository) UpdateMeasure(ctx context.Context, id, field string, value *float64) (*domain.FactRow, error) {
	if !domain.IsMeasureField(field) {
		return nil, fmt.Errorf("invalid measure field: %s", field)
	}
	query := fmt.Sprintf(`UPDATE planned_data f SET %s = $2, updated_at = NOW() WHERE f.id::text = $1 RETURNING %s`,
		field, strings.Join(factColumns(), ", "))

	var f domain.FactRow
	dest, finish := factScanTargets(&f)
	if err := r.db.QueryRowContext(ctx, query, id, floatArg(value)).Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update planned data: %w", err)
	}
	finish()
	return &f, nil
}
