package repository

import (
	"context"

	"github.com/raviakasapu/generative-planner-vision-sub000/internal/domain"
)

// FactsRepository 计划数据 Repository 接口
type FactsRepository interface {
	// ListJoined returns fact rows with every dimension member joined inline,
	// restricted by q.Constraints and ordered by q.OrderBy (fact id last).
	ListJoined(ctx context.Context, q FactQuery) ([]domain.JoinedRow, error)
	GetFact(ctx context.Context, id string) (*domain.FactRow, error)
	CreateFact(ctx context.Context, f *domain.FactRow) (string, error)
	// UpdateMeasure writes one measure and returns the stored row.
	UpdateMeasure(ctx context.Context, id, field string, value *float64) (*domain.FactRow, error)
}

// FactQuery describes one joined fetch.
type FactQuery struct {
	// Constraints maps a dimension type to the member ids a row's key must be
	// in. A present type with an empty slice only admits rows whose key is null.
	Constraints map[domain.DimensionType][]string
	OrderBy     []OrderTerm
}

// OrderTerm orders by a fact column (Dimension empty) or by an attribute of a joined dimension.
type OrderTerm struct {
	Dimension domain.DimensionType
	Column    string
	Desc      bool
}

// factOrderColumns are the fact columns that may be ordered on.
var factOrderColumns = map[string]bool{
	"measure1":      true,
	"measure2":      true,
	"created_at":    true,
	"updated_at":    true,
	"owner_user_id": true,
}

// IsFactOrderColumn reports whether column can be used in an OrderTerm without a dimension.
func IsFactOrderColumn(column string) bool {
	return factOrderColumns[column]
}
