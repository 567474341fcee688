// Package grid turns joined fact rows into the planning grid: one display
// cell per configured column, then client-side filtering, sorting and paging.
package grid

import (
	"fmt"
	"strings"

	"github.com/raviakasapu/generative-planner-vision-sub000/internal/catalog"
	"github.com/raviakasapu/generative-planner-vision-sub000/internal/domain"
)

// ColumnKind 列类型
type ColumnKind string

const (
	KindDimension ColumnKind = "dimension"
	KindMeasure   ColumnKind = "measure"
	KindAttribute ColumnKind = "attribute"
)

// FilterOperator applies to measure columns only.
type FilterOperator string

const (
	OpEq  FilterOperator = "eq"
	OpGt  FilterOperator = "gt"
	OpGte FilterOperator = "gte"
	OpLt  FilterOperator = "lt"
	OpLte FilterOperator = "lte"
)

// SortOrder 排序方向，空字符串表示不排序
type SortOrder string

const (
	SortNone SortOrder = ""
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ColumnConfig is the client's per-column view state. It is never persisted.
type ColumnConfig struct {
	Field          string         `json:"field"`
	Kind           ColumnKind     `json:"kind"`
	Label          string         `json:"label,omitempty"`
	FilterText     string         `json:"filter_text,omitempty"`
	FilterOperator FilterOperator `json:"filter_operator,omitempty"`
	SortOrder      SortOrder      `json:"sort_order,omitempty"`
	SelectedColumn string         `json:"selected_column,omitempty"`
}

// isMeasure reports whether the column holds a fact measure.
func (c ColumnConfig) isMeasure() bool {
	return c.Kind == KindMeasure || domain.IsMeasureField(c.Field)
}

// hasFilter reports whether the column carries a non-blank filter.
func (c ColumnConfig) hasFilter() bool {
	return strings.TrimSpace(c.FilterText) != ""
}

// Validate checks the parts of a column the server relies on.
func (c ColumnConfig) Validate() error {
	if strings.TrimSpace(c.Field) == "" {
		return fmt.Errorf("column field is required")
	}
	switch c.Kind {
	case "", KindDimension, KindMeasure, KindAttribute:
	default:
		return fmt.Errorf("unknown column kind: %s", c.Kind)
	}
	switch c.FilterOperator {
	case "", OpEq, OpGt, OpGte, OpLt, OpLte:
	default:
		return fmt.Errorf("unknown filter operator: %s", c.FilterOperator)
	}
	switch c.SortOrder {
	case SortNone, SortAsc, SortDesc:
	default:
		return fmt.Errorf("unknown sort order: %s", c.SortOrder)
	}
	if c.Kind == KindMeasure && !domain.IsMeasureField(c.Field) {
		return fmt.Errorf("%s is not a measure", c.Field)
	}
	if c.Kind == KindDimension || c.Kind == KindAttribute {
		if _, ok := catalog.Resolve(c.Field); !ok {
			return fmt.Errorf("%s is not a dimension column", c.Field)
		}
	}
	return nil
}

// DefaultColumns is the grid layout used when the client sends none:
// every dimension by business id followed by both measures.
func DefaultColumns() []ColumnConfig {
	cols := []ColumnConfig{}
	for _, e := range catalog.Entries() {
		cols = append(cols, ColumnConfig{Field: e.Field, Kind: KindDimension, Label: e.Label})
	}
	return append(cols,
		ColumnConfig{Field: domain.MeasureField1, Kind: KindMeasure, Label: "Measure 1"},
		ColumnConfig{Field: domain.MeasureField2, Kind: KindMeasure, Label: "Measure 2"},
	)
}

// Header returns the column's display label.
func (c ColumnConfig) Header() string {
	if c.Label != "" {
		return c.Label
	}
	if r, ok := catalog.Resolve(c.Field); ok {
		if r.IsAttribute {
			return r.Entry.Label + " " + humanize(r.Attribute)
		}
		return r.Entry.Label
	}
	return humanize(c.Field)
}

// humanize turns "sales_region" into "Sales Region".
func humanize(s string) string {
	parts := strings.Split(s, "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}
