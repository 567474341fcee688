package grid

import (
	"fmt"
	"strconv"
	"time"

	"github.com/raviakasapu/generative-planner-vision-sub000/internal/catalog"
	"github.com/raviakasapu/generative-planner-vision-sub000/internal/domain"
)

// NotAvailable is rendered for a dimension column whose member is absent,
// either missing from master data or filtered away by access control.
const NotAvailable = "N/A"

// AttributePair is one line of a cell's hover detail.
type AttributePair struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Cell 单元格显示值
type Cell struct {
	Value      string          `json:"value"`
	Attributes []AttributePair `json:"attributes,omitempty"`
}

// Project renders one column of row.
//
// Measures render "0" when unset. Dimension and attribute columns render
// NotAvailable when the member is absent, and "" when the member exists but
// has no value for the selected attribute.
func Project(row *domain.JoinedRow, col ColumnConfig) Cell {
	if col.isMeasure() {
		return Cell{Value: formatMeasure(measureOf(row, col.Field))}
	}
	if res, ok := catalog.Resolve(col.Field); ok {
		return projectDimension(row, col, res)
	}
	return Cell{Value: factField(&row.Fact, col.Field)}
}

// ProjectRow renders every column of row, in order.
func ProjectRow(row *domain.JoinedRow, cols []ColumnConfig) []Cell {
	cells := make([]Cell, len(cols))
	for i, c := range cols {
		cells[i] = Project(row, c)
	}
	return cells
}

func projectDimension(row *domain.JoinedRow, col ColumnConfig, res catalog.Resolution) Cell {
	m := row.Member(res.Entry.Type)
	if m == nil {
		return Cell{Value: NotAvailable}
	}
	attr := res.Attribute
	if col.SelectedColumn != "" {
		attr = col.SelectedColumn
	}

	cell := Cell{}
	if v, ok := m.Attribute(attr, res.Entry.BusinessIDField); ok {
		cell.Value = formatValue(v)
	}
	for _, a := range res.Entry.Attributes {
		v, ok := m.Attribute(a, res.Entry.BusinessIDField)
		if !ok {
			continue
		}
		s := formatValue(v)
		if s == "" {
			continue
		}
		cell.Attributes = append(cell.Attributes, AttributePair{Label: humanize(a), Value: s})
	}
	return cell
}

// measureOf returns the numeric value of a measure field, 0 when unset.
func measureOf(row *domain.JoinedRow, field string) float64 {
	v, _ := row.Fact.Measure(field)
	if v == nil {
		return 0
	}
	return *v
}

func formatMeasure(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		return val.Format(time.RFC3339)
	}
	return fmt.Sprint(v)
}

func factField(f *domain.FactRow, field string) string {
	switch field {
	case "id":
		return f.ID
	case "owner_user_id":
		return f.OwnerUserID
	case "created_at":
		return formatValue(f.CreatedAt)
	case "updated_at":
		return formatValue(f.UpdatedAt)
	}
	return ""
}
