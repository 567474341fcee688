package grid

import (
	"sort"
	"strconv"
	"strings"

	"github.com/raviakasapu/generative-planner-vision-sub000/internal/domain"
)

// DefaultPageSize is used when a page size of zero or less is requested.
const DefaultPageSize = 50

// Page 分页结果
type Page struct {
	Rows  []domain.JoinedRow `json:"-"`
	Total int                `json:"total"`
	Page  int                `json:"page"`
	Size  int                `json:"size"`
}

// Filter keeps the rows that pass every column filter.
// With no active filter the input slice is returned as is.
func Filter(rows []domain.JoinedRow, cols []ColumnConfig) []domain.JoinedRow {
	active := make([]ColumnConfig, 0, len(cols))
	for _, c := range cols {
		if c.hasFilter() {
			active = append(active, c)
		}
	}
	if len(active) == 0 {
		return rows
	}

	out := make([]domain.JoinedRow, 0, len(rows))
	for i := range rows {
		if passesAll(&rows[i], active) {
			out = append(out, rows[i])
		}
	}
	return out
}

func passesAll(row *domain.JoinedRow, cols []ColumnConfig) bool {
	for _, c := range cols {
		if !passes(row, c) {
			return false
		}
	}
	return true
}

func passes(row *domain.JoinedRow, c ColumnConfig) bool {
	text := strings.TrimSpace(c.FilterText)
	if !c.isMeasure() {
		return strings.Contains(strings.ToLower(Project(row, c).Value), strings.ToLower(text))
	}

	want, err := strconv.ParseFloat(text, 64)
	if err != nil {
		// non-numeric input does not filter
		return true
	}
	got := measureOf(row, c.Field)
	switch c.FilterOperator {
	case OpGt:
		return got > want
	case OpGte:
		return got >= want
	case OpLt:
		return got < want
	case OpLte:
		return got <= want
	}
	return got == want
}

// Sort orders rows by the first column with a sort order. Measures compare
// numerically, everything else case-insensitively on the rendered value.
// Ties fall back to the fact id. The input is not modified.
func Sort(rows []domain.JoinedRow, cols []ColumnConfig) []domain.JoinedRow {
	var (
		col   ColumnConfig
		found bool
	)
	for _, c := range cols {
		if c.SortOrder == SortAsc || c.SortOrder == SortDesc {
			col, found = c, true
			break
		}
	}
	if !found {
		return rows
	}

	out := make([]domain.JoinedRow, len(rows))
	copy(out, rows)
	desc := col.SortOrder == SortDesc

	if col.isMeasure() {
		sort.SliceStable(out, func(i, j int) bool {
			a, b := measureOf(&out[i], col.Field), measureOf(&out[j], col.Field)
			if a != b {
				return (a < b) != desc
			}
			return out[i].Fact.ID < out[j].Fact.ID
		})
		return out
	}

	type keyed struct {
		row domain.JoinedRow
		key string
	}
	ks := make([]keyed, len(out))
	for i := range out {
		ks[i] = keyed{row: out[i], key: strings.ToLower(Project(&out[i], col).Value)}
	}
	sort.SliceStable(ks, func(i, j int) bool {
		if ks[i].key != ks[j].key {
			return (ks[i].key < ks[j].key) != desc
		}
		return ks[i].row.Fact.ID < ks[j].row.Fact.ID
	})
	for i := range ks {
		out[i] = ks[i].row
	}
	return out
}

// Paginate returns the zero-based page of rows. A page past the end is empty.
func Paginate(rows []domain.JoinedRow, page, size int) []domain.JoinedRow {
	if size <= 0 {
		size = DefaultPageSize
	}
	if page < 0 || len(rows) == 0 || page > (len(rows)-1)/size {
		return []domain.JoinedRow{}
	}
	start := page * size
	end := start + size
	if end > len(rows) || end < start {
		end = len(rows)
	}
	return rows[start:end]
}

// Apply filters, sorts and pages rows.
func Apply(rows []domain.JoinedRow, cols []ColumnConfig, page, size int) Page {
	if size <= 0 {
		size = DefaultPageSize
	}
	refined := Sort(Filter(rows, cols), cols)
	return Page{
		Rows:  Paginate(refined, page, size),
		Total: len(refined),
		Page:  page,
		Size:  size,
	}
}

// Refine filters and sorts without paging, for exports.
func Refine(rows []domain.JoinedRow, cols []ColumnConfig) []domain.JoinedRow {
	return Sort(Filter(rows, cols), cols)
}
