package grid

import (
	"math"
	"testing"

	"github.com/raviakasapu/generative-planner-vision-sub000/internal/domain"

	"github.com/stretchr/testify/assert"
)

func sampleRows() []domain.JoinedRow {
	return []domain.JoinedRow{
		joined("a", product("p1", "Laptop", map[string]any{"category": "Electronics"}), floatPtr(150)),
		joined("b", product("p2", "shirt", map[string]any{"category": "Apparel"}), floatPtr(50)),
		joined("c", nil, floatPtr(100)),
		joined("d", product("p3", "Phone", map[string]any{"category": "electronics"}), nil),
	}
}

func TestFilter_IdentityWithoutFilters(t *testing.T) {
	rows := sampleRows()
	cols := []ColumnConfig{
		{Field: "dimension1_id", Kind: KindDimension},
		{Field: "measure1", Kind: KindMeasure, FilterText: "   ", FilterOperator: OpGt},
	}
	assert.Equal(t, rows, Filter(rows, cols))
	assert.Equal(t, rows, Filter(rows, nil))

	page := Apply(rows, cols, 0, 100)
	assert.Equal(t, rows, page.Rows)
	assert.Equal(t, 4, page.Total)
}

func TestFilter_GreaterThanScenario(t *testing.T) {
	rows := []domain.JoinedRow{
		joined("r50", nil, floatPtr(50)),
		joined("r100", nil, floatPtr(100)),
		joined("r150", nil, floatPtr(150)),
	}
	got := Filter(rows, []ColumnConfig{{Field: "measure1", Kind: KindMeasure, FilterText: "100", FilterOperator: OpGt}})
	assert.Equal(t, []string{"r150"}, ids(got))
}

func TestFilter_MeasureOperators(t *testing.T) {
	rows := sampleRows() // measure1: a=150 b=50 c=100 d=nil(0)

	cases := []struct {
		op   FilterOperator
		text string
		want []string
	}{
		{OpGte, "100", []string{"a", "c"}},
		{OpGte, "150.0", []string{"a"}},
		{OpLt, "100", []string{"b", "d"}},
		{OpLte, "50", []string{"b", "d"}},
		{OpEq, "100", []string{"c"}},
		{"", "50", []string{"b"}},
		{OpEq, "0", []string{"d"}},
		{OpGte, "abc", []string{"a", "b", "c", "d"}},
		{OpGt, "1e2", []string{"a"}},
	}
	for _, tc := range cases {
		got := Filter(rows, []ColumnConfig{{Field: "measure1", Kind: KindMeasure, FilterText: tc.text, FilterOperator: tc.op}})
		assert.Equal(t, tc.want, ids(got), "op=%q text=%q", tc.op, tc.text)
	}
}

func TestFilter_GteMatchesDefinition(t *testing.T) {
	rows := sampleRows()
	for _, v := range []float64{-1, 0, 49.9, 50, 100, 150, 151} {
		got := Filter(rows, []ColumnConfig{{Field: "measure1", FilterText: formatMeasure(v), FilterOperator: OpGte}})
		for _, r := range rows {
			r := r
			want := measureOf(&r, "measure1") >= v
			assert.Equal(t, want, contains(ids(got), r.Fact.ID), "v=%v row=%s", v, r.Fact.ID)
		}
	}
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

func TestFilter_DimensionSubstringCaseInsensitive(t *testing.T) {
	rows := sampleRows()

	got := Filter(rows, []ColumnConfig{{Field: "dimension1_id_category", Kind: KindAttribute, FilterText: "ELECTRO"}})
	assert.Equal(t, []string{"a", "d"}, ids(got))

	got = Filter(rows, []ColumnConfig{{Field: "dimension1_id", Kind: KindDimension, FilterText: "n/a"}})
	assert.Equal(t, []string{"c"}, ids(got))
}

func TestFilter_AndAcrossColumns(t *testing.T) {
	got := Filter(sampleRows(), []ColumnConfig{
		{Field: "dimension1_id_category", FilterText: "electronics"},
		{Field: "measure1", FilterText: "10", FilterOperator: OpGt},
	})
	assert.Equal(t, []string{"a"}, ids(got))
}

func TestSort_MeasureAndDimension(t *testing.T) {
	rows := sampleRows()

	got := Sort(rows, []ColumnConfig{{Field: "measure1", SortOrder: SortDesc}})
	assert.Equal(t, []string{"a", "c", "b", "d"}, ids(got))

	got = Sort(rows, []ColumnConfig{{Field: "dimension1_id", Kind: KindDimension, SortOrder: SortAsc}})
	// "laptop" < "n/a" < "phone" < "shirt"
	assert.Equal(t, []string{"a", "c", "d", "b"}, ids(got))

	// input untouched
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids(rows))
}

func TestSort_TiesUseFactID(t *testing.T) {
	rows := []domain.JoinedRow{
		joined("z", nil, floatPtr(1)),
		joined("m", nil, floatPtr(1)),
		joined("a", nil, floatPtr(1)),
	}
	assert.Equal(t, []string{"a", "m", "z"}, ids(Sort(rows, []ColumnConfig{{Field: "measure1", SortOrder: SortAsc}})))
	assert.Equal(t, []string{"a", "m", "z"}, ids(Sort(rows, []ColumnConfig{{Field: "measure1", SortOrder: SortDesc}})))
}

func TestSort_FirstSortedColumnWins(t *testing.T) {
	got := Sort(sampleRows(), []ColumnConfig{
		{Field: "dimension1_id"},
		{Field: "measure1", SortOrder: SortAsc},
		{Field: "dimension1_id_category", SortOrder: SortDesc},
	})
	assert.Equal(t, []string{"d", "b", "c", "a"}, ids(got))
}

func TestPaginate(t *testing.T) {
	rows := sampleRows()

	assert.Equal(t, []string{"a", "b"}, ids(Paginate(rows, 0, 2)))
	assert.Equal(t, []string{"c", "d"}, ids(Paginate(rows, 1, 2)))
	assert.Equal(t, []string{"d"}, ids(Paginate(rows, 1, 3)))

	beyond := Paginate(rows, 2, 2)
	assert.NotNil(t, beyond)
	assert.Empty(t, beyond)
	assert.Empty(t, Paginate(rows, -1, 2))

	assert.Len(t, Paginate(rows, 0, 0), 4)
}

func TestPaginate_HugePageDoesNotOverflow(t *testing.T) {
	rows := sampleRows()

	assert.NotPanics(t, func() {
		assert.Empty(t, Paginate(rows, 1<<62, 2))
		assert.Empty(t, Paginate(rows, math.MaxInt, math.MaxInt))
		assert.Empty(t, Paginate(nil, 0, 2))
	})
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids(Paginate(rows, 0, math.MaxInt)))
}

func TestApply_FilterSortPage(t *testing.T) {
	page := Apply(sampleRows(), []ColumnConfig{
		{Field: "measure1", FilterText: "60", FilterOperator: OpGte, SortOrder: SortAsc},
	}, 0, 1)
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, []string{"c"}, ids(page.Rows))
	assert.Equal(t, 1, page.Size)

	page = Apply(sampleRows(), nil, 0, 0)
	assert.Equal(t, DefaultPageSize, page.Size)
}
