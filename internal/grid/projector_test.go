package grid

import (
	"testing"

	"github.com/raviakasapu/generative-planner-vision-sub000/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProject_MeasureDefaultsToZero(t *testing.T) {
	col := ColumnConfig{Field: "measure1", Kind: KindMeasure}

	for _, row := range []domain.JoinedRow{
		joined("f1", nil, nil),
		joined("f2", product("p1", "P1", nil), nil),
	} {
		row := row
		cell := Project(&row, col)
		assert.Equal(t, "0", cell.Value)
		assert.NotEqual(t, NotAvailable, cell.Value)
	}

	row := joined("f3", nil, floatPtr(1234.5))
	assert.Equal(t, "1234.5", Project(&row, col).Value)

	// kind can be omitted for measure fields
	row = joined("f4", nil, floatPtr(-2))
	assert.Equal(t, "-2", Project(&row, ColumnConfig{Field: "measure1"}).Value)
}

func TestProject_NotAvailableIffMemberAbsent(t *testing.T) {
	col := ColumnConfig{Field: "dimension1_id", Kind: KindDimension}

	absent := joined("f1", nil, nil)
	assert.Equal(t, NotAvailable, Project(&absent, col).Value)
	assert.Empty(t, Project(&absent, col).Attributes)

	// key set but member filtered out of the join
	filtered := joined("f2", nil, nil)
	filtered.Fact.ProductID = strPtr("p-hidden")
	assert.Equal(t, NotAvailable, Project(&filtered, col).Value)

	present := joined("f3", product("p1", "P1", nil), nil)
	assert.Equal(t, "P1", Project(&present, col).Value)

	// a present member with an empty business id is still not N/A
	blank := joined("f4", product("p2", "", nil), nil)
	assert.Equal(t, "", Project(&blank, col).Value)
}

func TestProject_AttributeColumns(t *testing.T) {
	desc := "Widget"
	p := product("p1", "P1", map[string]any{"category": "Electronics", "brand": "Acme"})
	p.Description = &desc
	row := joined("f1", p, nil)

	cell := Project(&row, ColumnConfig{Field: "dimension1_id_category", Kind: KindAttribute})
	assert.Equal(t, "Electronics", cell.Value)

	cell = Project(&row, ColumnConfig{Field: "dimension1_id", Kind: KindDimension, SelectedColumn: "brand"})
	assert.Equal(t, "Acme", cell.Value)

	cell = Project(&row, ColumnConfig{Field: "dimension1_id", SelectedColumn: "description"})
	assert.Equal(t, "Widget", cell.Value)

	// attribute missing on a present member renders blank
	cell = Project(&row, ColumnConfig{Field: "dimension1_id_unit_of_measure", Kind: KindAttribute})
	assert.Equal(t, "", cell.Value)

	require.NotEmpty(t, cell.Attributes)
	assert.Equal(t, []AttributePair{
		{Label: "Product Id", Value: "P1"},
		{Label: "Description", Value: "Widget"},
		{Label: "Category", Value: "Electronics"},
		{Label: "Brand", Value: "Acme"},
	}, cell.Attributes)
}

func TestProject_NonStringAttributes(t *testing.T) {
	v := &domain.DimensionMember{
		ID: "v1", Type: domain.DimensionVersion, BusinessID: "Budget 2025",
		Attributes: map[string]any{"is_base_version": true, "year": 2025.0},
	}
	row := domain.JoinedRow{Dimensions: map[domain.DimensionType]*domain.DimensionMember{domain.DimensionVersion: v}}

	assert.Equal(t, "true", Project(&row, ColumnConfig{Field: "version_id_is_base_version"}).Value)
	assert.Equal(t, "2025", Project(&row, ColumnConfig{Field: "version_id_year"}).Value)
}

func TestProjectRow_FactFields(t *testing.T) {
	row := joined("f1", nil, floatPtr(3))
	row.Fact.OwnerUserID = "u1"

	cells := ProjectRow(&row, []ColumnConfig{
		{Field: "id"},
		{Field: "owner_user_id"},
		{Field: "measure1"},
		{Field: "dimension2_id"},
		{Field: "nonsense"},
	})
	require.Len(t, cells, 5)
	assert.Equal(t, "f1", cells[0].Value)
	assert.Equal(t, "u1", cells[1].Value)
	assert.Equal(t, "3", cells[2].Value)
	assert.Equal(t, NotAvailable, cells[3].Value)
	assert.Equal(t, "", cells[4].Value)
}

func TestColumnConfig_Validate(t *testing.T) {
	assert.NoError(t, ColumnConfig{Field: "dimension1_id_category", Kind: KindAttribute}.Validate())
	assert.NoError(t, ColumnConfig{Field: "measure2", Kind: KindMeasure, FilterOperator: OpLte}.Validate())
	assert.Error(t, ColumnConfig{Field: ""}.Validate())
	assert.Error(t, ColumnConfig{Field: "measure1", FilterOperator: "between"}.Validate())
	assert.Error(t, ColumnConfig{Field: "owner_user_id", Kind: KindMeasure}.Validate())
	assert.Error(t, ColumnConfig{Field: "whatever", Kind: KindDimension}.Validate())
	assert.Error(t, ColumnConfig{Field: "measure1", SortOrder: "up"}.Validate())
}

func TestColumnConfig_Header(t *testing.T) {
	assert.Equal(t, "Product", ColumnConfig{Field: "dimension1_id"}.Header())
	assert.Equal(t, "Region Sales Region", ColumnConfig{Field: "dimension2_id_sales_region"}.Header())
	assert.Equal(t, "Mine", ColumnConfig{Field: "measure1", Label: "Mine"}.Header())
	assert.Equal(t, "Measure1", ColumnConfig{Field: "measure1"}.Header())
	assert.Len(t, DefaultColumns(), 8)
}
