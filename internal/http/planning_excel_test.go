package httpapi

import (
	"bytes"
	"testing"

	"github.com/raviakasapu/generative-planner-vision-sub000/internal/domain"
	"github.com/raviakasapu/generative-planner-vision-sub000/internal/grid"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestGeneratePlanningExport(t *testing.T) {
	m1 := 1234.5
	rows := []domain.JoinedRow{
		{
			Fact: domain.FactRow{ID: "f1", Measure1: &m1},
			Dimensions: map[domain.DimensionType]*domain.DimensionMember{
				domain.DimensionProduct: {ID: "p1", Type: domain.DimensionProduct, BusinessID: "P-100"},
			},
		},
		{Fact: domain.FactRow{ID: "f2"}},
	}
	cols := []grid.ColumnConfig{
		{Field: "dimension1_id", Kind: grid.KindDimension},
		{Field: "measure1", Kind: grid.KindMeasure},
		{Field: "measure2"},
	}

	data, err := GeneratePlanningExport(cols, rows)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	got, err := f.GetRows(planningSheet, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"Product", "Measure1", "Measure2"}, got[0])
	assert.Equal(t, []string{"P-100", "1234.5", "0"}, got[1])
	assert.Equal(t, []string{"N/A", "0", "0"}, got[2])

	v, err := f.GetCellValue(planningSheet, "B2")
	require.NoError(t, err)
	assert.Equal(t, "1,234.50", v)
}

func TestGeneratePlanningExport_NoColumns(t *testing.T) {
	data, err := GeneratePlanningExport(nil, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}
