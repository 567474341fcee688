package service

import (
	"context"
	"testing"
	"time"

	"github.com/raviakasapu/generative-planner-vision-sub000/internal/access"
	"github.com/raviakasapu/generative-planner-vision-sub000/internal/domain"
	"github.com/raviakasapu/generative-planner-vision-sub000/internal/events"
	"github.com/raviakasapu/generative-planner-vision-sub000/internal/grid"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanningService_GridDefaultColumns(t *testing.T) {
	e := newTestEnv(t, access.DenyByDefault, domain.DimensionProduct)
	e.seedProducts(t)
	e.grant(t, "u1", domain.DimensionProduct, e.ids["P1"], domain.AccessRead)

	resp, err := e.planning.Grid(context.Background(), GridRequest{UserID: "u1"})
	require.NoError(t, err)
	require.Len(t, resp.Rows, 1)
	assert.Equal(t, 1, resp.Total)
	assert.Equal(t, grid.DefaultPageSize, resp.Size)
	assert.Len(t, resp.Columns, 8)
	assert.Equal(t, "measure", resp.Columns[6].Kind)

	cells := resp.Rows[0].Cells
	assert.Equal(t, "P1", cells[0].Value)
	assert.Equal(t, "R1", cells[1].Value)
	assert.Equal(t, grid.NotAvailable, cells[2].Value, "row has no time key")
	assert.Equal(t, "150", cells[6].Value)
	assert.NotZero(t, resp.Generation)
}

func TestPlanningService_GridFilterSortPage(t *testing.T) {
	e := newTestEnv(t, access.AllowByDefault)
	e.seedProducts(t)
	p1 := e.ids["P1"]
	e.fact(t, domain.FactRow{ID: "f3", ProductID: &p1, Measure1: floatPtr(300)})

	cols := []grid.ColumnConfig{
		{Field: "dimension1_id", Kind: grid.KindDimension},
		{Field: "dimension1_id", Kind: grid.KindDimension, SelectedColumn: "category"},
		{Field: "measure1", Kind: grid.KindMeasure, FilterText: "100", FilterOperator: grid.OpGt, SortOrder: grid.SortDesc},
	}
	resp, err := e.planning.Grid(context.Background(), GridRequest{UserID: "u1", Columns: cols, Size: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Total)
	require.Len(t, resp.Rows, 1)
	assert.Equal(t, "f3", resp.Rows[0].ID)
	assert.Equal(t, "Electronics", resp.Rows[0].Cells[1].Value)

	resp, err = e.planning.Grid(context.Background(), GridRequest{UserID: "u1", Columns: cols, Page: 1, Size: 1})
	require.NoError(t, err)
	require.Len(t, resp.Rows, 1)
	assert.Equal(t, e.ids["f1"], resp.Rows[0].ID)

	resp, err = e.planning.Grid(context.Background(), GridRequest{UserID: "u1", Columns: cols, Page: 5, Size: 1})
	require.NoError(t, err)
	assert.Empty(t, resp.Rows)
	assert.Equal(t, 2, resp.Total)
}

func TestPlanningService_GridRejectsBadColumns(t *testing.T) {
	e := newTestEnv(t, access.AllowByDefault)
	_, err := e.planning.Grid(context.Background(), GridRequest{
		UserID:  "u1",
		Columns: []grid.ColumnConfig{{Field: "measure1", Kind: grid.KindMeasure, FilterOperator: "like"}},
	})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestPlanningService_GridUsesSessionUntilRefresh(t *testing.T) {
	e := newTestEnv(t, access.AllowByDefault)
	e.seedProducts(t)
	ctx := context.Background()

	first, err := e.planning.Grid(ctx, GridRequest{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, 2, first.Total)

	e.fact(t, domain.FactRow{Measure1: floatPtr(1)})
	cached, err := e.planning.Grid(ctx, GridRequest{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, 2, cached.Total)
	assert.Equal(t, first.Generation, cached.Generation)

	refreshed, err := e.planning.Grid(ctx, GridRequest{UserID: "u1", Refresh: true})
	require.NoError(t, err)
	assert.Equal(t, 3, refreshed.Total)
	assert.Greater(t, refreshed.Generation, first.Generation)
}

func TestPlanningService_GridRefetchesSessionOlderThanMaxAge(t *testing.T) {
	e := newTestEnv(t, access.AllowByDefault)
	e.seedProducts(t)
	ctx := context.Background()
	e.planning.SetSessionMaxAge(30 * time.Second)
	var skew time.Duration
	e.planning.now = func() time.Time { return time.Now().Add(skew) }

	first, err := e.planning.Grid(ctx, GridRequest{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, 2, first.Total)

	e.fact(t, domain.FactRow{Measure1: floatPtr(1)})
	skew = 29 * time.Second
	cached, err := e.planning.Grid(ctx, GridRequest{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, 2, cached.Total)

	skew = 31 * time.Second
	aged, err := e.planning.Grid(ctx, GridRequest{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, 3, aged.Total)
	assert.Greater(t, aged.Generation, first.Generation)
}

func TestPlanningService_SetSessionMaxAgeDefault(t *testing.T) {
	e := newTestEnv(t, access.AllowByDefault)
	e.planning.SetSessionMaxAge(0)
	assert.Equal(t, DefaultSessionMaxAge, e.planning.maxAge)
	e.planning.SetSessionMaxAge(time.Second)
	assert.Equal(t, time.Second, e.planning.maxAge)
}

func TestPlanningService_UpdateCell(t *testing.T) {
	e := newTestEnv(t, access.DenyByDefault, domain.DimensionProduct)
	e.seedProducts(t)
	e.grant(t, "u1", domain.DimensionProduct, e.ids["P1"], domain.AccessWrite)
	e.grant(t, "u1", domain.DimensionProduct, e.ids["P2"], domain.AccessRead)
	ctx := context.Background()

	_, err := e.planning.Grid(ctx, GridRequest{UserID: "u1"})
	require.NoError(t, err)

	updated, err := e.planning.UpdateCell(ctx, UpdateCellRequest{UserID: "u1", FactID: e.ids["f1"], Field: "measure1", Value: floatPtr(175)})
	require.NoError(t, err)
	assert.Equal(t, 175.0, *updated.Measure1)

	resp, err := e.planning.Grid(ctx, GridRequest{
		UserID:  "u1",
		Columns: []grid.ColumnConfig{{Field: "measure1", Kind: grid.KindMeasure, SortOrder: grid.SortDesc}},
	})
	require.NoError(t, err)
	assert.Equal(t, "175", resp.Rows[0].Cells[0].Value, "session is patched in place")

	_, err = e.planning.UpdateCell(ctx, UpdateCellRequest{UserID: "u1", FactID: e.ids["f2"], Field: "measure1", Value: floatPtr(1)})
	assert.ErrorIs(t, err, ErrAccessDenied)

	_, err = e.planning.UpdateCell(ctx, UpdateCellRequest{UserID: "u1", FactID: "missing", Field: "measure1"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = e.planning.UpdateCell(ctx, UpdateCellRequest{UserID: "u1", FactID: e.ids["f1"], Field: "owner_user_id"})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	assert.Equal(t, []string{events.TypeFactUpdated}, e.publisher.types())
}

func TestPlanningService_CreateFact(t *testing.T) {
	e := newTestEnv(t, access.DenyByDefault, domain.DimensionProduct)
	e.seedProducts(t)
	e.grant(t, "u1", domain.DimensionProduct, e.ids["P1"], domain.AccessWrite)
	ctx := context.Background()

	p1, p2 := e.ids["P1"], e.ids["P2"]
	id, err := e.planning.CreateFact(ctx, CreateFactRequest{UserID: "u1", Fact: domain.FactRow{ProductID: &p1, Measure1: floatPtr(10)}})
	require.NoError(t, err)

	stored, err := e.facts.GetFact(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "u1", stored.OwnerUserID)

	_, err = e.planning.CreateFact(ctx, CreateFactRequest{UserID: "u1", Fact: domain.FactRow{ProductID: &p2}})
	assert.ErrorIs(t, err, ErrAccessDenied)

	require.Len(t, e.publisher.events, 1)
	assert.Equal(t, events.TypeFactCreated, e.publisher.events[0].Type)
	assert.Equal(t, p1, e.publisher.events[0].Payload["dimension1_id"])
}

func TestPlanningService_ExportRows(t *testing.T) {
	e := newTestEnv(t, access.AllowByDefault)
	e.seedProducts(t)

	cols, rows, err := e.planning.ExportRows(context.Background(), GridRequest{
		UserID:  "u1",
		Columns: []grid.ColumnConfig{{Field: "dimension1_id", Kind: grid.KindDimension, FilterText: "p2"}},
	})
	require.NoError(t, err)
	assert.Len(t, cols, 1)
	assert.Equal(t, []string{e.ids["f2"]}, rowIDs(rows))
}
