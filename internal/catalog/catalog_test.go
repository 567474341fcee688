package catalog

import (
	"testing"

	"github.com/raviakasapu/generative-planner-vision-sub000/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_DirectField(t *testing.T) {
	r, ok := Resolve("dimension2_id")
	require.True(t, ok)
	assert.Equal(t, domain.DimensionRegion, r.Entry.Type)
	assert.Equal(t, "masterdimension2", r.Entry.Table)
	assert.Equal(t, "region_id", r.Attribute)
	assert.False(t, r.IsAttribute)
}

func TestResolve_AttributeQualified(t *testing.T) {
	r, ok := Resolve("dimension1_id_category")
	require.True(t, ok)
	assert.Equal(t, "masterdimension1", r.Entry.Table)
	assert.Equal(t, "category", r.Attribute)
	assert.True(t, r.IsAttribute)
	assert.Equal(t, "masterdimension1.category", r.Entry.Path(r.Attribute))
}

func TestResolve_AttributeWithUnderscores(t *testing.T) {
	r, ok := Resolve("version_id_version_status")
	require.True(t, ok)
	assert.Equal(t, domain.DimensionVersion, r.Entry.Type)
	assert.Equal(t, "version_status", r.Attribute)
	assert.True(t, r.IsAttribute)
}

func TestResolve_NotADimension(t *testing.T) {
	for _, field := range []string{"", "measure1", "dimension1", "dimension1_id_", "dimension3_id", "id"} {
		_, ok := Resolve(field)
		assert.False(t, ok, field)
	}
}

func TestResolve_RequiresExactPrefix(t *testing.T) {
	// "dimension1_idx" shares a prefix token with dimension1_id but is not qualified by it
	_, ok := Resolve("dimension1_idx")
	assert.False(t, ok)
}

func TestResolveType(t *testing.T) {
	e, ok := ResolveType("Product")
	require.True(t, ok)
	assert.Equal(t, "dimension1_id", e.Field)

	e, ok = ResolveType("time_id")
	require.True(t, ok)
	assert.Equal(t, domain.DimensionTime, e.Type)

	_, ok = ResolveType("time_id_quarter")
	assert.False(t, ok)
}

func TestEntries_CoverEveryDimensionType(t *testing.T) {
	got := Entries()
	require.Len(t, got, len(domain.AllDimensionTypes))
	for i, typ := range domain.AllDimensionTypes {
		assert.Equal(t, typ, got[i].Type)
		assert.Equal(t, got[i].BusinessIDField, got[i].Attributes[0])
	}

	// callers cannot mutate the registry
	got[0].Table = "changed"
	e, _ := Lookup(domain.DimensionProduct)
	assert.Equal(t, "masterdimension1", e.Table)
}
