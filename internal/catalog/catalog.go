// Package catalog describes how fact-row dimension keys map onto the master
// dimension tables.
package catalog

import (
	"strings"

	"github.com/raviakasapu/generative-planner-vision-sub000/internal/domain"
)

// Entry describes one dimension: the fact column holding its key, the master
// table it joins to, the business identifier column and the attributes that
// can be projected.
type Entry struct {
	Type            domain.DimensionType
	Field           string
	Table           string
	BusinessIDField string
	Attributes      []string
	Label           string
}

// HasAttribute reports whether attr is one of the declared attributes.
func (e Entry) HasAttribute(attr string) bool {
	for _, a := range e.Attributes {
		if a == attr {
			return true
		}
	}
	return false
}

// Path returns the dotted "<table>.<attr>" path used for ordering.
func (e Entry) Path(attr string) string {
	return e.Table + "." + attr
}

// Resolution is the outcome of resolving a column field name.
type Resolution struct {
	Entry       Entry
	Attribute   string
	IsAttribute bool
}

var entries = []Entry{
	{
		Type:            domain.DimensionProduct,
		Field:           "dimension1_id",
		Table:           "masterdimension1",
		BusinessIDField: "product_id",
		Attributes:      []string{"product_id", "description", "category", "brand", "product_group", "unit_of_measure"},
		Label:           "Product",
	},
	{
		Type:            domain.DimensionRegion,
		Field:           "dimension2_id",
		Table:           "masterdimension2",
		BusinessIDField: "region_id",
		Attributes:      []string{"region_id", "description", "country", "sales_region", "sales_manager"},
		Label:           "Region",
	},
	{
		Type:            domain.DimensionTime,
		Field:           "time_id",
		Table:           "mastertimedimension",
		BusinessIDField: "day_id",
		Attributes:      []string{"day_id", "description", "month_name", "quarter", "year", "fiscal_period"},
		Label:           "Time",
	},
	{
		Type:            domain.DimensionVersion,
		Field:           "version_id",
		Table:           "masterversiondimension",
		BusinessIDField: "version_name",
		Attributes:      []string{"version_name", "description", "version_type", "version_status", "is_base_version", "base_version_id"},
		Label:           "Version",
	},
	{
		Type:            domain.DimensionDatasource,
		Field:           "datasource_id",
		Table:           "masterdatasourcedimension",
		BusinessIDField: "datasource_name",
		Attributes:      []string{"datasource_name", "description", "datasource_type", "system_of_origin"},
		Label:           "Data Source",
	},
	{
		Type:            domain.DimensionLayer,
		Field:           "layer_id",
		Table:           "masterlayerdimension",
		BusinessIDField: "layer_name",
		Attributes:      []string{"layer_name", "description", "layer_type"},
		Label:           "Layer",
	},
}

// Entries returns the catalog in declaration order. The slice is a copy.
func Entries() []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}

// Lookup returns the entry for t.
func Lookup(t domain.DimensionType) (Entry, bool) {
	for _, e := range entries {
		if e.Type == t {
			return e, true
		}
	}
	return Entry{}, false
}

// Resolve maps a column field onto the catalog.
//
// "dimension1_id" resolves to the product entry with the business id as the
// attribute. "dimension1_id_category" resolves to the product entry with
// attribute "category" and IsAttribute set. The part before the attribute
// suffix must equal a declared field exactly; the first declared match wins.
// A field that is not a dimension column returns false.
func Resolve(field string) (Resolution, bool) {
	field = strings.TrimSpace(field)
	if field == "" {
		return Resolution{}, false
	}
	for _, e := range entries {
		if field == e.Field {
			return Resolution{Entry: e, Attribute: e.BusinessIDField}, true
		}
		if attr, ok := strings.CutPrefix(field, e.Field+"_"); ok && attr != "" {
			return Resolution{Entry: e, Attribute: attr, IsAttribute: true}, true
		}
	}
	return Resolution{}, false
}

// ResolveType resolves a dimension type name ("product") or a field name.
func ResolveType(name string) (Entry, bool) {
	if t, err := domain.ParseDimensionType(name); err == nil {
		return Lookup(t)
	}
	if r, ok := Resolve(name); ok && !r.IsAttribute {
		return r.Entry, true
	}
	return Entry{}, false
}

// Types returns the dimension types in declaration order.
func Types() []domain.DimensionType {
	out := make([]domain.DimensionType, len(entries))
	for i, e := range entries {
		out[i] = e.Type
	}
	return out
}
