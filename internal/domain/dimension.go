package domain

import (
	"fmt"
	"strings"
	"time"
)

// DimensionType 维度类型
type DimensionType string

const (
	DimensionProduct    DimensionType = "product"
	DimensionRegion     DimensionType = "region"
	DimensionTime       DimensionType = "time"
	DimensionVersion    DimensionType = "version"
	DimensionDatasource DimensionType = "datasource"
	DimensionLayer      DimensionType = "layer"
)

// AllDimensionTypes in catalog declaration order.
var AllDimensionTypes = []DimensionType{
	DimensionProduct,
	DimensionRegion,
	DimensionTime,
	DimensionVersion,
	DimensionDatasource,
	DimensionLayer,
}

// Valid reports whether t is a known dimension type.
func (t DimensionType) Valid() bool {
	for _, k := range AllDimensionTypes {
		if k == t {
			return true
		}
	}
	return false
}

// ParseDimensionType accepts any casing and surrounding whitespace.
func ParseDimensionType(s string) (DimensionType, error) {
	t := DimensionType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown dimension type: %q", s)
	}
	return t, nil
}

// DimensionMember 维度成员（master data row）
type DimensionMember struct {
	ID          string
	Type        DimensionType
	BusinessID  string
	Description *string
	Attributes  map[string]any
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Attribute returns the member's value for name. The business id and
// description are addressable by their catalog field names as well.
func (m *DimensionMember) Attribute(name, businessIDField string) (any, bool) {
	switch name {
	case businessIDField:
		return m.BusinessID, true
	case "description":
		if m.Description == nil {
			return nil, false
		}
		return *m.Description, true
	}
	v, ok := m.Attributes[name]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}
