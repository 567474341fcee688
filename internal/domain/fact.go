package domain

import "time"

// FactRow 计划数据行（planned_data 表）
// One nullable key per dimension type, two measures.
type FactRow struct {
	ID           string
	ProductID    *string
	RegionID     *string
	TimeID       *string
	VersionID    *string
	DatasourceID *string
	LayerID      *string
	Measure1     *float64
	Measure2     *float64
	OwnerUserID  string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Key returns the dimension key for t, nil when the row has none.
func (f *FactRow) Key(t DimensionType) *string {
	switch t {
	case DimensionProduct:
		return f.ProductID
	case DimensionRegion:
		return f.RegionID
	case DimensionTime:
		return f.TimeID
	case DimensionVersion:
		return f.VersionID
	case DimensionDatasource:
		return f.DatasourceID
	case DimensionLayer:
		return f.LayerID
	}
	return nil
}

// SetKey assigns the dimension key for t.
func (f *FactRow) SetKey(t DimensionType, id *string) {
	switch t {
	case DimensionProduct:
		f.ProductID = id
	case DimensionRegion:
		f.RegionID = id
	case DimensionTime:
		f.TimeID = id
	case DimensionVersion:
		f.VersionID = id
	case DimensionDatasource:
		f.DatasourceID = id
	case DimensionLayer:
		f.LayerID = id
	}
}

// Measure returns measure1 or measure2 by field name.
func (f *FactRow) Measure(field string) (*float64, bool) {
	switch field {
	case MeasureField1:
		return f.Measure1, true
	case MeasureField2:
		return f.Measure2, true
	}
	return nil, false
}

const (
	MeasureField1 = "measure1"
	MeasureField2 = "measure2"
)

// IsMeasureField reports whether field names a fact measure.
func IsMeasureField(field string) bool {
	return field == MeasureField1 || field == MeasureField2
}

// JoinedRow is a fact row with its dimension members resolved inline.
// A missing entry means the member was not found or was filtered away.
type JoinedRow struct {
	Fact       FactRow
	Dimensions map[DimensionType]*DimensionMember
}

// Member returns the joined member for t or nil.
func (r *JoinedRow) Member(t DimensionType) *DimensionMember {
	if r.Dimensions == nil {
		return nil
	}
	return r.Dimensions[t]
}
