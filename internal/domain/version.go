package domain

import (
	"fmt"
	"time"
)

// VersionType 版本类型
type VersionType string

const (
	VersionBudget   VersionType = "budget"
	VersionForecast VersionType = "forecast"
	VersionActual   VersionType = "actual"
)

// Valid reports whether t is a known version type.
func (t VersionType) Valid() bool {
	return t == VersionBudget || t == VersionForecast || t == VersionActual
}

// VersionStatus 版本状态
type VersionStatus string

const (
	VersionDraft     VersionStatus = "draft"
	VersionInReview  VersionStatus = "in_review"
	VersionApproved  VersionStatus = "approved"
	VersionPublished VersionStatus = "published"
	VersionArchived  VersionStatus = "archived"
)

// version attribute keys stored on the dimension member
const (
	AttrVersionType   = "version_type"
	AttrVersionStatus = "version_status"
	AttrIsBaseVersion = "is_base_version"
	AttrBaseVersionID = "base_version_id"
)

var versionTransitions = map[VersionStatus][]VersionStatus{
	VersionDraft:     {VersionInReview, VersionArchived},
	VersionInReview:  {VersionApproved, VersionDraft, VersionArchived},
	VersionApproved:  {VersionPublished, VersionDraft, VersionArchived},
	VersionPublished: {VersionArchived},
}

// Valid reports whether s is a known version status.
func (s VersionStatus) Valid() bool {
	switch s {
	case VersionDraft, VersionInReview, VersionApproved, VersionPublished, VersionArchived:
		return true
	}
	return false
}

// CanTransitionTo reports whether from -> to is allowed. Archived is terminal.
func (s VersionStatus) CanTransitionTo(to VersionStatus) bool {
	for _, next := range versionTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Version is a version dimension member with its typed attributes.
type Version struct {
	Member        DimensionMember
	VersionType   VersionType
	Status        VersionStatus
	IsBaseVersion bool
	BaseVersionID *string
}

// VersionFromMember reads the version attributes off m.
func VersionFromMember(m DimensionMember) (*Version, error) {
	if m.Type != DimensionVersion {
		return nil, fmt.Errorf("member %s is a %s, not a version", m.ID, m.Type)
	}
	v := &Version{Member: m, Status: VersionDraft}
	if s, ok := m.Attributes[AttrVersionType].(string); ok {
		v.VersionType = VersionType(s)
	}
	if s, ok := m.Attributes[AttrVersionStatus].(string); ok && s != "" {
		v.Status = VersionStatus(s)
	}
	if b, ok := m.Attributes[AttrIsBaseVersion].(bool); ok {
		v.IsBaseVersion = b
	}
	if s, ok := m.Attributes[AttrBaseVersionID].(string); ok && s != "" {
		v.BaseVersionID = &s
	}
	return v, nil
}

// ApplyToMember writes the typed attributes back onto the member.
func (v *Version) ApplyToMember() DimensionMember {
	m := v.Member
	m.Type = DimensionVersion
	attrs := make(map[string]any, len(m.Attributes)+4)
	for k, val := range m.Attributes {
		attrs[k] = val
	}
	attrs[AttrVersionType] = string(v.VersionType)
	attrs[AttrVersionStatus] = string(v.Status)
	attrs[AttrIsBaseVersion] = v.IsBaseVersion
	if v.BaseVersionID != nil {
		attrs[AttrBaseVersionID] = *v.BaseVersionID
	} else {
		delete(attrs, AttrBaseVersionID)
	}
	m.Attributes = attrs
	return m
}

// VersionStatusChange 版本状态变更审计记录
type VersionStatusChange struct {
	ID         string        `json:"id"`
	VersionID  string        `json:"version_id"`
	FromStatus VersionStatus `json:"from_status"`
	ToStatus   VersionStatus `json:"to_status"`
	ChangedBy  string        `json:"changed_by"`
	Comment    *string       `json:"comment,omitempty"`
	ChangedAt  time.Time     `json:"changed_at"`
}
