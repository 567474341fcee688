package domain

import (
	"encoding/json"
	"time"
)

// RuleType 业务规则类型
type RuleType string

const (
	RuleValidation  RuleType = "validation"
	RuleCalculation RuleType = "calculation"
	RuleAllocation  RuleType = "allocation"
)

// Valid reports whether t is a known rule type.
func (t RuleType) Valid() bool {
	return t == RuleValidation || t == RuleCalculation || t == RuleAllocation
}

// BusinessRule 业务规则（business_rules 表）
// Definition is stored as-is; the service only checks it is a JSON object.
type BusinessRule struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Description   *string         `json:"description,omitempty"`
	DimensionType *DimensionType  `json:"dimension_type,omitempty"`
	RuleType      RuleType        `json:"rule_type"`
	Definition    json.RawMessage `json:"definition"`
	IsActive      bool            `json:"is_active"`
	CreatedBy     string          `json:"created_by"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}
