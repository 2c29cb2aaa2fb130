package models

import "time"

// TestProtocol is an immutable catalog entry describing one standardized test
type TestProtocol struct {
	ID                  string                         `json:"protocol_id" yaml:"protocol_id"`
	Name                string                         `json:"name" yaml:"name"`
	Standard            TestStandard                   `json:"standard" yaml:"standard"`
	Version             string                         `json:"version" yaml:"version"`
	Description         string                         `json:"description" yaml:"description"`
	Steps               []ProtocolStep                 `json:"steps" yaml:"steps"`
	Parameters          map[string]interface{}         `json:"parameters" yaml:"parameters"`
	AcceptanceCriteria  map[string]AcceptanceCriterion `json:"acceptance_criteria" yaml:"acceptance_criteria"`
	EstimatedDuration   int                            `json:"estimated_duration" yaml:"estimated_duration"` // minutes
	RequiredEquipment   []string                       `json:"required_equipment" yaml:"required_equipment"`
	RequiredStaffSkills []string                       `json:"required_staff_skills" yaml:"required_staff_skills"`
	Tags                []string                       `json:"tags,omitempty" yaml:"tags,omitempty"`
	CreatedDate         time.Time                      `json:"created_date" yaml:"-"`
	UpdatedDate         time.Time                      `json:"updated_date" yaml:"-"`
	IsActive            bool                           `json:"is_active" yaml:"is_active"`
}

// ProtocolStep is a single numbered step in a protocol
type ProtocolStep struct {
	Step        int    `json:"step" yaml:"step"`
	Description string `json:"description" yaml:"description"`
	Duration    int    `json:"duration" yaml:"duration"` // minutes
}

// AcceptanceCriterion defines how one named measurement is judged.
// Exactly one of the three forms is used per criterion:
// a min/max range, a nominal value with percent tolerance, or a bare
// lower threshold.
type AcceptanceCriterion struct {
	Min          *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max          *float64 `json:"max,omitempty" yaml:"max,omitempty"`
	Nominal      *float64 `json:"nominal,omitempty" yaml:"nominal,omitempty"`
	TolerancePct *float64 `json:"tolerance,omitempty" yaml:"tolerance,omitempty"`
	Threshold    *float64 `json:"threshold,omitempty" yaml:"threshold,omitempty"`
}

// IsRange reports whether the criterion carries a min or max bound
func (c AcceptanceCriterion) IsRange() bool {
	return c.Min != nil || c.Max != nil
}

// IsTolerance reports whether the criterion is nominal-plus-tolerance
func (c AcceptanceCriterion) IsTolerance() bool {
	return c.Nominal != nil && c.TolerancePct != nil
}

// IsThreshold reports whether the criterion is a bare lower threshold
func (c AcceptanceCriterion) IsThreshold() bool {
	return c.Threshold != nil && !c.IsRange() && !c.IsTolerance()
}

// TestStandard identifies the standard a protocol belongs to
type TestStandard string

const (
	StandardIEC61215  TestStandard = "IEC 61215"
	StandardIEC61730  TestStandard = "IEC 61730"
	StandardIEC61853  TestStandard = "IEC 61853"
	StandardUL1703    TestStandard = "UL 1703"
	StandardUL61730   TestStandard = "UL 61730"
	StandardIEEE1547  TestStandard = "IEEE 1547"
	StandardASTME1036 TestStandard = "ASTM E1036"
	StandardASTME2481 TestStandard = "ASTM E2481"
)
