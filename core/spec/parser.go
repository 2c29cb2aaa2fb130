package spec

import (
	"fmt"

	"lab-orchestrator/core/models"

	"gopkg.in/yaml.v3"
)

// ProtocolFile represents a YAML file carrying custom protocol definitions.
// Labs use these to extend the built-in catalog with customer-specific or
// draft protocols without recompiling.
type ProtocolFile struct {
	Protocols []ProtocolSpec `yaml:"protocols"`
}

// ProtocolSpec is the YAML shape of one protocol definition
type ProtocolSpec struct {
	ProtocolID          string                                `yaml:"protocol_id"`
	Name                string                                `yaml:"name"`
	Standard            string                                `yaml:"standard"`
	Version             string                                `yaml:"version"`
	Description         string                                `yaml:"description"`
	Steps               []models.ProtocolStep                 `yaml:"steps"`
	Parameters          map[string]interface{}                `yaml:"parameters"`
	AcceptanceCriteria  map[string]models.AcceptanceCriterion `yaml:"acceptance_criteria"`
	EstimatedDuration   int                                   `yaml:"estimated_duration"`
	RequiredEquipment   []string                              `yaml:"required_equipment"`
	RequiredStaffSkills []string                              `yaml:"required_staff_skills"`
	Tags                []string                              `yaml:"tags"`
}

// ParseProtocolFile parses a YAML protocol-definition document into catalog
// entries. Definitions missing an id, name, or positive duration are
// rejected with a descriptive error.
func ParseProtocolFile(content []byte) ([]models.TestProtocol, error) {
	var file ProtocolFile
	if err := yaml.Unmarshal(content, &file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	protocols := make([]models.TestProtocol, 0, len(file.Protocols))
	for i, ps := range file.Protocols {
		if ps.ProtocolID == "" {
			return nil, fmt.Errorf("protocol %d: protocol_id is required", i)
		}
		if ps.Name == "" {
			return nil, fmt.Errorf("protocol %s: name is required", ps.ProtocolID)
		}
		if ps.EstimatedDuration <= 0 {
			return nil, fmt.Errorf("protocol %s: estimated_duration must be positive", ps.ProtocolID)
		}

		p := models.TestProtocol{
			ID:                  ps.ProtocolID,
			Name:                ps.Name,
			Standard:            models.TestStandard(ps.Standard),
			Version:             ps.Version,
			Description:         ps.Description,
			Steps:               ps.Steps,
			Parameters:          ps.Parameters,
			AcceptanceCriteria:  ps.AcceptanceCriteria,
			EstimatedDuration:   ps.EstimatedDuration,
			RequiredEquipment:   ps.RequiredEquipment,
			RequiredStaffSkills: ps.RequiredStaffSkills,
			Tags:                ps.Tags,
			IsActive:            true,
		}
		if p.Version == "" {
			p.Version = "1.0"
		}
		protocols = append(protocols, p)
	}

	return protocols, nil
}
