package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// RoverConfig is one rover entry in a mission file.
type RoverConfig struct {
	Position string `json:"position" yaml:"position"`
	Commands string `json:"commands" yaml:"commands"`
}

// MissionConfig represents a mission file, in JSON or YAML.
type MissionConfig struct {
	Name           string        `json:"name" yaml:"name"`
	Description    string        `json:"description" yaml:"description"`
	Plateau        string        `json:"plateau" yaml:"plateau"`
	SelfPreserving bool          `json:"self_preserving" yaml:"self_preserving"`
	Crossing       string        `json:"crossing,omitempty" yaml:"crossing,omitempty"`
	Rovers         []RoverConfig `json:"rovers" yaml:"rovers"`
}

// Lines renders the mission in the raw line form read by ParseMission.
func (c *MissionConfig) Lines() []string {
	lines := make([]string, 0, 1+2*len(c.Rovers))
	lines = append(lines, c.Plateau)
	for _, r := range c.Rovers {
		lines = append(lines, r.Position, r.Commands)
	}
	return lines
}

// CrossingPolicy returns the mission's policy, AllowCrossing when unset.
func (c *MissionConfig) CrossingPolicy() CrossingPolicy {
	if c.Crossing == "" {
		return AllowCrossing
	}
	return CrossingPolicy(strings.ToLower(c.Crossing))
}

// Simulation parses the mission and returns a simulation ready to run. An
// unknown crossing value is a *FormatError.
func (c *MissionConfig) Simulation() (*Simulation, error) {
	policy := c.CrossingPolicy()
	if policy != AllowCrossing && policy != AbortOnCrossing {
		return nil, &FormatError{
			Input:  c.Crossing,
			Reason: fmt.Sprintf("crossing must be '%s' or '%s'", AllowCrossing, AbortOnCrossing),
		}
	}
	return ParseMission(c.Lines(), c.SelfPreserving, WithCrossingPolicy(policy))
}

// MissionFromLines builds a config from raw mission lines that have already
// been through ParseSpecs.
func MissionFromLines(name string, lines []string, selfPreserving bool) *MissionConfig {
	config := &MissionConfig{Name: name, SelfPreserving: selfPreserving}
	if len(lines) == 0 {
		return config
	}
	config.Plateau = lines[0]
	for i := 1; i+1 < len(lines); i += 2 {
		config.Rovers = append(config.Rovers, RoverConfig{Position: lines[i], Commands: lines[i+1]})
	}
	return config
}

// ValidateMissionConfig checks the mission's metadata and parses every line.
func ValidateMissionConfig(config *MissionConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: mission cannot be nil")
	}
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}
	if strings.TrimSpace(config.Plateau) == "" {
		return fmt.Errorf("config validation: plateau is required")
	}
	if len(config.Rovers) == 0 {
		return fmt.Errorf("config validation: at least one rover is required")
	}
	if p := config.CrossingPolicy(); p != AllowCrossing && p != AbortOnCrossing {
		return fmt.Errorf("config validation: crossing must be '%s' or '%s', got '%s'", AllowCrossing, AbortOnCrossing, config.Crossing)
	}
	if _, _, err := ParseSpecs(config.Lines(), config.SelfPreserving); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	return nil
}

// DecodeMissionConfig decodes data as YAML when ext is .yaml or .yml and as
// JSON otherwise.
func DecodeMissionConfig(data []byte, ext string) (*MissionConfig, error) {
	var config MissionConfig
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, err
		}
	default:
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, err
		}
	}
	return &config, nil
}

// EncodeMissionConfig is the inverse of DecodeMissionConfig.
func EncodeMissionConfig(config *MissionConfig, ext string) ([]byte, error) {
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		return yaml.Marshal(config)
	default:
		return json.MarshalIndent(config, "", "  ")
	}
}

// LoadMissionConfig loads and validates a mission file.
func LoadMissionConfig(filename string) (*MissionConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	config, err := DecodeMissionConfig(data, filepath.Ext(filename))
	if err != nil {
		return nil, fmt.Errorf("failed to parse mission file '%s': %w", filename, err)
	}

	if err := ValidateMissionConfig(config); err != nil {
		return nil, fmt.Errorf("invalid mission '%s': %w", filename, err)
	}
	return config, nil
}

// DefaultMission returns the canonical two-rover mission.
func DefaultMission() *MissionConfig {
	return &MissionConfig{
		Name:        "classic",
		Description: "Two rovers on a 5x5 plateau",
		Plateau:     "5 5",
		Rovers: []RoverConfig{
			{Position: "1 2 N", Commands: "LMLMLMLMM"},
			{Position: "3 3 E", Commands: "MMRMMRMRRM"},
		},
	}
}
