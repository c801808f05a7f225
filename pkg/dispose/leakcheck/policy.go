package leakcheck

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Mode selects how much the tracker records.
type Mode string

const (
	// ModeOff disables tracking entirely.
	ModeOff Mode = "off"

	// ModeTrack records bind metadata for every bound object.
	ModeTrack Mode = "track"
)

// EnvVar is the environment variable consulted at process start.
// Recognized values are "off", "track", and "stacks" (track plus bind-site
// stack capture).
const EnvVar = "DISPOSE_LEAKCHECK"

// Policy configures the tracker.
type Policy struct {
	// Mode selects whether tracking is active.
	Mode Mode `yaml:"mode" json:"mode"`

	// CaptureStacks records the bind-site stack trace with each record.
	// Stacks make leak reports actionable but cost roughly a microsecond
	// per bind.
	CaptureStacks bool `yaml:"capture_stacks" json:"capture_stacks"`
}

// DefaultPolicy returns a tracking policy without stack capture.
func DefaultPolicy() Policy {
	return Policy{Mode: ModeTrack}
}

func (p Policy) validate() error {
	switch p.Mode {
	case ModeOff, ModeTrack:
		return nil
	default:
		return fmt.Errorf("unknown mode %q", p.Mode)
	}
}

// PolicyFromFile loads a policy from a YAML or JSON file, chosen by
// extension.
func PolicyFromFile(path string) (Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("read policy file: %w", err)
	}

	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		return PolicyFromYAML(data)
	case ".json":
		return PolicyFromJSON(data)
	default:
		return Policy{}, fmt.Errorf("unsupported policy file extension %q (use .yaml, .yml, or .json)", ext)
	}
}

// PolicyFromYAML parses a policy from YAML.
func PolicyFromYAML(data []byte) (Policy, error) {
	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Policy{}, fmt.Errorf("parse policy YAML: %w", err)
	}
	if p.Mode == "" {
		p.Mode = ModeOff
	}
	if err := p.validate(); err != nil {
		return Policy{}, err
	}
	return p, nil
}

// PolicyFromJSON parses a policy from JSON.
func PolicyFromJSON(data []byte) (Policy, error) {
	var p Policy
	if err := json.Unmarshal(data, &p); err != nil {
		return Policy{}, fmt.Errorf("parse policy JSON: %w", err)
	}
	if p.Mode == "" {
		p.Mode = ModeOff
	}
	if err := p.validate(); err != nil {
		return Policy{}, err
	}
	return p, nil
}

// PolicyFromEnv derives a policy from the DISPOSE_LEAKCHECK environment
// variable. The second return value is false when the variable is unset,
// empty, "off", or unrecognized.
func PolicyFromEnv() (Policy, bool) {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(EnvVar))) {
	case "track", "on", "1":
		return Policy{Mode: ModeTrack}, true
	case "stacks":
		return Policy{Mode: ModeTrack, CaptureStacks: true}, true
	default:
		return Policy{}, false
	}
}
