package rules

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// RequiredSection maps a canonical section name to the title keywords that satisfy it.
type RequiredSection struct {
	Name     string   `yaml:"name" validate:"required"`
	Keywords []string `yaml:"keywords" validate:"required,min=1,dive,required"`
}

// Penalties holds the point deduction for each rule.
type Penalties struct {
	MissingSection        int `yaml:"missing_section" validate:"min=0"`
	MissingImageCaption   int `yaml:"missing_image_caption" validate:"min=0"`
	BrokenHeadingSequence int `yaml:"broken_heading_sequence" validate:"min=0"`
	ExcessiveHeadingDepth int `yaml:"excessive_heading_depth" validate:"min=0"`
}

// RuleSet is the read-only configuration shared by every analysis.
// Required sections are checked in slice order.
type RuleSet struct {
	RequiredSections []RequiredSection `yaml:"required_sections" validate:"required,min=1,dive"`
	Penalties        Penalties         `yaml:"penalties"`
	MaxHeadingDepth  int               `yaml:"max_heading_depth" validate:"min=1"`
}

// DefaultRuleSet returns the built-in keyword table and penalties.
func DefaultRuleSet() RuleSet {
	return RuleSet{
		RequiredSections: []RequiredSection{
			{Name: "introduction", Keywords: []string{"introduction", "intro", "overview", "getting started"}},
			{Name: "installation", Keywords: []string{"installation", "install", "setup", "getting started"}},
			{Name: "safety", Keywords: []string{"safety", "warning", "caution", "important"}},
			{Name: "troubleshooting", Keywords: []string{"troubleshooting", "troubleshoot", "faq", "problems", "issues"}},
		},
		Penalties: Penalties{
			MissingSection:        15,
			MissingImageCaption:   5,
			BrokenHeadingSequence: 10,
			ExcessiveHeadingDepth: 5,
		},
		MaxHeadingDepth: 4,
	}
}

// Validate checks the rule set for structural problems.
func (rs RuleSet) Validate() error {
	validate := validator.New()
	if err := validate.Struct(rs); err != nil {
		return fmt.Errorf("invalid rule set: %w", err)
	}
	return nil
}

// LoadRuleSet reads a YAML rule file on top of the defaults.
// Keys absent from the file keep their default values.
func LoadRuleSet(path string) (RuleSet, error) {
	rs := DefaultRuleSet()
	data, err := os.ReadFile(path)
	if err != nil {
		return RuleSet{}, fmt.Errorf("read rules %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return RuleSet{}, fmt.Errorf("parse rules %s: %w", path, err)
	}
	if err := rs.Validate(); err != nil {
		return RuleSet{}, err
	}
	return rs, nil
}
