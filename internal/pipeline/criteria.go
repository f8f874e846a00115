package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidCriteria wraps every validation failure returned by
// Criteria.Validate.
var ErrInvalidCriteria = errors.New("invalid criteria")

const (
	DefaultMaxHoursOld       = 24
	DefaultPreferredHoursOld = 12
	DefaultTopN              = 30
	DefaultPreferredCountry  = "india"
)

// DefaultMajorCities are the location terms that earn the top location tier.
var DefaultMajorCities = []string{"mumbai", "bangalore", "delhi"}

// Criteria is the relevance configuration consumed by the pipeline. Build
// one with DefaultCriteria or load it from a profile, then call Validate
// before use.
type Criteria struct {
	RequiredKeywords      []string `yaml:"required_keywords" json:"requiredKeywords" validate:"min=1,dive,required"`
	ExcludedEmployers     []string `yaml:"excluded_employers" json:"excludedEmployers" validate:"dive,required"`
	ExcludeJuniorKeywords []string `yaml:"exclude_junior_keywords" json:"excludeJuniorKeywords" validate:"dive,required"`
	SeniorityKeywords     []string `yaml:"seniority_keywords" json:"seniorityKeywords" validate:"min=1,dive,required"`
	MajorCities           []string `yaml:"major_cities" json:"majorCities" validate:"dive,required"`
	PreferredCountry      string   `yaml:"preferred_country" json:"preferredCountry"`

	MaxHoursOld       int `yaml:"max_hours_old" json:"maxHoursOld" validate:"gt=0"`
	PreferredHoursOld int `yaml:"preferred_hours_old" json:"preferredHoursOld" validate:"gt=0,ltefield=MaxHoursOld"`

	FuzzyDedup     bool    `yaml:"fuzzy_dedup" json:"fuzzyDedup"`
	FuzzyThreshold float64 `yaml:"fuzzy_threshold" json:"fuzzyThreshold" validate:"gt=0,lte=1"`

	TopN int `yaml:"top_n" json:"topN" validate:"gt=0"`
}

// DefaultCriteria returns criteria with every threshold at its default and
// no keyword lists. Keyword lists must be filled in before Validate passes.
func DefaultCriteria() Criteria {
	return Criteria{
		MajorCities:       append([]string(nil), DefaultMajorCities...),
		PreferredCountry:  DefaultPreferredCountry,
		MaxHoursOld:       DefaultMaxHoursOld,
		PreferredHoursOld: DefaultPreferredHoursOld,
		FuzzyThreshold:    DefaultFuzzyThreshold,
		TopN:              DefaultTopN,
	}
}

// WithDefaults fills zero-valued thresholds and location terms.
func (c Criteria) WithDefaults() Criteria {
	d := DefaultCriteria()
	if c.MaxHoursOld == 0 {
		c.MaxHoursOld = d.MaxHoursOld
	}
	if c.PreferredHoursOld == 0 {
		c.PreferredHoursOld = min(d.PreferredHoursOld, c.MaxHoursOld)
	}
	if c.FuzzyThreshold == 0 {
		c.FuzzyThreshold = d.FuzzyThreshold
	}
	if c.TopN == 0 {
		c.TopN = d.TopN
	}
	if c.MajorCities == nil {
		c.MajorCities = d.MajorCities
	}
	if c.PreferredCountry == "" {
		c.PreferredCountry = d.PreferredCountry
	}
	return c
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate reports every problem with c in one error wrapping
// ErrInvalidCriteria.
func (c Criteria) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidCriteria, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("%w: %s", ErrInvalidCriteria, strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.IndexByte(field, '.'); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "min":
		return fmt.Sprintf("%s needs at least %s entry", field, fe.Param())
	case "required":
		return fmt.Sprintf("%s must not contain empty terms", field)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s, got %v", field, fe.Param(), fe.Value())
	case "lte":
		return fmt.Sprintf("%s must be at most %s, got %v", field, fe.Param(), fe.Value())
	case "ltefield":
		return fmt.Sprintf("%s must not exceed %s, got %v", field, fe.Param(), fe.Value())
	default:
		return fmt.Sprintf("%s failed %q", field, fe.Tag())
	}
}
