package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"jobmate/digest-service/internal/pipeline"
)

var (
	// ErrMissingSearchFile is returned when the profile file does not exist.
	ErrMissingSearchFile = errors.New("search profile file not found")
	// ErrNoProfiles is returned for a file that defines no profiles.
	ErrNoProfiles = errors.New("no search profiles defined")
	// ErrInvalidProfile wraps every structural problem in a profile.
	ErrInvalidProfile = errors.New("invalid search profile")
)

// DefaultMaxJobsPerSearch caps the records collected per search term and
// location when a profile does not set it.
const DefaultMaxJobsPerSearch = 25

// Profile is one saved search: what to look for, where, and how to judge
// what comes back.
type Profile struct {
	ID               string            `yaml:"id" json:"id" validate:"required,max=64"`
	Name             string            `yaml:"name" json:"name"`
	JobTypes         []string          `yaml:"job_types" json:"jobTypes" validate:"required_without=Feeds,dive,required"`
	Locations        []string          `yaml:"locations" json:"locations" validate:"required_with=JobTypes,dive,required"`
	MaxJobsPerSearch int               `yaml:"max_jobs_per_search" json:"maxJobsPerSearch" validate:"gte=0,lte=1000"`
	Feeds            []Feed            `yaml:"feeds" json:"feeds" validate:"dive"`
	Criteria         pipeline.Criteria `yaml:"criteria" json:"criteria" validate:"-"`
}

// Feed is an RSS or Atom job feed read alongside the searches.
type Feed struct {
	Name string `yaml:"name" json:"name" validate:"required"`
	URL  string `yaml:"url" json:"url" validate:"required,url"`
}

type profileFile struct {
	Profiles []Profile `yaml:"profiles"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// LoadProfiles reads and validates the profile file at path.
func LoadProfiles(path string) ([]Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingSearchFile, path)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	profiles, err := ParseProfiles(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return profiles, nil
}

// ParseProfiles decodes YAML profiles, applies defaults and validates each
// one. Unknown keys are rejected.
func ParseProfiles(data []byte) ([]Profile, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var file profileFile
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if len(file.Profiles) == 0 {
		return nil, ErrNoProfiles
	}

	seen := make(map[string]bool, len(file.Profiles))
	for i := range file.Profiles {
		p := &file.Profiles[i]
		p.applyDefaults()

		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("profile %d (%q): %w", i, p.ID, err)
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("%w: duplicate id %q", ErrInvalidProfile, p.ID)
		}
		seen[p.ID] = true
	}
	return file.Profiles, nil
}

func (p *Profile) applyDefaults() {
	p.ID = strings.TrimSpace(p.ID)
	if p.Name == "" {
		p.Name = p.ID
	}
	if p.MaxJobsPerSearch == 0 {
		p.MaxJobsPerSearch = DefaultMaxJobsPerSearch
	}
	p.Criteria = p.Criteria.WithDefaults()
}

// Validate checks the profile's own fields and its criteria.
func (p Profile) Validate() error {
	if err := validate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", strings.TrimPrefix(fe.Namespace(), "Profile."), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidProfile, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}
	return p.Criteria.Validate()
}

// FindProfile returns the profile with the given id.
func FindProfile(profiles []Profile, id string) (Profile, bool) {
	for _, p := range profiles {
		if p.ID == id {
			return p, true
		}
	}
	return Profile{}, false
}
