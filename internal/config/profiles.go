package config

import (
	"errors"
	"fmt"
	"image"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"jordanella.com/pagecapture-go/internal/cv"
)

// Profile overrides settings for one app, keyed by bundle id or package name
type Profile struct {
	ID            string     `yaml:"id"`
	Name          string     `yaml:"name,omitempty"`
	Threshold     *int       `yaml:"threshold,omitempty"`
	MaxDuplicates *int       `yaml:"max_duplicates,omitempty"`
	PageLoadMs    *int       `yaml:"page_load_ms,omitempty"`
	PostAdvanceMs *int       `yaml:"post_advance_ms,omitempty"`
	KeySettleMs   *int       `yaml:"key_settle_ms,omitempty"`
	ProbeRegion   *RegionDef `yaml:"probe_region,omitempty"`
	NextKey       string     `yaml:"next_key,omitempty"`
}

// RegionDef is a fractional region in the YAML file
type RegionDef struct {
	Left   float64 `yaml:"left"`
	Top    float64 `yaml:"top"`
	Right  float64 `yaml:"right"`
	Bottom float64 `yaml:"bottom"`
}

// fullRect resolves fractional regions when validating them
var fullRect = image.Rect(0, 0, 1000, 1000)

// ProfileFile is the structure of profiles.yaml
type ProfileFile struct {
	Profiles []Profile `yaml:"profiles"`
}

// ProfileRegistry holds the loaded profiles
type ProfileRegistry struct {
	mu       sync.RWMutex
	profiles map[string]Profile
}

// NewProfileRegistry creates an empty registry
func NewProfileRegistry() *ProfileRegistry {
	return &ProfileRegistry{profiles: make(map[string]Profile)}
}

// LoadProfiles reads path into a new registry. A missing file is an empty registry.
func LoadProfiles(path string) (*ProfileRegistry, error) {
	reg := NewProfileRegistry()
	if path == "" {
		return reg, nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return reg, nil
	}
	if err := reg.LoadFromFile(path); err != nil {
		return nil, err
	}
	return reg, nil
}

// LoadFromFile loads profiles from a YAML file, replacing entries with the same id
func (r *ProfileRegistry) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read profile file %s: %w", path, err)
	}

	var file ProfileFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to unmarshal profile YAML: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for i, p := range file.Profiles {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("profile %d: %w", i+1, err)
		}
	}
	for _, p := range file.Profiles {
		r.profiles[p.ID] = p
	}

	return nil
}

// Validate checks the overrides a profile sets
func (p Profile) Validate() error {
	if p.ID == "" {
		return errors.New("id cannot be empty")
	}
	if p.Threshold != nil && (*p.Threshold < 0 || *p.Threshold > cv.FingerprintBits) {
		return fmt.Errorf("%s: threshold %d out of range 0-%d", p.ID, *p.Threshold, cv.FingerprintBits)
	}
	if p.MaxDuplicates != nil && *p.MaxDuplicates < 1 {
		return fmt.Errorf("%s: max_duplicates must be at least 1, got %d", p.ID, *p.MaxDuplicates)
	}
	for name, v := range map[string]*int{
		"page_load_ms":    p.PageLoadMs,
		"post_advance_ms": p.PostAdvanceMs,
		"key_settle_ms":   p.KeySettleMs,
	} {
		if v != nil && *v < 0 {
			return fmt.Errorf("%s: %s cannot be negative, got %d", p.ID, name, *v)
		}
	}
	if p.ProbeRegion != nil {
		if _, ok := p.ProbeRegion.Region().Rect(fullRect); !ok {
			return fmt.Errorf("%s: probe region is empty or inverted", p.ID)
		}
	}
	return nil
}

// Get returns the profile for id
func (r *ProfileRegistry) Get(id string) (Profile, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[id]
	return p, ok
}

// IDs returns the registered ids in sorted order
func (r *ProfileRegistry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.idsLocked()
}

// SaveToFile writes the registry as YAML
func (r *ProfileRegistry) SaveToFile(path string) error {
	r.mu.RLock()
	file := ProfileFile{}
	for _, id := range r.idsLocked() {
		file.Profiles = append(file.Profiles, r.profiles[id])
	}
	r.mu.RUnlock()

	data, err := yaml.Marshal(&file)
	if err != nil {
		return fmt.Errorf("failed to marshal profiles: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Set adds or replaces a profile
func (r *ProfileRegistry) Set(p Profile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[p.ID] = p
}

func (r *ProfileRegistry) idsLocked() []string {
	ids := make([]string, 0, len(r.profiles))
	for id := range r.profiles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Region converts the definition to a cv.Region
func (d RegionDef) Region() cv.Region {
	return cv.NewRegion(d.Left, d.Top, d.Right, d.Bottom)
}

// Apply returns a copy of s with the profile's overrides applied
func (p Profile) Apply(s *Settings) *Settings {
	out := *s
	if p.Threshold != nil {
		out.Threshold = *p.Threshold
	}
	if p.MaxDuplicates != nil {
		out.MaxDuplicates = *p.MaxDuplicates
	}
	if p.PageLoadMs != nil {
		out.PageLoadMs = *p.PageLoadMs
	}
	if p.PostAdvanceMs != nil {
		out.PostAdvanceMs = *p.PostAdvanceMs
	}
	if p.KeySettleMs != nil {
		out.KeySettleMs = *p.KeySettleMs
	}
	if p.ProbeRegion != nil {
		out.ProbeRegion = p.ProbeRegion.Region()
	}
	if p.NextKey != "" {
		out.NextKey = p.NextKey
	}
	return &out
}
