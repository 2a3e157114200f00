// Package catalog holds the selectable detection model profiles.
package catalog

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// UnknownModelName is shown when a model id has no catalog entry.
const UnknownModelName = "Unknown Model"

type Speed string

const (
	SpeedVeryFast Speed = "Very Fast"
	SpeedFast     Speed = "Fast"
	SpeedMedium   Speed = "Medium"
	SpeedSlow     Speed = "Slow"
)

type Accuracy string

const (
	AccuracyVeryHigh Accuracy = "Very High"
	AccuracyHigh     Accuracy = "High"
	AccuracyMedium   Accuracy = "Medium"
	AccuracyLow      Accuracy = "Low"
)

func (s Speed) Valid() bool {
	switch s {
	case SpeedVeryFast, SpeedFast, SpeedMedium, SpeedSlow:
		return true
	}
	return false
}

func (a Accuracy) Valid() bool {
	switch a {
	case AccuracyVeryHigh, AccuracyHigh, AccuracyMedium, AccuracyLow:
		return true
	}
	return false
}

// Profile describes one selectable detector.
type Profile struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Speed       Speed    `json:"speed" yaml:"speed"`
	Accuracy    Accuracy `json:"accuracy" yaml:"accuracy"`
}

var builtin = []Profile{
	{
		ID:          "fast-yolo",
		Name:        "Fast YOLO v5",
		Description: "Optimized for speed with reasonable accuracy",
		Speed:       SpeedFast,
		Accuracy:    AccuracyMedium,
	},
	{
		ID:          "accurate-yolo",
		Name:        "Accurate YOLO v5",
		Description: "Balanced performance with higher precision",
		Speed:       SpeedMedium,
		Accuracy:    AccuracyHigh,
	},
	{
		ID:          "transformer",
		Name:        "ALPR Transformer",
		Description: "Superior accuracy with transformer architecture",
		Speed:       SpeedSlow,
		Accuracy:    AccuracyVeryHigh,
	},
	{
		ID:          "tiny-lpr",
		Name:        "Tiny LPR",
		Description: "Extremely lightweight for edge devices",
		Speed:       SpeedVeryFast,
		Accuracy:    AccuracyLow,
	},
}

// ErrInvalid is returned when a catalog file fails validation.
var ErrInvalid = errors.New("invalid catalog")

// Catalog is an immutable ordered set of profiles.
type Catalog struct {
	profiles []Profile
	index    map[string]int
}

// Builtin returns the compiled-in catalog.
func Builtin() *Catalog {
	c, err := New(builtin)
	if err != nil {
		panic(err)
	}
	return c
}

// New validates profiles and builds a catalog preserving their order.
func New(profiles []Profile) (*Catalog, error) {
	if len(profiles) == 0 {
		return nil, fmt.Errorf("%w: no models", ErrInvalid)
	}

	c := &Catalog{
		profiles: make([]Profile, len(profiles)),
		index:    make(map[string]int, len(profiles)),
	}
	for i, p := range profiles {
		if p.ID == "" {
			return nil, fmt.Errorf("%w: model %d has no id", ErrInvalid, i)
		}
		if _, dup := c.index[p.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate model id %q", ErrInvalid, p.ID)
		}
		if !p.Speed.Valid() {
			return nil, fmt.Errorf("%w: model %q has unknown speed %q", ErrInvalid, p.ID, p.Speed)
		}
		if !p.Accuracy.Valid() {
			return nil, fmt.Errorf("%w: model %q has unknown accuracy %q", ErrInvalid, p.ID, p.Accuracy)
		}
		c.profiles[i] = p
		c.index[p.ID] = i
	}
	return c, nil
}

type file struct {
	Models []Profile `yaml:"models"`
}

// Load reads a catalog from a YAML file with a top-level "models" list.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}

	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return New(f.Models)
}

// Models returns the profiles in display order. The slice is a copy.
func (c *Catalog) Models() []Profile {
	out := make([]Profile, len(c.profiles))
	copy(out, c.profiles)
	return out
}

// Lookup finds a profile by id.
func (c *Catalog) Lookup(id string) (Profile, bool) {
	i, ok := c.index[id]
	if !ok {
		return Profile{}, false
	}
	return c.profiles[i], true
}

// DisplayName resolves id to its display name, or UnknownModelName.
func (c *Catalog) DisplayName(id string) string {
	if p, ok := c.Lookup(id); ok {
		return p.Name
	}
	return UnknownModelName
}

// Default is the id of the first profile, the one pre-selected in the UI.
func (c *Catalog) Default() string {
	return c.profiles[0].ID
}
