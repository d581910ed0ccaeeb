package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/entrhq/embedkit/pkg/compat"
	"github.com/entrhq/embedkit/pkg/compat/detect"
)

const (
	// SectionIDCompat is the identifier for the compatibility section
	SectionIDCompat = "compat"
)

// CompatSection manages host-page compatibility settings: detection
// mode, a forced framework variant, and selector overrides.
type CompatSection struct {
	AutoDetect       bool
	Framework        string
	CustomSelectors  []string
	ExcludeSelectors []string
	ExcludeSources   []string
	DebounceWindowMS int
	mu               sync.RWMutex
}

// NewCompatSection creates a new compatibility section with default
// settings (auto-detection enabled, no overrides).
func NewCompatSection() *CompatSection {
	return &CompatSection{
		AutoDetect:       true,
		DebounceWindowMS: int(compat.DefaultDebounceWindow / time.Millisecond),
	}
}

// ID returns the section identifier.
func (s *CompatSection) ID() string {
	return SectionIDCompat
}

// Title returns the section title.
func (s *CompatSection) Title() string {
	return "Compatibility Settings"
}

// Description returns the section description.
func (s *CompatSection) Description() string {
	return "Configure framework detection, forced framework variants, and image selector overrides."
}

// Data returns the current configuration data.
func (s *CompatSection) Data() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]interface{}{
		"auto_detect":        s.AutoDetect,
		"framework":          s.Framework,
		"custom_selectors":   toAnySlice(s.CustomSelectors),
		"exclude_selectors":  toAnySlice(s.ExcludeSelectors),
		"exclude_sources":    toAnySlice(s.ExcludeSources),
		"debounce_window_ms": s.DebounceWindowMS,
	}
}

// SetData updates the configuration from the provided data.
func (s *CompatSection) SetData(data map[string]interface{}) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, value := range data {
		switch key {
		case "auto_detect":
			enabled, ok := value.(bool)
			if !ok {
				return fmt.Errorf("invalid value type for auto_detect: expected bool, got %T", value)
			}
			s.AutoDetect = enabled
		case "framework":
			name, ok := value.(string)
			if !ok {
				return fmt.Errorf("invalid value type for framework: expected string, got %T", value)
			}
			s.Framework = name
		case "custom_selectors":
			selectors, err := asStringSlice(value)
			if err != nil {
				return fmt.Errorf("invalid value for custom_selectors: %w", err)
			}
			s.CustomSelectors = selectors
		case "exclude_selectors":
			selectors, err := asStringSlice(value)
			if err != nil {
				return fmt.Errorf("invalid value for exclude_selectors: %w", err)
			}
			s.ExcludeSelectors = selectors
		case "exclude_sources":
			patterns, err := asStringSlice(value)
			if err != nil {
				return fmt.Errorf("invalid value for exclude_sources: %w", err)
			}
			s.ExcludeSources = patterns
		case "debounce_window_ms":
			n, err := asInt(value)
			if err != nil {
				return fmt.Errorf("invalid value for debounce_window_ms: %w", err)
			}
			s.DebounceWindowMS = n
		}
	}

	return nil
}

// Validate validates the current configuration.
func (s *CompatSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.Framework != "" {
		if _, err := detect.ParseFramework(s.Framework); err != nil {
			return err
		}
	}
	if !s.AutoDetect && s.Framework == "" {
		return fmt.Errorf("framework is required when auto_detect is disabled")
	}
	if s.DebounceWindowMS < 0 {
		return fmt.Errorf("debounce_window_ms must not be negative, got %d", s.DebounceWindowMS)
	}
	return nil
}

// Reset resets the section to default configuration.
func (s *CompatSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.AutoDetect = true
	s.Framework = ""
	s.CustomSelectors = nil
	s.ExcludeSelectors = nil
	s.ExcludeSources = nil
	s.DebounceWindowMS = int(compat.DefaultDebounceWindow / time.Millisecond)
}

// ToCompat converts the section into the runtime configuration the
// compatibility manager consumes.
func (s *CompatSection) ToCompat() compat.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cfg := compat.Config{
		AutoDetect:       s.AutoDetect,
		Framework:        detect.Framework(s.Framework),
		CustomSelectors:  append([]string(nil), s.CustomSelectors...),
		ExcludeSelectors: append([]string(nil), s.ExcludeSelectors...),
		ExcludeSources:   append([]string(nil), s.ExcludeSources...),
	}
	if s.DebounceWindowMS > 0 {
		cfg.DebounceWindow = time.Duration(s.DebounceWindowMS) * time.Millisecond
	}
	return cfg
}

func toAnySlice(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func asStringSlice(value interface{}) ([]string, error) {
	switch list := value.(type) {
	case nil:
		return nil, nil
	case []string:
		return append([]string(nil), list...), nil
	case []interface{}:
		out := make([]string, 0, len(list))
		for _, item := range list {
			str, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected string element, got %T", item)
			}
			out = append(out, str)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected list of strings, got %T", value)
	}
}
