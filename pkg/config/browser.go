package config

import (
	"fmt"
	"sync"
)

const (
	// SectionIDBrowser is the identifier for the browser settings section
	SectionIDBrowser = "browser"

	// Default values for browser settings
	defaultHeadless           = true
	defaultViewportWidth      = 1280
	defaultViewportHeight     = 720
	defaultMaxSessions        = 5
	defaultIdleTimeoutSeconds = 300
)

// BrowserSection manages browser session settings.
type BrowserSection struct {
	Headless           bool
	ViewportWidth      int
	ViewportHeight     int
	MaxSessions        int
	IdleTimeoutSeconds int
	mu                 sync.RWMutex
}

// NewBrowserSection creates a new browser section with default settings.
func NewBrowserSection() *BrowserSection {
	return &BrowserSection{
		Headless:           defaultHeadless,
		ViewportWidth:      defaultViewportWidth,
		ViewportHeight:     defaultViewportHeight,
		MaxSessions:        defaultMaxSessions,
		IdleTimeoutSeconds: defaultIdleTimeoutSeconds,
	}
}

// ID returns the section identifier.
func (s *BrowserSection) ID() string {
	return SectionIDBrowser
}

// Title returns the section title.
func (s *BrowserSection) Title() string {
	return "Browser Settings"
}

// Description returns the section description.
func (s *BrowserSection) Description() string {
	return "Configure browser session behavior including headless mode, viewport size, and session limits."
}

// Data returns the current configuration data.
func (s *BrowserSection) Data() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]interface{}{
		"headless":             s.Headless,
		"viewport_width":       s.ViewportWidth,
		"viewport_height":      s.ViewportHeight,
		"max_sessions":         s.MaxSessions,
		"idle_timeout_seconds": s.IdleTimeoutSeconds,
	}
}

// SetData updates the configuration from the provided data.
func (s *BrowserSection) SetData(data map[string]interface{}) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, value := range data {
		switch key {
		case "headless":
			enabled, ok := value.(bool)
			if !ok {
				return fmt.Errorf("invalid value type for headless: expected bool, got %T", value)
			}
			s.Headless = enabled
		case "viewport_width":
			n, err := asInt(value)
			if err != nil {
				return fmt.Errorf("invalid value for viewport_width: %w", err)
			}
			s.ViewportWidth = n
		case "viewport_height":
			n, err := asInt(value)
			if err != nil {
				return fmt.Errorf("invalid value for viewport_height: %w", err)
			}
			s.ViewportHeight = n
		case "max_sessions":
			n, err := asInt(value)
			if err != nil {
				return fmt.Errorf("invalid value for max_sessions: %w", err)
			}
			s.MaxSessions = n
		case "idle_timeout_seconds":
			n, err := asInt(value)
			if err != nil {
				return fmt.Errorf("invalid value for idle_timeout_seconds: %w", err)
			}
			s.IdleTimeoutSeconds = n
		}
	}

	return nil
}

// Validate validates the current configuration.
func (s *BrowserSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.ViewportWidth <= 0 || s.ViewportHeight <= 0 {
		return fmt.Errorf("viewport dimensions must be positive, got %dx%d", s.ViewportWidth, s.ViewportHeight)
	}
	if s.MaxSessions <= 0 {
		return fmt.Errorf("max_sessions must be positive, got %d", s.MaxSessions)
	}
	if s.IdleTimeoutSeconds <= 0 {
		return fmt.Errorf("idle_timeout_seconds must be positive, got %d", s.IdleTimeoutSeconds)
	}
	return nil
}

// Reset resets the section to default configuration.
func (s *BrowserSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Headless = defaultHeadless
	s.ViewportWidth = defaultViewportWidth
	s.ViewportHeight = defaultViewportHeight
	s.MaxSessions = defaultMaxSessions
	s.IdleTimeoutSeconds = defaultIdleTimeoutSeconds
}

// asInt converts the numeric types the YAML decoder may produce.
func asInt(value interface{}) (int, error) {
	switch n := value.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("expected number, got %T", value)
	}
}
