package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/embedkit/pkg/compat/detect"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{name: "valid", config: Config{URL: "https://example.com", Timeout: 30000}},
		{name: "missing url", config: Config{Timeout: 30000}, wantErr: true},
		{name: "unknown framework", config: Config{URL: "https://example.com", Framework: "angular", Timeout: 30000}, wantErr: true},
		{name: "known framework", config: Config{URL: "https://example.com", Framework: "vue", Timeout: 30000}},
		{name: "non-positive timeout", config: Config{URL: "https://example.com", Timeout: 0}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{".a img", ".b img"}, splitList(".a img, .b img"))
	assert.Equal(t, []string{"img"}, splitList(" img ,, "))
	assert.Empty(t, splitList(""))
}

func TestBuildCompatConfig_FlagOverrides(t *testing.T) {
	cfg := buildCompatConfig(&Config{
		Framework:        "react",
		CustomSelectors:  ".hero img,.promo img",
		ExcludeSelectors: ".ad img",
		ExcludeSources:   "*/sprites/*",
	})

	assert.False(t, cfg.AutoDetect, "forcing a framework disables detection")
	assert.Equal(t, detect.FrameworkReact, cfg.Framework)
	assert.Equal(t, []string{".hero img", ".promo img"}, cfg.CustomSelectors)
	assert.Equal(t, []string{".ad img"}, cfg.ExcludeSelectors)
	assert.Equal(t, []string{"*/sprites/*"}, cfg.ExcludeSources)
}

func TestBuildCompatConfig_DefaultsWithoutFlags(t *testing.T) {
	cfg := buildCompatConfig(&Config{})

	assert.True(t, cfg.AutoDetect)
	assert.Empty(t, cfg.Framework)
}

func TestReport_WriteJSON(t *testing.T) {
	report := buildReport("https://example.com", &detect.Info{
		Type:       detect.FrameworkWordPress,
		Detected:   true,
		Confidence: 0.57,
		Version:    "6.4",
		Evidence:   []string{"generator meta WordPress 6.4"},
	}, 3)

	var buf bytes.Buffer
	require.NoError(t, report.WriteJSON(&buf))

	var decoded Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "https://example.com", decoded.URL)
	assert.Equal(t, detect.FrameworkWordPress, decoded.Framework.Type)
	assert.Equal(t, 3, decoded.EditableImages)
}

func TestReport_Render(t *testing.T) {
	report := buildReport("https://example.com", &detect.Info{
		Type:       detect.FrameworkReact,
		Detected:   true,
		Confidence: 1.0,
		Version:    "18.2.0",
		Evidence:   []string{"window.React global"},
	}, 12)

	out := report.Render()
	assert.Contains(t, out, "react")
	assert.Contains(t, out, "18.2.0")
	assert.Contains(t, out, "100%")
	assert.Contains(t, out, "12 editable")
	assert.Contains(t, out, "window.React global")
}
