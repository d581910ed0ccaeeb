package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrowserSection_Defaults(t *testing.T) {
	s := NewBrowserSection()

	assert.Equal(t, SectionIDBrowser, s.ID())
	assert.True(t, s.Headless)
	assert.Equal(t, 1280, s.ViewportWidth)
	assert.Equal(t, 720, s.ViewportHeight)
	assert.NoError(t, s.Validate())
}

func TestBrowserSection_SetData(t *testing.T) {
	s := NewBrowserSection()

	err := s.SetData(map[string]interface{}{
		"headless":             false,
		"viewport_width":       1920,
		"viewport_height":      1080,
		"max_sessions":         2,
		"idle_timeout_seconds": 60,
	})
	require.NoError(t, err)

	assert.False(t, s.Headless)
	assert.Equal(t, 1920, s.ViewportWidth)
	assert.Equal(t, 1080, s.ViewportHeight)
	assert.Equal(t, 2, s.MaxSessions)
	assert.Equal(t, 60, s.IdleTimeoutSeconds)
}

func TestBrowserSection_SetData_TypeErrors(t *testing.T) {
	tests := []struct {
		name string
		data map[string]interface{}
	}{
		{name: "headless not bool", data: map[string]interface{}{"headless": "yes"}},
		{name: "width not number", data: map[string]interface{}{"viewport_width": "wide"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewBrowserSection()
			assert.Error(t, s.SetData(tt.data))
		})
	}
}

func TestBrowserSection_Validate(t *testing.T) {
	s := NewBrowserSection()
	s.ViewportWidth = 0
	assert.Error(t, s.Validate())

	s = NewBrowserSection()
	s.MaxSessions = -1
	assert.Error(t, s.Validate())
}

func TestBrowserSection_Reset(t *testing.T) {
	s := NewBrowserSection()
	require.NoError(t, s.SetData(map[string]interface{}{"headless": false, "max_sessions": 99}))

	s.Reset()

	assert.True(t, s.Headless)
	assert.Equal(t, 5, s.MaxSessions)
}

func TestBrowserSection_DataRoundTrip(t *testing.T) {
	s := NewBrowserSection()
	data := s.Data()

	other := NewBrowserSection()
	require.NoError(t, other.SetData(data))
	assert.Equal(t, s.Data(), other.Data())
}
