package config

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetStateCodes(t *testing.T) {
	codes := GetStateCodes()
	assert.Len(t, codes, 27)

	seen := make(map[string]bool)
	for _, c := range codes {
		assert.Len(t, c, 2)
		assert.False(t, seen[c], "duplicate code %s", c)
		seen[c] = true
	}
}

func TestGetState(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "code", input: "SP", expected: "SP"},
		{name: "lowercase code", input: " rj ", expected: "RJ"},
		{name: "full name", input: "Minas Gerais", expected: "MG"},
		{name: "name with different case", input: "são paulo", expected: "SP"},
		{name: "unknown", input: "XX"},
		{name: "blank", input: "  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := GetState(tt.input)
			if tt.expected == "" {
				assert.Nil(t, state)
				return
			}
			require.NotNil(t, state)
			assert.Equal(t, tt.expected, state.Code)
		})
	}
}

func TestStateCentersInsideBrazil(t *testing.T) {
	brazil := orb.Bound{Min: orb.Point{-74.0, -34.0}, Max: orb.Point{-34.7, 5.3}}
	for _, s := range SupportedStates {
		assert.True(t, brazil.Contains(s.Center), "%s center %v", s.Code, s.Center)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 2, cfg.Gallery.MinImages)
	assert.Equal(t, 20, cfg.Gallery.MaxImages)
	assert.Equal(t, 3, cfg.Generation.MaxVariants)
	assert.Equal(t, int64(10*1024*1024), cfg.Gallery.MaxFileBytes)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("GALLERY_IMAGE_WIDTH", "800")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test,http://b.test")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 800, cfg.Gallery.Width)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.AllowedOrigins)
}
