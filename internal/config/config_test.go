package config

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/careops/scheduler-api/internal/middleware"
)

func TestCORSConfigToMiddlewareConfig(t *testing.T) {
	cfg := CORSConfig{
		AllowedOrigins: []string{"https://portal.careops.example"},
		AllowedMethods: []string{"GET", "POST"},
	}

	mc := cfg.ToMiddlewareConfig()

	assert.Equal(t, []string{"https://portal.careops.example"}, mc.AllowOrigins)
	assert.Equal(t, []string{"GET", "POST"}, mc.AllowMethods)
	// Headers were not configured, so the defaults survive.
	assert.Equal(t, middleware.DefaultCORSConfig().AllowHeaders, mc.AllowHeaders)
	assert.True(t, mc.AllowCredentials)
}

func TestCORSConfigEmptyKeepsDefaults(t *testing.T) {
	var cfg CORSConfig

	assert.Equal(t, middleware.DefaultCORSConfig(), cfg.ToMiddlewareConfig())
}
