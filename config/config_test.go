package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("BACKEND_URL", "http://backend.test/api")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test,")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("SESSION_TTL_MIN", "not-a-number")

	cfg := LoadConfig()

	assert.Equal(t, "http://backend.test/api", cfg.BackendURL)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
	assert.True(t, cfg.RedisEnabled)
	assert.Equal(t, 60, cfg.SessionTTLMin)
	assert.Equal(t, ImageHostCloudinary, cfg.ImageHost)
	assert.Equal(t, "upload_file", cfg.CloudinaryUploadPreset)
}
