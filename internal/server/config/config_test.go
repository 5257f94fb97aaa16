package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "0123456789abcdef0123456789abcdef"

func parse(vars map[string]string) (*Config, error) {
	return Parse(env.Options{Prefix: EnvPrefix, Environment: vars})
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := parse(map[string]string{"BLOG_JWT_KEY": testKey})
	require.NoError(t, err)

	assert.Equal(t, ":5073", cfg.HTTP.Addr)
	assert.Equal(t, "/api", cfg.HTTP.APIPrefix)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.HTTP.CORSAllowedOrigins)
	assert.Equal(t, 60*time.Minute, cfg.JWT.TTL)
	assert.Equal(t, "gopherblog", cfg.JWT.Issuer)
	assert.Equal(t, "gopherblog-frontend", cfg.JWT.Audience)
	assert.Equal(t, BackendDisk, cfg.Storage.Backend)
	assert.Equal(t, int64(5<<20), cfg.UploadMaxBytes)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Empty(t, cfg.Seed.Password)
}

func TestParse_Overrides(t *testing.T) {
	cfg, err := parse(map[string]string{
		"BLOG_JWT_KEY":                   testKey,
		"BLOG_JWT_TTL":                   "15m",
		"BLOG_HTTP_ADDR":                 ":8080",
		"BLOG_HTTP_CORS_ALLOWED_ORIGINS": "https://a.example.com,https://b.example.com",
		"BLOG_STORAGE_BACKEND":           "s3",
		"BLOG_S3_BUCKET":                 "images",
		"BLOG_S3_REGION":                 "eu-central-1",
		"BLOG_S3_FORCE_PATH_STYLE":       "true",
		"BLOG_SEED_ADMIN_PASSWORD":       "s3cret-pass",
	})
	require.NoError(t, err)

	assert.Equal(t, 15*time.Minute, cfg.JWT.TTL)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.HTTP.CORSAllowedOrigins)
	assert.Equal(t, BackendS3, cfg.Storage.Backend)
	assert.True(t, cfg.S3.ForcePathStyle)
	assert.Equal(t, "s3cret-pass", cfg.Seed.Password)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		vars map[string]string
		name string
	}{
		{name: "missing key", vars: map[string]string{}},
		{name: "short key", vars: map[string]string{"BLOG_JWT_KEY": "short"}},
		{name: "ttl too long", vars: map[string]string{"BLOG_JWT_KEY": testKey, "BLOG_JWT_TTL": "61m"}},
		{name: "zero ttl", vars: map[string]string{"BLOG_JWT_KEY": testKey, "BLOG_JWT_TTL": "0s"}},
		{name: "unknown backend", vars: map[string]string{"BLOG_JWT_KEY": testKey, "BLOG_STORAGE_BACKEND": "ftp"}},
		{name: "s3 without bucket", vars: map[string]string{"BLOG_JWT_KEY": testKey, "BLOG_STORAGE_BACKEND": "s3"}},
		{name: "bad prefix", vars: map[string]string{"BLOG_JWT_KEY": testKey, "BLOG_HTTP_API_PREFIX": "api"}},
		{name: "zero rate", vars: map[string]string{"BLOG_JWT_KEY": testKey, "BLOG_LOGIN_RATE_LIMIT": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parse(tt.vars)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestParse_BadDuration(t *testing.T) {
	_, err := parse(map[string]string{"BLOG_JWT_KEY": testKey, "BLOG_JWT_TTL": "forever"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrParsingConfig)
}

func TestParse_KeyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jwt.key")
	require.NoError(t, os.WriteFile(path, []byte(testKey+"\n"), 0o600))

	cfg, err := parse(map[string]string{"BLOG_JWT_KEY_FILE": path})
	require.NoError(t, err)
	assert.Equal(t, testKey, cfg.JWT.Key)

	_, err = parse(map[string]string{"BLOG_JWT_KEY_FILE": path, "BLOG_JWT_KEY": testKey})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = parse(map[string]string{"BLOG_JWT_KEY_FILE": filepath.Join(t.TempDir(), "missing")})
	assert.Error(t, err)
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	content := "BLOG_JWT_KEY=" + testKey + "\nBLOG_HTTP_ADDR=:9999\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	// godotenv не перезаписывает уже заданные переменные
	t.Setenv("BLOG_HTTP_ADDR", "")
	require.NoError(t, os.Unsetenv("BLOG_HTTP_ADDR"))
	t.Setenv("BLOG_JWT_KEY", "")
	require.NoError(t, os.Unsetenv("BLOG_JWT_KEY"))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.HTTP.Addr)

	_, err = Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestConfig_StringHidesSecrets(t *testing.T) {
	cfg, err := parse(map[string]string{
		"BLOG_JWT_KEY":              testKey,
		"BLOG_SEED_ADMIN_PASSWORD":  "s3cret-pass",
		"BLOG_S3_SECRET_ACCESS_KEY": "aws-secret",
	})
	require.NoError(t, err)

	s := cfg.String()
	for _, secret := range []string{testKey, "s3cret-pass", "aws-secret"} {
		assert.False(t, strings.Contains(s, secret), "config string leaks %q", secret)
	}
}
