package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jrsteele09/go-repo-uploader/internal/config"
	"github.com/stretchr/testify/require"
)

func setValidEnv(t *testing.T) {
	t.Helper()
	t.Setenv("GITHUB_CLIENT_ID", "Iv1.0123456789")
	t.Setenv("GITHUB_CLIENT_SECRET", "0123456789abcdef0123")
	t.Setenv("SESSION_SECRET", "0123456789abcdef0123456789abcdef")
}

func TestDefaults(t *testing.T) {
	t.Setenv("BASE_URL", "")
	t.Setenv("PORT", "")
	t.Setenv("SESSION_MAX_AGE", "")
	t.Setenv("MAX_FILE_SIZE", "")
	c := config.New()

	require.Equal(t, ":3000", c.GetPort())
	require.Equal(t, "http://localhost:3000", c.GetBaseURL())
	require.Equal(t, "http://localhost:3000/auth/github/callback", c.GetGitHubRedirectURL())
	require.Equal(t, 24*time.Hour, c.GetSessionMaxAge())
	require.Equal(t, int64(100*config.MB), c.GetMaxFileSize())
	require.Equal(t, 10000, c.GetMaxArchiveEntries())
	require.Equal(t, int64(50*config.MB), c.GetMaxEntrySize())
	require.Equal(t, time.Minute, c.GetRateLimitWindow())
	require.Equal(t, 100, c.GetRateLimitMaxRequests())
	require.Equal(t, 10, c.GetUploadRateLimitMax())
	require.Equal(t, []string{"user:email", "repo", "public_repo"}, c.GetGitHubScopes())
}

func TestOverrides(t *testing.T) {
	t.Setenv("PORT", ":9000")
	t.Setenv("BASE_URL", "https://up.example.com/")
	t.Setenv("SESSION_MAX_AGE", "1500")
	t.Setenv("MAX_FILE_SIZE", "not-a-number")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("ENV", "prod")
	c := config.New()

	require.Equal(t, ":9000", c.GetPort())
	require.Equal(t, "https://up.example.com/auth/github/callback", c.GetGitHubRedirectURL())
	require.Equal(t, 1500*time.Millisecond, c.GetSessionMaxAge())
	require.Equal(t, int64(100*config.MB), c.GetMaxFileSize(), "malformed values fall back to the default")
	require.True(t, c.IsProduction())

	origins := c.GetAllowedOrigins()
	require.True(t, origins.IsAllowedOrigin("https://up.example.com"))
	require.True(t, origins.IsAllowedOrigin("https://a.example.com"))
	require.True(t, origins.IsAllowedOrigin("https://b.example.com"))
	require.False(t, origins.IsAllowedOrigin("https://evil.example.com"))
}

func TestValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		setValidEnv(t)
		require.NoError(t, config.Validate(config.New()))
	})

	t.Run("short secret", func(t *testing.T) {
		setValidEnv(t)
		t.Setenv("SESSION_SECRET", "too-short")
		err := config.Validate(config.New())
		require.Error(t, err)
		require.Contains(t, err.Error(), "SESSION_SECRET")
	})

	t.Run("missing client credentials", func(t *testing.T) {
		setValidEnv(t)
		t.Setenv("GITHUB_CLIENT_ID", "")
		t.Setenv("GITHUB_CLIENT_SECRET", "")
		err := config.Validate(config.New())
		require.Error(t, err)
		require.Contains(t, err.Error(), "GITHUB_CLIENT_ID")
		require.Contains(t, err.Error(), "GITHUB_CLIENT_SECRET")
	})

	t.Run("tiny max file size", func(t *testing.T) {
		setValidEnv(t)
		t.Setenv("MAX_FILE_SIZE", "1024")
		err := config.Validate(config.New())
		require.Error(t, err)
		require.Contains(t, err.Error(), "MAX_FILE_SIZE")
	})
}

func TestLoadDotEnv(t *testing.T) {
	t.Setenv("APP_NAME", "")
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("APP_NAME=From Dotenv\n"), 0o600))
	os.Unsetenv("APP_NAME")

	c := config.Load(envFile)
	require.Equal(t, "From Dotenv", c.GetAppName())
	os.Unsetenv("APP_NAME")
}
