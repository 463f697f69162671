package utils_test

import (
	"testing"

	"github.com/jrsteele09/go-repo-uploader/internal/utils"
	"github.com/stretchr/testify/require"
)

func TestParseStringList(t *testing.T) {
	t.Run("json array", func(t *testing.T) {
		require.Equal(t, []string{"go", "cli"}, utils.ParseStringList(`["go", " cli ", "", 7]`))
	})

	t.Run("comma separated", func(t *testing.T) {
		require.Equal(t, []string{"go", "cli"}, utils.ParseStringList("go, cli,,"))
	})

	t.Run("broken json falls back to comma split", func(t *testing.T) {
		require.Equal(t, []string{`["go"`, `"cli"`}, utils.ParseStringList(`["go","cli"`))
	})

	t.Run("empty", func(t *testing.T) {
		require.Empty(t, utils.ParseStringList("  "))
	})
}

func TestFirstNonEmpty(t *testing.T) {
	require.Equal(t, "b", utils.FirstNonEmpty("", "b", "c"))
	require.Equal(t, "", utils.FirstNonEmpty())
}
