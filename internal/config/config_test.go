package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveEnvVars(t *testing.T) {
	t.Setenv("CORPUS_TEST_KEY", "secret-value")

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"no placeholder", "plain", "plain"},
		{"single placeholder", "${CORPUS_TEST_KEY}", "secret-value"},
		{"missing env var", "${CORPUS_TEST_MISSING}", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, ResolveEnvVars(tc.in))
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.Equal(t, "islamic_library", cfg.VectorStore.CollectionName)
	require.Equal(t, "_default", cfg.VectorStore.DefaultPartition)
	require.Equal(t, 3, cfg.Jobs.Workers)
	require.Equal(t, 100, cfg.Embedding.RemoteBatchSize)
}

func TestNewManagerWithMissingFileFallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	_ = os.Chdir(dir)

	m, err := NewManager("")
	require.NoError(t, err)
	require.Equal(t, 3, m.Get().Jobs.Workers)
}
