package acquire

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/maktaba/corpus/internal/apperr"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "extract.sh")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o755))
	return path
}

func TestExportToMemorySortsByFilename(t *testing.T) {
	script := writeScript(t, `#!/bin/bash
echo '{"files": {"002.htm": "<p>two</p>", "001.htm": "<p>one</p>"}}'
`)
	a := New(Config{ScriptPath: script, Timeout: 5 * time.Second})

	pages, err := a.ExportToMemory(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, pages, 2)
	require.Equal(t, "001.htm", pages[0].Filename)
	require.Equal(t, "002.htm", pages[1].Filename)
	require.Equal(t, "<p>one</p>", string(pages[0].Content))
}

func TestExportToMemoryNonZeroExit(t *testing.T) {
	script := writeScript(t, `#!/bin/bash
echo "boom: missing source file" >&2
exit 1
`)
	a := New(Config{ScriptPath: script, Timeout: 5 * time.Second})

	_, err := a.ExportToMemory(context.Background(), 7)
	require.Error(t, err)
	ae := apperr.As(err)
	require.Equal(t, apperr.KindUpstreamPermanent, ae.Kind)
	require.Contains(t, ae.Message, "book 7")
	require.Contains(t, ae.Message, "boom: missing source file")
}

func TestExportToMemoryMalformedOutput(t *testing.T) {
	script := writeScript(t, `#!/bin/bash
echo 'not json'
`)
	a := New(Config{ScriptPath: script, Timeout: 5 * time.Second})

	_, err := a.ExportToMemory(context.Background(), 7)
	require.Error(t, err)
	ae := apperr.As(err)
	require.Equal(t, apperr.KindUpstreamPermanent, ae.Kind)
}

func TestExportToMemoryTimeout(t *testing.T) {
	script := writeScript(t, `#!/bin/bash
sleep 2
echo '{"files": {}}'
`)
	a := New(Config{ScriptPath: script, Timeout: 50 * time.Millisecond})

	_, err := a.ExportToMemory(context.Background(), 7)
	require.Error(t, err)
}
