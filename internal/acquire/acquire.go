// Package acquire invokes an out-of-process extractor to produce the raw
// per-page HTML for a book, returning it as in-memory blobs.
package acquire

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/maktaba/corpus/internal/apperr"
	"github.com/maktaba/corpus/internal/model"
)

const defaultTimeout = time.Hour

// Config configures the acquirer.
type Config struct {
	ScriptPath string
	Timeout    time.Duration
}

// Acquirer runs the extractor script and parses its output.
type Acquirer struct {
	scriptPath string
	timeout    time.Duration
}

// New constructs an Acquirer.
func New(cfg Config) *Acquirer {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Acquirer{scriptPath: cfg.ScriptPath, timeout: timeout}
}

type extractorOutput struct {
	Files map[string]string `json:"files"`
}

// ExportToMemory invokes the extractor for bookID with a bounded
// timeout and returns the pages it produced, sorted by filename.
// Non-zero exit or malformed output fails with a structured error
// identifying bookID and the underlying message.
func (a *Acquirer) ExportToMemory(ctx context.Context, bookID int64) ([]model.RawPage, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "bash", a.scriptPath, "--stdout", fmt.Sprintf("%d", bookID))
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		tail := tailLines(stderr.String(), 20)
		return nil, apperr.UpstreamPermanent(
			fmt.Sprintf("extractor failed for book %d: %v: %s", bookID, err, tail),
			err,
		)
	}

	var out extractorOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		return nil, apperr.UpstreamPermanent(
			fmt.Sprintf("extractor produced unparseable output for book %d: %v", bookID, err),
			err,
		)
	}

	pages := make([]model.RawPage, 0, len(out.Files))
	for filename, content := range out.Files {
		pages = append(pages, model.RawPage{Filename: filename, Content: []byte(content)})
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].Filename < pages[j].Filename })

	return pages, nil
}

func tailLines(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
