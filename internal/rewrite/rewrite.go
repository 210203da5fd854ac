// Package rewrite turns a raw user query into an optimized query, an
// optional set of sub-queries, and category hints, by delegating to an
// external chat model with a fixed higher-order category taxonomy.
package rewrite

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/avast/retry-go/v4"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/maktaba/corpus/internal/apperr"
	"github.com/maktaba/corpus/internal/providers"
)

const (
	// MaxQueryLength bounds a raw query, matching the optimizer's own
	// input contract.
	MaxQueryLength = 1000
	// maxSubQueries caps how many sub-queries the model may return.
	maxSubQueries = 5
)

// Result is what one rewrite call produces.
type Result struct {
	OptimizedQuery string   `json:"optimized_query"`
	SubQueries     []string `json:"sub_queries,omitempty"`
	Categories     []string `json:"categories,omitempty"`
}

// Config configures a Rewriter.
type Config struct {
	Model      string
	Timeout    time.Duration // per-request hard timeout, default 30s
	MaxRetries uint          // default 3
	MinDelay   time.Duration // default 4s
	MaxDelay   time.Duration // default 10s
}

// DefaultConfig mirrors the optimizer service's own defaults: 3
// attempts, exponential backoff from 4s to 10s, 30s hard timeout.
func DefaultConfig() Config {
	return Config{
		Timeout:    30 * time.Second,
		MaxRetries: 3,
		MinDelay:   4 * time.Second,
		MaxDelay:   10 * time.Second,
	}
}

// Rewriter calls an LLMClient to optimize raw queries.
type Rewriter struct {
	llm      providers.LLMClient
	cfg      Config
	schema   []byte
	compiled *jsonschema.Schema
}

// New builds a Rewriter over llm. Zero-valued Config fields fall back
// to DefaultConfig. Panics if the embedded response schema fails to
// compile, which would only happen if this package itself were broken.
func New(llm providers.LLMClient, cfg Config) *Rewriter {
	defaults := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = defaults.MaxRetries
	}
	if cfg.MinDelay <= 0 {
		cfg.MinDelay = defaults.MinDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = defaults.MaxDelay
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("rewrite-response.json", bytes.NewReader([]byte(responseSchema))); err != nil {
		panic(fmt.Sprintf("rewrite: invalid response schema: %v", err))
	}
	compiled, err := compiler.Compile("rewrite-response.json")
	if err != nil {
		panic(fmt.Sprintf("rewrite: response schema does not compile: %v", err))
	}

	return &Rewriter{llm: llm, cfg: cfg, schema: []byte(responseSchema), compiled: compiled}
}

// validate checks raw JSON against the response schema before it is
// unmarshaled into a Result.
func (r *Rewriter) validate(raw []byte) error {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}
	return r.compiled.Validate(doc)
}

// responseSchema is the JSON schema the model's structured output must
// conform to.
const responseSchema = `{
  "type": "object",
  "properties": {
    "optimized_query": {"type": "string", "minLength": 1, "maxLength": 1000},
    "sub_queries": {"type": "array", "items": {"type": "string"}, "maxItems": 5},
    "categories": {"type": "array", "items": {"type": "string"}}
  },
  "required": ["optimized_query"]
}`

const promptTemplate = `You are optimizing a search query for a library of classical Arabic books.

Rewrite the user's query into a clearer, more searchable form. If the
query covers more than one distinct idea, split it into up to %d focused
sub-queries. Select zero or more of the following higher-order subject
categories that the query relates to:
%s

Respond with a single JSON object matching the required schema. Do not
invent category names outside the list above.

User query: %s`

func buildPrompt(query string) string {
	var categories strings.Builder
	for _, name := range categoryOrder {
		categories.WriteString("  - ")
		categories.WriteString(name)
		categories.WriteString("\n")
	}
	return fmt.Sprintf(promptTemplate, maxSubQueries, strings.TrimRight(categories.String(), "\n"), query)
}

// Rewrite validates query, calls the backing LLM with retry and a hard
// timeout, and resolves returned category hints to concrete category
// names.
func (r *Rewriter) Rewrite(ctx context.Context, query string) (Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Result{}, apperr.Validation("query must not be empty")
	}
	if utf8.RuneCountInString(query) > MaxQueryLength {
		return Result{}, apperr.Validationf("query exceeds maximum length of %d characters", MaxQueryLength)
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	var result Result
	err := retry.Do(
		func() error {
			parsed, err := r.callOnce(ctx, query)
			if err != nil {
				return err
			}
			result = parsed
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(r.cfg.MaxRetries),
		retry.Delay(r.cfg.MinDelay),
		retry.MaxDelay(r.cfg.MaxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return Result{}, apperr.UpstreamTransient("rewrite query", err)
	}

	result.Categories = ResolveCategories(result.Categories)
	return result, nil
}

func (r *Rewriter) callOnce(ctx context.Context, query string) (Result, error) {
	resp, err := r.llm.Chat(ctx, &providers.ChatRequest{
		Messages: []providers.ChatMessage{
			{Role: "user", Content: buildPrompt(query)},
		},
		Model:      r.cfg.Model,
		JSONSchema: r.schema,
	})
	if err != nil {
		return Result{}, err
	}

	raw := []byte(strings.TrimSpace(resp.Content))
	if err := r.validate(raw); err != nil {
		return Result{}, fmt.Errorf("rewrite response failed schema validation: %w", err)
	}

	var parsed Result
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return Result{}, fmt.Errorf("parse rewrite response: %w", err)
	}
	if parsed.OptimizedQuery == "" {
		return Result{}, fmt.Errorf("rewrite response missing optimized_query")
	}
	if len(parsed.SubQueries) > maxSubQueries {
		parsed.SubQueries = parsed.SubQueries[:maxSubQueries]
	}
	return parsed, nil
}
