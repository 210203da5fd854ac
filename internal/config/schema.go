package config

import "time"

// Config holds the full configuration surface for both the export
// service and the gateway service. A single binary may load only the
// sections it needs.
type Config struct {
	Catalog     CatalogConfig     `mapstructure:"catalog" yaml:"catalog"`
	ObjectStore ObjectStoreConfig `mapstructure:"object_store" yaml:"object_store"`
	RelStore    RelStoreConfig    `mapstructure:"rel_store" yaml:"rel_store"`
	VectorStore VectorStoreConfig `mapstructure:"vector_store" yaml:"vector_store"`
	Acquirer    AcquirerConfig    `mapstructure:"acquirer" yaml:"acquirer"`
	Embedding   EmbeddingConfig   `mapstructure:"embedding" yaml:"embedding"`
	Jobs        JobsConfig        `mapstructure:"jobs" yaml:"jobs"`
	Rewriter    RewriterConfig    `mapstructure:"rewriter" yaml:"rewriter"`
	Gateway     GatewayConfig     `mapstructure:"gateway" yaml:"gateway"`
	Providers   map[string]string `mapstructure:"providers" yaml:"providers"`
}

// CatalogConfig points at the embedded, read-only catalog file (C1).
type CatalogConfig struct {
	// Path is the filesystem path to the embedded SQLite catalog file.
	Path string `mapstructure:"path" yaml:"path"`
}

// ObjectStoreConfig configures the S3-compatible object store (C2).
type ObjectStoreConfig struct {
	Endpoint  string `mapstructure:"endpoint" yaml:"endpoint"`
	Bucket    string `mapstructure:"bucket" yaml:"bucket"`
	AccessKey string `mapstructure:"access_key" yaml:"access_key"`
	SecretKey string `mapstructure:"secret_key" yaml:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl" yaml:"use_ssl"`
}

// RelStoreConfig configures the Postgres-backed relational store (C3).
type RelStoreConfig struct {
	DSN string `mapstructure:"dsn" yaml:"dsn"`
}

// VectorStoreConfig configures the Milvus-backed vector store (C4).
type VectorStoreConfig struct {
	Address          string  `mapstructure:"address" yaml:"address"`
	CollectionName   string  `mapstructure:"collection_name" yaml:"collection_name"`
	DefaultPartition string  `mapstructure:"default_partition" yaml:"default_partition"`
	DenseDim         int     `mapstructure:"dense_dim" yaml:"dense_dim"`
	VarcharLimit     int     `mapstructure:"varchar_limit" yaml:"varchar_limit"`
	UpsertBatchSize  int     `mapstructure:"upsert_batch_size" yaml:"upsert_batch_size"`
}

// AcquirerConfig configures the external extractor subprocess (C5).
type AcquirerConfig struct {
	ScriptPath string        `mapstructure:"script_path" yaml:"script_path"`
	Timeout    time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// EmbeddingConfig configures the dense/sparse embedding pipeline (C8).
type EmbeddingConfig struct {
	DenseBackend    string        `mapstructure:"dense_backend" yaml:"dense_backend"` // "remote" | "local"
	RemoteURL       string        `mapstructure:"remote_url" yaml:"remote_url"`
	RemoteAPIKey    string        `mapstructure:"remote_api_key" yaml:"remote_api_key"`
	RemoteModel     string        `mapstructure:"remote_model" yaml:"remote_model"`
	RemoteBatchSize int           `mapstructure:"remote_batch_size" yaml:"remote_batch_size"`
	RemoteTimeout   time.Duration `mapstructure:"remote_timeout" yaml:"remote_timeout"`
	RemoteMaxRetry  int           `mapstructure:"remote_max_retry" yaml:"remote_max_retry"`
	LocalDevice     string        `mapstructure:"local_device" yaml:"local_device"`
	LocalFP16       bool          `mapstructure:"local_fp16" yaml:"local_fp16"`
	LocalBatchSize  int           `mapstructure:"local_batch_size" yaml:"local_batch_size"`
	BM25K1          float64       `mapstructure:"bm25_k1" yaml:"bm25_k1"`
	BM25B           float64       `mapstructure:"bm25_b" yaml:"bm25_b"`
}

// JobsConfig configures the bounded export worker pool (C10).
type JobsConfig struct {
	Workers int `mapstructure:"workers" yaml:"workers"`
}

// RewriterConfig configures the query rewriter LLM call (C11).
type RewriterConfig struct {
	Model      string        `mapstructure:"model" yaml:"model"`
	Timeout    time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaxRetries int           `mapstructure:"max_retries" yaml:"max_retries"`
}

// GatewayConfig configures the RAG gateway (C13).
type GatewayConfig struct {
	AskServiceURL  string        `mapstructure:"ask_service_url" yaml:"ask_service_url"`
	AskTimeout     time.Duration `mapstructure:"ask_timeout" yaml:"ask_timeout"`
	DefaultTopK    int           `mapstructure:"default_top_k" yaml:"default_top_k"`
	DefaultRRFK    int           `mapstructure:"default_rrf_k" yaml:"default_rrf_k"`
}

// DefaultConfig returns configuration with sensible defaults, overridden
// by viper's file/env layers in Manager.
func DefaultConfig() *Config {
	return &Config{
		Catalog: CatalogConfig{Path: "catalog.db"},
		ObjectStore: ObjectStoreConfig{
			Endpoint: "localhost:9000",
			Bucket:   "islamic-library",
			UseSSL:   false,
		},
		RelStore: RelStoreConfig{DSN: "postgres://localhost:5432/corpus"},
		VectorStore: VectorStoreConfig{
			Address:          "localhost:19530",
			CollectionName:   "islamic_library",
			DefaultPartition: "_default",
			DenseDim:         1024,
			VarcharLimit:     65535,
			UpsertBatchSize:  12000,
		},
		Acquirer: AcquirerConfig{
			ScriptPath: "./scripts/extract_book.sh",
			Timeout:    time.Hour,
		},
		Embedding: EmbeddingConfig{
			DenseBackend:    "remote",
			RemoteBatchSize: 100,
			RemoteTimeout:   300 * time.Second,
			RemoteMaxRetry:  3,
			LocalBatchSize:  1000,
			BM25K1:          1.5,
			BM25B:           0.75,
		},
		Jobs: JobsConfig{Workers: 3},
		Rewriter: RewriterConfig{
			Timeout:    30 * time.Second,
			MaxRetries: 3,
		},
		Gateway: GatewayConfig{
			AskTimeout:  60 * time.Second,
			DefaultTopK: 5,
			DefaultRRFK: 60,
		},
	}
}
