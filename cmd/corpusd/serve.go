package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/maktaba/corpus/internal/acquire"
	"github.com/maktaba/corpus/internal/catalog"
	"github.com/maktaba/corpus/internal/config"
	"github.com/maktaba/corpus/internal/embedpipeline"
	"github.com/maktaba/corpus/internal/export"
	"github.com/maktaba/corpus/internal/jobs"
	"github.com/maktaba/corpus/internal/objectstore"
	"github.com/maktaba/corpus/internal/providers"
	"github.com/maktaba/corpus/internal/relstore"
	"github.com/maktaba/corpus/internal/server/exportserver"
	"github.com/maktaba/corpus/internal/vectorstore"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the export-service HTTP server",
	Long: `Start the export-service HTTP server.

Provides:
  - GET  /health, /ready
  - GET  /books, /books/{id}, /authors, /categories
  - POST /export/books, /export/books/{id}
  - GET  /jobs, /jobs/{id}, /jobs/dlq
  - POST /jobs/dlq/{index}/retry
  - DELETE /jobs/dlq, /books/{id}, /books
  - GET  /books/{id}/download/{raw,metadata,embeddings}`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		logger := newLogger()

		cfgMgr, err := config.NewManager(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfgMgr.WatchConfig()
		cfg := cfgMgr.Get()

		catalogStore, err := catalog.Open(cfg.Catalog.Path)
		if err != nil {
			return fmt.Errorf("open catalog: %w", err)
		}
		defer catalogStore.Close()

		objects, err := objectstore.New(ctx, objectstore.Config{
			Endpoint:  cfg.ObjectStore.Endpoint,
			AccessKey: config.ResolveEnvVars(cfg.ObjectStore.AccessKey),
			SecretKey: config.ResolveEnvVars(cfg.ObjectStore.SecretKey),
			Bucket:    cfg.ObjectStore.Bucket,
			UseSSL:    cfg.ObjectStore.UseSSL,
		})
		if err != nil {
			return fmt.Errorf("connect object store: %w", err)
		}

		relational, err := relstore.Open(ctx, config.ResolveEnvVars(cfg.RelStore.DSN), logger)
		if err != nil {
			return fmt.Errorf("connect relational store: %w", err)
		}
		defer relational.Close()

		vectors, err := vectorstore.New(ctx, vectorstore.Config{
			Address:        cfg.VectorStore.Address,
			CollectionName: cfg.VectorStore.CollectionName,
			Schema: vectorstore.SchemaDescription{
				DenseDimension: cfg.VectorStore.DenseDim,
				VarcharLimit:   cfg.VectorStore.VarcharLimit,
			},
		})
		if err != nil {
			return fmt.Errorf("connect vector store: %w", err)
		}

		acquirer := acquire.New(acquire.Config{
			ScriptPath: cfg.Acquirer.ScriptPath,
			Timeout:    cfg.Acquirer.Timeout,
		})

		embedder, err := buildDenseEmbedder(cfg.Embedding, cfg.VectorStore.DenseDim)
		if err != nil {
			return err
		}

		orchestrator := &export.Orchestrator{
			Acquirer:   acquirer,
			Objects:    objects,
			Relational: relational,
			Vectors:    vectors,
			Embedder:   embedder,
			EmbedConfig: embedpipeline.Config{
				BatchSize:  cfg.Embedding.RemoteBatchSize,
				MaxRetries: uint(cfg.Embedding.RemoteMaxRetry),
				RetryDelay: embedpipeline.DefaultConfig().RetryDelay,
				BM25: embedpipeline.BM25Config{
					K1: cfg.Embedding.BM25K1,
					B:  cfg.Embedding.BM25B,
				},
			},
			Partition: cfg.VectorStore.DefaultPartition,
			Logger:    logger,
		}

		jobManager := jobs.NewManager(orchestrator, cfg.Jobs.Workers, logger)
		jobManager.Start(ctx)

		srv := exportserver.New(exportserver.Server{
			Catalog:    catalogStore,
			Objects:    objects,
			Relational: relational,
			Vectors:    vectors,
			Jobs:       jobManager,
			Partition:  cfg.VectorStore.DefaultPartition,
			Logger:     logger,
		})

		httpSrv := &http.Server{Addr: serveAddr, Handler: srv.Handler()}
		errCh := make(chan error, 1)
		go func() {
			logger.Info("export-service listening", "addr", serveAddr)
			errCh <- httpSrv.ListenAndServe()
		}()

		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
			defer cancel()
			return httpSrv.Shutdown(shutdownCtx)
		case err := <-errCh:
			if err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		}
	},
}

// buildDenseEmbedder selects the configured dense-embedding back-end.
// The local back-end requires a vendor-supplied inference hook this
// binary does not ship, so only "remote" is currently wireable here.
func buildDenseEmbedder(cfg config.EmbeddingConfig, dim int) (providers.DenseEmbedder, error) {
	switch cfg.DenseBackend {
	case "", "remote":
		return providers.NewOpenAIEmbedder(providers.OpenAIEmbedderConfig{
			APIKey:    config.ResolveEnvVars(cfg.RemoteAPIKey),
			BaseURL:   cfg.RemoteURL,
			Model:     cfg.RemoteModel,
			Dimension: dim,
			Timeout:   cfg.RemoteTimeout,
		}), nil
	default:
		return nil, fmt.Errorf("embedding.dense_backend %q requires a vendor model hook not wired into this binary", cfg.DenseBackend)
	}
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "address to listen on")
}
