package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/maktaba/corpus/internal/config"
	"github.com/maktaba/corpus/internal/gateway"
	"github.com/maktaba/corpus/internal/providers"
	"github.com/maktaba/corpus/internal/rewrite"
	"github.com/maktaba/corpus/internal/server/gatewayserver"
	"github.com/maktaba/corpus/internal/vectorstore"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the gateway-service HTTP server",
	Long: `Start the gateway-service HTTP server.

Provides:
  - GET  /health, /ready
  - POST /query (optionally streamed as newline-delimited JSON)`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		logger := newLogger()

		cfgMgr, err := config.NewManager(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfgMgr.WatchConfig()
		cfg := cfgMgr.Get()

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

		partitions, err := vectors.ListPartitions(ctx)
		if err != nil {
			return fmt.Errorf("list vector store partitions: %w", err)
		}
		known := make(map[string]struct{}, len(partitions))
		for _, p := range partitions {
			known[p] = struct{}{}
		}

		llm := providers.NewOpenAICompatibleClient(providers.OpenAICompatibleConfig{
			APIKey:       config.ResolveEnvVars(cfg.Providers["llm_api_key"]),
			BaseURL:      cfg.Providers["llm_base_url"],
			DefaultModel: cfg.Rewriter.Model,
			Timeout:      cfg.Rewriter.Timeout,
			MaxRetries:   cfg.Rewriter.MaxRetries,
		})

		embedder := providers.NewOpenAIEmbedder(providers.OpenAIEmbedderConfig{
			APIKey:    config.ResolveEnvVars(cfg.Embedding.RemoteAPIKey),
			BaseURL:   cfg.Embedding.RemoteURL,
			Model:     cfg.Embedding.RemoteModel,
			Dimension: cfg.VectorStore.DenseDim,
			Timeout:   cfg.Embedding.RemoteTimeout,
		})

		rewriterCfg := rewrite.DefaultConfig()
		if cfg.Rewriter.Model != "" {
			rewriterCfg.Model = cfg.Rewriter.Model
		}
		if cfg.Rewriter.Timeout > 0 {
			rewriterCfg.Timeout = cfg.Rewriter.Timeout
		}
		if cfg.Rewriter.MaxRetries > 0 {
			rewriterCfg.MaxRetries = uint(cfg.Rewriter.MaxRetries)
		}

		gw := &gateway.Gateway{
			Rewriter: rewrite.New(llm, rewriterCfg),
			Embedder: embedder,
			Search:   vectors,
			Ask: &gateway.LLMAskClient{
				LLM:   llm,
				Model: cfg.Rewriter.Model,
			},
			Partition:       cfg.VectorStore.DefaultPartition,
			KnownPartitions: known,
		}

		srv := gatewayserver.New(gatewayserver.Server{Gateway: gw, Logger: logger})

		httpSrv := &http.Server{Addr: serveAddr, Handler: srv.Handler()}
		errCh := make(chan error, 1)
		go func() {
			logger.Info("gateway-service listening", "addr", serveAddr)
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

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8081", "address to listen on")
}
