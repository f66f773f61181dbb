// Package main is the Redline CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/redlinehq/redline/internal/analyzer"
	"github.com/redlinehq/redline/internal/annotate"
	"github.com/redlinehq/redline/internal/checklist"
	"github.com/redlinehq/redline/internal/cli"
	"github.com/redlinehq/redline/internal/config"
	"github.com/redlinehq/redline/internal/embedding"
	"github.com/redlinehq/redline/internal/extract"
	"github.com/redlinehq/redline/internal/intake"
	"github.com/redlinehq/redline/internal/keyword"
	"github.com/redlinehq/redline/internal/models"
	"github.com/redlinehq/redline/internal/pipeline"
	"github.com/redlinehq/redline/internal/reference"
	"github.com/redlinehq/redline/internal/retriever"
	"github.com/redlinehq/redline/internal/server"
	"github.com/redlinehq/redline/internal/storage"
	"github.com/redlinehq/redline/internal/vector"
	"github.com/redlinehq/redline/internal/watcher"
	"github.com/redlinehq/redline/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/redline/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used,
// so that "redline server" from the project dir uses the project's config.
// Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "ingest":
		runIngest()
	case "review":
		runReview()
	case "query":
		runQuery()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("redline version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	prepareCorpus(context.Background(), components, cfg, logger)

	var watchSvc *watcher.Watcher
	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if cfg.References.Watch {
		watchSvc = watcher.New(cfg.References.Dir, cfg.References.Extensions, func() {
			if _, err := components.Ingester.Ingest(watchCtx, cfg.References.Dir, cfg.References.SourcesManifest); err != nil {
				logger.Warn("reference re-ingest failed", zap.Error(err))
			}
		}, logger)
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start reference watcher", zap.Error(err))
		}
	}

	srv := server.NewServer(
		components.Pipeline,
		components.Retriever,
		components.Ingester,
		components.VectorStore,
		components.Storage,
		cfg,
		logger,
	)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	if watchSvc != nil {
		watchSvc.Stop()
	}
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runIngest() {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	dir := fs.String("dir", "", "references directory (default from config)")
	_ = fs.Parse(os.Args[2:])

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	refDir := cfg.References.Dir
	if *dir != "" {
		refDir = *dir
	}
	stats, err := components.Ingester.Ingest(context.Background(), refDir, cfg.References.SourcesManifest)
	if err != nil {
		fmt.Printf("Ingest failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Ingested %d sources into %d passages in %s\n", stats.Sources, stats.Passages, stats.Elapsed.Round(time.Millisecond))
}

func runReview() {
	fs := flag.NewFlagSet("review", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	process := fs.String("process", "", "legal process override (e.g. \"Company Incorporation\")")
	output := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	files := fs.Args()
	if len(files) == 0 {
		fmt.Println("Usage: redline review [flags] <file> [file...]")
		fs.PrintDefaults()
		os.Exit(1)
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	ctx := context.Background()
	prepareCorpus(ctx, components, cfg, logger)

	report, err := components.Pipeline.Run(ctx, pipeline.Request{
		Paths:           files,
		ProcessOverride: *process,
	})
	if err != nil {
		fmt.Printf("Review failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteReport(os.Stdout, report, cli.ParseOutputFormat(*output)); err != nil {
		fmt.Printf("Failed to write report: %v\n", err)
		os.Exit(1)
	}
}

func runQuery() {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL; use --server \"\" for direct storage mode")
	limit := fs.Int("limit", 0, "number of passages (default from config)")
	output := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	query := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if query == "" {
		fmt.Println("Usage: redline query [flags] <text>")
		fs.PrintDefaults()
		os.Exit(1)
	}

	format := cli.ParseOutputFormat(*output)
	if *serverURL != "" {
		results, err := queryViaHTTP(*serverURL, query, *limit)
		if err == nil {
			if err := cli.WriteQueryResults(os.Stdout, query, results, format); err != nil {
				fmt.Printf("Failed to write results: %v\n", err)
				os.Exit(1)
			}
			return
		}
		fmt.Printf("Server not reachable (%v), falling back to direct mode\n", err)
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	ctx := context.Background()
	prepareCorpus(ctx, components, cfg, logger)

	results, err := components.Retriever.Retrieve(ctx, query, *limit)
	if err != nil {
		fmt.Printf("Query failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteQueryResults(os.Stdout, query, results, format); err != nil {
		fmt.Printf("Failed to write results: %v\n", err)
		os.Exit(1)
	}
}

func queryViaHTTP(serverURL, query string, limit int) ([]models.RetrievalResult, error) {
	body, err := json.Marshal(map[string]interface{}{"query": query, "k": limit})
	if err != nil {
		return nil, err
	}
	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Post(strings.TrimRight(serverURL, "/")+"/api/v1/query", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		var errResp struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		if errResp.Error != "" {
			return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, errResp.Error)
		}
		return nil, fmt.Errorf("server returned %d", resp.StatusCode)
	}
	var decoded struct {
		Results []models.RetrievalResult `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, err
	}
	return decoded.Results, nil
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL; use --server \"\" for direct storage mode")
	_ = fs.Parse(os.Args[2:])

	if *serverURL != "" {
		err := statusViaHTTP(*serverURL)
		if err == nil {
			return
		}
		fmt.Printf("Server not reachable (%v), falling back to direct mode\n", err)
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(false)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	ctx := context.Background()
	passages, err := components.Storage.CountPassages(ctx)
	if err != nil {
		fmt.Printf("Status failed: %v\n", err)
		os.Exit(1)
	}
	reports, err := components.Storage.CountReports(ctx)
	if err != nil {
		fmt.Printf("Status failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Passages: %d\nReports: %d\nIndex ready: %v\n", passages, reports, components.VectorStore.Ready())
}

func statusViaHTTP(serverURL string) error {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(strings.TrimRight(serverURL, "/") + "/api/v1/status")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}
	var status struct {
		Passages        int  `json:"passages"`
		Reports         int  `json:"reports"`
		VectorIndexSize int  `json:"vector_index_size"`
		IndexReady      bool `json:"index_ready"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return err
	}
	fmt.Printf("Passages: %d\nReports: %d\nVector index size: %d\nIndex ready: %v\n",
		status.Passages, status.Reports, status.VectorIndexSize, status.IndexReady)
	return nil
}

// Components holds initialized services.
type Components struct {
	Storage      storage.Storage
	Embedder     embedding.Embedder
	VectorStore  *vector.Store
	KeywordStore *keyword.Store
	Ingester     *reference.Ingester
	Retriever    *retriever.Retriever
	Pipeline     *pipeline.Pipeline
}

func (c *Components) Close() {
	if c.KeywordStore != nil {
		if old := c.KeywordStore.Swap(nil); old != nil {
			_ = old.Close()
		}
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	var embedder embedding.Embedder
	onnxEmbedder, err := embedding.NewONNXEmbedder(
		cfg.Embedding.ModelPath,
		cfg.Embedding.Dimensions,
		cfg.Embedding.MaxTokens,
		cfg.Embedding.CacheSize,
	)
	if err != nil {
		logger.Warn("ONNX embedder unavailable, using deterministic fallback", zap.Error(err))
		embedder = embedding.NewMockEmbedder(cfg.Embedding.Dimensions)
	} else {
		embedder = onnxEmbedder
	}

	vectorStore := vector.NewStore()
	kwStore := keyword.NewStore()

	extractor := extract.NewExtractor()
	loader := reference.NewLoader(extractor, cfg.References.Extensions)
	chunker, err := reference.NewChunker(cfg.Chunking.MaxTokens, cfg.Chunking.OverlapTokens)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize chunker: %w", err)
	}
	ingester := reference.NewIngester(
		loader, chunker, embedder, store, vectorStore, kwStore,
		cfg.Storage.VectorIndexPath, cfg.Storage.KeywordIndexPath,
		logger,
	)

	ret := retriever.New(embedder, vectorStore, kwStore, store, retriever.Options{
		TopK:           cfg.Retrieval.TopK,
		SemanticWeight: cfg.Retrieval.SemanticWeight,
		KeywordWeight:  cfg.Retrieval.KeywordWeight,
		SnippetLength:  cfg.Retrieval.SnippetLength,
	}, logger)

	an := analyzer.New(ret, embedder, nil, analyzer.Options{
		TopK:              cfg.Retrieval.TopK,
		GenerationTimeout: time.Duration(cfg.Analysis.GenerationTimeoutSeconds) * time.Second,
		SegmentClauses:    cfg.Analysis.SegmentClauses,
		MaxEvidence:       cfg.Analysis.MaxEvidence,
	}, logger)

	matcher := annotate.NewMatcher(embedder, annotate.Options{
		SimilarityThreshold: cfg.Annotation.SimilarityThreshold,
		HintPrefixLength:    cfg.Annotation.HintPrefixLength,
	})
	mapper := annotate.NewMapper(matcher)
	renderer := annotate.NewRenderer(cfg.Output.Dir)
	verifier := checklist.NewVerifier(embedder, cfg.Checklist, logger)
	in := intake.New(extractor, logger)

	pl := pipeline.New(in, an, mapper, renderer, verifier, store, vectorStore, cfg.Analysis.Concurrency, logger)

	return &Components{
		Storage:      store,
		Embedder:     embedder,
		VectorStore:  vectorStore,
		KeywordStore: kwStore,
		Ingester:     ingester,
		Retriever:    ret,
		Pipeline:     pl,
	}, nil
}

// prepareCorpus restores persisted indexes, falling back to a full ingest of
// the references directory. A failure leaves the indexes not ready; review
// and query then fail per-operation rather than at startup.
func prepareCorpus(ctx context.Context, c *Components, cfg *config.Config, logger *zap.Logger) {
	restoreErr := c.Ingester.Restore(ctx)
	if restoreErr == nil {
		logger.Info("reference indexes restored",
			zap.String("vector_index", cfg.Storage.VectorIndexPath),
			zap.String("keyword_index", cfg.Storage.KeywordIndexPath))
		return
	}
	logger.Debug("index restore failed, ingesting references", zap.Error(restoreErr))
	stats, err := c.Ingester.Ingest(ctx, cfg.References.Dir, cfg.References.SourcesManifest)
	if err != nil {
		logger.Warn("reference ingest failed, index not ready",
			zap.String("dir", cfg.References.Dir), zap.Error(err))
		return
	}
	logger.Info("references ingested",
		zap.Int("sources", stats.Sources),
		zap.Int("passages", stats.Passages),
		zap.Duration("elapsed", stats.Elapsed))
}

func printUsage() {
	fmt.Println(`redline - Retrieval-grounded compliance review for ADGM corporate documents

Usage:
  redline server [flags]            Start the HTTP server
  redline ingest [flags]            Ingest reference material into the corpus
  redline review [flags] <files>    Review documents and write annotated copies
  redline query [flags] <text>      Query the reference corpus
  redline status [flags]            Show corpus and storage status
  redline version                   Show version
  redline help                      Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/redline/config.yaml)
  --debug            Enable debug logging

Ingest Flags:
  --config string    Config file path
  --dir string       References directory (default from config)

Review Flags:
  --config string    Config file path
  --process string   Legal process override (skips detection)
  --output string    Output format: text or json (default: text)

Query Flags:
  --config string    Config file path (for direct storage mode)
  --server string    Server URL (default: http://localhost:8080). Use --server "" for direct mode.
  --limit int        Number of passages (default from config)
  --output string    Output format: text or json (default: text)

Status Flags:
  --config string    Config file path (for direct storage mode)
  --server string    Server URL (default: http://localhost:8080). Use --server "" for direct mode.

Examples:
  redline server
  redline ingest
  redline review articles.docx resolution.docx
  redline review --process "Company Incorporation" --output json articles.docx
  redline query adgm courts jurisdiction
  redline status`)
}
