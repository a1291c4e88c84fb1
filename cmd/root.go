package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/elyxhealth/concierge/pkg/analytics"
	"github.com/elyxhealth/concierge/pkg/chat"
	"github.com/elyxhealth/concierge/pkg/config"
	"github.com/elyxhealth/concierge/pkg/logger"
	ollamaapi "github.com/elyxhealth/concierge/pkg/ollama"
	"github.com/elyxhealth/concierge/pkg/server"
	"github.com/elyxhealth/concierge/pkg/store"
	"github.com/elyxhealth/concierge/pkg/vectorstore"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tmc/langchaingo/llms/ollama"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "concierge",
	Short: "Health concierge chat service",
	Long:  `HTTP service that routes health conversations to specialist personas and tracks plan progress.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer(cmd.Context())
	},
}

var bannerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("42")).
	Padding(0, 1)

func runServer(ctx context.Context) error {
	// .env is optional, real deployments use the environment directly
	_ = godotenv.Load()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile, cfg.Logging.Preserve); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Close()
	log := logger.WithComponent("server")

	// a missing server or model degrades responses but shouldn't stop
	// the service from coming up
	health := ollamaapi.NewClient(cfg.Ollama.URL).CheckHealth(ctx)
	switch {
	case !health.Available:
		log.Warn("ollama not reachable: %v", health.Error)
	case !health.HasModel(cfg.Ollama.Model):
		log.Warn("model %q not found on ollama server", cfg.Ollama.Model)
	}

	llm, err := ollama.New(
		ollama.WithServerURL(cfg.Ollama.URL),
		ollama.WithModel(cfg.Ollama.Model),
	)
	if err != nil {
		return fmt.Errorf("failed to create Ollama LLM: %w", err)
	}

	var repo store.Repository
	if cfg.Store.Path == "" {
		log.Warn("store.path is empty, falling back to in-memory store")
		repo = store.NewMemory(cfg.Store.UserID)
	} else {
		sqliteStore, err := store.NewSQLite(cfg.Store.Path, cfg.Store.UserID)
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}
		repo = sqliteStore
	}
	defer repo.Close()

	var contexts chat.ContextIndex
	if cfg.VectorStore.Enabled {
		cs, err := vectorstore.New(vectorstore.Config{
			CollectionName:   cfg.VectorStore.CollectionName,
			PersistDirectory: cfg.VectorStore.PersistPath,
			OllamaURL:        cfg.Ollama.URL,
			EmbeddingModel:   cfg.Ollama.EmbeddingModel,
		})
		if err != nil {
			return fmt.Errorf("failed to create context store: %w", err)
		}
		contexts = cs
	} else {
		log.Info("vector context store disabled")
	}

	engine := chat.NewEngine(llm, repo, contexts, cfg.VectorStore.TopK, cfg.HistorySize)
	agg := analytics.New(repo)
	srv := server.New(repo, engine, agg)

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      srv.Router(cfg.Server.CORSOrigins),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	fmt.Println(bannerStyle.Render("concierge listening on " + cfg.Server.Addr))
	log.Info("starting HTTP server on %s (model=%s)", cfg.Server.Addr, cfg.Ollama.Model)

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	notifyCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-notifyCtx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	return nil
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is .concierge/settings.yaml)")

	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level")
	viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.PersistentFlags().StringP("addr", "a", ":8080", "listen address")
	viper.BindPFlag("server.addr", rootCmd.PersistentFlags().Lookup("addr"))

	rootCmd.PersistentFlags().String("db", "", "path to the sqlite database (empty for in-memory)")
	viper.BindPFlag("store.path", rootCmd.PersistentFlags().Lookup("db"))
}
