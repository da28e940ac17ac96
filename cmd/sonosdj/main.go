// Package main provides the SonosDJ CLI application entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"sonosdj/internal/core"
	"sonosdj/internal/flood"
	httpserver "sonosdj/internal/http"
	"sonosdj/internal/llm"
	"sonosdj/internal/sonos"
	"sonosdj/internal/store"
	"sonosdj/pkg/request"
)

const (
	defaultServerHost = "0.0.0.0"
	noneProvider      = "none"
)

var (
	cfgFile string
	config  *core.Config
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "sonosdj",
	Short: "SonosDJ - natural language requests to Sonos playback",
	Long: `SonosDJ turns free-form music requests ("play stairway to heaven by led zeppelin")
into Sonos playback. It extracts the track and artist, searches through the sonos CLI,
picks the best match with heuristics or an optional LLM, and plays it.`,
}

var playCmd = &cobra.Command{
	Use:   "play [request...]",
	Short: "Handle a single music request and exit",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runPlay,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP service accepting requests on POST /v1/play",
	RunE:  runServe,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("sonos-binary", "sonos", "Path to the sonos CLI binary")
	rootCmd.PersistentFlags().Int("sonos-timeout-secs", core.DefaultCommandTimeoutSecs, "Timeout per sonos CLI invocation in seconds")
	rootCmd.PersistentFlags().String("llm-provider", noneProvider, "LLM provider (openai, anthropic, ollama, none)")
	rootCmd.PersistentFlags().String("llm-model", "", "LLM model name")
	rootCmd.PersistentFlags().String("llm-api-key", "", "LLM API key")
	rootCmd.PersistentFlags().String("llm-base-url", "", "LLM base URL (Ollama or API-compatible endpoints)")
	rootCmd.PersistentFlags().String("journal-path", ".sonosdj_progress.log", "Append-only progress log path (empty disables)")
	rootCmd.PersistentFlags().Bool("verbose", false, "Include full queue output in results")
	rootCmd.PersistentFlags().Int("history-size", core.DefaultHistorySize, "Recently-played history capacity")
	rootCmd.PersistentFlags().Float64("min-match-score", core.DefaultMinMatchScore, "Minimum heuristic score for a viable match")
	rootCmd.PersistentFlags().Float64("llm-threshold", core.DefaultLLMThreshold, "Heuristic top score below which LLM selection engages")
	rootCmd.PersistentFlags().String("server-host", defaultServerHost, "HTTP server host")
	rootCmd.PersistentFlags().Int("server-port", core.DefaultServerPort, "HTTP server port")
	rootCmd.PersistentFlags().Int("flood-limit-per-minute", core.DefaultFloodLimitPerMinute, "Maximum requests per client per minute")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bind flags: %v\n", err)
		os.Exit(1)
	}

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(serveCmd)
}

func initConfig() {
	// Load .env file explicitly using gotenv
	envFile := ".env"
	if cfgFile != "" {
		envFile = cfgFile
	}

	if err := gotenv.Load(envFile); err != nil {
		// Don't exit if .env file doesn't exist, just warn
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Error loading .env file: %v\n", err)
		}
	}

	viper.SetEnvPrefix("SONOSDJ")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	config = buildConfig()
	logger = buildLogger(config.Log.Level)
}

func buildConfig() *core.Config {
	cfg := core.DefaultConfig()

	configureSonos(cfg)
	configureLLM(cfg)
	configureServer(cfg)
	configureApp(cfg)

	return cfg
}

func configureSonos(cfg *core.Config) {
	cfg.Sonos.Binary = viper.GetString("sonos-binary")
	if cfg.Sonos.Binary == "" {
		cfg.Sonos.Binary = "sonos"
	}
	timeoutSecs := viper.GetInt("sonos-timeout-secs")
	if timeoutSecs <= 0 {
		timeoutSecs = core.DefaultCommandTimeoutSecs
	}
	cfg.Sonos.CommandTimeout = time.Duration(timeoutSecs) * time.Second
}

func configureLLM(cfg *core.Config) {
	cfg.LLM.Provider = viper.GetString("llm-provider")
	cfg.LLM.Model = viper.GetString("llm-model")
	cfg.LLM.APIKey = viper.GetString("llm-api-key")
	cfg.LLM.BaseURL = viper.GetString("llm-base-url")
}

func configureServer(cfg *core.Config) {
	cfg.Server.Host = viper.GetString("server-host")
	if cfg.Server.Host == "" {
		cfg.Server.Host = defaultServerHost
	}
	cfg.Server.Port = viper.GetInt("server-port")
	cfg.Log.Level = viper.GetString("log-level")
}

func configureApp(cfg *core.Config) {
	cfg.App.JournalPath = viper.GetString("journal-path")
	cfg.App.Verbose = viper.GetBool("verbose")

	cfg.App.HistorySize = viper.GetInt("history-size")
	if cfg.App.HistorySize <= 0 {
		cfg.App.HistorySize = core.DefaultHistorySize
	}

	cfg.App.MinMatchScore = viper.GetFloat64("min-match-score")
	if cfg.App.MinMatchScore <= 0 || cfg.App.MinMatchScore > 1 {
		cfg.App.MinMatchScore = core.DefaultMinMatchScore
	}

	cfg.App.LLMThreshold = viper.GetFloat64("llm-threshold")
	if cfg.App.LLMThreshold <= 0 || cfg.App.LLMThreshold > 1 {
		cfg.App.LLMThreshold = core.DefaultLLMThreshold
	}

	cfg.App.FloodLimitPerMinute = viper.GetInt("flood-limit-per-minute")
	if cfg.App.FloodLimitPerMinute <= 0 {
		cfg.App.FloodLimitPerMinute = core.DefaultFloodLimitPerMinute
	}
}

func buildLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch strings.ToLower(level) {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)

	builtLogger, err := cfg.Build()
	if err != nil {
		panic(fmt.Sprintf("Failed to build logger: %v", err))
	}

	return builtLogger
}

func validateConfig() error {
	if config.LLM.Provider != noneProvider && config.LLM.Provider != "" {
		if config.LLM.APIKey == "" && config.LLM.Provider != "ollama" {
			return fmt.Errorf("LLM API key is required for provider: %s", config.LLM.Provider)
		}
	}
	return nil
}

func createLLMProvider() (core.LLMProvider, error) {
	if config.LLM.Provider != noneProvider && config.LLM.Provider != "" {
		provider, err := llm.NewProvider(&config.LLM, logger.Named("llm"))
		if err != nil {
			return nil, fmt.Errorf("failed to create LLM provider: %w", err)
		}
		return provider, nil
	}
	return nil, nil
}

type services struct {
	agent      *core.Agent
	sonos      *sonos.Client
	history    *store.History
	httpServer *httpserver.Server
	gate       *flood.Floodgate
}

func initializeServices(withServer bool) (*services, error) {
	if err := validateConfig(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	llmProvider, err := createLLMProvider()
	if err != nil {
		return nil, err
	}

	sonosClient := sonos.NewClient(&config.Sonos, logger.Named("sonos"))
	history := store.NewHistory(config.App.HistorySize, 0.001)
	journal := store.NewJournal(config.App.JournalPath, logger.Named("journal"))
	parser := request.NewParser()

	svcs := &services{
		sonos:   sonosClient,
		history: history,
	}

	var metrics core.Metrics
	if withServer {
		svcs.gate = flood.New(config.App.FloodLimitPerMinute)
		svcs.httpServer = httpserver.NewServer(&config.Server, svcs.gate, logger.Named("http"))
		sonosClient.SetCommandRecorder(svcs.httpServer.RecordSonosCommand)
		metrics = svcs.httpServer
	}

	svcs.agent = core.NewAgent(config, sonosClient, llmProvider, parser, history, journal, metrics,
		logger.Named("agent"))

	if withServer {
		svcs.httpServer.SetHandler(svcs.agent)
	}

	return svcs, nil
}

func runPlay(_ *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	svcs, err := initializeServices(false)
	if err != nil {
		return err
	}

	text := strings.Join(args, " ")
	outcome := svcs.agent.HandleRequest(ctx, text)

	fmt.Println(outcome.Message)
	if outcome.Queue != "" {
		fmt.Println()
		fmt.Println(outcome.Queue)
	}

	if !outcome.Success {
		os.Exit(1)
	}
	return nil
}

func runServe(_ *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("Starting SonosDJ",
		zap.String("llm_provider", config.LLM.Provider),
		zap.String("sonos_binary", config.Sonos.Binary),
		zap.Int("flood_limit_per_minute", config.App.FloodLimitPerMinute))

	svcs, err := initializeServices(true)
	if err != nil {
		return err
	}
	defer svcs.gate.Stop()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return svcs.httpServer.Start(gCtx)
	})

	g.Go(func() error {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-gCtx.Done():
				return nil
			case <-ticker.C:
				svcs.httpServer.SetRecentlyPlayed(svcs.history.Size())
			}
		}
	})

	logger.Info("SonosDJ started successfully",
		zap.String("http_addr", fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)))

	if err := g.Wait(); err != nil {
		logger.Error("SonosDJ stopped with error", zap.Error(err))
		return err
	}

	logger.Info("SonosDJ stopped gracefully")
	return nil
}
