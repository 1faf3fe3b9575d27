package main

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"pdf-assistant/internal/chunker"
	"pdf-assistant/internal/cleaner"
	"pdf-assistant/internal/config"
	"pdf-assistant/internal/embedding"
	"pdf-assistant/internal/helper"
	"pdf-assistant/internal/index"
	"pdf-assistant/internal/llmservice"
	"pdf-assistant/internal/parser"
	"pdf-assistant/internal/picker"
	"pdf-assistant/internal/session"
)

const (
	configFilePath = "./configs/config.yaml"
	previewRunes   = 80
)

var (
	configPath string
	filePath   string
	logLevel   string
	dryRun     bool
)

var rootCmd = &cobra.Command{
	Use:   "pdf-assistant",
	Short: "Ask questions about a document",
	Long: `pdf-assistant indexes one document (PDF, DOCX, PPTX, spreadsheets, Markdown or text)
and answers questions about it with retrieval-augmented generation.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		run(cmd.Context())
	},
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", configFilePath, "Path to the YAML config file")
	rootCmd.Flags().StringVar(&filePath, "file", "", "Document to load instead of opening the file picker")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error), overrides the config")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Load, clean and chunk --file, print the chunks and exit")
}

func main() {
	// Ctrl+C keeps its default behaviour and terminates the process
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func setupLogging(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Caller().Logger()
}

func run(ctx context.Context) {
	setupLogging(logLevel)

	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("No .env file loaded")
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}
	if logLevel == "" {
		setupLogging(cfg.Log.Level)
	}
	log.Debug().Interface("config", cfg).Msg("Loaded config")

	if dryRun {
		printChunks(cfg)
		return
	}

	if err := cfg.ResolveCredential(os.Getenv); err != nil {
		log.Fatal().Err(err).Msg("Program terminated: API key is required")
	}
	log.Info().Str("provider", cfg.Provider.Type).Msg("API key loaded")

	embedder, err := embedding.New(&cfg.Provider)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}
	completer, err := llmservice.New(&cfg.Provider, cfg.LLM.Model)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing LLM")
	}
	stores, err := index.NewStoreFactory(cfg.Index, os.Getenv(cfg.Index.Postgres.PasswordEnv))
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing index backend")
	}

	ctrl := session.New(session.Options{
		Config:       cfg,
		Picker:       picker.Once(filePath, &picker.TUI{AllowedTypes: parser.SupportedExtensions}),
		Loader:       parser.Load,
		Embedder:     embedder,
		Completer:    completer,
		StoreFactory: stores,
		In:           os.Stdin,
		Out:          os.Stdout,
	})
	if err := ctrl.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("Session aborted")
	}
}

// printChunks shows what would be indexed without contacting any provider
func printChunks(cfg *config.Config) {
	if filePath == "" {
		log.Fatal().Msg("--dry-run needs a document given with --file")
	}
	pages, err := parser.Load(filePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error parsing document")
	}
	chunks, err := chunker.Split(cleaner.Clean(pages), cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap)
	if err != nil {
		log.Fatal().Err(err).Msg("Error chunking document")
	}
	for _, c := range chunks {
		log.Debug().Str("id", c.ID).Msg(helper.Preview(c.Content, previewRunes))
	}
	log.Info().Int("pages", len(pages)).Int("chunks", len(chunks)).Msg("Dry run")

	if err := helper.PrettyPrint(os.Stdout, chunks); err != nil {
		log.Fatal().Err(err).Msg("Error printing chunks")
	}
}
