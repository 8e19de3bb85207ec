package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"taskpilot/internal/config"
	"taskpilot/internal/intent"
	"taskpilot/internal/interaction"
	"taskpilot/internal/notion"
	"taskpilot/internal/resolver"
	"taskpilot/internal/telegram"
)

var (
	verbose    bool
	configPath string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "taskpilot",
	Short: "Telegram task assistant backed by Notion and Gemini",
	Long: `taskpilot is a single-user Telegram bot that manages tasks in a Notion
database through natural language.

Free-text messages are classified by Gemini into create/read/update/delete
commands; inline buttons drive multi-step edits without any server-side
session state.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBot()
	},
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate configuration and store connectivity",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		store := newStore(cfg)
		tasks, err := store.ListPending(ctx)
		if err != nil {
			return fmt.Errorf("store check failed: %w", err)
		}
		fmt.Printf("ok: %d pending task(s) in database %s\n", len(tasks), cfg.DatabaseID)
		return nil
	},
}

func newStore(cfg *config.Config) *notion.Client {
	return notion.NewClientWithConfig(notion.Config{
		APIKey:     cfg.NotionKey,
		DatabaseID: cfg.DatabaseID,
		BaseURL:    cfg.Notion.BaseURL,
		Timeout:    cfg.NotionTimeout(),
	}, logger.Named("notion"))
}

func runBot() error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("configuration invalid", zap.Error(err))
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := newStore(cfg)

	model, err := intent.NewGeminiClient(ctx, cfg.GeminiKey, cfg.Model.Name, cfg.Model.MaxConcurrent)
	if err != nil {
		return fmt.Errorf("failed to create model client: %w", err)
	}

	parser := intent.New(model, logger.Named("intent"))
	res := resolver.New(store, logger.Named("resolver"))
	machine := interaction.NewMachine(res, logger.Named("interaction"))

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return fmt.Errorf("failed to connect to telegram: %w", err)
	}

	handler := telegram.New(bot, parser, res, machine, cfg.AuthorizedUserID, logger.Named("telegram"))

	logger.Info("starting bot",
		zap.String("model", cfg.Model.Name),
		zap.Int64("authorized_user", cfg.AuthorizedUserID))

	if err := handler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("bot stopped")
	return nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "optional YAML config file for tunables")
	rootCmd.AddCommand(checkCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
