package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aasimohyeah/natours/config"
	"github.com/aasimohyeah/natours/logging"
	"github.com/aasimohyeah/natours/storage"
	"github.com/aasimohyeah/natours/tours"
)

var (
	configPath string
	dataFile   string
)

var rootCmd = &cobra.Command{
	Use:   "import-dev-data",
	Short: "Load or clear the development tours",
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Insert every tour of the data file",
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := loadTours(dataFile, time.Now())
		if err != nil {
			return err
		}
		return withCollection(cmd.Context(), func(coll storage.Collection, log *zap.Logger) error {
			n, err := coll.InsertMany(cmd.Context(), list...)
			if err != nil {
				return fmt.Errorf("imported %d of %d tours: %w", n, len(list), err)
			}
			log.Info("data successfully loaded", zap.Int("tours", n))
			return nil
		})
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Remove every tour",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCollection(cmd.Context(), func(coll storage.Collection, log *zap.Logger) error {
			n, err := coll.DeleteAll(cmd.Context())
			if err != nil {
				return err
			}
			log.Info("data successfully deleted", zap.Int64("tours", n))
			return nil
		})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("NATOURS_CONFIG"), "Path to a YAML config file")
	importCmd.Flags().StringVarP(&dataFile, "file", "f", "dev-data/tours-simple.json", "Tours JSON file")
	rootCmd.AddCommand(importCmd, deleteCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func withCollection(ctx context.Context, fn func(storage.Collection, *zap.Logger) error) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if cfg.Storage.Backend == config.BackendMemory {
		log.Warn("memory storage does not outlive this command")
	}

	coll, closeFn, err := storage.OpenTours(ctx, cfg.Storage, log)
	if err != nil {
		return err
	}
	defer func() { _ = closeFn(context.Background()) }()

	return fn(coll, log)
}

// loadTours reads a JSON array of tours and prepares each for storage.
func loadTours(path string, now time.Time) ([]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tours: %w", err)
	}
	var list []*tours.Tour
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("parse tours %s: %w", path, err)
	}
	out := make([]any, len(list))
	for i, t := range list {
		t.Prepare(now)
		out[i] = t
	}
	return out, nil
}
