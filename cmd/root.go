package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/chiptspb/biohacker-nexus/internal/config"
	"github.com/chiptspb/biohacker-nexus/internal/logging"
	"github.com/chiptspb/biohacker-nexus/internal/model"
	"github.com/chiptspb/biohacker-nexus/internal/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	flagDataDir   string
	flagQuiet     bool
	flagEphemeral bool
)

var rootCmd = &cobra.Command{
	Use:          "nexus",
	Short:        "Medication and supplement protocol tracker",
	Long:         "Track protocols, log doses, and see what is due today and how long your stock will last.",
	SilenceUsage: true,
	RunE:         runToday,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagDataDir, "data-dir", "d", "", "Data directory (default $XDG_DATA_HOME/nexus)")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress informational output")
	rootCmd.PersistentFlags().BoolVar(&flagEphemeral, "ephemeral", false, "Use an in-memory store that is discarded on exit")
}

// env is the per-invocation runtime shared by commands.
type env struct {
	cfg   config.Config
	log   *zap.Logger
	store *store.Store
}

// loadConfig reads the config file and applies the --data-dir flag. A broken
// config file falls back to defaults with a warning.
func loadConfig() config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "  warning: %v (using defaults)\n", err)
		cfg = config.DefaultConfig()
	}
	if flagDataDir != "" {
		cfg.General.DataDir = flagDataDir
	}
	return cfg
}

func newLogger(cfg config.Config) *zap.Logger {
	logger, err := logging.New(logging.Config{
		Encoding:          cfg.Log.Encoding,
		Level:             cfg.Log.Level,
		DisableCaller:     true,
		DisableStacktrace: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "  warning: %v (logging disabled)\n", err)
		return zap.NewNop()
	}
	return logger
}

// openEnv loads config, builds the logger, and opens the store.
func openEnv() (*env, error) {
	cfg := loadConfig()
	logger := newLogger(cfg)

	var st *store.Store
	if flagEphemeral {
		st = store.New(store.NewMemoryKV())
	} else {
		path := filepath.Join(cfg.DataDir(), store.DBFileName)
		var err error
		st, err = store.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening store: %w", err)
		}
		logger.Debug("store opened", zap.String("path", path))
	}

	return &env{cfg: cfg, log: logger, store: st}, nil
}

func (e *env) Close() {
	_ = e.store.Close()
	_ = e.log.Sync()
}

// withEnv adapts a command body that needs the runtime env into a cobra RunE.
func withEnv(fn func(ctx context.Context, e *env, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		return fn(ctx, e, cmd, args)
	}
}

// info prints a line unless --quiet is set.
func info(format string, args ...any) {
	if flagQuiet {
		return
	}
	fmt.Printf(format, args...)
}

var errAmbiguous = errors.New("ambiguous product reference")

// findProduct resolves ref as an exact ID, a unique ID prefix, or a
// case-insensitive name.
func findProduct(products []model.Product, ref string) (model.Product, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return model.Product{}, fmt.Errorf("product reference is empty: %w", store.ErrNotFound)
	}

	for _, p := range products {
		if p.ID == ref {
			return p, nil
		}
	}

	var matches []model.Product
	for _, p := range products {
		if strings.EqualFold(p.Name, ref) {
			matches = append(matches, p)
		}
	}
	if len(matches) == 0 {
		for _, p := range products {
			if strings.HasPrefix(p.ID, ref) {
				matches = append(matches, p)
			}
		}
	}

	switch len(matches) {
	case 0:
		return model.Product{}, fmt.Errorf("product %q: %w", ref, store.ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return model.Product{}, fmt.Errorf("%w: %q matches %d products", errAmbiguous, ref, len(matches))
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
