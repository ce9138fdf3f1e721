package cli

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"postnest/internal/config"
	"postnest/internal/logger"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	EnvFile  string
	LogLevel string
}

// NewRootCommand creates the root command for the postnest binary.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "postnest",
		Short: "PostNest social backend",
		Long:  "PostNest serves accounts, posts, likes, comments and friend requests over HTTP.",
	}

	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "override LOG_LEVEL (debug|info|warn|error)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))

	return cmd
}

// loadConfig reads the dotenv file if present, builds the config and
// initializes the logger.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}
	if err := cfg.ValidateProduction(); err != nil {
		return nil, err
	}

	logger.Init(cfg.LogLevel, cfg.Environment != "production")
	return cfg, nil
}
