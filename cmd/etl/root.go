package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/JonMunkholm/restaurant-etl/internal/core"
	"github.com/JonMunkholm/restaurant-etl/internal/logging"
)

// settings are the resolved values of flags, ETL_* env vars and the
// optional config file, in that order of precedence.
type settings struct {
	DatabaseURL  string
	CommitMode   core.CommitMode
	BoolFallback core.BoolFallback
	DefaultType  int32
	MaxErrors    int
	Timeout      time.Duration
	Migrate      bool
	JSON         bool
}

func (s settings) serviceConfig() core.ServiceConfig {
	return core.ServiceConfig{
		Load: core.LoadOptions{
			CommitMode:              s.CommitMode,
			BoolFallback:            s.BoolFallback,
			DefaultRestaurantTypeID: s.DefaultType,
			MaxErrorRecords:         s.MaxErrors,
		},
		MaxConcurrent: 1,
		MaxWait:       time.Second,
		Timeout:       s.Timeout,
	}
}

type cli struct {
	v      *viper.Viper
	out    io.Writer
	errOut io.Writer
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	return newCLI(out, errOut).rootCommand()
}

func newCLI(out, errOut io.Writer) *cli {
	return &cli{v: viper.New(), out: out, errOut: errOut}
}

func (c *cli) rootCommand() *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:           "etl",
		Short:         "Import restaurant spreadsheets into PostgreSQL",
		SilenceUsage:  true,
		SilenceErrors: true,
		Long: `etl reads CSV, XLS and XLSX files, detects what they contain from their
column headers, cleans and validates the values, and loads restaurant rows
into PostgreSQL. Rows that already exist (same name and address) are
skipped, so importing the same file twice is safe.

Settings come from flags, ETL_* environment variables (ETL_DATABASE_URL,
ETL_COMMIT_MODE, ...) or a config file, in that order.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()
			if err := c.initConfig(cmd, cfgFile); err != nil {
				return err
			}

			logger := logging.New(c.errOut, c.v.GetString("log-level"), c.v.GetString("log-format"))
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cmd.SetContext(logging.NewContext(ctx, logger))
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is ./etl.yaml when present)")
	pf.String("database-url", "", "PostgreSQL connection string (falls back to DATABASE_URL)")
	pf.String("commit-mode", string(core.CommitPerRow), "transaction granularity: row or batch")
	pf.String("bool-fallback", string(core.FallbackTrue), "unrecognised is_active values: true or reject")
	pf.Int32("default-type", 1, "restaurant type id for rows that name none")
	pf.Int("max-errors", 1000, "per-row errors kept in the report (0 keeps all)")
	pf.Duration("timeout", core.DefaultImportTimeout, "timeout per file")
	pf.Bool("migrate", false, "apply the database schema before importing")
	pf.Bool("json", false, "print results as JSON")
	pf.String("log-level", "warn", "log level: debug, info, warn, error")
	pf.String("log-format", "text", "log format: text or json")
	pf.Bool("no-color", false, "disable colored output")

	root.AddCommand(
		c.newImportCmd(),
		c.newInspectCmd(),
		c.newTemplateCmd(),
		c.newRunsCmd(),
	)
	return root
}

func (c *cli) initConfig(cmd *cobra.Command, cfgFile string) error {
	v := c.v
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	v.SetEnvPrefix("etl")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("database-url", "ETL_DATABASE_URL", "DATABASE_URL"); err != nil {
		return err
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("etl")
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return fmt.Errorf("read config: %w", err)
			}
		}
	}

	if v.GetBool("no-color") {
		color.NoColor = true
	}
	return nil
}

// settings resolves and validates the import settings.
func (c *cli) settings() (settings, error) {
	v := c.v

	mode, err := core.ParseCommitMode(v.GetString("commit-mode"))
	if err != nil {
		return settings{}, err
	}
	fallback, err := core.ParseBoolFallback(v.GetString("bool-fallback"))
	if err != nil {
		return settings{}, err
	}
	defaultType := v.GetInt32("default-type")
	if defaultType <= 0 {
		return settings{}, fmt.Errorf("default-type must be positive, got %d", defaultType)
	}
	maxErrors := v.GetInt("max-errors")
	if maxErrors < 0 {
		return settings{}, fmt.Errorf("max-errors must be non-negative, got %d", maxErrors)
	}

	return settings{
		DatabaseURL:  v.GetString("database-url"),
		CommitMode:   mode,
		BoolFallback: fallback,
		DefaultType:  defaultType,
		MaxErrors:    maxErrors,
		Timeout:      v.GetDuration("timeout"),
		Migrate:      v.GetBool("migrate"),
		JSON:         v.GetBool("json"),
	}, nil
}
