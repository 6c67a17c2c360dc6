package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tuannm99/flatsql"
	"github.com/tuannm99/flatsql/internal"
	"github.com/tuannm99/flatsql/internal/history"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type rootFlags struct {
	config  string
	root    string
	history string
}

func newRootCmd() *cobra.Command {
	var f rootFlags

	rootCmd := &cobra.Command{
		Use:   "flatsql",
		Short: "A command shell over CSV-backed databases",
		Long: `flatsql manages databases stored as directories of CSV files.
Every mutating command can be undone with UNDO and redone with REDO.

Examples:
  flatsql                                  # interactive shell
  flatsql --root ./DATABASES               # shell over another root
  flatsql exec "CREATE SHOP" "OPEN SHOP"   # run commands and exit
  flatsql history -n 20                    # recent commands`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(f)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			db, err := flatsql.OpenConfig(cfg, logger)
			if err != nil {
				return fmt.Errorf("open: %w", err)
			}
			r := newREPL(db, cfg, cmd.OutOrStdout())
			runErr := r.Run()
			return joinClose(runErr, db)
		},
	}
	rootCmd.PersistentFlags().StringVarP(&f.config, "config", "c", "", "config file path (YAML)")
	rootCmd.PersistentFlags().StringVarP(&f.root, "root", "r", "", "storage root directory")
	rootCmd.PersistentFlags().StringVar(&f.history, "history", "", "history database path (enables history)")

	rootCmd.AddCommand(newExecCmd(&f), newHistoryCmd(&f))
	return rootCmd
}

func newExecCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "exec COMMAND...",
		Short: "Run each argument as one command and print its status",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(*f)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			db, err := flatsql.OpenConfig(cfg, logger)
			if err != nil {
				return fmt.Errorf("open: %w", err)
			}

			failed := 0
			for _, c := range args {
				res, err := db.Execute(c)
				printResult(cmd.OutOrStdout(), res)
				if err != nil {
					failed++
				}
			}
			var runErr error
			if failed > 0 {
				runErr = fmt.Errorf("%d of %d commands failed", failed, len(args))
				fmt.Fprintln(cmd.ErrOrStderr(), runErr)
			}
			return joinClose(runErr, db)
		},
	}
}

func newHistoryCmd(f *rootFlags) *cobra.Command {
	var (
		limit    int
		clearAll bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print recently executed commands, or clear them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(*f)
			if err != nil {
				return err
			}
			h, err := history.Open(cfg.History.Path)
			if err != nil {
				return err
			}
			defer h.Close()

			if clearAll {
				if err := h.Clear(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "history cleared")
				return nil
			}
			entries, err := h.Recent(limit)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), renderHistory(entries))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "number of entries")
	cmd.Flags().BoolVar(&clearAll, "clear", false, "delete every recorded command")
	return cmd
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(f rootFlags) (*internal.FlatSQLConfig, *zap.Logger, error) {
	cfg, err := internal.LoadConfig(f.config)
	if err != nil {
		return nil, nil, err
	}
	if f.root != "" {
		cfg.Storage.Root = f.root
	}
	if f.history != "" {
		cfg.History.Enabled = true
		cfg.History.Path = f.history
	}
	logger, err := flatsql.NewLogger(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return nil, nil, fmt.Errorf("logger: %w", err)
	}
	return cfg, logger, nil
}

func joinClose(err error, db *flatsql.DB) error {
	if cerr := db.Close(); cerr != nil && err == nil {
		return fmt.Errorf("close: %w", cerr)
	}
	return err
}
