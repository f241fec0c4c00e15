package main

import (
	"fmt"

	"github.com/raine/virtual-closet/config"
	"github.com/raine/virtual-closet/internal/storage"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// app holds what every subcommand needs once flags are parsed.
type app struct {
	cfg    config.Config
	store  *storage.SQLiteStore
	closet *storage.Closet
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "closet",
		Short:         "Virtual closet: keep a wardrobe and get outfit suggestions",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.open(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.close()
		},
	}

	root.PersistentFlags().String("db", "", "wardrobe database path (default $CLOSET_DB_PATH or closet.db)")
	root.PersistentFlags().BoolP("verbose", "v", false, "verbose output")

	root.AddCommand(
		newAddCmd(a),
		newExtractCmd(a),
		newListCmd(a),
		newRemoveCmd(a),
		newOutfitCmd(a),
		newOutfitsCmd(a),
	)
	return root
}

func (a *app) open(cmd *cobra.Command) error {
	config.LoadEnvFile()
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if dbPath, _ := cmd.Flags().GetString("db"); dbPath != "" {
		cfg.DBPath = dbPath
	}

	zerolog.SetGlobalLevel(cfg.LogLevel)
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	store, err := storage.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open wardrobe: %w", err)
	}

	a.cfg = cfg
	a.store = store
	a.closet = storage.NewCloset(store)
	return nil
}

func (a *app) close() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	return err
}
