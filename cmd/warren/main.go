package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/napolitain/warren/internal/config"
	"github.com/napolitain/warren/internal/loader"
	"github.com/napolitain/warren/internal/sim"
	"github.com/napolitain/warren/internal/storage"
)

var (
	configFile string
	dataDir    string
	slot       string
	verbose    bool
	quiet      bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "warren",
		Short: "Bunny Lords progression and combat simulator",
		Long: `Drives the warren simulation: upgrade buildings, train troops,
research, recruit heroes, claim quests and fight the campaign. Every command
loads the save slot, applies itself and saves the slot back.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configFile, "config", "c", "config.json", "Path to JSON config file")
	flags.StringVarP(&dataDir, "data", "d", "", "Path to data directory (overrides config)")
	flags.StringVarP(&slot, "slot", "s", "", "Save slot (overrides config)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Development logging")
	flags.BoolVarP(&quiet, "quiet", "q", false, "Minimal output")

	rootCmd.AddCommand(
		newValidateCmd(),
		newStatusCmd(),
		newSimulateCmd(),
		newUpgradeCmd(),
		newClickCmd(),
		newTrainCmd(),
		newResearchCmd(),
		newRecruitCmd(),
		newEquipCmd(),
		newUnequipCmd(),
		newClaimCmd(),
		newBattleCmd(),
		newSavesCmd(),
		newPlanCmd(),
		newPlayCmd(),
	)
	return rootCmd
}

// session is one loaded game: engine, store and the slot it came from
type session struct {
	cfg    config.Config
	logger *zap.Logger
	engine *sim.Engine
	store  storage.Store
	slot   string
}

func loadConfig() (config.Config, error) {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	if dataDir != "" {
		cfg.Game.DataDir = dataDir
	}
	if slot != "" {
		cfg.Storage.Slot = slot
	}
	return cfg, nil
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	level := cfg.Server.LogLevel
	if verbose {
		level = "debug"
	} else if quiet {
		level = "error"
	}
	return config.NewLogger(level, verbose)
}

// openSession loads the catalog and restores the configured slot, starting a
// fresh game when the slot is empty
func openSession(ctx context.Context) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}

	cat, err := loader.LoadCatalog(cfg.Game.DataDir)
	if err != nil {
		return nil, err
	}
	store, err := storage.Open(cfg.Storage.Driver, cfg.Storage.Path)
	if err != nil {
		return nil, err
	}

	engine := sim.New(cat)
	engine.SetLogger(logger.Named("sim"))

	snap, err := store.Load(ctx, cfg.Storage.Slot)
	switch {
	case err == nil:
		engine.Restore(snap)
	case errors.Is(err, storage.ErrNoSave):
		logger.Debug("new game", zap.String("slot", cfg.Storage.Slot))
	default:
		store.Close()
		return nil, err
	}

	return &session{cfg: cfg, logger: logger, engine: engine, store: store, slot: cfg.Storage.Slot}, nil
}

func (s *session) save(ctx context.Context) error {
	if err := s.store.Save(ctx, s.slot, s.engine.Snapshot()); err != nil {
		return fmt.Errorf("save slot %s: %w", s.slot, err)
	}
	return nil
}

func (s *session) close() {
	s.store.Close()
	_ = s.logger.Sync()
}

// withSession opens the slot, runs fn and saves the slot back when fn
// succeeds
func withSession(cmd *cobra.Command, fn func(s *session) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.close()

	if err := fn(s); err != nil {
		return err
	}
	return s.save(ctx)
}
