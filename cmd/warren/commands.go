package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/napolitain/warren/internal/events"
	"github.com/napolitain/warren/internal/ledger"
	"github.com/napolitain/warren/internal/loader"
	"github.com/napolitain/warren/internal/models"
	"github.com/napolitain/warren/internal/storage"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load and validate the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			cat, err := loader.LoadCatalog(cfg.Game.DataDir)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			successColor.Fprintf(w, "✓ Catalog %s is valid\n", cfg.Game.DataDir)
			if !quiet {
				infoColor.Fprintf(w, "📦 %d buildings, %d troops, %d heroes, %d research, %d quests, %d stages\n",
					len(cat.Buildings), len(cat.Troops), len(cat.Heroes), len(cat.Research), len(cat.Quests), len(cat.Stages))
			}
			return nil
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show resources, buildings, troops, research, heroes, quests and campaign",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(s *session) error {
				w := cmd.OutOrStdout()
				printHeader(w, s.engine)
				printResources(w, s.engine)
				if quiet {
					return nil
				}
				fmt.Fprintln(w, "\n🏰 Buildings:")
				printBuildings(w, s.engine)
				fmt.Fprintln(w, "\n⚔️  Troops:")
				printTroops(w, s.engine)
				fmt.Fprintln(w, "\n🔬 Research:")
				printResearch(w, s.engine)
				fmt.Fprintln(w, "\n⭐ Heroes:")
				printHeroes(w, s.engine)
				fmt.Fprintln(w, "\n🎒 Inventory:")
				printInventory(w, s.engine)
				fmt.Fprintln(w, "\n📋 Quests:")
				printQuests(w, s.engine)
				fmt.Fprintln(w, "\n🗺️  Campaign:")
				printStages(w, s.engine)
				return nil
			})
		},
	}
}

func newSimulateCmd() *cobra.Command {
	var (
		duration time.Duration
		step     float64
	)
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Advance the game clock",
		Long:  "Advances the game clock in fixed steps, printing what completed along the way.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(s *session) error {
				w := cmd.OutOrStdout()
				if !quiet {
					s.engine.Subscribe(func(ev events.Event) {
						if line := describeEvent(ev); line != "" {
							fmt.Fprintf(w, "[%s] %s\n", formatTime(ev.Time), line)
						}
					})
				}
				if err := s.engine.Simulate(duration.Seconds(), step); err != nil {
					return err
				}
				successColor.Fprintf(w, "✓ Advanced %s to %s\n", duration, formatTime(s.engine.Now()))
				printResources(w, s.engine)
				return nil
			})
		},
	}
	cmd.Flags().DurationVarP(&duration, "duration", "t", time.Hour, "Game time to simulate")
	cmd.Flags().Float64Var(&step, "step", 1, "Step size in seconds")
	return cmd
}

func newUpgradeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upgrade <building>",
		Short: "Start the next level of a building",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := models.BuildingID(args[0])
			return withSession(cmd, func(s *session) error {
				cost, err := s.engine.Economy().Cost(id)
				if err != nil {
					return err
				}
				if err := s.engine.StartUpgrade(id); err != nil {
					return err
				}
				for _, b := range s.engine.Economy().Buildings() {
					if b.ID == id && b.Upgrade != nil {
						successColor.Fprintf(cmd.OutOrStdout(), "✓ Upgrading %s to level %d for %s, done in %s\n",
							formatName(args[0]), b.Upgrade.TargetLevel, ledger.FormatBundle(cost), formatTime(b.Upgrade.Remaining))
						return nil
					}
				}
				successColor.Fprintf(cmd.OutOrStdout(), "✓ %s is now level %d\n", formatName(args[0]), s.engine.Economy().Level(id))
				return nil
			})
		},
	}
}

func newClickCmd() *cobra.Command {
	var times int
	cmd := &cobra.Command{
		Use:   "click <building>",
		Short: "Tap a click-gated building to keep it producing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := models.BuildingID(args[0])
			return withSession(cmd, func(s *session) error {
				for range times {
					if err := s.engine.ClickBuilding(id); err != nil {
						return err
					}
				}
				successColor.Fprintf(cmd.OutOrStdout(), "✓ Clicked %s %d times\n", formatName(args[0]), times)
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&times, "times", "n", 1, "Number of clicks")
	return cmd
}

func newTrainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "train <troop> <count>",
		Short: "Queue troops for training",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var n int
			if _, err := fmt.Sscanf(args[1], "%d", &n); err != nil {
				return fmt.Errorf("count %q: %w", args[1], err)
			}
			id := models.TroopID(args[0])
			return withSession(cmd, func(s *session) error {
				if err := s.engine.EnqueueTraining(id, n); err != nil {
					return err
				}
				successColor.Fprintf(cmd.OutOrStdout(), "✓ Queued %d %s (%d batches in queue)\n",
					n, formatName(args[0]), len(s.engine.Roster().Queue()))
				return nil
			})
		},
	}
}

func newResearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "research <node>",
		Short: "Start researching a node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := models.NodeID(args[0])
			return withSession(cmd, func(s *session) error {
				if err := s.engine.StartResearch(id); err != nil {
					return err
				}
				if s.engine.Research().IsCompleted(id) {
					successColor.Fprintf(cmd.OutOrStdout(), "✓ Researched %s\n", formatName(args[0]))
					return nil
				}
				successColor.Fprintf(cmd.OutOrStdout(), "✓ Researching %s, done in %s\n",
					formatName(args[0]), formatTime(s.engine.Research().Active().Remaining))
				return nil
			})
		},
	}
}

func newRecruitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recruit <hero>",
		Short: "Recruit a hero",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(s *session) error {
				if err := s.engine.RecruitHero(models.HeroID(args[0])); err != nil {
					return err
				}
				successColor.Fprintf(cmd.OutOrStdout(), "✓ %s joined the warren\n", formatName(args[0]))
				return nil
			})
		},
	}
}

func newEquipCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "equip <hero> <item>",
		Short:   "Equip a hero with a piece from the inventory",
		Example: "  warren equip thumper iron_sword",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			hero, item := models.HeroID(args[0]), models.EquipmentID(args[1])
			return withSession(cmd, func(s *session) error {
				if err := s.engine.EquipHero(hero, item); err != nil {
					return err
				}
				h, _ := s.engine.Heroes().Get(hero)
				successColor.Fprintf(cmd.OutOrStdout(), "✓ %s equipped %s (power %d)\n",
					formatName(args[0]), formatName(args[1]), h.Power())
				return nil
			})
		},
	}
}

func newUnequipCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unequip <hero> <slot>",
		Short: "Return the piece in a slot (weapon, armor, helmet, accessory) to the inventory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			hero, slot := models.HeroID(args[0]), models.EquipSlot(args[1])
			return withSession(cmd, func(s *session) error {
				if err := s.engine.UnequipHero(hero, slot); err != nil {
					return err
				}
				successColor.Fprintf(cmd.OutOrStdout(), "✓ %s took off the %s\n", formatName(args[0]), slot)
				return nil
			})
		},
	}
}

func newClaimCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "claim <quest>",
		Short: "Claim a completed quest's reward",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := models.QuestID(args[0])
			return withSession(cmd, func(s *session) error {
				if err := s.engine.ClaimQuest(id); err != nil {
					return err
				}
				reward := s.engine.Catalog().Quests[id].Reward
				successColor.Fprintf(cmd.OutOrStdout(), "✓ Claimed %s: %s\n", formatName(args[0]), ledger.FormatBundle(reward))
				return nil
			})
		},
	}
}

func newBattleCmd() *cobra.Command {
	var (
		troops map[string]int
		heroes []string
	)
	cmd := &cobra.Command{
		Use:     "battle <stage>",
		Short:   "Fight a campaign stage",
		Example: `  warren battle meadow_scouts --troops infantry=10,archer=5 --heroes thumper`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			army := make(map[models.TroopID]int, len(troops))
			for id, n := range troops {
				army[models.TroopID(id)] = n
			}
			heroIDs := make([]models.HeroID, len(heroes))
			for i, id := range heroes {
				heroIDs[i] = models.HeroID(id)
			}
			return withSession(cmd, func(s *session) error {
				out, err := s.engine.ResolveCampaignStage(models.StageID(args[0]), army, heroIDs)
				if err != nil {
					return err
				}
				printBattle(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}
	cmd.Flags().StringToIntVar(&troops, "troops", nil, "Troops to send, e.g. infantry=10,archer=5")
	cmd.Flags().StringSliceVar(&heroes, "heroes", nil, "Heroes leading the army")
	return cmd
}

func newSavesCmd() *cobra.Command {
	var remove string
	cmd := &cobra.Command{
		Use:   "saves",
		Short: "List or delete save slots",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := storage.Open(cfg.Storage.Driver, cfg.Storage.Path)
			if err != nil {
				return err
			}
			defer store.Close()

			if remove != "" {
				if err := store.Delete(cmd.Context(), remove); err != nil {
					return err
				}
				successColor.Fprintf(cmd.OutOrStdout(), "✓ Deleted slot %s\n", remove)
				return nil
			}
			slots, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			sort.Slice(slots, func(i, j int) bool { return slots[i].SavedAt.After(slots[j].SavedAt) })
			printSaves(cmd.OutOrStdout(), slots)
			return nil
		},
	}
	cmd.Flags().StringVar(&remove, "delete", "", "Delete the named slot")
	return cmd
}
