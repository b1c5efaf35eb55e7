package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"fdeconsole/config"
	"fdeconsole/models"
	"fdeconsole/observability"

	"github.com/spf13/cobra"
)

var (
	simulateFor    time.Duration
	simulateQuiet  bool
	simulateEntity []string
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the error simulation headless and print the feed",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if len(simulateEntity) > 0 {
			cfg.Simulation.Entities, err = pickEntities(cfg.Simulation.Entities, simulateEntity)
			if err != nil {
				return err
			}
		}
		return simulate(cmd.Context(), cfg)
	},
}

func init() {
	simulateCmd.Flags().DurationVar(&simulateFor, "for", 30*time.Second, "how long to run")
	simulateCmd.Flags().BoolVarP(&simulateQuiet, "quiet", "q", false, "only print the final stats")
	simulateCmd.Flags().StringSliceVarP(&simulateEntity, "entity", "e", nil, "entity ids to simulate (default: all)")
	rootCmd.AddCommand(simulateCmd)
}

func pickEntities(catalog []models.Entity, ids []string) ([]models.Entity, error) {
	out := make([]models.Entity, 0, len(ids))
	for _, id := range ids {
		found := false
		for _, e := range catalog {
			if e.ID == id {
				out = append(out, e)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown entity %q", id)
		}
	}
	return out, nil
}

func simulate(ctx context.Context, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	log := observability.NewLogger(cfg.Log)
	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	enc := json.NewEncoder(os.Stdout)
	if !simulateQuiet {
		unsubscribe := a.engine.OnError(func(e models.SimulatedError) {
			fmt.Printf("%s %-8s %-20s %s\n", e.Timestamp.Format(time.RFC3339), e.Severity, e.EntityID, e.ErrorMessage)
		})
		defer unsubscribe()
	}

	if err := a.engine.Start(cfg.Simulation.Entities, a.interval); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
	case <-time.After(simulateFor):
	}
	a.engine.Stop()

	enc.SetIndent("", "  ")
	return enc.Encode(a.engine.AllStats())
}
