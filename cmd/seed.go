package cmd

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/spf13/cobra"

	"github.com/evfleet/chargesim/config"
	"github.com/evfleet/chargesim/core/seeder"
	"github.com/evfleet/chargesim/infra/input"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Run only the fleet-seeding step and print per-region model counts",
	RunE:  runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	regions, err := input.ReadRegions(cfg.Input.RegionsFile)
	if err != nil {
		return fmt.Errorf("load regions: %w", err)
	}
	carModels, err := input.ReadCarModels(cfg.Input.CarsFile)
	if err != nil {
		return fmt.Errorf("load car models: %w", err)
	}

	seed := cfg.Simulation.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	rng := rand.New(rand.NewPCG(seed, seed))
	counts := seeder.New(carModels, cfg.Seeder, rng).Run(regions)

	out := cmd.OutOrStdout()
	for _, r := range regions {
		fmt.Fprintf(out, "\n%s\n", r.ID)
		total := 0
		for _, m := range carModels {
			n := counts[r.ID][m.ID]
			fmt.Fprintf(out, "%s: %d\n", m.ID, n)
			total += n
		}
		fmt.Fprintf(out, "total: %d of %d drivers\n", total, r.AvgDrivers())
	}
	return nil
}
