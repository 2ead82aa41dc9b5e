package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mj1618/press-monkey/internal/harness"
	"github.com/mj1618/press-monkey/internal/observability"
	"github.com/mj1618/press-monkey/internal/output"
	"github.com/mj1618/press-monkey/internal/sim"
)

var simCmd = &cobra.Command{
	Use:   "sim",
	Short: "Run the tester against a scene file on a virtual clock",
	Long: `Load a YAML scene (a control tree, an optional camera, and a script of
timed operator inputs), run the tester on a virtual clock, and print the press report.

Runs are deterministic for a given --seed. Scripted "key: activation" steps feed
the activation gesture; "trigger: start|stop" steps press the surface affordances.`,
	Example: `  press-monkey sim --scene menu.yaml --duration 10s --start
  press-monkey sim --scene menu.yaml --seed 7 --snapshot heat.png --format json`,
	RunE: runSim,
}

func init() {
	rootCmd.AddCommand(simCmd)
	simCmd.Flags().String("scene", "", "Scene file (required)")
	simCmd.Flags().Duration("duration", 10*time.Second, "Virtual run time")
	simCmd.Flags().Duration("tick", 0, "Virtual tick interval (default from sim.tick)")
	simCmd.Flags().Bool("start", false, "Start testing at t=0 instead of waiting for the surface")
	simCmd.Flags().String("snapshot", "", "Write a PNG heat map of press counts to this path")
	_ = simCmd.MarkFlagRequired("scene")
	configFlag(simCmd.Flags(), "tick", "sim.tick")
}

func runSim(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("scene")
	duration, _ := cmd.Flags().GetDuration("duration")
	start, _ := cmd.Flags().GetBool("start")
	snapshot, _ := cmd.Flags().GetString("snapshot")
	if duration < 0 {
		return fmt.Errorf("--duration must not be negative")
	}
	tick := cfg.Sim().Tick
	if tick <= 0 {
		tick = 10 * time.Millisecond
	}

	logger := observability.GetLogger()
	scene, err := sim.LoadScene(path, logger.Named("sim"))
	if err != nil {
		return err
	}
	h, err := harness.New(scene.World.Provider(), cfg, logger.Named("harness"))
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	world := scene.World
	if start {
		h.Start(ctx, 0)
	}
	err = h.RunFor(ctx, 0, duration, tick, func(now time.Duration) {
		world.SetTime(now)
		scene.Script.Apply(world, now)
	})
	if err != nil {
		return err
	}
	if n := scene.Script.Pending(); n > 0 {
		logger.Warn("Scene script steps never ran.", zap.Int("pending", n), zap.Duration("duration", duration))
	}

	if snapshot != "" {
		if err := writeSnapshot(snapshot, world, h); err != nil {
			return err
		}
		logger.Info("Snapshot written.", zap.String("path", snapshot))
	}
	return output.Fprint(cmd.OutOrStdout(), h.Report())
}

func writeSnapshot(path string, world *sim.World, h *harness.Harness) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create snapshot: %w", err)
	}
	if err := sim.WriteSnapshot(f, world, h.Table()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
