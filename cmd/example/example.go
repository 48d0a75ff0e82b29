package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/voodooEntity/cyberfocus"
	"github.com/voodooEntity/cyberfocus/src/example"
	"github.com/voodooEntity/cyberfocus/src/system/archivist"
	"github.com/voodooEntity/cyberfocus/src/system/blueprint"
	"github.com/voodooEntity/cyberfocus/src/system/cerebrum"
)

var (
	cycles       int
	seed         int64
	strategyPath string
	history      bool
	verbose      bool
	tickRate     int
)

var rootCmd = &cobra.Command{
	Use:   "example",
	Short: "Run the demo eye/motor/fixation model",
	Long: `Runs a small model made of an eye reporting coloured objects, a motor
acting on attended objects and a fixation marker. Every cycle prints the
chosen focus. Use --strategy to load a TOML or YAML blueprint instead of the
built in strategy.`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().IntVarP(&cycles, "cycles", "n", 20, "number of cycles to run")
	rootCmd.Flags().Int64Var(&seed, "seed", 1, "seed of the run's random generator")
	rootCmd.Flags().StringVar(&strategyPath, "strategy", "", "path to a .toml/.yaml strategy blueprint")
	rootCmd.Flags().BoolVar(&history, "history", false, "record cycles into memory and print a summary")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log arbitration decisions")
	rootCmd.Flags().IntVar(&tickRate, "tick", 1, "print the focus every N cycles")
}

func run(cmd *cobra.Command, args []string) error {
	settings := cyberfocus.Settings{
		Ident:    "example",
		Seed:     seed,
		LogLevel: archivist.LEVEL_INFO,
		History:  history,
	}
	if verbose {
		settings.LogLevel = archivist.LEVEL_DEBUG
		settings.DebugLevel = archivist.DEBUG_LEVEL_TRACE
	}
	cf := cyberfocus.New(settings)

	strategy, err := loadStrategy()
	if err != nil {
		return err
	}
	cf.SetStrategy(strategy)

	motor := example.NewMotor()
	if err := cf.RegisterComponent("eye", example.NewEye(3)); err != nil {
		return err
	}
	if err := cf.RegisterComponent("motor", motor); err != nil {
		return err
	}
	if err := cf.RegisterComponent("fixation", example.Fixation{}); err != nil {
		return err
	}

	obs := cf.GetObserverInstance(cycles, nil, func(engine *cerebrum.Engine) {
		fmt.Fprintf(cmd.OutOrStdout(), "halted at cycle %d, motor grasped %d times\n", engine.Cycle(), motor.Grasps())
		if mem := engine.Memory(); mem != nil {
			for _, tier := range engine.Strategy().Entries {
				fmt.Fprintf(cmd.OutOrStdout(), "tier %-10s won %d cycles\n", tier.Tier.Name, mem.WonBy(tier.Tier.Name))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "fallback/empty cycles: %d\n", mem.WonBy(""))
		}
	})
	printFocus := func(engine *cerebrum.Engine, logger *archivist.Archivist) {
		d := engine.LastDecision()
		if d.Focus == nil {
			fmt.Fprintf(cmd.OutOrStdout(), "%4d  <no focus>\n", engine.Cycle())
			return
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%4d  %-10s %-8s %v\n", engine.Cycle(), d.TierName(), d.Focus.Name, d.Focus.Arguments)
	}
	obs.RegisterTickFunction(&printFocus)
	obs.SetTickRate(tickRate)

	return obs.Loop()
}

func loadStrategy() (*cerebrum.Strategy, error) {
	if strategyPath == "" {
		return example.Strategy()
	}
	return blueprint.LoadFile(strategyPath)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
