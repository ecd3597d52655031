// Command retire runs household retirement-outcome simulations from a
// scenario file.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/plansight/retirement-engine/internal/config"
	"github.com/plansight/retirement-engine/internal/dispatch"
	"github.com/plansight/retirement-engine/internal/domain"
	"github.com/plansight/retirement-engine/internal/output"
)

var (
	inputFile  string
	formatName string
	numPaths   int
	seed       int64
	verbose    bool
)

// stderrLogger writes simulation diagnostics to standard error when --verbose
// is set.
type stderrLogger struct{}

func (stderrLogger) Debugf(format string, args ...any) { log.Printf("DEBUG "+format, args...) }
func (stderrLogger) Infof(format string, args ...any)  { log.Printf("INFO "+format, args...) }
func (stderrLogger) Warnf(format string, args ...any)  { log.Printf("WARN "+format, args...) }
func (stderrLogger) Errorf(format string, args ...any) { log.Printf("ERROR "+format, args...) }

var rootCmd = &cobra.Command{
	Use:   "retire",
	Short: "Household retirement outcome simulator",
	Long: `retire runs Monte Carlo retirement simulations for a household:
accumulation, tax-aware decumulation, healthcare costs, and optional
generational-wealth, guardrails, and Roth-conversion analysis.`,
	SilenceUsage: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the scenario in the given input file",
	RunE:  runScenario,
}

var exampleCmd = &cobra.Command{
	Use:   "example",
	Short: "Print a complete example scenario file",
	RunE: func(cmd *cobra.Command, args []string) error {
		sc := config.NewInputParser().CreateExampleScenario()
		data, err := yaml.Marshal(sc)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	},
}

func init() {
	runCmd.Flags().StringVarP(&inputFile, "input", "i", "", "scenario YAML file (required)")
	runCmd.Flags().StringVarP(&formatName, "format", "f", "console", "output format: console or json")
	runCmd.Flags().IntVar(&numPaths, "paths", 0, "override the number of Monte Carlo paths")
	runCmd.Flags().Int64Var(&seed, "seed", 0, "override the simulation seed")
	runCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log simulation diagnostics to stderr")
	_ = runCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(runCmd, exampleCmd)
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := config.NewInputParser().LoadFromFile(inputFile)
	if err != nil {
		return err
	}
	if numPaths > 0 {
		sc.Inputs.NumPaths = numPaths
	}
	if seed != 0 {
		sc.Inputs.Seed = seed
	}

	formatter, err := output.GetFormatterByName(formatName)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d := dispatch.New(sc.EffectiveRules())
	defer d.Close()
	if verbose {
		d.SetLogger(stderrLogger{})
	}

	result, err := d.RunScenario(ctx, *sc, func(ev domain.ProgressEvent) {
		fmt.Fprintf(os.Stderr, "\r%-14s %5.1f%% %s", ev.Phase, ev.Percent, ev.Message)
	})
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return err
	}

	data, err := formatter.Format(result)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
