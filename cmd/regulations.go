package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pandemic-sim/pandemic-sim/sim"
)

var regulationsCmd = &cobra.Command{
	Use:   "regulations [preset]",
	Short: "Print a regulation preset as YAML, ready to edit and pass to run --regulations-config",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		name := "staged"
		if len(args) == 1 {
			name = args[0]
		}
		preset, ok := sim.RegulationPresets[name]
		if !ok {
			logrus.Fatalf("unknown regulation preset %q; valid: %v", name, sim.RegulationPresetNames())
		}
		out, err := sim.MarshalBundle(preset())
		if err != nil {
			logrus.Fatalf("rendering %s: %v", name, err)
		}
		fmt.Fprint(os.Stdout, string(out))
	},
}

var validateRegulationsCmd = &cobra.Command{
	Use:   "validate FILE",
	Short: "Strictly parse and validate a regulation bundle",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		bundle, err := sim.LoadRegulationBundle(args[0])
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		fmt.Fprintf(os.Stdout, "%s: %d stages %v\n", args[0], len(bundle.Regulations), bundle.Stages())
	},
}

func init() {
	regulationsCmd.AddCommand(validateRegulationsCmd)
}
