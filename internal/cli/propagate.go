package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "propagate [id]",
		Short: "Propagate an importance change through the graph",
		Long:  "Spread an importance delta from one memory to its successors, decaying per hop. Stops after three hops or when the decayed delta falls below 0.5.",
		Args:  cobra.ExactArgs(1),
		Run:   runPropagate,
	}

	cmd.Flags().Float64("delta", 0, "Importance delta to spread (required)")
	cmd.Flags().Float64("decay", 0.5, "Per-hop decay factor")

	cmd.MarkFlagRequired("delta")

	RootCmd.AddCommand(cmd)
}

func runPropagate(cmd *cobra.Command, args []string) {
	delta, _ := cmd.Flags().GetFloat64("delta")
	decay, _ := cmd.Flags().GetFloat64("decay")

	m, err := openManager()
	if err != nil {
		exitErr("open", err)
	}
	defer m.Close()

	affected, err := m.Graph().PropagateImportance(cmd.Context(), args[0], delta, decay)
	if err != nil {
		exitErr("propagate", err)
	}

	fmt.Printf(`{"ok":true,"affected":%d}`+"\n", affected)
}
