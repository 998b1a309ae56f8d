package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "get [id]",
		Short: "Retrieve a memory by id",
		Long:  "Retrieve a memory by id. Stamps access. --related attaches loops and graph neighbors.",
		Args:  cobra.ExactArgs(1),
		Run:   runGet,
	}

	cmd.Flags().BoolP("related", "r", false, "Attach detected loops and related ids")

	RootCmd.AddCommand(cmd)
}

func runGet(cmd *cobra.Command, args []string) {
	includeRelated, _ := cmd.Flags().GetBool("related")

	m, err := openManager()
	if err != nil {
		exitErr("open", err)
	}
	defer m.Close()

	detail, err := m.GetByID(cmd.Context(), args[0], includeRelated)
	if err != nil {
		exitErr("get", err)
	}

	b, _ := json.MarshalIndent(detail, "", "  ")
	fmt.Println(string(b))
}
