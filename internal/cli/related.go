package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "related [id]",
		Short: "List memories reachable from one memory",
		Long:  "Walk outgoing references and list reachable memories with their path strength. Directed: incoming edges are not followed.",
		Args:  cobra.ExactArgs(1),
		Run:   runRelated,
	}

	cmd.Flags().IntP("limit", "l", 10, "Max results")

	RootCmd.AddCommand(cmd)
}

func runRelated(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")

	m, err := openManager()
	if err != nil {
		exitErr("open", err)
	}
	defer m.Close()

	related, err := m.GetRelated(cmd.Context(), args[0], limit)
	if err != nil {
		exitErr("related", err)
	}

	if len(related) == 0 {
		fmt.Println("[]")
		return
	}

	b, _ := json.MarshalIndent(related, "", "  ")
	fmt.Println(string(b))
}
