package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export memories as JSON",
		Long:  "Export memories as a JSON array. Filter by agent with -a.",
		Run:   runExport,
	}

	cmd.Flags().StringP("agent", "a", "", "Filter by agent id")

	RootCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, args []string) {
	agent, _ := cmd.Flags().GetString("agent")

	m, err := openManager()
	if err != nil {
		exitErr("open", err)
	}
	defer m.Close()

	memories, err := m.Store().ExportAll(cmd.Context(), agent)
	if err != nil {
		exitErr("export", err)
	}

	b, _ := json.MarshalIndent(memories, "", "  ")
	fmt.Println(string(b))
}
