package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "context [task description]",
		Short: "Pull memories relevant to a task",
		Long:  "Compose a context query from the task description and recent memories, then return the best semantic matches. Requires an embedding provider.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runContext,
	}

	cmd.Flags().StringSlice("recent", nil, "Recently touched memory ids to fold into the query")
	cmd.Flags().IntP("limit", "l", 5, "Max memories")

	RootCmd.AddCommand(cmd)
}

func runContext(cmd *cobra.Command, args []string) {
	recent, _ := cmd.Flags().GetStringSlice("recent")
	limit, _ := cmd.Flags().GetInt("limit")
	task := strings.Join(args, " ")

	m, err := openManager()
	if err != nil {
		exitErr("open", err)
	}
	defer m.Close()

	results, err := m.GetContextForTask(cmd.Context(), task, recent, limit)
	if err != nil {
		exitErr("context", err)
	}

	if len(results) == 0 {
		fmt.Println("[]")
		return
	}

	b, _ := json.MarshalIndent(results, "", "  ")
	fmt.Println(string(b))
}
