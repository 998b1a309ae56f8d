package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/strangeloop-ai/memory/internal/manager"
)

func init() {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search memories",
		Long:  "Search memories by keyword, meaning, or both. Hybrid results are ranked by importance.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runSearch,
	}

	cmd.Flags().StringP("mode", "m", "hybrid", "Search mode: text, semantic, hybrid")
	cmd.Flags().StringP("agent", "a", "", "Filter by agent id")
	cmd.Flags().StringP("type", "t", "", "Filter by memory type")
	cmd.Flags().Int("min-importance", 0, "Minimum importance")
	cmd.Flags().IntP("limit", "l", 10, "Max results")

	RootCmd.AddCommand(cmd)
}

func runSearch(cmd *cobra.Command, args []string) {
	mode, _ := cmd.Flags().GetString("mode")
	agent, _ := cmd.Flags().GetString("agent")
	memType, _ := cmd.Flags().GetString("type")
	minImportance, _ := cmd.Flags().GetInt("min-importance")
	limit, _ := cmd.Flags().GetInt("limit")
	query := strings.Join(args, " ")

	m, err := openManager()
	if err != nil {
		exitErr("open", err)
	}
	defer m.Close()

	results, err := m.Search(cmd.Context(), manager.SearchRequest{
		Query:         query,
		Mode:          manager.SearchMode(mode),
		AgentID:       agent,
		Type:          memType,
		MinImportance: minImportance,
		Limit:         limit,
	})
	if err != nil {
		exitErr("search", err)
	}

	if len(results) == 0 {
		fmt.Println("[]")
		return
	}

	b, _ := json.MarshalIndent(results, "", "  ")
	fmt.Println(string(b))
}
