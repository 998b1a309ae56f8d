package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/strangeloop-ai/memory/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List memories, newest first",
		Run:   runList,
	}

	cmd.Flags().StringP("agent", "a", "", "Filter by agent id")
	cmd.Flags().StringP("type", "t", "", "Filter by memory type")
	cmd.Flags().String("tag", "", "Filter by tag")
	cmd.Flags().IntP("limit", "l", 20, "Max results")

	RootCmd.AddCommand(cmd)
}

func runList(cmd *cobra.Command, args []string) {
	agent, _ := cmd.Flags().GetString("agent")
	memType, _ := cmd.Flags().GetString("type")
	tag, _ := cmd.Flags().GetString("tag")
	limit, _ := cmd.Flags().GetInt("limit")

	m, err := openManager()
	if err != nil {
		exitErr("open", err)
	}
	defer m.Close()

	memories, err := m.Store().List(cmd.Context(), store.ListParams{
		AgentID: agent,
		Type:    memType,
		Tag:     tag,
		Limit:   limit,
	})
	if err != nil {
		exitErr("list", err)
	}

	if len(memories) == 0 {
		fmt.Println("[]")
		return
	}

	b, _ := json.MarshalIndent(memories, "", "  ")
	fmt.Println(string(b))
}
