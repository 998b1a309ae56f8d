package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/strangeloop-ai/memory/internal/loop"
)

func init() {
	cmd := &cobra.Command{
		Use:   "loops [id]",
		Short: "Detect reference loops through a memory",
		Long:  "Find closed reference paths that start and end at the given memory, strongest first.",
		Args:  cobra.ExactArgs(1),
		Run:   runLoops,
	}

	RootCmd.AddCommand(cmd)
}

func runLoops(cmd *cobra.Command, args []string) {
	m, err := openManager()
	if err != nil {
		exitErr("open", err)
	}
	defer m.Close()

	loops, err := m.Graph().DetectLoops(cmd.Context(), args[0])
	if err != nil {
		exitErr("loops", err)
	}

	out := struct {
		GraphEnabled bool        `json:"graph_enabled"`
		Loops        []loop.Loop `json:"loops"`
	}{m.Graph().Enabled(), loops}

	b, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(b))
}
