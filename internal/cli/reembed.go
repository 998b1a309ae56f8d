package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "reembed",
		Short: "Regenerate all embeddings",
		Long:  "Re-embed every memory with the configured provider and re-link the results. Repairs interrupted captures and applies provider or model switches.",
		Run:   runReembed,
	}

	RootCmd.AddCommand(cmd)
}

func runReembed(cmd *cobra.Command, args []string) {
	m, err := openManager()
	if err != nil {
		exitErr("open", err)
	}
	defer m.Close()

	count, err := m.ReembedAll(cmd.Context())
	if err != nil {
		exitErr("reembed", err)
	}

	fmt.Printf(`{"ok":true,"reembedded":%d}`+"\n", count)
}
