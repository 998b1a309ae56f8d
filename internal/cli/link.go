package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "link [source-id] [target-id]",
		Short: "Create or remove a reference between memories",
		Long:  "Create a directed reference from source to target, or remove one with --rm.",
		Args:  cobra.ExactArgs(2),
		Run:   runLink,
	}

	cmd.Flags().StringP("rel", "r", "related", "Reference type: related, supports, contradicts, supersedes, derived_from, meta")
	cmd.Flags().Float64P("strength", "s", 1.0, "Edge strength in [0,1]")
	cmd.Flags().Bool("rm", false, "Remove the reference")

	RootCmd.AddCommand(cmd)
}

func runLink(cmd *cobra.Command, args []string) {
	rel, _ := cmd.Flags().GetString("rel")
	strength, _ := cmd.Flags().GetFloat64("strength")
	remove, _ := cmd.Flags().GetBool("rm")
	sourceID, targetID := args[0], args[1]

	m, err := openManager()
	if err != nil {
		exitErr("open", err)
	}
	defer m.Close()

	if remove {
		if err := m.Graph().RemoveReference(cmd.Context(), sourceID, targetID); err != nil {
			exitErr("link", err)
		}
		fmt.Printf(`{"ok":true,"removed":true,"source_id":%q,"target_id":%q}`+"\n", sourceID, targetID)
		return
	}

	if err := m.AddReference(cmd.Context(), sourceID, targetID, rel, strength); err != nil {
		exitErr("link", err)
	}

	out := map[string]any{
		"ok": true, "source_id": sourceID, "target_id": targetID,
		"ref_type": rel, "strength": strength,
	}
	b, _ := json.Marshal(out)
	fmt.Println(string(b))
}
