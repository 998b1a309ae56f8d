package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/strangeloop-ai/memory/internal/manager"
	"github.com/strangeloop-ai/memory/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "capture [content]",
		Short: "Capture a memory",
		Long:  "Capture a memory. Content can be a positional arg or piped via stdin.",
		Run:   runCapture,
	}

	cmd.Flags().StringP("type", "t", "", "Type: learning, decision, insight, event, interaction, meta (required)")
	cmd.Flags().StringP("agent", "a", "", "Agent id (required)")
	cmd.Flags().IntP("importance", "i", 0, "Importance 1-10 (0 = configured default)")
	cmd.Flags().String("tags", "", "Comma-separated tags")
	cmd.Flags().StringP("context", "c", "", "Situational context stored alongside the content")
	cmd.Flags().String("source", "", "Source: user, agent, system, external, inferred (default: agent)")
	cmd.Flags().StringSlice("related", nil, "Memory ids to link with RELATED edges")
	cmd.Flags().Bool("no-embed", false, "Skip the embedding step")

	cmd.MarkFlagRequired("type")
	cmd.MarkFlagRequired("agent")

	RootCmd.AddCommand(cmd)
}

func runCapture(cmd *cobra.Command, args []string) {
	memType, _ := cmd.Flags().GetString("type")
	agent, _ := cmd.Flags().GetString("agent")
	importance, _ := cmd.Flags().GetInt("importance")
	tagsStr, _ := cmd.Flags().GetString("tags")
	memContext, _ := cmd.Flags().GetString("context")
	source, _ := cmd.Flags().GetString("source")
	related, _ := cmd.Flags().GetStringSlice("related")
	noEmbed, _ := cmd.Flags().GetBool("no-embed")

	// Content: positional arg first, then stdin.
	var content string
	if len(args) > 0 {
		content = strings.Join(args, " ")
	} else {
		stat, _ := os.Stdin.Stat()
		if (stat.Mode() & os.ModeCharDevice) == 0 {
			b, err := io.ReadAll(os.Stdin)
			if err != nil {
				exitErr("read stdin", err)
			}
			content = string(b)
		}
	}
	if strings.TrimSpace(content) == "" {
		exitErr("capture", fmt.Errorf("content is required (positional arg or stdin)"))
	}

	m, err := openManager()
	if err != nil {
		exitErr("open", err)
	}
	defer m.Close()

	mem, err := m.Capture(cmd.Context(), manager.CaptureParams{
		Content:       strings.TrimSpace(content),
		Type:          memType,
		Importance:    importance,
		AgentID:       agent,
		Context:       memContext,
		Source:        source,
		Tags:          splitCSV(tagsStr),
		RelatedTo:     related,
		SkipEmbedding: noEmbed,
	})
	if err != nil {
		var dup *store.DuplicateContentError
		if errors.As(err, &dup) {
			fmt.Printf(`{"ok":false,"error":"duplicate content","existing_id":%q}`+"\n", dup.ExistingID)
			os.Exit(1)
		}
		exitErr("capture", err)
	}

	b, _ := json.Marshal(mem)
	fmt.Println(string(b))
}
