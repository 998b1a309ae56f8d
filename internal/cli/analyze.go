package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/strangeloop-ai/memory/internal/loop"
	"github.com/strangeloop-ai/memory/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze the memory graph",
		Long:  "Report graph-wide structure: node and edge counts, density, cycles, components, clusters, and contradiction pairs.",
		Run:   runAnalyze,
	}

	cmd.Flags().Int("min-cluster", 2, "Minimum cluster size")

	RootCmd.AddCommand(cmd)
}

func runAnalyze(cmd *cobra.Command, args []string) {
	minCluster, _ := cmd.Flags().GetInt("min-cluster")

	m, err := openManager()
	if err != nil {
		exitErr("open", err)
	}
	defer m.Close()

	g := m.Graph()
	analysis, err := g.AnalyzeSelf(cmd.Context())
	if err != nil {
		exitErr("analyze", err)
	}

	out := struct {
		*loop.Analysis
		Clusters       [][]string        `json:"clusters,omitempty"`
		Contradictions []model.Reference `json:"contradictions,omitempty"`
	}{Analysis: analysis}

	if analysis.Enabled {
		if out.Clusters, err = g.FindClusters(cmd.Context(), minCluster); err != nil {
			exitErr("analyze", err)
		}
		if out.Contradictions, err = g.FindContradictions(cmd.Context()); err != nil {
			exitErr("analyze", err)
		}
	}

	b, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(b))
}
