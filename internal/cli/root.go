// Package cli implements the strange-memory CLI commands.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/strangeloop-ai/memory/internal/embedding"
	"github.com/strangeloop-ai/memory/internal/loop"
	"github.com/strangeloop-ai/memory/internal/manager"
)

var (
	dbPath  string
	verbose bool
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "strange-memory",
	Short: "Layered memory for AI agents",
	Long: "Agent memory with a canonical SQLite store, a semantic embedding layer,\n" +
		"and a self-referential memory graph. Single binary, JSON out.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Database path (default: $STRANGE_MEMORY_DB or ~/.strange-memory/memory.db)")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging to stderr")
}

// initConfig binds settings to STRANGE_MEMORY_* env vars and an optional
// ~/.strange-memory/config.yaml.
func initConfig() {
	viper.SetEnvPrefix("strange_memory")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("embedding.provider", "")
	viper.SetDefault("embedding.model", "")
	viper.SetDefault("embedding.url", "")
	viper.SetDefault("embedding.api-key", "")
	viper.SetDefault("embedding.dims", 0)
	viper.SetDefault("graph.enabled", true)
	viper.SetDefault("graph.max-depth", loop.DefaultMaxDepth)
	viper.SetDefault("default-importance", manager.DefaultImportance)

	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".strange-memory"))
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		_ = viper.ReadInConfig() // config file is optional
	}
}

func getDBPath() string {
	if dbPath != "" {
		return dbPath
	}
	if env := os.Getenv("STRANGE_MEMORY_DB"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".strange-memory", "memory.db")
}

func openManager() (*manager.Manager, error) {
	emb := embedding.New(embedding.Config{
		Provider: viper.GetString("embedding.provider"),
		Model:    viper.GetString("embedding.model"),
		BaseURL:  viper.GetString("embedding.url"),
		APIKey:   viper.GetString("embedding.api-key"),
		Dims:     viper.GetInt("embedding.dims"),
	})
	return manager.New(manager.Config{
		DBPath:            getDBPath(),
		Embedder:          emb,
		GraphEnabled:      viper.GetBool("graph.enabled"),
		MaxLoopDepth:      viper.GetInt("graph.max-depth"),
		DefaultImportance: viper.GetInt("default-importance"),
	})
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
