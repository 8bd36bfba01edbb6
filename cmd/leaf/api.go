package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/leaf/internal/server/endpoints"
)

var serverURL string

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Commands that call the running server",
	Long: `API commands call the running Leaf server via HTTP.

These commands require a running server (leaf serve).
Use --server to specify a custom server URL.

Examples:
  leaf api health                     # Check server health
  leaf api documents list             # List open documents
  leaf api documents open <path>      # Open a document
  leaf api documents page <id> <n>    # Fetch a rendered page`,
}

var documentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "Document session commands",
}

// getServerURL returns the server URL at runtime (after flag parsing).
func getServerURL() string {
	return serverURL
}

func init() {
	// Add --server flag to api command (persistent so all subcommands inherit it)
	apiCmd.PersistentFlags().StringVar(
		&serverURL, "server", "http://localhost:8080", "Server URL",
	)

	// Health and cache endpoints at top level of api
	apiCmd.AddCommand((&endpoints.HealthEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.StatusEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.CacheStatsEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.ClearCacheEndpoint{}).Command(getServerURL))

	// Documents as subcommand group
	documentsCmd.AddCommand((&endpoints.OpenDocumentEndpoint{}).Command(getServerURL))
	documentsCmd.AddCommand((&endpoints.ListDocumentsEndpoint{}).Command(getServerURL))
	documentsCmd.AddCommand((&endpoints.GetDocumentEndpoint{}).Command(getServerURL))
	documentsCmd.AddCommand((&endpoints.CloseDocumentEndpoint{}).Command(getServerURL))
	documentsCmd.AddCommand((&endpoints.LayoutEndpoint{}).Command(getServerURL))
	documentsCmd.AddCommand((&endpoints.PageImageEndpoint{}).Command(getServerURL))
	documentsCmd.AddCommand((&endpoints.ViewportEndpoint{}).Command(getServerURL))
	documentsCmd.AddCommand((&endpoints.ZoomEndpoint{}).Command(getServerURL))

	apiCmd.AddCommand(documentsCmd)
	rootCmd.AddCommand(apiCmd)
}
