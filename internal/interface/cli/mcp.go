package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/neilberkman/vigil/cmd/vigil/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "serve-mcp",
	Short: "Start MCP server for assistant integration",
	Long: `Start an MCP (Model Context Protocol) server on stdio so that an assistant
can log prayers, update journal entries, search your journal and follow
novenas.

Configure in your MCP client's config file:
  {
    "mcpServers": {
      "vigil": {
        "command": "vigil",
        "args": ["serve-mcp"]
      }
    }
  }
`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() {
		_ = a.Close()
	}()

	if err := mcp.StartServer(a); err != nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}
	return nil
}
