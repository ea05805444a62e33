// ABOUTME: MCP command starts Model Context Protocol server
// ABOUTME: Lets LLM agents browse the dataset via stdio while generation runs
package commands

import (
	"fmt"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/harper/pedagogy/internal/mcp"
)

// NewMCPCmd creates the MCP command
func NewMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for LLM agents",
		Long: `Start MCP server for LLM agents

Runs a read-only MCP (Model Context Protocol) server on stdio so LLM
agents can look up documents, dialogues and preference paths. The
dataset files are watched and reloaded when another process appends
to them.

Configure in Claude Desktop's config file to enable the dataset tools.`,
		RunE: runMCP,
		Example: `  # Start MCP server (typically called by Claude Desktop)
  pedagogy mcp --data-dir ./data

  # Configure in claude_desktop_config.json:
  # {
  #   "mcpServers": {
  #     "pedagogy": {
  #       "command": "pedagogy",
  #       "args": ["mcp", "--data-dir", "/path/to/data"]
  #     }
  #   }
  # }`,
	}

	return cmd
}

// runMCP starts the MCP server
func runMCP(cmd *cobra.Command, args []string) (err error) {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.finish(&err)

	snapshot, err := mcp.NewSnapshot(rt.paths, rt.logger)
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}

	// Setup graceful shutdown
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	if err := snapshot.Watch(ctx); err != nil {
		return err
	}
	defer func() {
		if err := snapshot.Close(); err != nil {
			rt.logger.Warn("error closing watcher", zap.Error(err))
		}
	}()

	server := mcpserver.NewMCPServer(
		"Pedagogy Dataset",
		versionInfo.Version,
	)
	mcp.RegisterTools(server, snapshot)

	rt.logger.Info("MCP server starting on stdio", zap.String("data_dir", dataDir))

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- mcpserver.ServeStdio(server)
	}()

	// Wait for shutdown signal or server error
	select {
	case <-ctx.Done():
		rt.logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	return nil
}
