package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"alumni-engine/internal/httpapi"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve batch and resolve tools over MCP on stdin/stdout",
	Long: `Serve the engine as an MCP server over stdio. Logs go to stderr and the
log file; stdout carries only protocol messages.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer a.Close()
		defer a.shutdown(stopGrace)

		return httpapi.NewMCPServer(a.orch, a.pipeline, Version, log).RunStdio(ctx)
	},
}
