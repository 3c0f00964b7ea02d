package cli

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"alumni-engine/internal/config"
	"alumni-engine/internal/httpapi"
	"alumni-engine/internal/scheduler"
)

var (
	serveHost     string
	servePort     int
	pruneInterval time.Duration
	noMCP         bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API (batch control, single resolve, SSE events, MCP)",
	Long: `Run the HTTP API on a loopback port.

A POST to /shutdown with the X-Shutdown-Token header stops the engine. The
token is read from ALUMNI_SHUTDOWN_TOKEN or generated and printed on start.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer a.Close()

		// The API edits the file as written, not the resolved copy.
		var cfgVal atomic.Value
		fileCfg, err := config.Load(userCfg)
		if err != nil {
			return fmt.Errorf("config load (%s): %w", userCfg, err)
		}
		cfgVal.Store(fileCfg)

		d := httpapi.Deps{
			Batch:       a.orch,
			Single:      a.pipeline,
			Skipped:     a.audit,
			Profiles:    a.profiles,
			Hub:         a.hub,
			CfgVal:      &cfgVal,
			UserCfgPath: userCfg,
			LoadCfg:     func() (config.Config, error) { return config.Load(userCfg) },
			Version:     Version,
			Log:         log,
		}
		if !noMCP {
			d.MCP = httpapi.NewMCPServer(a.orch, a.pipeline, Version, log)
		}

		token := os.Getenv("ALUMNI_SHUTDOWN_TOKEN")
		if token == "" {
			if token, err = randomToken(16); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "shutdown token: %s\n", token)
		}

		mux := httpapi.NewMux(d)
		mux.HandleFunc("/shutdown", httpapi.ShutdownHandler(token, stop))

		port := cfg.App.Port
		if servePort > 0 {
			port = servePort
		}
		addr := net.JoinHostPort(serveHost, strconv.Itoa(port))
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return err
		}
		srv := &http.Server{
			Handler:           httpapi.NewHandler(d, mux),
			ReadHeaderTimeout: 5 * time.Second,
		}

		go scheduler.Every(ctx, pruneInterval, "prune", a.prune, log)

		errCh := make(chan error, 1)
		go func() { errCh <- srv.Serve(ln) }()
		log.Info("engine listening", "addr", "http://"+ln.Addr().String(), "store", cfg.Store.Driver, "data_dir", cfg.App.DataDir)

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
		case <-ctx.Done():
		}

		log.Info("shutting down")
		a.shutdown(stopGrace)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "listen host")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (default app.port from config)")
	serveCmd.Flags().DurationVar(&pruneInterval, "prune-interval", 6*time.Hour, "how often expired audit files and cached resolutions are removed (0 disables)")
	serveCmd.Flags().BoolVar(&noMCP, "no-mcp", false, "do not mount the MCP endpoint at /mcp")
}

func randomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
