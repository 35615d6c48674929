package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joescharf/cro/internal/api"
	"github.com/joescharf/cro/internal/daemon"
	"github.com/joescharf/cro/internal/metrics"
	webui "github.com/joescharf/cro/internal/ui"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server and web dashboard",
	Long: `Start an HTTP server exposing analysis, run history, feedback and
Prometheus metrics under /api/v1 and /metrics, with the dashboard at /.
By default it listens on port 8080. Use --port to change it.

'cro serve start' runs the same server in the background.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveRun(cmd.Context())
	},
}

var serveStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the API server in the background",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveStartRun()
	},
}

var serveStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the background API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveStopRun()
	},
}

var serveStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the background API server is running",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveStatusRun()
	},
}

func init() {
	serveCmd.PersistentFlags().IntP("port", "p", 8080, "port to listen on")
	_ = viper.BindPFlag("port", serveCmd.PersistentFlags().Lookup("port"))

	serveCmd.AddCommand(serveStartCmd)
	serveCmd.AddCommand(serveStopCmd)
	serveCmd.AddCommand(serveStatusCmd)
	rootCmd.AddCommand(serveCmd)
}

func pidFile() *daemon.PIDFile {
	return daemon.NewPIDFile(filepath.Join(viper.GetString("state_dir"), "cro-serve.pid"))
}

func serveLogPath() string {
	return filepath.Join(viper.GetString("state_dir"), "cro-serve.log")
}

func serveDaemon() *daemon.Daemon {
	return daemon.New(pidFile().Path, serveLogPath())
}

func serveRun(ctx context.Context) error {
	a, fb, err := newAnalyzer("")
	if err != nil {
		return err
	}
	s, err := getStore()
	if err != nil {
		return err
	}

	handler, err := newHTTPHandler(api.NewServer(s, a, fb, metrics.New()))
	if err != nil {
		return err
	}
	addr := fmt.Sprintf(":%d", viper.GetInt("port"))
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, shutdownSignals()...)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()
	ui.Info("Serving dashboard at http://localhost%s", addr)
	slog.Info("api server started", "addr", addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// newHTTPHandler mounts the API and metrics routes next to the dashboard.
func newHTTPHandler(srv *api.Server) (http.Handler, error) {
	dashboard, err := webui.Handler()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize UI handler: %w", err)
	}
	routes := srv.Router()

	mux := http.NewServeMux()
	mux.Handle("/api/", routes)
	mux.Handle("/metrics", routes)
	mux.Handle("/", dashboard)
	return mux, nil
}

func serveStartRun() error {
	d := serveDaemon()
	if pid, running := d.Status(); running {
		return fmt.Errorf("server already running (pid %d)", pid)
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locate executable: %w", err)
	}
	args := []string{"serve", "--port", strconv.Itoa(viper.GetInt("port"))}
	if cfgFile, _ := rootCmd.PersistentFlags().GetString("config"); cfgFile != "" {
		args = append(args, "--config", cfgFile)
	}

	if dryRun {
		ui.DryRunMsg("Would start %s %v (log %s)", exe, args, d.LogPath)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(d.LogPath), 0755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	pid, err := d.Start(exe, args...)
	if err != nil {
		return err
	}
	ui.Success("Server started (pid %d) on port %d", pid, viper.GetInt("port"))
	ui.Info("Log: %s", d.LogPath)
	return nil
}

func serveStopRun() error {
	d := serveDaemon()
	if dryRun {
		if pid, running := d.Status(); running {
			ui.DryRunMsg("Would stop server (pid %d)", pid)
		}
		return nil
	}
	if err := d.Stop(shutdownTimeout); err != nil {
		return err
	}
	ui.Success("Server stopped")
	return nil
}

func serveStatusRun() error {
	pid, running := serveDaemon().Status()
	if !running {
		ui.Info("Server not running")
		return nil
	}
	ui.Success("Server running (pid %d)", pid)
	ui.Info("Log: %s", serveLogPath())
	return nil
}
