package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/telnet2/go-practice/modsh"
	"github.com/telnet2/go-practice/modsh/api"
	"github.com/telnet2/go-practice/modsh/internal/logging"
)

var serveHostname string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve debugging sessions over HTTP",
	Long: `Start an HTTP server where every session is a console with its own
interpreter.

Sessions are managed under /api/v1/session and driven over the
websocket at /api/v1/session/repl. Use 'modsh attach' to connect.`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on")
	serveCmd.Flags().StringVar(&serveHostname, "hostname", "127.0.0.1", "Hostname to listen on")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := logging.For("serve")

	factory := func(stdout, stderr io.Writer) (*modsh.Console, error) {
		// Remote sessions have no terminal to read from.
		stdin := strings.NewReader("")
		in, err := newInterpreter(cfg, stdin, stdout, stderr)
		if err != nil {
			return nil, err
		}
		return newConsole(cfg, in, stdin, stdout, stderr)
	}
	handler := api.NewServer(factory, api.Config{
		CORSOrigins: cfg.Server.CORSOrigins,
		Logger:      logging.For("api"),
	})

	addr := fmt.Sprintf("%s:%d", serveHostname, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Str("version", Version).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	fmt.Fprintf(cmd.OutOrStdout(), "modsh server listening on http://%s\n", addr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	for _, s := range handler.Sessions.ListSessions() {
		handler.Sessions.RemoveSession(s.ID)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
