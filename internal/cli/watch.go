package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/aretw0/warden/pkg/domain"
)

// WatchOptions configures RunWatch.
type WatchOptions struct {
	// Listen, when set, serves the status handler on this address.
	Listen string
	// CheckEvery probes the API periodically; zero disables probing.
	CheckEvery time.Duration
	Out        io.Writer
}

// RunWatch prints every session change seen by app until ctx ends.
// Changes made by other processes sharing the slot arrive through the broadcaster.
func RunWatch(ctx context.Context, app *App, opts WatchOptions) error {
	changes := make(chan *domain.Identity, 16)
	unregister := app.Client.Session.AddAuthListener(func(id *domain.Identity) {
		select {
		case changes <- id:
		default:
			app.Logger.Warn("Dropping session change, printer is behind")
		}
	})
	defer unregister()

	PrintSystemMessage(opts.Out, "Watching slot '%s' (%s).", app.Config.SlotKey, describe(app.Client.Identity()))

	serveErr := make(chan error, 1)
	if opts.Listen != "" {
		ln, err := net.Listen("tcp", opts.Listen)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", opts.Listen, err)
		}
		srv := &http.Server{Handler: app.StatusHandler(), ReadHeaderTimeout: 5 * time.Second}
		PrintSystemMessage(opts.Out, "Serving status on http://%s", ln.Addr())
		go func() {
			serveErr <- srv.Serve(ln)
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				app.Logger.Warn("Status server did not stop cleanly", "err", err)
			}
		}()
	}

	var tick <-chan time.Time
	if opts.CheckEvery > 0 {
		ticker := time.NewTicker(opts.CheckEvery)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			PrintSystemMessage(opts.Out, "Stopped watching.")
			return nil
		case err := <-serveErr:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("status server failed: %w", err)
		case id := <-changes:
			fmt.Fprintf(opts.Out, "%s  %s\n", time.Now().Format(time.TimeOnly), describe(id))
		case <-tick:
			if !app.Client.Session.CheckSession(ctx) && ctx.Err() == nil {
				app.Logger.Debug("Periodic session check found no valid session")
			}
		}
	}
}

func describe(id *domain.Identity) string {
	if id == nil {
		return "logged out"
	}
	return fmt.Sprintf("logged in as %s (%s)", id.Role, id.Type)
}
