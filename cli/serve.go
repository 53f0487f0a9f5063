// ABOUTME: HTTP API subcommand
// ABOUTME: Serves the JSON API and /metrics until interrupted
package cli

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/harperreed/crmpulse/web"
)

// ServeCommand starts the HTTP API on --addr (default from HTTP_ADDR).
func (a *App) ServeCommand(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := fs.String("addr", a.Config.HTTPAddr, "Listen address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := web.NewServer(a.Store, a.Engine, a.Processor, a.Logger.Named("web"))
	return server.Start(ctx, *addr)
}
