package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/alexandrut83/alerimpool/dashboard"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the web dashboard",
	Args:  cobra.NoArgs,
	RunE:  serveCmdFunc,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	flags := serveCmd.Flags()

	flags.String("listen", ":8080", "HTTP listen address")
	v.BindPFlag("server.listen", flags.Lookup("listen"))

	flags.String("token", "", "bearer token required by actions, empty disables them")
	v.BindPFlag("server.token", flags.Lookup("token"))

	flags.Duration("refresh", 0, "base table refresh interval (default 30s)")
	v.BindPFlag("server.refresh_interval", flags.Lookup("refresh"))

	flags.Duration("cache-ttl", 0, "keep read-only results this long, 0 disables the cache")
	v.BindPFlag("cache.ttl", flags.Lookup("cache-ttl"))
}

func serveCmdFunc(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	gin.SetMode(gin.ReleaseMode)

	refresher := dashboard.NewRefresher(a.fetcher, dashboard.Tables, cfg.Server.RefreshInterval)
	server := dashboard.NewServer(dashboard.Options{
		Listen:      cfg.Server.Listen,
		Token:       cfg.Server.Token,
		CORSOrigins: cfg.Server.CORSOrigins,
	}, a.d, refresher, a.client)

	if cfg.Server.Token == "" {
		logger.Warn("No server token configured, actions are disabled")
	}
	sender, _ := a.d.Sender()
	logger.Infof("Reading %s on %s as %s", a.chain.Contract().ID(), a.chain.Network(), sender)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		refresher.Run(gctx)
		return nil
	})
	g.Go(func() error {
		return server.Run(gctx)
	})
	err = g.Wait()
	logger.Info("Shutting down...")
	return err
}
