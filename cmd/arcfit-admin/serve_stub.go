package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/govindavashishtha/arcfit-admin/internal/config"
	"github.com/govindavashishtha/arcfit-admin/stub"
)

var serveStubCmd = &cobra.Command{
	Use:   "serve-stub",
	Short: "Run a local stub of the ArcFit API for development",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := config.New()
		displayAppname(c.GetAppName() + " Stub")

		handler, err := stub.New(c)
		if err != nil {
			return errors.Wrap(err, "create stub server")
		}
		handler.LogRoutes()

		server := &http.Server{Addr: c.GetPort(), Handler: handler}

		go func() {
			log.Info().Str("addr", server.Addr).Msg("stub server listening")
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Msg("stub server stopped")
			}
		}()

		waitForStopSignal()
		return shutdown(server)
	},
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "server.Shutdown")
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
