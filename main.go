package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"novachat/app/api"
	"novachat/app/client/answer"
	"novachat/app/client/clipboard"
	"novachat/app/client/websearch"
	"novachat/app/config"
	"novachat/app/mcpserver"
	"novachat/app/service/assistant"
	"novachat/app/service/request"
	"novachat/app/service/storage"
	"novachat/app/service/thread"
	"novachat/app/service/workspace"
	"novachat/app/util/mylog"

	"github.com/samber/do"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var configPath string

func main() {
	mylog.Preinit()

	root := &cobra.Command{
		Use:           "novachat",
		Short:         "Chat workspace with a web-grounded answering service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "path to the YAML config")
	root.AddCommand(serveCommand(), mcpCommand())

	if err := root.Execute(); err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the answering endpoints and the workspace API over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			appCtx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer cancel()

			di, err := bootstrap(appCtx)
			if err != nil {
				return err
			}
			defer di.Shutdown()
			defer slog.Info("Waiting for services to finish...")

			server := do.MustInvoke[*api.Server](di)

			group, groupCtx := errgroup.WithContext(appCtx)
			group.Go(server.Run)
			group.Go(func() error {
				<-groupCtx.Done()
				slog.Info("Shutting down...")

				return server.Shutdown()
			})

			slog.Info("Service started")

			return group.Wait()
		},
	}
}

func mcpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the workspace as MCP tools over stdio",
		RunE: func(cmd *cobra.Command, _ []string) error {
			// stdout carries the protocol
			mylog.Output = os.Stderr
			mylog.Preinit()

			appCtx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer cancel()

			di, err := bootstrap(appCtx)
			if err != nil {
				return err
			}
			defer di.Shutdown()

			return do.MustInvoke[*mcpserver.Server](di).Serve()
		},
	}
}

func bootstrap(appCtx context.Context) (*do.Injector, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, oops.Wrapf(err, "config load failed")
	}

	if err = mylog.Init(cfg); err != nil {
		return nil, oops.Wrapf(err, "logging init failed")
	}

	di := do.New()
	do.ProvideValue(di, appCtx)
	do.ProvideValue(di, cfg)

	do.Provide(di, storage.New)
	do.Provide(di, thread.New)
	do.Provide(di, answer.NewClient)
	do.Provide(di, request.New)
	do.Provide(di, clipboard.NewSink)
	do.Provide(di, workspace.New)
	do.Provide(di, websearch.NewClient)
	do.Provide(di, assistant.NewGenerator)
	do.Provide(di, assistant.New)
	do.Provide(di, api.New)
	do.Provide(di, mcpserver.New)

	return di, nil
}
