package cli

import (
	"github.com/rohanthewiz/logger"
	"github.com/spf13/cobra"

	"wpcompare/config"
	"wpcompare/mcpserver"
	"wpcompare/platform/shutdown"
	"wpcompare/web"
)

// NewServeCommand creates the stdio MCP command
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the plugin tools over MCP on stdin/stdout",
		Args:  cobra.NoArgs,
		RunE:  runServeStdio,
	}
}

func runServeStdio(cmd *cobra.Command, args []string) error {
	a := newApp(config.Get())
	srv, err := mcpserver.New(a.registry())
	if err != nil {
		return err
	}
	return srv.ServeStdio()
}

// NewServeHTTPCommand creates the command that runs the web app and the
// streamable HTTP MCP endpoint side by side
func NewServeHTTPCommand() *cobra.Command {
	var httpAddr, mcpAddr string

	cmd := &cobra.Command{
		Use:   "serve-http",
		Short: "Serve the web UI, JSON API and MCP over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Get()
			if httpAddr == "" {
				httpAddr = cfg.HTTPAddr
			}
			if mcpAddr == "" {
				mcpAddr = cfg.MCPAddr
			}
			return runServeHTTP(newApp(cfg), httpAddr, mcpAddr)
		},
	}

	cmd.Flags().StringVar(&httpAddr, "addr", "", "web listen address (default from config)")
	cmd.Flags().StringVar(&mcpAddr, "mcp-addr", "", "MCP listen address, \"off\" disables it (default from config)")
	return cmd
}

func runServeHTTP(a *app, httpAddr, mcpAddr string) error {
	registry := a.registry()
	errs := make(chan error, 2)

	advertised := ""
	if mcpAddr != "off" {
		advertised = mcpAddr
		srv, err := mcpserver.New(registry)
		if err != nil {
			return err
		}
		shutdown.RegisterHook("mcp-http", srv.Shutdown)
		go func() {
			errs <- srv.StartHTTP(mcpAddr)
		}()
	}

	webSrv := web.NewServer(web.Deps{
		Registry:  registry,
		ExportDir: a.exportDir(),
		MCPAddr:   advertised,
		Version:   Version,
	})
	go func() {
		errs <- webSrv.Run(httpAddr)
	}()

	done := make(chan struct{})
	shutdown.InitShutdownService(done)

	select {
	case <-done:
		logger.Info("wpcompare stopped")
		return nil
	case err := <-errs:
		if err == nil {
			return nil
		}
		shutdown.RunHooks(shutdown.GracePeriod)
		return err
	}
}
