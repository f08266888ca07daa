package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oleksandr38kebab342/anty-detect-browser/internal/dispatch"
	"github.com/oleksandr38kebab342/anty-detect-browser/internal/lifecycle"
	"github.com/oleksandr38kebab342/anty-detect-browser/internal/logging"
	"github.com/oleksandr38kebab342/anty-detect-browser/internal/server"
	"github.com/oleksandr38kebab342/anty-detect-browser/internal/svc"
)

// ServeCmd creates the serve command
func ServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the local API server",
		Long: `Start the local JSON API used by polling UIs.

While serving, proxy list files dropped into the import inbox are imported
and, when proxy_check.schedule is set, every proxy is re-checked on that
schedule. Ctrl+C closes every running browser before exiting.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				ServerConfig.Server.Addr = addr
			}
			return runServe()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}

func runServe() error {
	lockFile, err := acquireLock(ServerConfig.DataDir)
	if err != nil {
		return fmt.Errorf("%w: another server is already running for %s", err, ServerConfig.DataDir)
	}
	defer releaseLock(lockFile)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			logging.Infof("Received signal: %v - shutting down...", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	svcCtx, err := openServices()
	if err != nil {
		return err
	}
	defer svcCtx.Close()

	registerServeHooks(svcCtx)

	if spec := ServerConfig.ProxyCheck.Schedule; spec != "" {
		if err := svcCtx.Checker.Schedule(ctx, spec); err != nil {
			return err
		}
		logging.Infof("Re-checking proxies on schedule %q", spec)
	}

	if ServerConfig.Import.Watch && ServerConfig.Import.InboxDir != "" {
		go func() {
			if err := svcCtx.Proxies.Watch(ctx, ServerConfig.Import.InboxDir); err != nil {
				logging.Errorf("Import inbox stopped: %v", err)
			}
		}()
	}

	err = server.Run(ctx, ServerConfig.Server.Addr, svcCtx, server.ServerOptions{Quiet: !verbose})
	svcCtx.Close()
	return err
}

// registerServeHooks logs lifecycle events. Hooks are process-wide, so this
// runs once per serve.
func registerServeHooks(svcCtx *svc.ServiceContext) {
	lifecycle.OnServerStarted(func() {
		logging.Debugf("[serve] accepting requests")
	})
	lifecycle.OnProfileLaunched(func(id string) {
		logging.Infof("[serve] profile %s launched", id)
	})
	lifecycle.OnProfileStopped(func(id string) {
		logging.Infof("[serve] profile %s stopped", id)
	})
	lifecycle.OnProxyChecked(func(d lifecycle.ProxyCheckedData) {
		if d.Error != "" {
			logging.Debugf("[serve] proxy %d %s: %s", d.ProxyID, d.State, d.Error)
			return
		}
		logging.Debugf("[serve] proxy %d %s", d.ProxyID, d.State)
	})
	lifecycle.OnProxiesImported(func(d lifecycle.ImportData) {
		logging.Infof("[serve] imported %d proxies from %s (%d failed)", d.Imported, d.Source, d.Failed)
	})
	lifecycle.OnShutdown(func() {
		logging.Info("[serve] closing running browsers")
	})
	svcCtx.Checker.OnChange(func() {
		logging.Debugf("[serve] proxy statuses changed")
	})
	if verbose {
		svcCtx.Lanes.OnEvent(func(e dispatch.Event) {
			logging.Debugf("[serve] %s lane=%s task=%s %s", e.Type, e.Lane, e.Task.ID, e.Task.Description)
		})
	}
}
