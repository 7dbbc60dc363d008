package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/godbus/dbus/v5"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/srg/bluegatt/internal/groutine"
	"github.com/srg/bluegatt/pkg/config"
	"github.com/srg/bluegatt/pkg/gatt"
	"github.com/srg/bluegatt/pkg/gatt/bluez"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve [profile.yaml]",
		Short: "Register a GATT profile with bluetoothd and serve it",
		Long: `Publishes the services of a YAML profile on D-Bus, registers the
application with org.bluez.GattManager1 and serves ReadValue/WriteValue
requests until interrupted. On SIGINT/SIGTERM the application is unregistered
and removed from the bus.

Examples:
  # Serve a heart rate profile on the default adapter
  gattd serve heart-rate.yaml

  # Use a config file and a second adapter
  gattd serve -c gattd.yaml --adapter /org/bluez/hci1 heart-rate.yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: runServe,
	}

	cmd.Flags().String("bus", "", "Bus to use: system or session (overrides config)")
	cmd.Flags().String("adapter", "", "Adapter object path (overrides config)")
	cmd.Flags().String("root", "", "Application root object path (overrides config)")

	return cmd
}

// applyOverrides copies explicitly set flags over the config.
func applyOverrides(cmd *cobra.Command, cfg *config.Config) error {
	for flag, field := range map[string]*string{
		"bus":     &cfg.Bus,
		"adapter": &cfg.Adapter,
		"root":    &cfg.RootPath,
	} {
		if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
			*field = f.Value.String()
		}
	}
	return cfg.Validate()
}

// loadDeclarations resolves the profile from the argument or the config.
func loadDeclarations(args []string, cfg *config.Config) ([]gatt.ServiceDecl, error) {
	path := cfg.Profile
	if len(args) > 0 {
		path = args[0]
	}
	if path == "" {
		return nil, fmt.Errorf("profile required: provide it as an argument or set profile in the config file")
	}
	p, err := config.LoadProfile(path)
	if err != nil {
		return nil, err
	}
	return p.Declarations()
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applyOverrides(cmd, cfg); err != nil {
		return err
	}
	logger, err := configureLogger(cmd, cfg)
	if err != nil {
		return err
	}
	decls, err := loadDeclarations(args, cfg)
	if err != nil {
		return err
	}

	// All arguments validated - don't show usage on runtime errors
	cmd.SilenceUsage = true

	conn, err := bluez.Connect(cfg.Bus)
	if err != nil {
		return fmt.Errorf("failed to connect to %s bus: %w", cfg.Bus, err)
	}
	defer conn.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dir := bluez.NewDirectory(conn, logger)
	mgr := bluez.NewGattManager(conn, dbus.ObjectPath(cfg.Adapter), logger)

	return serveApplication(ctx, cmd.OutOrStdout(), conn.Context().Done(), dir, mgr, cfg, decls, logger)
}

// serveApplication registers decls, blocks until ctx is done or busDone is
// closed, then unregisters and unpublishes the application.
func serveApplication(ctx context.Context, out io.Writer, busDone <-chan struct{}, dir gatt.ObjectDirectory, reg gatt.Registrar,
	cfg *config.Config, decls []gatt.ServiceDecl, logger *logrus.Logger) error {
	regCtx, cancel := context.WithTimeout(ctx, cfg.CallTimeout)
	app, err := gatt.RegisterNew(regCtx, dir, reg, cfg.RootPath, decls, gatt.WithLogger(logger))
	cancel()
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Serving %d service(s) at %s on %s (Ctrl+C to stop)\n", len(app.Services()), app.Path(), cfg.Adapter)

	serveCtx, stopServing := context.WithCancelCause(ctx)
	defer stopServing(nil)
	watcher := groutine.Go(serveCtx, "bus-watch", func(wctx context.Context) {
		select {
		case <-busDone:
			logger.WithField("goroutine", groutine.GetName(wctx)).Warn("bus connection closed")
			stopServing(ErrBusClosed)
		case <-wctx.Done():
		}
	})

	<-serveCtx.Done()
	stopServing(nil)
	<-watcher

	if errors.Is(context.Cause(serveCtx), ErrBusClosed) {
		return ErrBusClosed
	}

	logger.WithField("path", app.Path()).Info("shutting down")
	unregCtx, cancel := context.WithTimeout(context.Background(), cfg.CallTimeout)
	defer cancel()
	unregErr := app.Unregister(unregCtx)
	if err := app.Unpublish(); err != nil {
		logger.WithError(err).Warn("unpublish incomplete")
	}
	if unregErr != nil {
		return unregErr
	}

	fmt.Fprintln(out, "Application unregistered")
	return nil
}
