package tor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/nao1215/tornago"
)

// DefaultStartupTimeout is how long Start waits for Tor to bootstrap.
const DefaultStartupTimeout = 3 * time.Minute

// daemon is a running Tor process.
type daemon interface {
	SocksAddr() string
	ControlAddr() string
	Stop() error
}

// launchFunc starts a daemon, blocking until it has bootstrapped.
type launchFunc func(startupTimeout time.Duration) (daemon, error)

// launchTornago starts Tor through tornago on OS-assigned ports.
func launchTornago(startupTimeout time.Duration) (daemon, error) {
	launchCfg, err := tornago.NewTorLaunchConfig(
		tornago.WithTorSocksAddr(":0"),
		tornago.WithTorControlAddr(":0"),
		tornago.WithTorStartupTimeout(startupTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Tor launch config: %w", err)
	}
	process, err := tornago.StartTorDaemon(launchCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to start embedded Tor daemon: %w", err)
	}
	return process, nil
}

// EmbeddedTor runs a private Tor daemon for one crawl, so that --tor works
// without a separately installed Tor. Bootstrapping takes one to three
// minutes.
type EmbeddedTor struct {
	launch         launchFunc
	process        daemon
	startupTimeout time.Duration
	logger         *slog.Logger
}

// EmbeddedTorOption configures an EmbeddedTor instance.
type EmbeddedTorOption func(*EmbeddedTor)

// WithStartupTimeout sets the maximum time to wait for Tor to bootstrap.
func WithStartupTimeout(timeout time.Duration) EmbeddedTorOption {
	return func(e *EmbeddedTor) {
		e.startupTimeout = timeout
	}
}

// WithLogger sets the logger for daemon lifecycle events.
func WithLogger(logger *slog.Logger) EmbeddedTorOption {
	return func(e *EmbeddedTor) {
		e.logger = logger
	}
}

// withLauncher replaces the tornago launcher.
func withLauncher(launch launchFunc) EmbeddedTorOption {
	return func(e *EmbeddedTor) {
		e.launch = launch
	}
}

// NewEmbeddedTor creates a manager; nothing runs until Start or StartProxy.
func NewEmbeddedTor(opts ...EmbeddedTorOption) *EmbeddedTor {
	e := &EmbeddedTor{
		launch:         launchTornago,
		startupTimeout: DefaultStartupTimeout,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start launches the daemon and blocks until it has bootstrapped or the
// startup timeout expires.
func (e *EmbeddedTor) Start(ctx context.Context) error {
	process, err := e.launch(e.startupTimeout)
	if err != nil {
		return err
	}

	// The interrupt may have arrived while Tor was bootstrapping.
	if err := ctx.Err(); err != nil {
		_ = process.Stop() //nolint:errcheck // best effort
		return err
	}

	e.process = process
	e.logger.Info("embedded Tor daemon started",
		"socksAddr", process.SocksAddr(),
		"controlAddr", process.ControlAddr(),
	)
	return nil
}

// StartProxy starts the daemon, verifies that its SOCKS port answers a
// SOCKS5 handshake and returns the socks5h:// URL crawl requests should use.
// progress receives the messages shown while Tor bootstraps. On any failure
// the daemon is stopped again.
func (e *EmbeddedTor) StartProxy(ctx context.Context, progress io.Writer) (string, error) {
	fmt.Fprintln(progress, "Starting embedded Tor daemon...")
	fmt.Fprintf(progress, "This may take 1-3 minutes while Tor bootstraps and connects to the network.\n\n")

	if err := e.Start(ctx); err != nil {
		return "", fmt.Errorf("failed to start embedded Tor: %w", err)
	}

	proxy, err := e.Proxy()
	if err != nil {
		_ = e.Stop() //nolint:errcheck // best effort
		return "", err
	}
	if status := proxy.CheckConnection(ctx); status != ProxyStatusOK {
		_ = e.Stop() //nolint:errcheck // best effort
		return "", fmt.Errorf("embedded Tor proxy check failed: %w", status.Error())
	}

	fmt.Fprintf(progress, "Embedded Tor daemon started, SOCKS proxy: %s\n\n", proxy.Address())
	return proxy.URL(), nil
}

// Stop shuts the daemon down. It is safe to call on an unstarted instance
// and more than once.
func (e *EmbeddedTor) Stop() error {
	if e.process == nil {
		return nil
	}
	e.logger.Info("stopping embedded Tor daemon")
	err := e.process.Stop()
	e.process = nil
	return err
}

// SocksAddr returns the daemon's SOCKS5 address, or "" if not running.
func (e *EmbeddedTor) SocksAddr() string {
	if e.process == nil {
		return ""
	}
	return e.process.SocksAddr()
}

// ControlAddr returns the daemon's control port address, or "" if not running.
func (e *EmbeddedTor) ControlAddr() string {
	if e.process == nil {
		return ""
	}
	return e.process.ControlAddr()
}

// IsRunning reports whether the daemon has been started and not stopped.
func (e *EmbeddedTor) IsRunning() bool {
	return e.process != nil
}

// Proxy returns the daemon's SOCKS5 endpoint.
func (e *EmbeddedTor) Proxy() (*Proxy, error) {
	if !e.IsRunning() {
		return nil, ErrNotRunning
	}
	return NewProxy(e.process.SocksAddr())
}
