package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/cruciblehq/nova/internal"
	"github.com/cruciblehq/nova/internal/docker"
	"github.com/mattn/go-isatty"
)

// Represents the root command for nova.
var RootCmd struct {
	Quiet      bool          `short:"q" help:"Suppress informational output."`
	Verbose    bool          `short:"v" help:"Enable verbose output."`
	Debug      bool          `short:"d" help:"Enable debug output."`
	Host       string        `short:"H" env:"DOCKER_HOST" default:"${host}" help:"Engine socket, as a unix:// URL or a path." placeholder:"URL"`
	APIVersion string        `name:"api-version" env:"DOCKER_API_VERSION" default:"${apiVersion}" help:"Engine API version to request." placeholder:"VERSION"`
	Timeout    time.Duration `env:"NOVA_TIMEOUT" default:"${timeout}" help:"Bound on waiting for an Engine response."`
	Socket     string        `short:"s" help:"Override the default daemon socket path." placeholder:"PATH"`
	Run        RunCmd        `cmd:"" help:"Run pipelines against the Engine."`
	Start      StartCmd      `cmd:"" help:"Start the daemon."`
	Submit     SubmitCmd     `cmd:"" help:"Submit a pipeline to the daemon."`
	Status     StatusCmd     `cmd:"" help:"Show daemon status."`
	Stop       StopCmd       `cmd:"" help:"Stop the daemon."`
	Version    VersionCmd    `cmd:"" help:"Show version information."`
}

// Parses arguments, configures logging, and runs the selected subcommand.
func Execute() error {

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	kongCtx := kong.Parse(&RootCmd,
		kong.Name(internal.Name),
		kong.Description("A minimal CI build engine.\n\nRuns pipeline steps in containers through the Docker Engine API."),
		kong.UsageOnError(),
		kong.Vars{
			"version":    internal.VersionString(),
			"host":       docker.DefaultSocket,
			"apiVersion": docker.DefaultVersion.String(),
			"timeout":    docker.DefaultTimeout.String(),
		},
		kong.BindTo(ctx, (*context.Context)(nil)),
	)

	configureLogger()

	return kongCtx.Run()
}

// Configures the global logger based on CLI flags.
func configureLogger() {
	internal.SetDebug(RootCmd.Debug || internal.IsDebug())
	internal.SetQuiet(RootCmd.Quiet || internal.IsQuiet())
	internal.SetVerbose(RootCmd.Verbose || internal.IsVerbose())

	slog.SetDefault(NewLogger(os.Stderr, isatty.IsTerminal(os.Stderr.Fd())))
}

// Creates a logger honoring the current logging modes.
//
// Text records are used for terminals and JSON records otherwise. Verbose
// mode adds source locations.
func NewLogger(f *os.File, terminal bool) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     internal.LogLevel(),
		AddSource: internal.IsVerbose(),
	}

	var handler slog.Handler
	if terminal {
		handler = slog.NewTextHandler(f, opts)
	} else {
		handler = slog.NewJSONHandler(f, opts)
	}

	return slog.New(handler).With("app", internal.Name)
}

// Connects to the Engine named by the root flags.
//
// Addresses with a scheme other than unix:// are ignored in favor of the
// default socket.
func connect() (*docker.Docker, error) {
	host := RootCmd.Host
	if i := strings.Index(host, "://"); i >= 0 && host[:i] != "unix" {
		slog.Warn("ignoring non-unix engine address", "host", host, "using", docker.DefaultSocket)
		host = docker.DefaultSocket
	}

	version, err := docker.ParseClientVersion(RootCmd.APIVersion)
	if err != nil {
		return nil, err
	}

	return docker.ConnectWithUnix(host, RootCmd.Timeout, version)
}
