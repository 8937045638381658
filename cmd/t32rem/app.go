package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dshills/t32remote/internal/config"
	"github.com/dshills/t32remote/internal/logging"
	"github.com/dshills/t32remote/internal/remote/charset"
	"github.com/dshills/t32remote/internal/remote/client"
	"github.com/dshills/t32remote/internal/remote/guard"
	"github.com/dshills/t32remote/internal/remote/native"
	"github.com/dshills/t32remote/internal/remote/native/sim"
)

type globalFlags struct {
	configPath string
	sim        bool
	output     string
	logLevel   string
	node       string
	port       int
	device     string
}

// app holds the state shared by all subcommands of one invocation.
type app struct {
	out    io.Writer
	errOut io.Writer
	flags  globalFlags

	cfg      *config.Config
	log      *logrus.Logger
	registry *prometheus.Registry
	metrics  *client.Metrics

	// seedSim prepares the simulator used with --sim.
	seedSim func(r *sim.Remote)
}

func newApp(out, errOut io.Writer) *app {
	return &app{out: out, errOut: errOut, seedSim: seedDemo}
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "t32rem",
		Short: "Control a TRACE32 debugger through the Remote API",
		Long: `t32rem talks to a running TRACE32 instance over the Remote API port.
It runs PRACTICE commands and scripts, reads memory, variables and window
content, manages breakpoints and re-runs scripts when they change.

Use --sim to run against the built-in simulator.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.flags.configPath, "config", "c", "", "Path to configuration file")
	pf.BoolVar(&a.flags.sim, "sim", false, "Use the built-in simulator instead of TRACE32")
	pf.StringVarP(&a.flags.output, "output", "o", "text", "Output format (text, json)")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.StringVar(&a.flags.node, "node", "", "Host running TRACE32")
	pf.IntVar(&a.flags.port, "port", 0, "TRACE32 API port")
	pf.StringVar(&a.flags.device, "device", "", "Device to attach to (icd, os)")

	root.AddCommand(
		a.versionCommand(),
		a.pingCommand(),
		a.stateCommand(),
		a.cmdCommand(),
		a.evalCommand(),
		a.windowCommand(),
		a.varCommand(),
		a.memCommand(),
		a.symbolCommand(),
		a.luaCommand(),
		a.runCommand(),
		a.lockCommand(),
		a.breakCommand(),
		a.watchCommand(),
	)
	return root
}

// setup loads the configuration, applies flag overrides and builds the
// logger and metrics.
func (a *app) setup(cmd *cobra.Command) error {
	switch strings.ToLower(a.flags.output) {
	case "text", "json":
	default:
		return fmt.Errorf("invalid output format %q (must be text or json)", a.flags.output)
	}

	cfg, err := config.Load(a.flags.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	flags := cmd.Flags()
	if flags.Changed("node") {
		cfg.Remote.Node = a.flags.node
	}
	if flags.Changed("port") {
		cfg.Remote.Port = a.flags.port
	}
	if flags.Changed("device") {
		cfg.Remote.Device = a.flags.device
	}
	if a.flags.logLevel != "" {
		cfg.Log.Level = a.flags.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	a.log, err = logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	a.registry = prometheus.NewRegistry()
	a.metrics = client.NewMetrics(a.registry)
	return nil
}

func (a *app) remote() (native.Native, error) {
	if a.flags.sim {
		r := sim.New(sim.Options{LittleEndian: true})
		if a.seedSim != nil {
			a.seedSim(r)
		}
		return r, nil
	}
	return openLibrary()
}

func (a *app) connect(ctx context.Context) (*client.Client, error) {
	remote, err := a.remote()
	if err != nil {
		return nil, err
	}
	codec, err := charset.ByName(a.cfg.Remote.Charset)
	if err != nil {
		return nil, err
	}
	device, err := native.ParseDevice(a.cfg.Remote.Device)
	if err != nil {
		return nil, err
	}

	retry := guard.ConnectRetryConfig()
	if a.cfg.Remote.ConnectAttempts > 0 {
		retry.MaxAttempts = a.cfg.Remote.ConnectAttempts
	}

	c := client.New(remote, client.Options{
		Charset:      codec,
		StrictStatus: a.cfg.Remote.StrictStatus,
		Logger:       a.log,
		Metrics:      a.metrics,
		ChunkSize:    a.cfg.Transfer.ChunkSize,
		MaxRounds:    a.cfg.Transfer.MaxRounds,
		Retry:        retry,
	})

	rc := a.cfg.Remote
	err = c.Connect(ctx, client.RemoteConfig{
		Node:     rc.Node,
		Port:     rc.Port,
		PackLen:  rc.PackLen,
		Timeout:  rc.Timeout,
		HostPort: rc.HostPort,
	}, device)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s:%d: %w", rc.Node, rc.Port, err)
	}
	return c, nil
}

// withClient connects, runs fn and releases the connection afterwards, on
// panic or on SIGINT/SIGTERM.
func (a *app) withClient(cmd *cobra.Command, fn func(ctx context.Context, c *client.Client) error) (err error) {
	c, err := a.connect(cmd.Context())
	if err != nil {
		return err
	}

	g := guard.New(c.Close, c.Connected, a.log)
	ctx, cancel := g.Notify(cmd.Context())
	defer cancel()
	defer func() {
		if cerr := g.Teardown(); err == nil {
			err = cerr
		}
	}()

	g.Run(func() { err = fn(ctx, c) })
	return err
}

// seedDemo fills the simulator with a small target image.
func seedDemo(r *sim.Remote) {
	r.MapRAM(0x20000000, 0x2000FFFF)
	r.SetPC(0x08000400)
	r.AddSymbol("main", 0x08000400, 0x40)
	r.AddSymbol("counter", 0x20000010, 4)
	r.AddSource(0x08000400, "main.c", 12)
	r.SetVariable("counter", 42)
	r.SetVariableString("version", `"1.0.3"`)
	r.SetRegister("PC", 0x08000400)
	r.SetRegister("SP", 0x2000FF00)
	r.SetWindow("Register.view", "R0 00000000  R1 00000001\nPC 08000400  SP 2000FF00\n")
}
