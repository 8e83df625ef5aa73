// Package cli is the freightdesk terminal console. Each command is one
// screen of the back office: it reaches the backend through a data-access
// hook and reports outcomes as toasts.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/moby/term"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"freightdesk/internal/config"
	"freightdesk/internal/logger"
	"freightdesk/internal/notify"
	"freightdesk/internal/resource"
	"freightdesk/internal/session"
	"freightdesk/internal/transport"
)

// errReported marks a failure that was already shown to the user as a toast.
var errReported = errors.New("command failed")

type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

func StdStreams() Streams {
	return Streams{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}
}

// Console holds what every command needs once flags are parsed.
type Console struct {
	streams Streams
	reader  *bufio.Reader
	viper   *viper.Viper
	cfgFile string

	cfg      *config.ClientConfig
	logger   *slog.Logger
	session  *session.Context
	api      *resource.API
	notifier notify.Notifier
	toasts   *toastRelay
}

// Execute runs the console and returns the process exit code.
func Execute(ctx context.Context, streams Streams, args []string) int {
	c, root := newRootCommand(streams)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	c.close()
	if err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(streams.Err, "Error:", err)
		}
		return 1
	}
	return 0
}

func NewRootCommand(streams Streams) *cobra.Command {
	_, root := newRootCommand(streams)
	return root
}

func newRootCommand(streams Streams) (*Console, *cobra.Command) {
	c := &Console{
		streams: streams,
		reader:  bufio.NewReader(streams.In),
		viper:   config.NewViper(),
	}

	root := &cobra.Command{
		Use:           "freightdesk",
		Short:         "Freight brokerage back office console",
		Long:          `freightdesk manages loads, carriers, customers, facilities, trucks, quotes, brokers, users and roles from the terminal.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup()
		},
	}
	root.SetIn(streams.In)
	root.SetOut(streams.Out)
	root.SetErr(streams.Err)

	fs := root.PersistentFlags()
	fs.StringVar(&c.cfgFile, "config", "", "config file (default ./config.yaml or <state-dir>/config.yaml)")
	fs.String("api-url", "", "backend base URL, e.g. http://localhost:8080/api/v1")
	fs.Duration("timeout", 0, "per-request timeout")
	fs.String("state-dir", "", "directory holding the saved session and screen preferences")
	fs.Int("page-size", 0, "default page size of list screens")
	fs.String("log-level", "", "log level: debug, info, warn or error")

	for key, flag := range map[string]string{
		"api_url":   "api-url",
		"timeout":   "timeout",
		"state_dir": "state-dir",
		"page_size": "page-size",
		"log_level": "log-level",
	} {
		_ = c.viper.BindPFlag(key, fs.Lookup(flag))
	}

	root.AddCommand(
		c.newLoginCommand(),
		c.newLogoutCommand(),
		c.newWhoamiCommand(),
		c.newListCommand(),
		c.newGetCommand(),
		c.newCreateCommand(),
		c.newUpdateCommand(),
		c.newDeleteCommand(),
		c.newToggleActiveCommand(),
		c.newExportCommand(),
		c.newLoadsCommand(),
		c.newAuditCommand(),
	)

	return c, root
}

func (c *Console) setup() error {
	cfg, err := config.LoadClient(c.viper, c.cfgFile)
	if err != nil {
		return err
	}
	c.cfg = cfg

	c.logger = logger.New(c.streams.Err, cfg.LogLevel, isTerminal(c.streams.Err))
	slog.SetDefault(c.logger)

	store, err := session.OpenFileStore(cfg.StateDir)
	if err != nil {
		return fmt.Errorf("open state directory: %w", err)
	}
	c.session = session.Bootstrap(store)

	client, err := transport.New(transport.Config{
		BaseURL:   cfg.APIURL,
		Timeout:   cfg.Timeout,
		RateLimit: cfg.RateLimit,
		Burst:     cfg.Burst,
		Token:     c.session.Token,
		Logger:    c.logger,
	})
	if err != nil {
		return err
	}
	c.api = resource.NewAPI(client)

	c.toasts = startToastRelay(&toastPrinter{out: c.streams.Out, errOut: c.streams.Err})
	c.notifier = notify.Multi{
		c.toasts,
		notify.NewLogNotifier(c.logger),
	}

	c.logger.Debug("console ready", "api_url", cfg.APIURL, "state_dir", cfg.StateDir, "signed_in", c.session.Authenticated())
	return nil
}

// close stops the toast printer once every queued toast is shown.
func (c *Console) close() {
	if c.toasts != nil {
		c.toasts.Close()
		c.toasts = nil
	}
}

// requireSession fails unless a saved session is still valid.
func (c *Console) requireSession() error {
	if err := c.session.Require(); err != nil {
		return fmt.Errorf("%w: run \"freightdesk login\" first", err)
	}
	return nil
}

// toastPrinter is the console's toast surface.
type toastPrinter struct {
	out    io.Writer
	errOut io.Writer
}

func (p *toastPrinter) Notify(t notify.Toast) {
	switch t.Level {
	case notify.LevelError:
		fmt.Fprintf(p.errOut, "✗ %s\n", t.Message)
	case notify.LevelSuccess:
		fmt.Fprintf(p.out, "✓ %s\n", t.Message)
	default:
		fmt.Fprintf(p.out, "• %s\n", t.Message)
	}
}

// toastRelay publishes toasts on a bus drained by a printer goroutine.
// Notify returns only after the toast is printed, so toasts keep their place
// relative to the command's own output.
type toastRelay struct {
	bus         *notify.Bus
	unsubscribe func()
	printed     chan struct{}
	done        chan struct{}
}

func startToastRelay(printer notify.Notifier) *toastRelay {
	bus := notify.NewBus()
	ch, unsubscribe := bus.Subscribe()

	r := &toastRelay{
		bus:         bus,
		unsubscribe: unsubscribe,
		printed:     make(chan struct{}),
		done:        make(chan struct{}),
	}

	go func() {
		defer close(r.done)
		for t := range ch {
			printer.Notify(t)
			r.printed <- struct{}{}
		}
	}()

	return r
}

func (r *toastRelay) Notify(t notify.Toast) {
	dropped := r.bus.Dropped()
	r.bus.Notify(t)
	if r.bus.Dropped() != dropped {
		return
	}

	select {
	case <-r.printed:
	case <-r.done:
	}
}

// Close unsubscribes the printer and waits for it to exit.
func (r *toastRelay) Close() {
	r.unsubscribe()
	<-r.done
}

// prompt reads one line after printing label. A closed input with nothing
// typed is an error so interactive loops cannot spin.
func (c *Console) prompt(label string) (string, error) {
	fmt.Fprint(c.streams.Out, label)

	line, err := c.reader.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		if errors.Is(err, io.EOF) {
			return "", fmt.Errorf("input closed")
		}
		return "", fmt.Errorf("read input: %w", err)
	}

	return strings.TrimRight(line, "\r\n"), nil
}

// promptSecret reads a line with terminal echo disabled when In is a terminal.
func (c *Console) promptSecret(label string) (string, error) {
	fd, ok := term.GetFdInfo(c.streams.In)
	if !ok {
		return c.prompt(label)
	}

	state, err := term.SaveState(fd)
	if err != nil {
		return "", fmt.Errorf("save terminal state: %w", err)
	}
	if err := term.DisableEcho(fd, state); err != nil {
		return "", fmt.Errorf("disable echo: %w", err)
	}
	defer func() {
		_ = term.RestoreTerminal(fd, state)
		fmt.Fprintln(c.streams.Out)
	}()

	return c.prompt(label)
}

// confirm asks a yes/no question; anything but y or yes is a no.
func (c *Console) confirm(question string) (bool, error) {
	answer, err := c.prompt(question + " [y/N]: ")
	if err != nil {
		return false, err
	}

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func isTerminal(w io.Writer) bool {
	_, ok := term.GetFdInfo(w)
	return ok
}
