package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/termenv"

	"github.com/b/panelbar/pkg/paths"
	"github.com/b/panelbar/pkg/terminal"
	"github.com/b/panelbar/pkg/termlink"
)

var (
	socketPath = flag.String("socket", "", "host socket")
	termID     = flag.String("term", "", "terminal id announced to the host")
	kitten     = flag.String("kitten", "kitten", "kitten binary for remote control")
	debug      = flag.Bool("debug", false, "Enable debug logging")
)

var debugLog = log.New(io.Discard, "", 0)

func main() {
	flag.Parse()

	if *debug {
		// Logging to the panel itself would corrupt the display.
		name := fmt.Sprintf("panelterm-%s.log", strings.ReplaceAll(*termID, "/", "_"))
		if _, err := paths.EnsureStateDir(); err == nil {
			if f, err := os.OpenFile(paths.StatePath(name), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644); err == nil {
				debugLog = log.New(f, "[panelterm] ", log.LstdFlags|log.Lmicroseconds)
				termlink.SetDebugLog(debugLog)
			}
		}
	}

	if *socketPath == "" || *termID == "" {
		fmt.Fprintln(os.Stderr, "panelterm: -socket and -term are required")
		os.Exit(2)
	}
	if err := run(); err != nil {
		debugLog.Printf("exit: %v", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fd := int(os.Stdout.Fd())
	sizes, err := terminal.QuerySizes(fd)
	if err != nil {
		return fmt.Errorf("query size: %w", err)
	}

	client, err := termlink.Dial(ctx, *socketPath, *termID, sizes)
	if err != nil {
		return err
	}
	defer client.Close()
	debugLog.Printf("connected as %s (%s cells, %s px)", *termID, sizes.Cells, sizes.Pixels)

	// Mouse reports in SGR pixel coordinates, plus focus reports. These are
	// set here because the program runs without a renderer.
	out := termenv.NewOutput(os.Stdout)
	out.HideCursor()
	out.EnableMouseAllMotion()
	out.EnableMouseExtendedMode()
	out.EnableMousePixelsMode()
	fmt.Fprint(os.Stdout, "\x1b[?1004h")
	defer func() {
		fmt.Fprint(os.Stdout, "\x1b[?1004l")
		out.DisableMousePixelsMode()
		out.DisableMouseExtendedMode()
		out.DisableMouseAllMotion()
		out.ShowCursor()
	}()

	model := agentModel{
		host:  client,
		sizes: func() (terminal.Sizes, error) { return terminal.QuerySizes(fd) },
	}
	p := tea.NewProgram(model,
		tea.WithContext(ctx),
		tea.WithInput(os.Stdin),
		tea.WithoutRenderer(),
		tea.WithReportFocus(),
		tea.WithoutSignalHandler(),
	)

	o := &output{
		w: bufio.NewWriterSize(os.Stdout, 64<<10),
		remote: func(ctx context.Context, args []string) error {
			return terminal.RunRemoteControl(ctx, *kitten, args)
		},
		shell: terminal.RunShell,
	}
	go o.pump(ctx, client.Updates(), func() { p.Send(closedMsg{}) })

	_, err = p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		err = nil
	}
	if err == nil {
		err = client.Err()
	}
	return err
}
