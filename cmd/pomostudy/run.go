package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/benjamonnguyen/pomostudy"
	"github.com/benjamonnguyen/pomostudy/notify"
	"github.com/benjamonnguyen/pomostudy/settingsfile"
	"github.com/benjamonnguyen/pomostudy/timer"
)

const keyHelp = "[s]tart [p]ause [r]eset [w]ork short [b]reak [l]ong break [q]uit"

var runTask string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the timer in this terminal",
	Long: `Run the timer in this terminal. Type a key and press enter:

  ` + keyHelp,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&runTask, "task", "", "Task the sessions are spent on")
}

func runRun(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	settings, err := settingsfile.Load(cfg.SettingsPath)
	if err != nil {
		return err
	}
	recorder, db, err := openHistory(ctx)
	if err != nil {
		return err
	}
	defer db.Close() //nolint

	out := &syncWriter{w: cmd.OutOrStdout()}
	e := timer.New(ctx, settings, recorder,
		timer.WithOwner(pomostudy.OwnerID(cfg.Owner)),
		timer.WithLogger(log.Default()),
	)
	defer e.Close()
	e.SetTask(runTask)
	e.OnUpdate(func(s timer.State) { render(out, s) })
	e.OnComplete(notify.Hook(
		notify.Terminal(out),
		func() bool { return e.Settings().Notifications },
		log.Default(),
	))

	fmt.Fprintln(out, keyHelp)
	render(out, e.State())
	return runSession(ctx, e, cmd.InOrStdin(), out)
}

// runSession feeds lines from in to the engine until q, EOF or ctx is done.
func runSession(ctx context.Context, e *timer.Engine, in io.Reader, out io.Writer) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return nil
		case line, ok := <-lines:
			if !ok {
				fmt.Fprintln(out)
				return nil
			}
			quit, err := handleKey(e, line)
			if err != nil {
				fmt.Fprintf(out, "\n%s\n", err)
				render(out, e.State())
			}
			if quit {
				fmt.Fprintln(out)
				return nil
			}
		}
	}
}

func handleKey(e *timer.Engine, line string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "":
		return false, nil
	case "s":
		return false, e.Start()
	case "p":
		e.Pause()
	case "r":
		e.Reset()
	case "w":
		return false, e.SetIntervalType(pomostudy.WorkInterval)
	case "b":
		return false, e.SetIntervalType(pomostudy.ShortBreakInterval)
	case "l":
		return false, e.SetIntervalType(pomostudy.LongBreakInterval)
	case "q":
		return true, nil
	default:
		return false, fmt.Errorf("unknown key %q: %s", line, keyHelp)
	}
	return false, nil
}

func render(w io.Writer, s timer.State) {
	status := "paused"
	if s.IsRunning {
		status = "running"
	}
	fmt.Fprintf(w, "\r%-11s %s  %-7s  done: %d ", s.IntervalType, s.Clock(), status, s.CompletedWorkIntervals)
}

type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
