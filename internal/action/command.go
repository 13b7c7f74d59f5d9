package action

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/gyaneshwarpardhi/ticketsupervisor/internal/ticket"
	"github.com/gyaneshwarpardhi/ticketsupervisor/internal/vars"
)

// Command runs an external program for a ticket.
//
// Shell mode (cmd) interpolates ticket and variable data into a shell
// command line, so a ticket author can influence what the shell executes.
// Argv mode (argv) runs the program directly and expands every argument
// separately, without shell interpretation.
type Command struct {
	// Shell is the interpreter prefix for cmd lines.
	Shell []string
	// TempDir holds the ticket snapshot files; "" means os.TempDir().
	TempDir string
}

// NewCommand returns a Command using the platform shell.
func NewCommand() *Command {
	shell := []string{"/bin/sh", "-c"}
	if runtime.GOOS == "windows" {
		shell = []string{"cmd", "/C"}
	}
	return &Command{Shell: shell}
}

func (c *Command) Kind() Kind { return KindRun }

// Execute writes the ticket snapshot to a temporary JSON file, expands the
// command and runs it under the configured timeout. The snapshot file is
// removed on every path.
func (c *Command) Execute(ctx context.Context, t ticket.Ticket, a Action, env *Env) (*Result, error) {
	fields, err := resolveFields(t, a, env)
	if err != nil {
		return nil, err
	}

	path, err := c.writeSnapshot(t)
	if err != nil {
		return nil, err
	}
	defer os.Remove(path)

	m := vars.Combine(t, env.Vars).With(fields).With(vars.Map{TicketFileVar: path})
	templates := a.Argv
	if len(templates) == 0 {
		templates = []string{a.Command}
	}
	for _, s := range templates {
		if missing := vars.Unresolved(s, m); len(missing) > 0 {
			return nil, fmt.Errorf("unknown field %s in %q", strings.Join(missing, ", "), s)
		}
	}

	var args []string
	var line string
	if len(a.Argv) > 0 {
		args = make([]string, len(a.Argv))
		for i, s := range a.Argv {
			args[i] = vars.Expand(s, m)
		}
		line = strings.Join(args, " ")
	} else {
		line = vars.Expand(a.Command, m)
		args = append(append([]string{}, c.Shell...), line)
	}

	log := env.Logger.WithField("code", "403")
	if env.DryRun {
		log.Infof("#%s -> [simulation]: '%s'", t.Number(), line)
		return &Result{Kind: KindRun, Success: true, Message: "simulated"}, nil
	}

	timeout := env.Settings.ExtCmdTimeout()
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, args[0], args[1:]...)
	cmd.WaitDelay = 2 * time.Second
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	runErr := cmd.Run()
	code := exitCode(runErr)

	log.Infof("#%s -> %s: RC=%d '%s'", t.Number(), a.Tag, code, line)
	logOutput(env, t.Number(), "404", stderr.String())
	logOutput(env, t.Number(), "405", stdout.String())

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("command timeout after %s: %s", timeout, line)
	}
	if runErr != nil {
		return nil, fmt.Errorf("command exit %d: %w", code, runErr)
	}
	return &Result{Kind: KindRun, Success: true, Message: fmt.Sprintf("RC=%d", code)}, nil
}

func (c *Command) writeSnapshot(t ticket.Ticket) (string, error) {
	data, err := t.Snapshot()
	if err != nil {
		return "", fmt.Errorf("encode ticket snapshot: %w", err)
	}
	f, err := os.CreateTemp(c.TempDir, "ticket-*.json")
	if err != nil {
		return "", fmt.Errorf("create ticket snapshot: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("write ticket snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("close ticket snapshot: %w", err)
	}
	return f.Name(), nil
}

func logOutput(env *Env, num, code, out string) {
	for _, line := range strings.Split(strings.ReplaceAll(out, "\r", ""), "\n") {
		if line != "" {
			env.Logger.WithField("code", code).Infof("#%s -> ... %s", num, line)
		}
	}
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return ee.ExitCode()
	}
	return -1
}
