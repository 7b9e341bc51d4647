// Command cli is the operator console of the ledger.
//
// Run a single command:
//
//	cli deposit -narration "cash" 100000000001 25.00
//
// or start a session with no arguments and type one command per line. Sessions keep
// their state for as long as the process lives, which makes them the way to use the
// in-memory store.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/amirasaad/ledger/infra/initializer"
	"github.com/amirasaad/ledger/pkg/config"
	"github.com/fatih/color"
	"golang.org/x/term"
)

const prompt = "ledger> "

func main() {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		color.NoColor = true
	}
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		newPrinter(os.Stderr).failure(err)
		os.Exit(1)
	}
}

func run(args []string, in *os.File, out io.Writer) error {
	cfg, err := config.Load(".env")
	if err != nil {
		return fmt.Errorf("failed to load application configuration: %w", err)
	}
	deps, cleanup, err := initializer.InitializeDependencies(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(args) > 0 {
		return newCLI(*deps, out).exec(ctx, args)
	}
	if term.IsTerminal(int(in.Fd())) {
		return interactive(ctx, *deps, in, out)
	}
	return newCLI(*deps, out).session(ctx, in)
}

// interactive runs a session on a raw terminal with line editing and history.
func interactive(ctx context.Context, deps config.Deps, in *os.File, out io.Writer) error {
	state, err := term.MakeRaw(int(in.Fd()))
	if err != nil {
		return fmt.Errorf("failed to enter raw mode: %w", err)
	}
	defer func() { _ = term.Restore(int(in.Fd()), state) }()

	t := term.NewTerminal(struct {
		io.Reader
		io.Writer
	}{in, out}, prompt)
	if w, h, err := term.GetSize(int(in.Fd())); err == nil {
		_ = t.SetSize(w, h)
	}
	c := newCLI(deps, t)
	c.help()
	for ctx.Err() == nil {
		line, err := t.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if done := c.line(ctx, line); done {
			return nil
		}
	}
	return nil
}

// session reads commands from r until EOF. Failed commands are reported and the
// session goes on.
func (c *cli) session(ctx context.Context, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() && ctx.Err() == nil {
		if done := c.line(ctx, scanner.Text()); done {
			return nil
		}
	}
	return scanner.Err()
}

// line executes one session line and reports whether the session should end.
func (c *cli) line(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return false
	}
	args, err := splitArgs(line)
	if err != nil {
		c.out.failure(err)
		return false
	}
	switch args[0] {
	case "exit", "quit":
		return true
	}
	if err := c.exec(ctx, args); err != nil {
		c.out.failure(err)
	}
	return false
}

// splitArgs splits a line on blanks, keeping double-quoted runs together.
func splitArgs(line string) ([]string, error) {
	var (
		args    []string
		current strings.Builder
		quoted  bool
		pending bool
	)
	for _, r := range line {
		switch {
		case r == '"':
			quoted = !quoted
			pending = true
		case !quoted && (r == ' ' || r == '\t'):
			if pending {
				args = append(args, current.String())
				current.Reset()
				pending = false
			}
		default:
			current.WriteRune(r)
			pending = true
		}
	}
	if quoted {
		return nil, errors.New("unterminated quote")
	}
	if pending {
		args = append(args, current.String())
	}
	return args, nil
}
