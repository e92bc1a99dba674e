package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

type execFunc func(ctx context.Context, args []string) error

func newShellCommand(c *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start an interactive session",
		Args:  cobra.NoArgs,
		RunE: c.run(func(cmd *cobra.Command, app *App, args []string) error {
			exec := func(ctx context.Context, args []string) error {
				sub := newRootCommand(c)
				sub.SetArgs(args)
				sub.SetIn(c.in)
				sub.SetOut(c.out)
				sub.SetErr(c.out)
				return sub.ExecuteContext(ctx)
			}
			return app.Shell(cmd.Context(), exec)
		}),
	}
}

// Shell runs the interactive loop. While it runs, the server is probed
// every SessionCheckInterval and the session is dropped when its token
// expires.
func (a *App) Shell(ctx context.Context, exec execFunc) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.mu.Lock()
	a.watchToken = true
	a.mu.Unlock()
	a.restartMonitor()
	defer a.stopMonitor()

	a.probe(ctx)
	if interval := a.config.SessionCheckInterval; interval > 0 {
		go a.StartOnlineStatusWatcher(ctx, interval)
	}

	a.printf("AudioScribe CLI (type 'help' for commands)\n")
	runREPL(ctx, a.reader, a.out, a.status, a.isLoggedIn, exec)
	return nil
}

// runREPL reads one command per line and hands it to exec until EOF,
// "exit" or "quit". Command errors are printed and the loop goes on.
//
//	Not logged in: register, login, help, exit
//	Logged in:     files ..., transcribe, transcripts, analyze, analyses,
//	               session, logout, help, exit
func runREPL(ctx context.Context, reader *bufio.Reader, out io.Writer, statusFn func() string, loggedIn func() bool, exec execFunc) {
	for {
		prompt := "audioscribe"
		if s := statusFn(); s != "" {
			prompt += " " + s
		}
		fmt.Fprintf(out, "%s> ", prompt)

		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(out)
			return
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "help":
			if len(parts) > 1 {
				_ = exec(ctx, append(parts[1:], "--help"))
				continue
			}
			if loggedIn() {
				fmt.Fprintln(out, "Available commands: files list|upload|delete|download|statuses, transcribe, transcripts, analyze, analyses, session, logout, exit")
			} else {
				fmt.Fprintln(out, "Available commands: register, login, exit")
			}
		case "exit", "quit":
			fmt.Fprintln(out, "Bye!")
			return
		case "shell":
			fmt.Fprintln(out, "Already in the shell.")
		default:
			if err := exec(ctx, parts); err != nil {
				fmt.Fprintln(out, "Error:", err)
			}
		}

		if ctx.Err() != nil {
			return
		}
	}
}
