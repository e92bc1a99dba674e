package cli

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/audioscribe/internal/buildinfo"
	"github.com/dmitrijs2005/audioscribe/internal/client/apiclient"
	"github.com/dmitrijs2005/audioscribe/internal/client/config"
	"github.com/dmitrijs2005/audioscribe/internal/client/session"
	"github.com/spf13/cobra"
)

// Seams for tests.
var (
	openStore = func(ctx context.Context, dir string) (SessionStore, error) {
		return session.Open(ctx, dir)
	}
	newAPI = func(baseURL string, timeout time.Duration) (API, error) {
		return apiclient.New(baseURL, timeout)
	}
)

type globalFlags struct {
	config        string
	server        string
	sessionDir    string
	checkInterval time.Duration
	timeout       time.Duration
}

// commandContext builds the App once and shares it between the commands of
// one invocation, including every line typed into the shell.
type commandContext struct {
	flags globalFlags
	in    io.Reader
	out   io.Writer

	once   sync.Once
	app    *App
	appErr error
}

func (c *commandContext) ensureApp(cmd *cobra.Command) (*App, error) {
	c.once.Do(func() {
		cfg, err := config.LoadConfig(strings.TrimSpace(c.flags.config))
		if err != nil {
			c.appErr = err
			return
		}
		applyFlags(cmd, cfg, c.flags)

		api, err := newAPI(cfg.ServerURL, cfg.RequestTimeout)
		if err != nil {
			c.appErr = err
			return
		}
		store, err := openStore(cmd.Context(), cfg.SessionDir)
		if err != nil {
			c.appErr = err
			return
		}
		c.app, c.appErr = NewApp(cmd.Context(), cfg, api, store, c.in, c.out)
		if c.appErr != nil {
			store.Close()
		}
	})
	return c.app, c.appErr
}

func applyFlags(cmd *cobra.Command, cfg *config.Config, f globalFlags) {
	flags := cmd.Flags()
	if flags.Changed("server") {
		cfg.ServerURL = f.server
	}
	if flags.Changed("session-dir") {
		cfg.SessionDir = f.sessionDir
	}
	if flags.Changed("check-interval") {
		cfg.SessionCheckInterval = f.checkInterval
	}
	if flags.Changed("timeout") {
		cfg.RequestTimeout = f.timeout
	}
}

func (c *commandContext) close() error {
	if c.app == nil {
		return nil
	}
	return c.app.Close()
}

// run wraps a command body that needs the App.
func (c *commandContext) run(fn func(cmd *cobra.Command, app *App, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		app, err := c.ensureApp(cmd)
		if err != nil {
			return err
		}
		return fn(cmd, app, args)
	}
}

func newRootCommand(c *commandContext) *cobra.Command {
	root := &cobra.Command{
		Use:           "audioscribe",
		Short:         "AudioScribe command-line client",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&c.flags.config, "config", "c", "", "JSON configuration file")
	pf.StringVarP(&c.flags.server, "server", "a", "", "AudioScribe server URL")
	pf.StringVar(&c.flags.sessionDir, "session-dir", "", "directory of the local session database")
	pf.DurationVarP(&c.flags.checkInterval, "check-interval", "i", 0, "server status check interval in the shell")
	pf.DurationVarP(&c.flags.timeout, "timeout", "t", 0, "request timeout")

	root.AddCommand(
		newRegisterCommand(c),
		newLoginCommand(c),
		newLogoutCommand(c),
		newSessionCommand(c),
		newFilesCommand(c),
		newTranscribeCommand(c),
		newTranscriptsCommand(c),
		newAnalyzeCommand(c),
		newAnalysesCommand(c),
		newShellCommand(c),
		&cobra.Command{
			Use:   "version",
			Short: "Print build information",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				buildinfo.PrintBuildData(cmd.OutOrStdout())
			},
		},
	)
	return root
}

// Execute runs the CLI with args and releases the session database.
func Execute(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) error {
	if args == nil {
		args = []string{}
	}

	c := &commandContext{in: in, out: out}
	root := newRootCommand(c)
	root.SetArgs(args)
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	err := root.ExecuteContext(ctx)
	if cerr := c.close(); err == nil {
		err = cerr
	}
	return err
}
