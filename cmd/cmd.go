package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/thiagokokada/interdiff-go/internal/buildinfo"
	"github.com/thiagokokada/interdiff-go/internal/config"
	"github.com/thiagokokada/interdiff-go/internal/git"
	"github.com/thiagokokada/interdiff-go/internal/history"
	"github.com/thiagokokada/interdiff-go/internal/logging"
	"github.com/thiagokokada/interdiff-go/internal/tracing"
	"github.com/thiagokokada/interdiff-go/internal/tui"
	"github.com/thiagokokada/interdiff-go/internal/worker"
)

const (
	envPrefix       = "INTERDIFF"
	shutdownTimeout = 5 * time.Second
)

// runTUI is replaced in tests.
var runTUI = tui.Run

func init() {
	// Query the terminal background before bubbletea owns stdin, otherwise
	// the OSC 11 reply can leak into the input loop.
	_ = lipgloss.HasDarkBackground()
}

func Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return run(ctx, os.Args[1:])
}

func run(ctx context.Context, args []string) error {
	root := newRootCommand()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// cli holds the state shared by the command tree of a single invocation.
type cli struct {
	v       *viper.Viper
	cfgFile string
	cfg     config.Config
}

func newRootCommand() *cobra.Command {
	c := &cli{v: viper.New()}
	var from, to string

	root := &cobra.Command{
		Use:   "interdiff-go [PR_URL]",
		Short: "Step through the interdiff of a rewritten branch",
		Long: `interdiff-go aligns the commits of two versions of a branch and shows,
commit by commit, what changed between them.

Compare two revisions of the local repository:
  interdiff-go --from feature@v1 --to feature

Walk the force-push history of a pull request:
  interdiff-go https://github.com/owner/repo/pull/42`,
		Version:       buildinfo.VersionWithTags(),
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.load(cmd); err != nil {
				return err
			}
			fetcher, err := c.fetcher(args, from, to)
			if err != nil {
				return err
			}
			return c.interactive(cmd.Context(), fetcher)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&c.cfgFile, "config", "c", "", "config file (default: $XDG_CONFIG_HOME/interdiff-go/config.yaml)")
	pf.StringP("repo", "r", "", "path to the local repository (default: current directory)")
	pf.String("trunk", "", "trunk revision bounding the new side (default: auto detect)")
	pf.String("log-file", "", "write logs to this file")
	pf.Bool("verbose", false, "enable verbose logging")
	for key, flag := range map[string]string{
		"repo":     "repo",
		"trunk":    "trunk",
		"log_file": "log-file",
		"verbose":  "verbose",
	} {
		_ = c.v.BindPFlag(key, pf.Lookup(flag))
	}

	f := root.Flags()
	f.StringVar(&from, "from", "", "old revision of the branch")
	f.StringVar(&to, "to", "", "new revision of the branch")
	f.String("mode", "", "color mode: auto, light, or dark")
	f.Int("page-size", config.DefaultPageSize, "number of pull request revisions to load per request")
	f.Bool("nowatch", false, "disable automatic reload when repository changes")
	f.Bool("nosyntax", false, "disable syntax highlighting in the diff viewer")
	_ = c.v.BindPFlag("theme", f.Lookup("mode"))
	_ = c.v.BindPFlag("page_size", f.Lookup("page-size"))
	root.MarkFlagsRequiredTogether("from", "to")

	root.AddCommand(newListCommand(c), newInitConfigCommand(c))
	return root
}

// load resolves the configuration from defaults, the config file, the
// environment and flags, in increasing precedence.
func (c *cli) load(cmd *cobra.Command) error {
	v := c.v
	setDefaults(v, config.Defaults())
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("tokens.github", envPrefix+"_GITHUB_TOKEN", "GITHUB_TOKEN")
	_ = v.BindEnv("tokens.bitbucket", envPrefix+"_BITBUCKET_TOKEN", "BITBUCKET_TOKEN")

	path := c.cfgFile
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			return err
		}
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			path = ""
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("%w: reading %s: %w", config.ErrConfig, path, err)
		}
	}

	var cfg config.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("%w: %w", config.ErrConfig, err)
	}
	if noWatch, _ := cmd.Flags().GetBool("nowatch"); noWatch {
		cfg.Watch = false
	}
	if noSyntax, _ := cmd.Flags().GetBool("nosyntax"); noSyntax {
		cfg.SyntaxHighlight = false
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.cfg = cfg
	return nil
}

func setDefaults(v *viper.Viper, d config.Config) {
	v.SetDefault("repo", d.Repo)
	v.SetDefault("trunk", d.Trunk)
	v.SetDefault("remote", d.Remote)
	v.SetDefault("fetch", d.Fetch)
	v.SetDefault("page_size", d.PageSize)
	v.SetDefault("theme", d.Theme)
	v.SetDefault("syntax_highlight", d.SyntaxHighlight)
	v.SetDefault("watch", d.Watch)
	v.SetDefault("diff.context_lines", d.Diff.ContextLines)
	v.SetDefault("diff.exclude", d.Diff.Exclude)
	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.exporter", d.Tracing.Exporter)
	v.SetDefault("tracing.file_path", d.Tracing.FilePath)
	v.SetDefault("tracing.otlp_endpoint", d.Tracing.OTLPEndpoint)
	v.SetDefault("log_file", d.LogFile)
	v.SetDefault("verbose", d.Verbose)
	v.SetDefault("tokens.github", "")
	v.SetDefault("tokens.bitbucket", "")
}

// fetcher picks the history source: a pull request URL or a fixed pair of
// revisions.
func (c *cli) fetcher(args []string, from, to string) (history.Fetcher, error) {
	switch {
	case len(args) == 1 && from != "":
		return nil, errors.New("a pull request URL cannot be combined with --from and --to")
	case len(args) == 1:
		tokens := history.Tokens{GitHub: c.cfg.Tokens.GitHub, Bitbucket: c.cfg.Tokens.Bitbucket}
		return history.ForURL(args[0], tokens, c.cfg.PageSize, nil)
	case from != "":
		return history.NewPair(from, to), nil
	}
	return nil, errors.New("either a pull request URL or --from and --to are required")
}

func (c *cli) openRepository() (*git.Service, error) {
	repoPath := c.cfg.Repo
	if repoPath == "" {
		repoPath = "."
	}
	return git.Open(repoPath, git.Options{
		Trunk:        c.cfg.Trunk,
		Remote:       c.cfg.Remote,
		Fetch:        git.FetchBackend(c.cfg.Fetch),
		ContextLines: c.cfg.Diff.ContextLines,
		Exclude:      c.cfg.Diff.Exclude,
	})
}

// bootstrap installs logging and tracing. The returned func flushes both.
func (c *cli) bootstrap(ctx context.Context) (func(), error) {
	session := uuid.NewString()
	closeLog, err := logging.Setup(c.cfg.LogFile, c.cfg.Verbose, session)
	if err != nil {
		return nil, err
	}
	provider, err := tracing.Setup(ctx, c.cfg.Tracing, buildinfo.Version(), session)
	if err != nil {
		_ = closeLog()
		return nil, fmt.Errorf("setting up tracing: %w", err)
	}
	slog.Info("starting",
		slog.String("version", buildinfo.VersionWithTags()),
		slog.Bool("tracing", c.cfg.Tracing.Enabled),
	)
	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			slog.Error("tracing shutdown", slog.Any("error", err))
		}
		_ = closeLog()
	}, nil
}

func (c *cli) interactive(ctx context.Context, fetcher history.Fetcher) error {
	shutdown, err := c.bootstrap(ctx)
	if err != nil {
		return err
	}
	defer shutdown()

	svc, err := c.openRepository()
	if err != nil {
		return err
	}
	return runTUI(ctx, tui.RunConfig{
		RepoPath:        svc.RepoPath(),
		Repository:      worker.FromService(svc),
		Fetcher:         fetcher,
		Theme:           tui.ThemePreferenceFromString(c.cfg.Theme),
		SyntaxHighlight: c.cfg.SyntaxHighlight,
		Watch:           c.cfg.Watch,
	})
}
