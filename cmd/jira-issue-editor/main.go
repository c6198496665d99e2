package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/jbeckham/jira-issue-editor/internal/config"
	"github.com/jbeckham/jira-issue-editor/internal/fields"
	"github.com/jbeckham/jira-issue-editor/internal/host"
	"github.com/jbeckham/jira-issue-editor/internal/jira"
	"github.com/jbeckham/jira-issue-editor/internal/logging"
	"github.com/jbeckham/jira-issue-editor/internal/protocol"
	"github.com/jbeckham/jira-issue-editor/internal/render"
	"github.com/jbeckham/jira-issue-editor/internal/tui"
)

// shutdownTimeout bounds how long quitting waits for in-flight edits.
const shutdownTimeout = 5 * time.Second

type globalFlags struct {
	configDir string
	debug     bool
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:           "jira-issue-editor",
		Short:         "Edit and create Jira issues field by field in the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.configDir, "config-dir", "", "config directory (default: .jira-issue-editor next to the binary)")
	root.PersistentFlags().BoolVar(&flags.debug, "debug", false, "log at debug level")

	root.AddCommand(newInitCommand(flags), newEditCommand(flags), newCreateCommand(flags))
	return root
}

func newInitCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write sample config.yaml and secrets.yaml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, err := resolveDir(flags)
			if err != nil {
				return err
			}
			if config.DirExists(dir) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s/ already exists\n", dir)
			}
			if err := config.Init(dir); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config in %s/\n", dir)
			fmt.Fprintf(out, "  config.yaml  : Jira URL, editor and log settings\n")
			fmt.Fprintf(out, "  secrets.yaml : email and API token\n")
			fmt.Fprintf(out, "(generate a token at https://id.atlassian.com/manage-profile/security/api-tokens)\n")
			return nil
		},
	}
}

func newEditCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "edit ISSUE-KEY",
		Short: "Edit the fields of an existing issue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(flags, tui.Options{
				Mode:     fields.ModeEdit,
				IssueKey: strings.ToUpper(args[0]),
			})
		},
	}
}

func newCreateCommand(flags *globalFlags) *cobra.Command {
	var project, issueType string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Fill in and create a new issue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(flags, tui.Options{
				Mode:       fields.ModeCreate,
				ProjectKey: strings.ToUpper(project),
				IssueType:  issueType,
			})
		},
	}
	cmd.Flags().StringVarP(&project, "project", "p", "", "project key (default: jira.default_project)")
	cmd.Flags().StringVarP(&issueType, "type", "t", "", "issue type name or id (default: first standard type)")
	return cmd
}

func resolveDir(flags *globalFlags) (string, error) {
	if flags.configDir != "" {
		return flags.configDir, nil
	}
	return config.DefaultConfigDir()
}

// run loads config, wires the host to the editor and runs the program
// until the user quits.
func run(flags *globalFlags, opts tui.Options) error {
	dir, err := resolveDir(flags)
	if err != nil {
		return err
	}
	if !config.DirExists(dir) {
		if err := config.Init(dir); err != nil {
			return fmt.Errorf("initializing config: %w", err)
		}
		return fmt.Errorf("created %s/; fill in config.yaml and secrets.yaml, then run again", dir)
	}

	cfg, err := config.LoadDir(dir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logFile, err := logging.OpenFile(cfg.Log.File)
	if err != nil {
		return err
	}
	defer logFile.Close()
	logger := logging.SetupLogger(cfg.Log.Format, cfg.Log.Debug || flags.debug, logFile)
	slog.SetDefault(logger)

	if opts.Mode == fields.ModeCreate && opts.ProjectKey == "" {
		opts.ProjectKey = cfg.Jira.DefaultProject
		if opts.ProjectKey == "" {
			return fmt.Errorf("no project: pass --project or set jira.default_project")
		}
	}

	templates, err := render.NewTemplates(cfg.Editor.Display)
	if err != nil {
		return fmt.Errorf("editor.display: %w", err)
	}

	client := jira.NewClient(cfg.Jira.BaseURL, cfg.Jira.Email, cfg.Jira.APIToken)
	if err := checkCredentials(client, logger); err != nil {
		return err
	}
	users := loadUsers(dir, client, logger)

	var (
		p   *tea.Program
		req *protocol.Requester
	)
	ctx := context.Background()
	emit := func(m protocol.Message) {
		protocol.Trace(ctx, logger, "in", m)
		if req.Deliver(m) {
			return
		}
		p.Send(tui.Inbound(m))
	}
	h := host.New(client, emit, host.Options{
		FeatureFlags: map[string]bool{tui.FlagRichText: cfg.Editor.RichText},
		Users:        users,
		Clipboard:    clipboard.WriteAll,
		Logger:       logger,
	})
	post := func(m protocol.Message) error {
		protocol.Trace(ctx, logger, "out", m)
		return h.Post(m)
	}
	req = protocol.NewRequester(post, cfg.Editor.RequestTimeoutDuration(), logger)
	defer req.Close()

	opts.Debounce = cfg.Editor.DebounceDuration()
	opts.RichText = cfg.Editor.RichText
	opts.EpicIssueTypes = cfg.Editor.EpicIssueTypes
	opts.Templates = templates
	opts.Logger = logger

	p = tea.NewProgram(tui.NewApp(req, opts), tea.WithAltScreen())
	// Send blocks until the program runs.
	go h.Start()

	logger.Info("editor started", "mode", opts.Mode.String(), "issue", opts.IssueKey, "project", opts.ProjectKey)
	_, err = p.Run()

	// Edits sent on quit are still in flight.
	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	h.Shutdown(shutdownCtx)
	return err
}

// checkCredentials fails fast when the configured account can't sign in.
func checkCredentials(client *jira.Client, logger *slog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	me, err := client.GetMyself(ctx)
	if err != nil {
		return fmt.Errorf("checking credentials: %w", err)
	}
	logger.Info("signed in", "user", me.DisplayName)
	return nil
}

// loadUsers returns the instance's users from the day-old cache, fetching
// and caching them on a miss. Failures only cost the offline user list.
func loadUsers(dir string, client *jira.Client, logger *slog.Logger) []jira.User {
	cached, err := config.LoadUserCache(dir)
	if err != nil {
		logger.Warn("reading user cache failed", "error", err)
	}
	if cached != nil {
		return config.JiraUsers(cached)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	users, err := client.SearchAllUsers(ctx)
	if err != nil {
		logger.Warn("fetching users failed", "error", err)
		return nil
	}
	if err := config.SaveUserCache(dir, config.CachedUsersFrom(users)); err != nil {
		logger.Warn("writing user cache failed", "error", err)
	}
	return users
}
