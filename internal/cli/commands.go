package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"taskr/internal/config"
	"taskr/internal/logging"
	"taskr/internal/storage"
	"taskr/internal/todo"
	"taskr/internal/ui"
)

type rootOptions struct {
	configPath string
	verbose    bool
}

func (o *rootOptions) loadConfig() (config.Config, error) {
	path := o.configPath
	if path == "" {
		var err error
		if path, err = config.ResolveConfigPath(); err != nil {
			return config.Config{}, err
		}
	}
	cfg, err := config.LoadOrCreate(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func (o *rootOptions) level(def string) string {
	if o.verbose {
		return "debug"
	}
	return def
}

func openStore(cfg config.Config, logger *log.Logger) (storage.Gateway, error) {
	store, err := storage.Open(cfg.Backend, cfg.DataPath, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Backend, err)
	}
	logger.Debug("opened store", "backend", cfg.Backend, "path", cfg.DataPath)
	return store, nil
}

// runWith opens the store, hands a Runner to fn and closes the store again.
// Scripted commands log to stderr.
func (o *rootOptions) runWith(cmd *cobra.Command, fn func(r *Runner) error) error {
	cfg, err := o.loadConfig()
	if err != nil {
		return err
	}
	logger, err := logging.New(cmd.ErrOrStderr(), o.level("warn"))
	if err != nil {
		return err
	}
	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(NewRunner(store, cmd.OutOrStdout(), logger, cfg.DueSoonWindow()))
}

// runTUI starts the editor. It never logs to the terminal it draws on.
func (o *rootOptions) runTUI(_ *cobra.Command, _ []string) error {
	cfg, err := o.loadConfig()
	if err != nil {
		return err
	}
	var logOut io.Writer = io.Discard
	if cfg.LogFile != "" {
		f, err := logging.OpenFile(cfg.LogFile)
		if err != nil {
			return err
		}
		defer f.Close()
		logOut = f
	}
	logger, err := logging.New(logOut, o.level(cfg.LogLevel))
	if err != nil {
		return err
	}
	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()
	return ui.Run(store, cfg, logger)
}

func NewRootCommand() *cobra.Command {
	o := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "taskr",
		Short:         "A todo list for the terminal, with a full-screen editor.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE:          o.runTUI,
	}
	cmd.PersistentFlags().StringVar(&o.configPath, "config", "", "config file (default <user config dir>/taskr/config.toml)")
	cmd.PersistentFlags().BoolVarP(&o.verbose, "verbose", "v", false, "log debug output")

	addTUI(cmd, o)
	addAdd(cmd, o)
	addList(cmd, o)
	addComplete(cmd, o)
	addDelete(cmd, o)
	addClear(cmd, o)
	addStats(cmd, o)
	addExport(cmd, o)
	addImport(cmd, o)
	return cmd
}

func addTUI(top *cobra.Command, o *rootOptions) {
	top.AddCommand(&cobra.Command{
		Use:     "tui",
		Aliases: []string{"interactive"},
		Short:   "Open the full-screen editor",
		Args:    cobra.NoArgs,
		RunE:    o.runTUI,
	})
}

func addAdd(top *cobra.Command, o *rootOptions) {
	var priority int
	cmd := &cobra.Command{
		Use:   "add DESCRIPTION...",
		Short: "Add a todo",
		Example: `
taskr add "Buy milk"
taskr add -p 4 "Ship the release"
`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.runWith(cmd, func(r *Runner) error {
				return r.Add(strings.Join(args, " "), priority)
			})
		},
	}
	cmd.Flags().IntVarP(&priority, "priority", "p", 0, "priority from 1 (low) to 5 (critical)")
	top.AddCommand(cmd)
}

func addList(top *cobra.Command, o *rootOptions) {
	var filter string
	var detailed bool
	keys := make([]string, 0)
	for _, f := range todo.Filters() {
		keys = append(keys, f.Key())
	}
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List todos",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := todo.ParseFilter(filter)
			if err != nil {
				return err
			}
			return o.runWith(cmd, func(r *Runner) error {
				return r.List(f, detailed)
			})
		},
	}
	cmd.Flags().StringVarP(&filter, "filter", "f", "all", "one of "+strings.Join(keys, ", "))
	cmd.Flags().BoolVarP(&detailed, "detailed", "d", false, "show details and timestamps")
	top.AddCommand(cmd)
}

func parseID(args []string) (int, error) {
	if len(args) != 1 {
		return 0, errors.New("requires a todo id")
	}
	id, err := strconv.Atoi(strings.TrimPrefix(args[0], "#"))
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid todo id %q", args[0])
	}
	return id, nil
}

func addComplete(top *cobra.Command, o *rootOptions) {
	top.AddCommand(&cobra.Command{
		Use:     "complete ID",
		Aliases: []string{"done"},
		Short:   "Mark a todo as completed",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args)
			if err != nil {
				return err
			}
			return o.runWith(cmd, func(r *Runner) error { return r.Complete(id) })
		},
	})
}

func addDelete(top *cobra.Command, o *rootOptions) {
	var force bool
	cmd := &cobra.Command{
		Use:     "delete ID",
		Aliases: []string{"rm"},
		Short:   "Delete a todo",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args)
			if err != nil {
				return err
			}
			return o.runWith(cmd, func(r *Runner) error { return r.Delete(id, force) })
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip the confirmation prompt")
	top.AddCommand(cmd)
}

func addClear(top *cobra.Command, o *rootOptions) {
	var force bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove all completed todos",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.runWith(cmd, func(r *Runner) error { return r.Clear(force) })
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip the confirmation prompt")
	top.AddCommand(cmd)
}

func addStats(top *cobra.Command, o *rootOptions) {
	top.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show statistics about the list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.runWith(cmd, func(r *Runner) error { return r.Stats() })
		},
	})
}

func addExport(top *cobra.Command, o *rootOptions) {
	var format, output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export todos as json, markdown, csv or text",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.runWith(cmd, func(r *Runner) error { return r.Export(format, output) })
		},
	}
	cmd.Flags().StringVarP(&format, "format", "F", FormatJSON, "one of "+strings.Join(ExportFormats, ", "))
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to this file instead of stdout")
	top.AddCommand(cmd)
}

func addImport(top *cobra.Command, o *rootOptions) {
	var merge bool
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import todos from a JSON export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.runWith(cmd, func(r *Runner) error { return r.Import(args[0], merge) })
		},
	}
	cmd.Flags().BoolVar(&merge, "merge", false, "append to the existing list instead of replacing it")
	top.AddCommand(cmd)
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}
