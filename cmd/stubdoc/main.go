package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/stubdoc/stubdoc/internal/ast"
	"github.com/stubdoc/stubdoc/internal/config"
	"github.com/stubdoc/stubdoc/internal/docsync"
	apperrors "github.com/stubdoc/stubdoc/internal/pkg/errors"
	"github.com/stubdoc/stubdoc/internal/pkg/hash"
	"github.com/stubdoc/stubdoc/internal/pkg/logger"
	"github.com/stubdoc/stubdoc/internal/syncer"
	"github.com/stubdoc/stubdoc/internal/watch"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "stubdoc",
		Short: "Stubdoc - docstring synchronization for Python stub files",
		Long: `Stubdoc copies docstrings from Python implementation files into their
.pyi stub counterparts, matching declarations by name path and leaving
everything else in the stub byte-identical.

Run 'stubdoc sync src/mod.py stubs/mod.pyi' to sync one pair.
Run 'stubdoc --help' for available commands.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().String("format", "text", "output format (text, json)")

	// Add subcommands
	rootCmd.AddCommand(
		syncCmd(),
		collectCmd(),
		watchCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(apperrors.ExitCode(err))
	}
}

func syncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync <source> <target>",
		Short: "Sync docstrings from a source into its stub",
		Long: `Sync docstrings from an implementation file into a stub file, or from a
source directory into a stub directory. In directory mode every source file
is paired with the stub at the same relative path; sources without a
counterpart are skipped with a warning.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			s := buildSyncer(cfg, log)

			opts := syncer.Options{}
			opts.DryRun, _ = cmd.Flags().GetBool("dry-run")
			opts.Diff, _ = cmd.Flags().GetBool("diff")
			opts.Output, _ = cmd.Flags().GetString("output")

			info, err := os.Stat(args[0])
			if err != nil {
				return apperrors.Wrap(apperrors.CodeIO, "reading source", err).WithDetail("file", args[0])
			}

			if info.IsDir() {
				if opts.Output != "" {
					return apperrors.New(apperrors.CodeConfig, "--output is only valid for single-file syncs")
				}
				return runSyncDir(cmd, s, args[0], args[1], opts)
			}
			return runSyncFile(cmd, s, args[0], args[1], opts)
		},
	}

	cmd.Flags().BoolP("dry-run", "n", false, "compute changes without writing")
	cmd.Flags().Bool("diff", false, "print a unified diff of the changes")
	cmd.Flags().StringP("output", "o", "", "write the result to this path instead of the target")

	return cmd
}

func runSyncFile(cmd *cobra.Command, s *syncer.Syncer, source, target string, opts syncer.Options) error {
	fr, err := s.SyncFile(cmd.Context(), source, target, opts)
	if err != nil {
		return err
	}

	if fr.Diff != "" {
		fmt.Fprint(cmd.OutOrStdout(), fr.Diff)
	}
	if fr.Changed {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: synchronized\n", target)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: up to date\n", target)
	}
	return nil
}

func runSyncDir(cmd *cobra.Command, s *syncer.Syncer, sourceDir, stubDir string, opts syncer.Options) error {
	dr, err := s.SyncDir(cmd.Context(), sourceDir, stubDir, opts)
	if err != nil {
		return err
	}

	for _, fr := range dr.Results {
		if fr.Diff != "" {
			fmt.Fprint(cmd.OutOrStdout(), fr.Diff)
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d pairs, %d changed, %d skipped\n",
		len(dr.Results), dr.Changed(), len(dr.Skipped))
	return nil
}

func collectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "collect <source>",
		Short: "Print the docstring mapping of a source file",
		Long: `Parse a Python file and print every declaration address with its
docstring. Useful for inspecting what a sync would transplant.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return apperrors.Wrap(apperrors.CodeIO, "reading source", err).WithDetail("file", args[0])
			}

			engine := docsync.NewEngine(ast.NewParser(), docsync.Options{Indent: cfg.Sync.Indent()})
			docs, err := engine.Collect(cmd.Context(), data)
			if err != nil {
				return err
			}

			format, _ := cmd.Flags().GetString("format")
			return printMapping(cmd, docs, format)
		},
	}
}

func printMapping(cmd *cobra.Command, docs docsync.Mapping, format string) error {
	keys := make([]string, 0, len(docs))
	for k := range docs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	if format == "json" {
		type entry struct {
			Address   string `json:"address"`
			Present   bool   `json:"present"`
			Docstring string `json:"docstring,omitempty"`
		}
		entries := make([]entry, 0, len(keys))
		for _, k := range keys {
			d := docs[k]
			entries = append(entries, entry{Address: k, Present: d.Present, Docstring: d.Text})
		}
		out, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, "encoding mapping", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	}

	for _, k := range keys {
		name := k
		if name == "" {
			name = "<module>"
		}
		d := docs[k]
		if !d.Present {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t(no docstring)\n", name)
			continue
		}
		summary := d.Text
		if i := strings.IndexByte(summary, '\n'); i >= 0 {
			summary = summary[:i] + "..."
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", name, summary)
	}
	return nil
}

func watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <source-dir> <stub-dir>",
		Short: "Watch a source tree and keep its stubs synchronized",
		Long: `Perform an initial directory sync and then re-sync stubs as their source
files change. By default the watcher detaches into the background; use
--foreground to keep it attached to the terminal.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			foreground, _ := cmd.Flags().GetBool("foreground")
			if !foreground {
				pid, err := watch.StartDaemon(args[0], args[1])
				if err != nil {
					return apperrors.Wrap(apperrors.CodeInternal, "starting watcher daemon", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "watcher started (pid %d)\n", pid)
				return nil
			}
			return runWatch(cmd, args[0], args[1])
		},
	}

	cmd.Flags().Bool("foreground", false, "run in the foreground instead of detaching")

	cmd.AddCommand(
		watchStatusCmd(),
		watchStopCmd(),
	)

	return cmd
}

func runWatch(cmd *cobra.Command, sourceDir, stubDir string) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	s := buildSyncer(cfg, log)

	w, err := watch.NewWatcher(watch.Config{
		SourceDir:         sourceDir,
		StubDir:           stubDir,
		Syncer:            s,
		BatchDelay:        time.Duration(cfg.Watch.BatchDelayMS) * time.Millisecond,
		MaxSyncsPerSecond: cfg.Watch.MaxSyncsPerSecond,
		Burst:             cfg.Watch.Burst,
		Log:               log,
	})
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "creating watcher", err)
	}

	absSource, _ := filepath.Abs(sourceDir)
	absStub, _ := filepath.Abs(stubDir)
	state := &watch.WatcherState{
		PID:       os.Getpid(),
		PairID:    hash.PairID(absSource, absStub),
		SourceDir: absSource,
		StubDir:   absStub,
		StartedAt: time.Now().UTC(),
	}
	if err := watch.SaveState(state); err != nil {
		log.Warn("Failed to save watcher state", "error", err)
	}
	defer watch.RemoveState(os.Getpid())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func watchStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "List running watchers",
		RunE: func(cmd *cobra.Command, args []string) error {
			states, err := watch.ListStates()
			if err != nil {
				return apperrors.Wrap(apperrors.CodeIO, "listing watcher state", err)
			}
			if len(states) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no watchers running")
				return nil
			}
			for _, st := range states {
				fmt.Fprintf(cmd.OutOrStdout(), "pid %d\t%s -> %s\t%d files\tsince %s\n",
					st.PID, st.SourceDir, st.StubDir, st.FileCount, st.StartedAt.Format(time.RFC3339))
			}
			return nil
		},
	}
}

func watchStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop [pid]",
		Short: "Stop a running watcher (all watchers if no pid is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				stopped, err := watch.StopAllDaemons()
				if err != nil {
					return apperrors.Wrap(apperrors.CodeInternal, "stopping watchers", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "stopped %d watcher(s)\n", stopped)
				return nil
			}

			pid, err := strconv.Atoi(args[0])
			if err != nil {
				return apperrors.New(apperrors.CodeConfig, "pid must be an integer").WithDetail("pid", args[0])
			}
			if err := watch.StopDaemon(pid); err != nil {
				return apperrors.Wrap(apperrors.CodeInternal, "stopping watcher", err).WithDetail("pid", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "stopped watcher %d\n", pid)
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("stubdoc %s\n", version)
			fmt.Printf("  commit: %s\n", commit)
			fmt.Printf("  built:  %s\n", date)
		},
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, *logger.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, apperrors.Wrap(apperrors.CodeConfig, "loading configuration", err)
	}

	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		cfg.Log.Level = "debug"
	}

	log, err := newLogger(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

func newLogger(cfg config.LogConfig) (*logger.Logger, error) {
	if cfg.File == "" {
		return logger.New(cfg.Level, cfg.Format), nil
	}
	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeIO, "opening log file", err).WithDetail("file", cfg.File)
	}
	return logger.NewWithWriter(f, cfg.Level, cfg.Format), nil
}

func buildSyncer(cfg *config.Config, log *logger.Logger) *syncer.Syncer {
	engine := docsync.NewEngine(ast.NewParser(), docsync.Options{Indent: cfg.Sync.Indent()})
	return syncer.New(engine, cfg.Sync, log)
}
