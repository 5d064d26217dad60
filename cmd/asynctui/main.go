package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/san-kum/asynctui/internal/app"
	"github.com/san-kum/asynctui/internal/config"
	"github.com/san-kum/asynctui/internal/home"
	"github.com/san-kum/asynctui/internal/journal"
	"github.com/san-kum/asynctui/internal/logging"
)

var version = "0.1.0"

var (
	configFile string
	tickRate   int
	frameRate  int
	logLevel   string
	preset     string
)

// main registers the commands and exits with status 1 when the run fails.
func main() {
	rootCmd := &cobra.Command{
		Use:           "asynctui",
		Short:         "async terminal ui runtime",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runTUI,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.Flags().IntVar(&tickRate, "tick-rate", 0, "event tick interval in ms")
	rootCmd.Flags().IntVar(&frameRate, "frame-rate", -1, "frames per second, 0 renders unpaced")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration ("+strings.Join(config.ListPresets(), ", ")+")")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "print version and directories",
		RunE:  printVersion,
	}

	sessionsCmd := &cobra.Command{
		Use:   "sessions",
		Short: "list recorded sessions",
		RunE:  listSessions,
	}
	showCmd := &cobra.Command{
		Use:   "show [session_id]",
		Short: "print the action trace of a session",
		Args:  cobra.ExactArgs(1),
		RunE:  showSession,
	}
	sessionsCmd.AddCommand(showCmd)

	rootCmd.AddCommand(versionCmd, sessionsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Resolve(configFile)
	if err != nil {
		return nil, err
	}
	if preset != "" {
		if err := cfg.ApplyPreset(preset); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("tick-rate") {
		cfg.TickRate = tickRate
	}
	if cmd.Flags().Changed("frame-rate") {
		cfg.FrameRate = frameRate
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	return cfg, cfg.Validate()
}

func sessionStore(cfg *config.Config) *journal.Store {
	return journal.New(filepath.Join(cfg.DataDir, "sessions"))
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogPath(), cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Close()

	id := uuid.New().String()
	sessionLog := logger.With("session", id[:8])

	store := sessionStore(cfg)
	if err := store.Init(); err != nil {
		return err
	}
	session, err := store.Open(id)
	if err != nil {
		return err
	}

	rt, err := app.New(cfg,
		app.WithLogger(sessionLog),
		app.WithTracer(session),
		app.WithHomeOptions(home.WithLogView(logger.Ring())),
	)
	if err != nil {
		session.Close(journal.Summary{Err: err})
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErr := rt.Run(ctx)
	stats := rt.Stats()
	if err := session.Close(journal.Summary{
		Dispatched: stats.Dispatched,
		Dropped:    stats.Dropped,
		Err:        runErr,
	}); err != nil {
		sessionLog.Warn("session not saved", "err", err)
	}
	return runErr
}

func printVersion(cmd *cobra.Command, args []string) error {
	cfg, err := config.Resolve(configFile)
	if err != nil {
		return err
	}
	fmt.Printf("asynctui %s-%s\n\n", version, cfg.GitCommit)
	fmt.Printf("Config directory: %s\n", cfg.ConfigDir)
	fmt.Printf("Data directory: %s\n", cfg.DataDir)
	return nil
}

func listSessions(cmd *cobra.Command, args []string) error {
	cfg, err := config.Resolve(configFile)
	if err != nil {
		return err
	}
	sessions, err := sessionStore(cfg).List()
	if err != nil {
		return err
	}

	if len(sessions) == 0 {
		fmt.Println("no sessions found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTARTED\tDURATION\tDISPATCHED\tTRACED\tDROPPED\tERROR")

	for _, s := range sessions {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			s.ID,
			s.Started.Format("2006-01-02 15:04:05"),
			s.Ended.Sub(s.Started).Round(time.Millisecond),
			s.Dispatched,
			s.Traced,
			s.Dropped,
			s.Error,
		)
	}

	return w.Flush()
}

func showSession(cmd *cobra.Command, args []string) error {
	cfg, err := config.Resolve(configFile)
	if err != nil {
		return err
	}
	store := sessionStore(cfg)
	meta, err := store.Load(args[0])
	if err != nil {
		return err
	}
	entries, err := store.LoadActions(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("session %s: %d dispatched, %d traced, %d dropped\n",
		meta.ID, meta.Dispatched, meta.Traced, meta.Dropped)
	if meta.Error != "" {
		fmt.Printf("error: %s\n", meta.Error)
	}
	for _, e := range entries {
		fmt.Printf("%s  %s\n", e.Time.Format("15:04:05.000"), e.Action)
	}
	return nil
}
