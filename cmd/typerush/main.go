// Package main provides the CLI entrypoint for typerush.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/typerush/internal/client"
	"github.com/verte-zerg/typerush/internal/config"
	"github.com/verte-zerg/typerush/internal/game"
	"github.com/verte-zerg/typerush/internal/generator"
	"github.com/verte-zerg/typerush/internal/model"
	"github.com/verte-zerg/typerush/internal/stats"
	"github.com/verte-zerg/typerush/internal/statsui"
	"github.com/verte-zerg/typerush/internal/store"
	"github.com/verte-zerg/typerush/internal/tui"
)

const (
	defaultDifficulty  = "medium"
	defaultCurveWindow = 5
	defaultTimeout     = 5 * time.Second
)

var (
	playPlayer     string
	playDifficulty string
	playCorpus     string
	playWordList   string
	playGateway    string
	playTimeout    time.Duration

	statsPlayer      string
	statsDifficulty  string
	statsSince       string
	statsLast        int
	statsCurveWindow int
	statsMetric      string
	statsPlain       bool

	boardMetric  string
	boardLimit   int
	boardGateway string

	achievementsPlayer string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "typerush",
		Short:         "Arcade typing game",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPlayCmd,
	}

	rootCmd.Flags().StringVar(&playPlayer, "player", "", "player name (default: login name)")
	rootCmd.Flags().StringVar(&playDifficulty, "difficulty", defaultDifficulty, "easy, medium or hard")
	rootCmd.Flags().StringVar(&playCorpus, "corpus", "", "YAML corpus file with passages per difficulty")
	rootCmd.Flags().StringVar(&playWordList, "wordlist", "", "word list name or path; builds texts from random words")
	rootCmd.Flags().StringVar(&playGateway, "gateway", "", "gateway URL (default: local database)")
	rootCmd.Flags().DurationVar(&playTimeout, "timeout", defaultTimeout, "gateway request timeout")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newLeaderboardCmd())
	rootCmd.AddCommand(newAchievementsCmd())
	rootCmd.AddCommand(newWordlistsCmd())
	rootCmd.AddCommand(newServeCmd())

	return rootCmd
}

func runPlayCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "player", &playPlayer, fileCfg.Game.Player)
	applyStringConfig(cmd, "difficulty", &playDifficulty, fileCfg.Game.Difficulty)
	applyStringConfig(cmd, "corpus", &playCorpus, fileCfg.Game.Corpus)
	applyStringConfig(cmd, "wordlist", &playWordList, fileCfg.Game.WordList)
	applyStringConfig(cmd, "gateway", &playGateway, fileCfg.Gateway.URL)
	timeout, err := fileCfg.Gateway.TimeoutDuration()
	if err != nil {
		return err
	}
	applyDurationConfig(cmd, "timeout", &playTimeout, timeout)

	difficulty, err := model.ParseDifficulty(playDifficulty)
	if err != nil {
		return fmt.Errorf("invalid --difficulty: %w", err)
	}
	if playTimeout <= 0 {
		return fmt.Errorf("--timeout must be > 0")
	}
	player, err := resolvePlayer(playPlayer)
	if err != nil {
		return err
	}
	cfg := model.Config{
		Player:     player,
		Difficulty: difficulty,
		Corpus:     playCorpus,
		WordList:   playWordList,
		GatewayURL: playGateway,
		Timeout:    playTimeout,
	}

	source, err := newTextSource(cfg)
	if err != nil {
		return err
	}

	st, err := openLocalStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	var gateway tui.Gateway = st
	if cfg.GatewayURL != "" {
		c, err := client.New(cfg.GatewayURL, cfg.Timeout)
		if err != nil {
			return fmt.Errorf("failed to create gateway client: %w", err)
		}
		gateway = c
	}

	profile, err := st.LoadProfile(context.Background(), cfg.Player)
	if err != nil {
		logErrf("failed to load profile: %v\n", err)
		profile = model.Profile{}
	}
	state := game.Restore(profile)
	if cmd.Flags().Changed("difficulty") || fileCfg.Game.Difficulty != nil || !profile.Difficulty.Valid() {
		state = game.Reduce(state, game.SetDifficulty{Difficulty: cfg.Difficulty})
	}

	session := game.NewSession(state, source, nil)
	m := tui.NewModel(cfg, session, gateway, st)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func newTextSource(cfg model.Config) (generator.Source, error) {
	if cfg.WordList != "" {
		path := config.ResolveWordListPath(cfg.WordList)
		words, err := generator.LoadWords(path)
		if err != nil {
			return nil, wordListLoadError(cfg.WordList, path, err)
		}
		return generator.NewWordList(words, generator.DefaultPunct), nil
	}
	if cfg.Corpus != "" {
		corpus, err := generator.LoadCorpus(cfg.Corpus)
		if err != nil {
			return nil, fmt.Errorf("failed to load corpus: %w", err)
		}
		return generator.NewCorpus(corpus), nil
	}
	return generator.New(), nil
}

func resolvePlayer(name string) (string, error) {
	if name = strings.TrimSpace(name); name != "" {
		return name, nil
	}
	player, err := config.DefaultPlayer(config.DefaultPlayerIDPath())
	if err != nil {
		return "", fmt.Errorf("failed to resolve player: %w", err)
	}
	return player, nil
}

func openLocalStore() (*store.Store, error) {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	return st, nil
}

func closeStore(st *store.Store) {
	if cerr := st.Close(); cerr != nil {
		logErrf("failed to close db: %v\n", cerr)
	}
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Browse session history, leaderboard and achievements",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsPlayer, "player", "", "player filter")
	cmd.Flags().StringVar(&statsDifficulty, "difficulty", "", "difficulty filter")
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N sessions")
	cmd.Flags().IntVar(&statsCurveWindow, "curve-window", defaultCurveWindow, "moving average window")
	cmd.Flags().StringVar(&statsMetric, "metric", store.MetricWPM, "leaderboard metric (wpm or accuracy)")
	cmd.Flags().BoolVar(&statsPlain, "plain", false, "print a text report instead of opening the browser")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	var sinceTime *time.Time
	if statsSince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", statsSince, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		sinceTime = &parsed
	}
	var difficulty model.Difficulty
	if statsDifficulty != "" {
		d, err := model.ParseDifficulty(statsDifficulty)
		if err != nil {
			return fmt.Errorf("invalid --difficulty: %w", err)
		}
		difficulty = d
	}
	if statsLast < 0 {
		return fmt.Errorf("--last must be >= 0")
	}
	if statsCurveWindow <= 0 {
		return fmt.Errorf("--curve-window must be > 0")
	}
	metric, _, err := store.NormalizeLeaderboard(statsMetric, 0)
	if err != nil {
		return fmt.Errorf("invalid --metric: %w", err)
	}

	cfg := model.StatsConfig{
		Player:      strings.TrimSpace(statsPlayer),
		Difficulty:  difficulty,
		Since:       sinceTime,
		Last:        statsLast,
		CurveWindow: statsCurveWindow,
		Metric:      metric,
		Limit:       store.DefaultLeaderboardLimit,
	}

	st, err := openLocalStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	if statsPlain {
		report, err := stats.BuildReport(cmd.Context(), st, cfg)
		if err != nil {
			return fmt.Errorf("failed to build report: %w", err)
		}
		return stats.RenderReport(cmd.OutOrStdout(), report, cfg)
	}

	m := statsui.NewModel(st, cfg)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

// leaderboardSource is satisfied by both the local store and the gateway client.
type leaderboardSource interface {
	Leaderboard(ctx context.Context, metric string, limit int) ([]model.LeaderboardEntry, error)
}

func newLeaderboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Print the leaderboard",
		Args:  cobra.NoArgs,
		RunE:  runLeaderboardCmd,
	}
	cmd.Flags().StringVar(&boardMetric, "metric", store.MetricWPM, "wpm or accuracy")
	cmd.Flags().IntVar(&boardLimit, "limit", store.DefaultLeaderboardLimit, "number of players")
	cmd.Flags().StringVar(&boardGateway, "gateway", "", "gateway URL (default: local database)")
	return cmd
}

func runLeaderboardCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "gateway", &boardGateway, fileCfg.Gateway.URL)
	if boardLimit <= 0 {
		return fmt.Errorf("--limit must be > 0")
	}
	metric, limit, err := store.NormalizeLeaderboard(boardMetric, boardLimit)
	if err != nil {
		return fmt.Errorf("invalid --metric: %w", err)
	}

	var src leaderboardSource
	if boardGateway != "" {
		c, err := client.New(boardGateway, defaultTimeout)
		if err != nil {
			return fmt.Errorf("failed to create gateway client: %w", err)
		}
		src = c
	} else {
		st, err := openLocalStore()
		if err != nil {
			return err
		}
		defer closeStore(st)
		src = st
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), defaultTimeout)
	defer cancel()
	entries, err := src.Leaderboard(ctx, metric, limit)
	if err != nil {
		return fmt.Errorf("failed to load leaderboard: %w", err)
	}
	return stats.RenderLeaderboard(cmd.OutOrStdout(), metric, entries)
}

func newAchievementsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "achievements",
		Short: "List achievements and which are unlocked",
		Args:  cobra.NoArgs,
		RunE:  runAchievementsCmd,
	}
	cmd.Flags().StringVar(&achievementsPlayer, "player", "", "player name (default: login name)")
	return cmd
}

func runAchievementsCmd(cmd *cobra.Command, _ []string) error {
	player, err := resolvePlayer(achievementsPlayer)
	if err != nil {
		return err
	}
	st, err := openLocalStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	profile, err := st.LoadProfile(cmd.Context(), player)
	if err != nil {
		return fmt.Errorf("failed to load profile: %w", err)
	}
	profile.UserID = player
	return stats.RenderAchievements(cmd.OutOrStdout(), profile)
}

func newWordlistsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "wordlists",
		Short: "List installed word lists",
		Args:  cobra.NoArgs,
		RunE:  runWordlistsCmd,
	}
}

func runWordlistsCmd(cmd *cobra.Command, _ []string) error {
	dir := config.DefaultWordListDir()
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			logErrf("No word lists found. Put one word per line in %s/<name>.txt\n", dir)
			return fmt.Errorf("word list directory does not exist")
		}
		return fmt.Errorf("failed to read word list directory: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".txt") {
			continue
		}
		names = append(names, strings.TrimSuffix(name, ".txt"))
	}
	if len(names) == 0 {
		logErrf("No word lists found. Put one word per line in %s/<name>.txt\n", dir)
		return fmt.Errorf("no word lists found")
	}
	sort.Strings(names)
	for _, name := range names {
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), name); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyDurationConfig(cmd *cobra.Command, name string, target, value *time.Duration) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# typerush configuration
# Uncomment a value to enable it. CLI flags override config values.

[game]
# player = "me"           # Player name (default: login name)
# difficulty = %q     # easy, medium or hard
# corpus = "~/passages.yaml"  # YAML file with easy/medium/hard passages
# wordlist = "en"         # Word list name in %s, or a path

[gateway]
# url = "http://localhost:8080"  # Remote gateway; empty keeps sessions local
# timeout = %q            # Request timeout
`,
		defaultDifficulty,
		config.DefaultWordListDir(),
		defaultTimeout.String(),
	)
}

func wordListLoadError(name, path string, err error) error {
	lines := []string{
		fmt.Sprintf("failed to load word list: %v", err),
		fmt.Sprintf("expected word list at: %s", path),
		fmt.Sprintf("word list %q not found", name),
		"Run: typerush wordlists",
	}
	return fmt.Errorf("%s", strings.Join(lines, "\n"))
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
