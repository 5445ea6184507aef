// Package main provides the CLI entrypoint for keyai.
package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/keyai/internal/config"
	"github.com/verte-zerg/keyai/internal/corpus"
	"github.com/verte-zerg/keyai/internal/model"
	"github.com/verte-zerg/keyai/internal/qlearn"
	"github.com/verte-zerg/keyai/internal/stats"
	"github.com/verte-zerg/keyai/internal/statsui"
	"github.com/verte-zerg/keyai/internal/store"
	"github.com/verte-zerg/keyai/internal/tui"
)

const (
	defaultLineLength      = 80
	defaultExplorationLow  = 0.2
	defaultExplorationHigh = 1.0
	defaultRounds          = 10
	defaultLearningRate    = 0.5
	defaultDiscount        = 0.95
	defaultSkipWindow      = 3
	defaultCurveWindow     = 20
	defaultTopTrigrams     = 15
)

var (
	practiceCorpusPath      string
	practiceCharset         string
	practiceLineLength      int
	practiceExplorationLow  float64
	practiceExplorationHigh float64
	practiceRounds          int
	practiceLearningRate    float64
	practiceDiscount        float64
	practiceSeed            int64
	practiceSkip            bool
	practiceSkipWindow      int

	statsSince       string
	statsLast        int
	statsCurveWindow int
	statsTop         int
	statsPlain       bool

	fetchURL   string
	fetchForce bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "keyai",
		Short:         "Adaptive trigram typing trainer",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPracticeCmd,
	}
	addCorpusFlags(rootCmd)
	rootCmd.Flags().IntVar(&practiceLineLength, "line-length", defaultLineLength, "maximum characters per generated line")
	rootCmd.Flags().Float64Var(&practiceExplorationLow, "exploration-low", defaultExplorationLow, "lowest exploration rate (0-1)")
	rootCmd.Flags().Float64Var(&practiceExplorationHigh, "exploration-high", defaultExplorationHigh, "highest exploration rate (0-1)")
	rootCmd.Flags().IntVar(&practiceRounds, "rounds", defaultRounds, "rounds per exploration cycle")
	rootCmd.Flags().Float64Var(&practiceLearningRate, "learning-rate", defaultLearningRate, "value update weight (0-1]")
	rootCmd.Flags().Float64Var(&practiceDiscount, "discount", defaultDiscount, "future value discount (0-1)")
	rootCmd.Flags().Int64Var(&practiceSeed, "seed", 0, "random seed (0 uses the clock)")
	rootCmd.Flags().BoolVar(&practiceSkip, "skip", false, "recover from skipped characters")
	rootCmd.Flags().IntVar(&practiceSkipWindow, "skip-window", defaultSkipWindow, "characters to match after a skipped one")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newFetchCmd())
	rootCmd.AddCommand(newStatsCmd())

	return rootCmd
}

func addCorpusFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&practiceCorpusPath, "corpus", "", "training corpus path")
	cmd.Flags().StringVar(&practiceCharset, "charset", corpus.DefaultCharset, "allowed characters, ranges like a-z")
}

func runPracticeCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyCorpusConfig(cmd, fileCfg)
	applyIntConfig(cmd, "line-length", &practiceLineLength, fileCfg.Practice.LineLength)
	applyFloatConfig(cmd, "exploration-low", &practiceExplorationLow, fileCfg.Learning.ExplorationLow)
	applyFloatConfig(cmd, "exploration-high", &practiceExplorationHigh, fileCfg.Learning.ExplorationHigh)
	applyIntConfig(cmd, "rounds", &practiceRounds, fileCfg.Learning.Rounds)
	applyFloatConfig(cmd, "learning-rate", &practiceLearningRate, fileCfg.Learning.LearningRate)
	applyFloatConfig(cmd, "discount", &practiceDiscount, fileCfg.Learning.Discount)
	applyInt64Config(cmd, "seed", &practiceSeed, fileCfg.Learning.Seed)
	applyBoolConfig(cmd, "skip", &practiceSkip, fileCfg.Skip.Enabled)
	applyIntConfig(cmd, "skip-window", &practiceSkipWindow, fileCfg.Skip.Window)

	cfg := model.Config{
		CorpusPath:      practiceCorpusPath,
		Charset:         practiceCharset,
		LineLength:      practiceLineLength,
		ExplorationLow:  practiceExplorationLow,
		ExplorationHigh: practiceExplorationHigh,
		Rounds:          practiceRounds,
		LearningRate:    practiceLearningRate,
		Discount:        practiceDiscount,
		Seed:            practiceSeed,
		SkipEnabled:     practiceSkip,
		SkipWindow:      practiceSkipWindow,
	}
	if err := validateConfig(cfg); err != nil {
		return err
	}

	engine, err := loadEngine(cfg)
	if err != nil {
		return err
	}
	modelPath := config.DefaultModelPath()
	loaded, err := engine.Load(modelPath)
	if err != nil {
		logErrf("failed to load model, starting fresh: %v\n", err)
	}

	var roundStore tui.RoundStore
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		logErrf("failed to open db, history disabled: %v\n", err)
	} else {
		roundStore = st
		defer func() {
			if cerr := st.Close(); cerr != nil {
				logErrf("failed to close db: %v\n", cerr)
			}
		}()
	}

	m := tui.NewModel(cfg, engine, roundStore, modelPath, uuid.NewString(), loaded)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	if m.Completed() > 0 {
		logErrf("Completed %d rounds. Model saved to %s\n", m.Completed(), modelPath)
	}
	return nil
}

func loadEngine(cfg model.Config) (*qlearn.Engine, error) {
	charset, err := corpus.ParseCharset(cfg.Charset)
	if err != nil {
		return nil, fmt.Errorf("invalid --charset: %w", err)
	}
	path := resolveCorpusPath(cfg)
	text, err := corpus.Load(path, charset)
	if err != nil {
		return nil, corpusLoadError(path, err)
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	engine, err := qlearn.New(text, qlearn.Params{
		LearningRate:    cfg.LearningRate,
		Discount:        cfg.Discount,
		ExplorationLow:  cfg.ExplorationLow,
		ExplorationHigh: cfg.ExplorationHigh,
		Rounds:          cfg.Rounds,
	}, rand.New(rand.NewSource(seed)))
	if err != nil {
		return nil, fmt.Errorf("failed to build trainer: %w", err)
	}
	return engine, nil
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
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newFetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download the training corpus",
		Args:  cobra.NoArgs,
		RunE:  runFetchCmd,
	}
	cmd.Flags().StringVar(&fetchURL, "url", "", "corpus URL")
	cmd.Flags().StringVar(&practiceCorpusPath, "corpus", "", "destination path")
	cmd.Flags().BoolVar(&fetchForce, "force", false, "overwrite existing corpus")
	return cmd
}

func runFetchCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "url", &fetchURL, fileCfg.Corpus.URL)
	applyStringConfig(cmd, "corpus", &practiceCorpusPath, fileCfg.Corpus.Path)
	url := fetchURL
	if url == "" {
		url = corpus.DefaultURL
	}
	dest := resolveCorpusPath(model.Config{CorpusPath: practiceCorpusPath})

	logErrf("Fetching %s...\n", url)
	dl, err := corpus.Fetch(context.Background(), url, dest, fetchForce)
	if err != nil {
		return fmt.Errorf("failed to fetch corpus: %w", err)
	}
	if dl.Cached {
		logErrf("Corpus already present at %s (use --force to replace)\n", dl.Path)
		return nil
	}
	logErrf("Wrote %s (%d bytes)\n", dl.Path, dl.Bytes)
	return nil
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show stats",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	addCorpusFlags(cmd)
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N rounds")
	cmd.Flags().IntVar(&statsCurveWindow, "curve-window", defaultCurveWindow, "moving average window")
	cmd.Flags().IntVar(&statsTop, "top", defaultTopTrigrams, "number of trigrams to list")
	cmd.Flags().BoolVar(&statsPlain, "plain", false, "print a plain report instead of the TUI")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveStatsConfig(statsSince, statsLast, statsCurveWindow, statsTop)
	if err != nil {
		return err
	}

	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyCorpusConfig(cmd, fileCfg)
	hardest := loadHardest(model.Config{
		CorpusPath:   practiceCorpusPath,
		Charset:      practiceCharset,
		LearningRate: defaultLearningRate,
		Discount:     defaultDiscount,
		Rounds:       defaultRounds,
	}, cfg.TopTrigrams)

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	if statsPlain {
		report, err := stats.BuildReport(context.Background(), st, cfg, hardest)
		if err != nil {
			return fmt.Errorf("failed to build report: %w", err)
		}
		return stats.RenderReport(cmd.OutOrStdout(), report, cfg.CurveWindow, stats.TerminalWidth())
	}

	load := func(ctx context.Context, c model.StatsConfig) (stats.Report, error) {
		return stats.BuildReport(ctx, st, c, hardest)
	}
	program := tea.NewProgram(statsui.NewModel(load, cfg), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

// loadHardest reads the learned values for the stats views. A missing corpus
// or model only hides the learned column.
func loadHardest(cfg model.Config, top int) []model.TrigramValue {
	engine, err := loadEngine(cfg)
	if err != nil {
		logErrf("learned trigrams unavailable: %v\n", err)
		return nil
	}
	if _, err := engine.Load(config.DefaultModelPath()); err != nil {
		logErrf("failed to load model: %v\n", err)
		return nil
	}
	return engine.Values().Hardest(top)
}

func resolveStatsConfig(since string, last, window, top int) (model.StatsConfig, error) {
	var sinceTime *time.Time
	if since != "" {
		parsed, err := time.ParseInLocation("2006-01-02", since, time.Local)
		if err != nil {
			return model.StatsConfig{}, fmt.Errorf("invalid --since value: %w", err)
		}
		sinceTime = &parsed
	}
	if last < 0 {
		return model.StatsConfig{}, fmt.Errorf("--last must be >= 0")
	}
	if window <= 0 {
		return model.StatsConfig{}, fmt.Errorf("--curve-window must be > 0")
	}
	if top < 0 {
		return model.StatsConfig{}, fmt.Errorf("--top must be >= 0")
	}
	return model.StatsConfig{
		Since:       sinceTime,
		Last:        last,
		CurveWindow: window,
		TopTrigrams: top,
	}, nil
}

func applyCorpusConfig(cmd *cobra.Command, fileCfg config.FileConfig) {
	applyStringConfig(cmd, "corpus", &practiceCorpusPath, fileCfg.Corpus.Path)
	applyStringConfig(cmd, "charset", &practiceCharset, fileCfg.Corpus.Charset)
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

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyInt64Config(cmd *cobra.Command, name string, target, value *int64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# keyai configuration
# Uncomment a value to enable it. CLI flags override config values.

[corpus]
# url = %q
# path = %q
# charset = %q          # Allowed characters, ranges like a-z

[practice]
# line-length = %d          # Maximum characters per generated line

[learning]
# exploration-low = %.2f   # Exploration rate at the end of a cycle (0-1)
# exploration-high = %.2f  # Exploration rate at the start of a cycle (0-1)
# rounds = %d              # Rounds per exploration cycle
# learning-rate = %.2f     # Weight of a new observation (0-1]
# discount = %.2f          # Weight of the best follow-up value (0-1)
# seed = 0                 # Random seed, 0 uses the clock

[skip]
# enabled = false          # Recover from skipped characters
# window = %d               # Characters to match after a skipped one
`,
		corpus.DefaultURL,
		config.DefaultCorpusPath(),
		corpus.DefaultCharset,
		defaultLineLength,
		defaultExplorationLow,
		defaultExplorationHigh,
		defaultRounds,
		defaultLearningRate,
		defaultDiscount,
		defaultSkipWindow,
	)
}

func validateConfig(cfg model.Config) error {
	if cfg.LineLength <= 0 {
		return fmt.Errorf("--line-length must be > 0")
	}
	if cfg.ExplorationLow < 0 || cfg.ExplorationLow > 1 {
		return fmt.Errorf("--exploration-low must be between 0 and 1")
	}
	if cfg.ExplorationHigh < 0 || cfg.ExplorationHigh > 1 {
		return fmt.Errorf("--exploration-high must be between 0 and 1")
	}
	if cfg.ExplorationLow > cfg.ExplorationHigh {
		return fmt.Errorf("--exploration-low must not exceed --exploration-high")
	}
	if cfg.Rounds <= 0 {
		return fmt.Errorf("--rounds must be > 0")
	}
	if cfg.LearningRate <= 0 || cfg.LearningRate > 1 {
		return fmt.Errorf("--learning-rate must be in (0, 1]")
	}
	if cfg.Discount < 0 || cfg.Discount > 1 {
		return fmt.Errorf("--discount must be between 0 and 1")
	}
	if cfg.SkipEnabled && cfg.SkipWindow <= 0 {
		return fmt.Errorf("--skip-window must be > 0")
	}
	return nil
}

func resolveCorpusPath(cfg model.Config) string {
	if cfg.CorpusPath != "" {
		return cfg.CorpusPath
	}
	return config.DefaultCorpusPath()
}

func corpusLoadError(path string, err error) error {
	if !errors.Is(err, corpus.ErrMissing) {
		return fmt.Errorf("failed to load corpus: %w", err)
	}
	lines := []string{
		fmt.Sprintf("failed to load corpus: %v", err),
		fmt.Sprintf("expected corpus at: %s", path),
		"Run: keyai fetch",
	}
	return fmt.Errorf("%s", strings.Join(lines, "\n"))
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
