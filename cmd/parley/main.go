package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/parleylab/parley/internal/agent"
	"github.com/parleylab/parley/internal/batch"
	"github.com/parleylab/parley/internal/config"
	"github.com/parleylab/parley/internal/core"
	"github.com/parleylab/parley/internal/engine"
	"github.com/parleylab/parley/internal/export"
	"github.com/parleylab/parley/internal/judge"
	"github.com/parleylab/parley/internal/persona"
	"github.com/parleylab/parley/internal/scenario"
	"github.com/parleylab/parley/internal/storage"
	"github.com/parleylab/parley/web/handlers"
)

var (
	configPath string
	verbose    bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "parley",
	Short: "LLM negotiation simulator",
	Long: `parley runs price negotiations between two LLM agents.

Each agent gets a role, private constraints, and an optional persona,
then haggles over a scenario while a judge watches for agreement and
a concession analyzer scores how each side moved.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (default: ~/.parley/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(scenariosCmd)
	rootCmd.AddCommand(personasCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(serveCmd)
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		cfg, err := config.LoadFrom(configPath)
		if err != nil {
			return nil, err
		}
		if env, err := config.LoadEnv(".env"); err == nil {
			config.ApplyEnvOverrides(cfg, env)
		}
		config.ApplyProcessEnv(cfg)
		return cfg, nil
	}
	return config.Load()
}

func getStorage(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	store, err := cfg.CreateStorage()
	if err != nil {
		return nil, err
	}
	if err := store.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	return store, nil
}

func loadScenarios(cfg *config.Config) *scenario.Loader {
	loader := scenario.NewLoader()
	if cfg.Defaults.ScenarioDir != "" {
		for _, err := range loader.LoadDir(cfg.Defaults.ScenarioDir) {
			slog.Warn("scenario load problem", "error", err)
		}
	}
	return loader
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// run command

var (
	runScenario  string
	runPersonaA  string
	runPersonaB  string
	runMaxRounds int
	runNoSave    bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a single negotiation",
	Long: `Run one negotiation and print the transcript as it happens.

Examples:
  parley run
  parley run --persona-a aggressive --persona-b desperate
  parley run --scenario apartment --rounds 6`,
	RunE: runNegotiation,
}

func init() {
	runCmd.Flags().StringVarP(&runScenario, "scenario", "s", "", "Scenario name")
	runCmd.Flags().StringVarP(&runPersonaA, "persona-a", "a", "", "Party A persona")
	runCmd.Flags().StringVarP(&runPersonaB, "persona-b", "b", "", "Party B persona")
	runCmd.Flags().IntVarP(&runMaxRounds, "rounds", "r", 0, "Maximum rounds")
	runCmd.Flags().BoolVar(&runNoSave, "no-save", false, "Skip persistence")
}

func runNegotiation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyRunDefaults(cfg)

	ctx, cancel := signalContext()
	defer cancel()

	loader := loadScenarios(cfg)
	sc := loader.Get(runScenario)
	if sc == nil {
		return fmt.Errorf("scenario not found: %s", runScenario)
	}

	o, err := cfg.CreateOracle()
	if err != nil {
		return err
	}
	if !o.Available() {
		return fmt.Errorf("no API key configured; set OPENAI_API_KEY or oracle.api_key")
	}
	jo, err := cfg.CreateJudgeOracle()
	if err != nil {
		return err
	}

	var store storage.Storage
	if !runNoSave {
		store, err = getStorage(ctx, cfg)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	a, err := agent.New(core.PartyA, runPersonaA, sc, o)
	if err != nil {
		return err
	}
	b, err := agent.New(core.PartyB, runPersonaB, sc, o)
	if err != nil {
		return err
	}

	eng := engine.New(judge.New(jo, nil), store, nil)

	fmt.Printf("Negotiating %q: %s (%s) vs %s (%s)\n\n",
		sc.Name, runPersonaA, sc.PartyASecrets.Role, runPersonaB, sc.PartyBSecrets.Role)

	var final engine.ResultEvent
	for ev := range eng.Run(ctx, a, b, runMaxRounds) {
		switch ev := ev.(type) {
		case engine.TurnEvent:
			fmt.Printf("[Round %d] %s: %s\n\n", ev.Turn.Round, ev.Turn.Party.DisplayName(), ev.Turn.Text)
		case engine.ResultEvent:
			final = ev
		}
	}

	if final.Result != nil {
		printResultSummary(final.Result)
	}
	return final.Err
}

func applyRunDefaults(cfg *config.Config) {
	if runScenario == "" {
		runScenario = cfg.Defaults.Scenario
	}
	if runPersonaA == "" {
		runPersonaA = cfg.Defaults.PersonaA
	}
	if runPersonaB == "" {
		runPersonaB = cfg.Defaults.PersonaB
	}
	if runMaxRounds <= 0 {
		runMaxRounds = cfg.Defaults.MaxRounds
	}
}

func printResultSummary(result *core.Result) {
	fmt.Println(strings.Repeat("-", 60))
	if result.AgreementReached && result.Terms != nil {
		fmt.Printf("Agreement at $%.2f after %d round(s)\n", result.Terms.Price, result.RoundsUsed)
		if result.UtilityA != nil && result.UtilityB != nil {
			fmt.Printf("Utility: A %.2f, B %.2f\n", *result.UtilityA, *result.UtilityB)
		}
	} else {
		fmt.Printf("No agreement after %d round(s)\n", result.RoundsUsed)
	}
	if result.Judge != nil && result.Judge.Explanation != "" {
		fmt.Printf("Judge: %s\n", result.Judge.Explanation)
	}
	if result.Concessions != nil {
		fmt.Printf("Concessions: A %d ($%.0f, %s), B %d ($%.0f, %s)\n",
			result.Concessions.PartyA.Count, result.Concessions.PartyA.TotalAmount, result.Concessions.PartyA.Pattern,
			result.Concessions.PartyB.Count, result.Concessions.PartyB.TotalAmount, result.Concessions.PartyB.Pattern)
	}
	fmt.Printf("ID: %s\n", result.ID)
}

// batch command

var (
	batchScenario string
	batchPersonas []string
	batchRuns     int
	batchRounds   int
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Run a sweep across persona pairings",
	Long: `Run every pairing of the given personas and print aggregate results.

Examples:
  parley batch --personas aggressive,fair,desperate --runs 3`,
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().StringVarP(&batchScenario, "scenario", "s", "", "Scenario name")
	batchCmd.Flags().StringSliceVar(&batchPersonas, "personas", []string{"none"}, "Personas to pair")
	batchCmd.Flags().IntVar(&batchRuns, "runs", 1, "Runs per pairing")
	batchCmd.Flags().IntVarP(&batchRounds, "rounds", "r", 0, "Maximum rounds")
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if batchScenario == "" {
		batchScenario = cfg.Defaults.Scenario
	}
	if batchRounds <= 0 {
		batchRounds = cfg.Defaults.MaxRounds
	}

	ctx, cancel := signalContext()
	defer cancel()

	loader := loadScenarios(cfg)
	sc := loader.Get(batchScenario)
	if sc == nil {
		return fmt.Errorf("scenario not found: %s", batchScenario)
	}

	o, err := cfg.CreateOracle()
	if err != nil {
		return err
	}
	jo, err := cfg.CreateJudgeOracle()
	if err != nil {
		return err
	}
	store, err := getStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	eng := engine.New(judge.New(jo, nil), store, nil)
	runner := batch.NewRunner(eng, o, nil)

	summary, err := runner.Run(ctx, batch.Spec{
		Scenario:     sc,
		PersonaPairs: batch.AllPairs(batchPersonas),
		RunsPerPair:  batchRuns,
		MaxRounds:    batchRounds,
	})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
	fmt.Fprintln(w, "PERSONA A\tPERSONA B\tRUNS\tAGREED\tAVG ROUNDS\tAVG PRICE\tUTIL A\tUTIL B")
	for _, pair := range summary.Pairs {
		price, utilA, utilB := "-", "-", "-"
		if pair.AvgPrice != nil {
			price = fmt.Sprintf("$%.0f", *pair.AvgPrice)
		}
		if pair.AvgUtilityA != nil {
			utilA = fmt.Sprintf("%.2f", *pair.AvgUtilityA)
		}
		if pair.AvgUtilityB != nil {
			utilB = fmt.Sprintf("%.2f", *pair.AvgUtilityB)
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%.0f%%\t%.1f\t%s\t%s\t%s\n",
			pair.PersonaA, pair.PersonaB, pair.Runs, pair.AgreementRate*100, pair.AvgRounds, price, utilA, utilB)
	}
	w.Flush()
	fmt.Printf("\nTotal runs: %d\n", summary.TotalRuns)
	return nil
}

// list command

var listLimit int

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored negotiations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, cancel := signalContext()
		defer cancel()

		store, err := getStorage(ctx, cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		results, err := store.ListNegotiations(ctx, storage.Filter{}, listLimit)
		if err != nil {
			return err
		}
		if len(results) == 0 {
			fmt.Println("No negotiations stored.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSCENARIO\tPERSONAS\tROUNDS\tAGREED\tPRICE\tCREATED")
		for _, r := range results {
			price := "-"
			if r.Terms != nil {
				price = fmt.Sprintf("$%.0f", r.Terms.Price)
			}
			fmt.Fprintf(w, "%s\t%s\t%s vs %s\t%d\t%v\t%s\t%s\n",
				shortID(r.ID), r.Scenario, r.PersonaA, r.PersonaB,
				r.RoundsUsed, r.AgreementReached, price,
				r.CreatedAt.Format("Jan 2 15:04"))
		}
		return w.Flush()
	},
}

func init() {
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 20, "Maximum results")
}

// show command

var showCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show a stored negotiation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, cancel := signalContext()
		defer cancel()

		store, err := getStorage(ctx, cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		result, err := findNegotiation(ctx, store, args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Negotiation %s (%s)\n\n", result.ID, result.Scenario)
		for _, turn := range result.Turns {
			fmt.Printf("[Round %d] %s: %s\n", turn.Round, turn.Party.DisplayName(), turn.Text)
			if turn.PriceOffer != nil {
				fmt.Printf("          offer: $%.2f\n", *turn.PriceOffer)
			}
			fmt.Println()
		}
		printResultSummary(result)
		return nil
	},
}

// findNegotiation resolves a full or shortened ID.
func findNegotiation(ctx context.Context, store storage.Storage, id string) (*core.Result, error) {
	if result, err := store.GetNegotiation(ctx, id); err == nil {
		return result, nil
	}
	results, err := store.ListNegotiations(ctx, storage.Filter{}, 0)
	if err != nil {
		return nil, err
	}
	for _, r := range results {
		if strings.HasPrefix(r.ID, id) {
			return r, nil
		}
	}
	return nil, fmt.Errorf("negotiation not found: %s", id)
}

// stats command

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, cancel := signalContext()
		defer cancel()

		store, err := getStorage(ctx, cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		stats, err := store.Statistics(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Negotiations: %d\n", stats.TotalNegotiations)
		fmt.Printf("Agreements:   %d (%.0f%%)\n", stats.AgreementsReached, stats.AgreementRate*100)
		fmt.Printf("Avg rounds:   %.1f\n", stats.AvgRoundsUsed)
		return nil
	},
}

// scenarios command

var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "List available scenarios",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		loader := loadScenarios(cfg)

		w := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tDESCRIPTION")
		for _, name := range loader.List() {
			sc := loader.Get(name)
			fmt.Fprintf(w, "%s\t%s\n", sc.Name, sc.Description)
		}
		return w.Flush()
	},
}

// personas command

var personasCmd = &cobra.Command{
	Use:   "personas",
	Short: "List available personas",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tDESCRIPTION")
		for _, p := range persona.DefaultPersonas() {
			fmt.Fprintf(w, "%s\t%s\t%s\n", p.ID, p.Name, p.Description)
		}
		return w.Flush()
	},
}

// export command

var (
	exportFormat string
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export [id]",
	Short: "Export a negotiation to a file",
	Long: `Export a stored negotiation as json, markdown, or pdf.

Examples:
  parley export abc123 --format markdown
  parley export abc123 --format pdf -o result.pdf`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, cancel := signalContext()
		defer cancel()

		store, err := getStorage(ctx, cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		result, err := findNegotiation(ctx, store, args[0])
		if err != nil {
			return err
		}

		exporter, err := export.GetExporter(export.Format(exportFormat))
		if err != nil {
			return err
		}

		path := exportOutput
		if path == "" {
			path = export.GenerateFilename(result, exporter.FileExtension())
		}
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()

		if err := exporter.Export(result, f); err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
		fmt.Printf("Exported to %s\n", path)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "json", "Export format (json, markdown, pdf)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file path")
}

// serve command

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if servePort == 0 {
			servePort = cfg.Server.Port
		}

		ctx, cancel := signalContext()
		defer cancel()

		store, err := getStorage(ctx, cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		o, err := cfg.CreateOracle()
		if err != nil {
			return err
		}
		jo, err := cfg.CreateJudgeOracle()
		if err != nil {
			return err
		}

		eng := engine.New(judge.New(jo, nil), store, nil)
		h := handlers.New(eng, o, store, loadScenarios(cfg), cfg.Defaults.MaxRounds, nil)

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", servePort),
			Handler: h.Router(),
		}
		go func() {
			<-ctx.Done()
			srv.Shutdown(context.Background())
		}()

		fmt.Printf("Listening on http://localhost:%d\n", servePort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Server port")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
