package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/benreceveur/claude-workflow-engine/pkg/catalog"
	"github.com/benreceveur/claude-workflow-engine/pkg/config"
	"github.com/benreceveur/claude-workflow-engine/pkg/delegate"
	"github.com/benreceveur/claude-workflow-engine/pkg/feature"
	"github.com/benreceveur/claude-workflow-engine/pkg/history"
	"github.com/benreceveur/claude-workflow-engine/pkg/memory"
	"github.com/benreceveur/claude-workflow-engine/pkg/router"
	"github.com/benreceveur/claude-workflow-engine/pkg/skill"
)

var (
	routerFile string
	verbose    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cwe",
		Short: "Routes natural-language requests to skills, agents, or both",
		Long: `cwe scores every catalog skill and agent against a prompt and picks one
	execution strategy: a deterministic skill handler, an autonomous agent
	delegate, a hybrid of both, or direct handling when nothing qualifies.
	Accept/reject feedback feeds back into future scores.`,
	}

	rootCmd.PersistentFlags().StringVar(&routerFile, "router", "", "path to router config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(routeCmd())
	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(catalogCmd())
	rootCmd.AddCommand(feedbackCmd())
	rootCmd.AddCommand(validateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func routeCmd() *cobra.Command {
	var jsonOut bool
	var files []string
	var platform string

	cmd := &cobra.Command{
		Use:   "route [prompt]",
		Short: "Decide how a prompt would be handled, without executing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			engine, cleanup, err := buildEngine(cfg, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			decision := engine.Route(cmd.Context(), router.Request{
				Prompt: args[0],
				Context: &feature.Context{
					Files:    files,
					Platform: platform,
				},
			})

			if jsonOut {
				return printJSON(decision)
			}
			printDecision(decision)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the decision as JSON")
	cmd.Flags().StringArrayVar(&files, "file", nil, "context file (repeatable)")
	cmd.Flags().StringVar(&platform, "platform", "", "calling platform identifier")
	return cmd
}

func runCmd() *cobra.Command {
	var files []string

	cmd := &cobra.Command{
		Use:   "run [prompt]",
		Short: "Route a prompt and execute the chosen strategy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			engine, cleanup, err := buildEngine(cfg, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			prompt := args[0]
			decision := engine.Route(cmd.Context(), router.Request{
				Prompt:  prompt,
				Context: &feature.Context{Files: files},
			})
			printDecision(decision)

			output, err := execute(cmd.Context(), cfg, logger, decision, prompt)
			if err != nil {
				return err
			}
			fmt.Println(output)
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&files, "file", nil, "context file (repeatable)")
	return cmd
}

func catalogCmd() *cobra.Command {
	var kindFlag string
	var refresh bool

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List the merged skill and agent catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			if refresh {
				if err := refreshDiscovered(cfg); err != nil {
					return fmt.Errorf("refresh discovered layer: %w", err)
				}
			}

			store, err := buildStore(cfg, logger)
			if err != nil {
				return err
			}
			snap := store.Snapshot()

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "KIND\tID\tCOMPLEXITY\tTRIGGERS\tDESCRIPTION")
			for _, kind := range []catalog.Kind{catalog.KindSkill, catalog.KindAgent} {
				if kindFlag != "" && kindFlag != string(kind) {
					continue
				}
				for _, e := range snap.Entries(kind) {
					fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n",
						e.Kind, e.ID, e.Complexity, len(e.TriggerPatterns), truncate(e.Description, 60))
				}
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&kindFlag, "kind", "", "filter by kind (skill or agent)")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "regenerate the discovered stub layer from the skills directory")
	return cmd
}

func feedbackCmd() *cobra.Command {
	var promptText, predicted, actual string

	cmd := &cobra.Command{
		Use:   "feedback",
		Short: "Record accept/reject feedback for a past routing decision",
		Long: `Appends one feedback record to the ledger. --predicted names what the
	router chose as kind:id; --actual names what should have been chosen.
	Omit --actual to confirm the prediction.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			pred, err := parseRef(predicted)
			if err != nil {
				return fmt.Errorf("--predicted: %w", err)
			}
			rec := history.Record{Prompt: promptText, Predicted: pred}
			if actual != "" {
				act, err := parseRef(actual)
				if err != nil {
					return fmt.Errorf("--actual: %w", err)
				}
				rec.Actual = &act
			}

			booster := history.Open(cfg.FeedbackLog, boosterConfig(cfg), logger)
			booster.RecordFeedback(rec)
			fmt.Printf("recorded feedback for %s/%s\n", pred.Kind, pred.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&promptText, "prompt", "", "the original prompt")
	cmd.Flags().StringVar(&predicted, "predicted", "", "predicted entry as kind:id")
	cmd.Flags().StringVar(&actual, "actual", "", "correct entry as kind:id (omit to confirm)")
	_ = cmd.MarkFlagRequired("prompt")
	_ = cmd.MarkFlagRequired("predicted")
	return cmd
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load every catalog layer and report what was accepted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			// Always log at debug here so skipped entries are visible.
			logger, err := zap.NewDevelopment()
			if err != nil {
				return err
			}
			defer logger.Sync()

			store, err := buildStore(cfg, logger)
			if err != nil {
				return err
			}
			snap := store.Snapshot()
			fmt.Printf("catalog ok: %d skills, %d agents\n",
				len(snap.Entries(catalog.KindSkill)), len(snap.Entries(catalog.KindAgent)))
			return nil
		},
	}
}

// execute carries out a decision: skill handler, agent delegate, the hybrid
// sequence, or the direct fallback delegate.
func execute(ctx context.Context, cfg *config.Config, logger *zap.Logger, d router.Decision, prompt string) (string, error) {
	store, err := buildStore(cfg, logger)
	if err != nil {
		return "", err
	}
	snap := store.Snapshot()
	runner := skill.NewRunner(cfg.SkillsDir, 30*time.Second, logger)

	switch d.Mode {
	case router.ModeSkill:
		return runSkill(ctx, runner, snap, d.Primary.ID, prompt)

	case router.ModeAgent:
		return runAgent(ctx, cfg, snap, d.Primary.ID, prompt)

	case router.ModeHybrid:
		out, err := runSkill(ctx, runner, snap, d.Primary.ID, prompt)
		if err != nil {
			return "", err
		}
		if len(d.Alternatives) == 0 || d.Alternatives[0].Kind != catalog.KindAgent {
			return out, nil
		}
		followUp := fmt.Sprintf("%s\n\nOutput of the %s step:\n%s", prompt, d.Primary.ID, out)
		return runAgent(ctx, cfg, snap, d.Alternatives[0].ID, followUp)

	default:
		return runDelegate(ctx, cfg, cfg.DefaultModel, prompt)
	}
}

func runSkill(ctx context.Context, runner *skill.Runner, snap *catalog.Snapshot, id, prompt string) (string, error) {
	entry, ok := snap.Lookup(catalog.KindSkill, id)
	if !ok {
		return "", fmt.Errorf("skill %q not in catalog", id)
	}
	return runner.Run(ctx, entry.HandlerName(), prompt)
}

func runAgent(ctx context.Context, cfg *config.Config, snap *catalog.Snapshot, id, prompt string) (string, error) {
	model := cfg.DefaultModel
	if entry, ok := snap.Lookup(catalog.KindAgent, id); ok && entry.Model != "" {
		model = entry.Model
	}
	return runDelegate(ctx, cfg, model, prompt)
}

// runDelegate resolves "delegate/model", sends the prompt, and retries once
// on a transient failure.
func runDelegate(ctx context.Context, cfg *config.Config, spec, prompt string) (string, error) {
	name, model := splitModelSpec(spec)
	delegates, err := createDelegates(cfg)
	if err != nil {
		return "", err
	}
	d, ok := delegates[name]
	if !ok {
		return "", fmt.Errorf("delegate %q not configured (missing API key?)", name)
	}

	result, err := d.Run(ctx, model, prompt)
	if err != nil && delegate.IsTransient(err) {
		result, err = d.Run(ctx, model, prompt)
	}
	if err != nil {
		return "", err
	}
	return result.Content, nil
}

func createDelegates(cfg *config.Config) (map[string]delegate.Delegate, error) {
	delegates := make(map[string]delegate.Delegate)
	if cfg.HasDelegate("anthropic") {
		d, err := delegate.NewAnthropicDelegate(cfg.AnthropicAPIKey, "claude-sonnet-4-20250514")
		if err != nil {
			return nil, err
		}
		delegates[d.Name()] = d
	}
	if cfg.HasDelegate("openai") {
		d, err := delegate.NewOpenAIDelegate(cfg.OpenAIAPIKey, "gpt-5.2-thinking")
		if err != nil {
			return nil, err
		}
		delegates[d.Name()] = d
	}
	if cfg.HasDelegate("google") {
		d, err := delegate.NewGoogleDelegate(cfg.GoogleAPIKey, "gemini-2.0-pro")
		if err != nil {
			return nil, err
		}
		delegates[d.Name()] = d
	}
	if len(delegates) == 0 {
		return nil, fmt.Errorf("no delegate API keys configured")
	}
	return delegates, nil
}

func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := newLogger()
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if routerFile != "" {
		rc, err := config.LoadRouterConfig(routerFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load router config from %s: %w", routerFile, err)
		}
		cfg.Router = rc
	}
	return cfg, nil
}

func newLogger() (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func buildStore(cfg *config.Config, logger *zap.Logger) (*catalog.Store, error) {
	if _, err := os.Stat(cfg.DiscoveredManifest); os.IsNotExist(err) {
		if err := refreshDiscovered(cfg); err != nil {
			logger.Warn("stub discovery failed", zap.Error(err))
		}
	}
	loader := catalog.NewLoader([]catalog.Layer{
		{Name: "discovered", Path: cfg.DiscoveredManifest},
		{Name: "curated", Path: cfg.CuratedManifest},
		{Name: "user", Path: cfg.UserManifest},
	}, logger)
	return catalog.NewStore(loader)
}

func refreshDiscovered(cfg *config.Config) error {
	stubs := catalog.DiscoverStubs(cfg.SkillsDir, catalog.KindSkill)
	if len(stubs) == 0 {
		return nil
	}
	return catalog.WriteStubManifest(cfg.DiscoveredManifest, stubs, nil)
}

func buildEngine(cfg *config.Config, logger *zap.Logger) (*router.Engine, func(), error) {
	store, err := buildStore(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	booster := history.Open(cfg.FeedbackLog, boosterConfig(cfg), logger)

	opts := []router.Option{
		router.WithBooster(booster),
		router.WithLogger(logger),
	}
	cleanup := func() {}

	workspace, _ := os.Getwd()
	if provider, err := memory.OpenSQLite(cfg.MemoryDir, workspace); err != nil {
		// Routing works without context signals; warn and continue.
		logger.Warn("context memory unavailable", zap.Error(err))
	} else {
		opts = append(opts, router.WithMemory(provider))
		cleanup = func() { provider.Close() }
	}

	return router.New(store, cfg.Router, opts...), cleanup, nil
}

func boosterConfig(cfg *config.Config) history.Config {
	return history.Config{
		MaxRecords: cfg.Router.History.MaxRecords,
		MaxAge:     time.Duration(cfg.Router.History.MaxAgeDays) * 24 * time.Hour,
		HalfLife:   time.Duration(cfg.Router.History.HalfLifeHours) * time.Hour,
	}
}

func printDecision(d router.Decision) {
	fmt.Printf("mode: %s\n", d.Mode)
	if d.Primary != nil {
		fmt.Printf("primary: %s/%s (confidence %.3f, interval [%.3f, %.3f])\n",
			d.Primary.Kind, d.Primary.ID, d.Primary.Confidence, d.Primary.Result.Lower, d.Primary.Result.Upper)
	}
	for _, alt := range d.Alternatives {
		fmt.Printf("alternative: %s/%s (%.3f)\n", alt.Kind, alt.ID, alt.Confidence)
	}
	for _, reason := range d.Reasoning {
		fmt.Printf("  - %s\n", reason)
	}
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func parseRef(s string) (history.Ref, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return history.Ref{}, fmt.Errorf("expected kind:id, got %q", s)
	}
	kind := catalog.Kind(parts[0])
	if kind != catalog.KindSkill && kind != catalog.KindAgent {
		return history.Ref{}, fmt.Errorf("unknown kind %q", parts[0])
	}
	return history.Ref{Kind: kind, ID: parts[1]}, nil
}

func splitModelSpec(spec string) (name, model string) {
	parts := strings.SplitN(spec, "/", 2)
	if len(parts) == 2 {
		return parts[0], parts[1]
	}
	return spec, ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
