package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/bloglens/adbudget/internal/client"
	"github.com/bloglens/adbudget/internal/config"
	"github.com/bloglens/adbudget/internal/display"
	"github.com/bloglens/adbudget/internal/observability"
	"github.com/bloglens/adbudget/internal/planner"
	"github.com/bloglens/adbudget/internal/session"
)

const usage = `usage: budgetctl <command> [flags]

commands:
  health       show the per-platform advertising health analysis
  recommend    show the quick-win reallocation suggestion
  strategies   list the selectable reallocation strategies
  generate     generate a reallocation plan from current health data
  apply        apply the current plan (asks for confirmation)
  history      show past reallocation actions
  status       show the current session state
`

func main() {
	cfg := config.Load()

	logger, err := observability.InitLoggerWithService(cfg.ServiceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	if err := run(logger, cfg, os.Args[1:]); err != nil {
		logger.Error("budgetctl error", zap.Error(err))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(logger *zap.Logger, cfg config.Config, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("command required")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.TracingEnabled {
		shutdown, err := observability.InitTracing(ctx, logger, cfg.ServiceName, cfg.OTLPEndpoint, cfg.TracingSampleRate)
		if err != nil {
			return fmt.Errorf("init tracing: %w", err)
		}
		defer shutdown()
	}

	metrics := observability.NewPrometheusRegistry()

	api := client.New(cfg.APIBaseURL, cfg.AuthToken, cfg.HTTPTimeout, client.RetryPolicy{
		MaxAttempts: cfg.RetryMaxAttempts,
		BaseBackoff: cfg.RetryBaseBackoff,
		MaxBackoff:  cfg.RetryMaxBackoff,
	}, logger, metrics)

	var store session.Store
	if cfg.RedisAddr != "" {
		rs, err := session.NewRedisStore(cfg.RedisAddr, cfg.SessionTTL, metrics)
		if err != nil {
			return fmt.Errorf("init session store: %w", err)
		}
		defer rs.Close()
		store = rs
	} else {
		store = session.NewMemoryStore(cfg.SessionTTL)
	}

	sess, err := planner.NewSession(ctx, api, store, stdinConfirmer{}, planner.Options{
		MaxChangeRatio:     cfg.MaxChangeRatio,
		DefaultTotalBudget: cfg.DefaultTotalBudget,
		HistoryLimit:       cfg.HistoryLimit,
	}, logger, metrics)
	if err != nil {
		return err
	}

	cmd, args := args[0], args[1:]
	switch cmd {
	case "health":
		sess.Refresh(ctx)
		if err := sess.LastError("health"); err != nil {
			return err
		}
		fmt.Print(display.RenderHealth(sess.Health()))
		return nil

	case "recommend":
		sess.Refresh(ctx)
		if err := sess.LastError("recommendation"); err != nil {
			return err
		}
		fmt.Print(display.RenderQuickRecommendation(sess.Recommendation()))
		return nil

	case "strategies":
		sess.Refresh(ctx)
		if err := sess.LastError("strategies"); err != nil {
			return err
		}
		selected := sess.SelectedStrategy()
		for _, st := range sess.Strategies() {
			marker := " "
			if st.ID == selected {
				marker = "*"
			}
			fmt.Printf("%s %-12s %-20s %s\n", marker, st.ID, st.Name, st.Description)
		}
		return nil

	case "generate":
		fs := flag.NewFlagSet("generate", flag.ContinueOnError)
		strategy := fs.String("strategy", "", "strategy id (default: current selection)")
		if err := fs.Parse(args); err != nil {
			return err
		}
		sess.Refresh(ctx)
		if err := sess.LastError("health"); err != nil {
			return err
		}
		if *strategy != "" {
			if err := sess.SelectStrategy(ctx, *strategy); err != nil {
				return err
			}
		}
		plan, err := sess.GeneratePlan(ctx)
		if err != nil {
			return err
		}
		fmt.Print(display.RenderPlan(plan))
		if _, warnings := sess.Plan(); len(warnings) > 0 {
			for _, w := range warnings {
				fmt.Printf("warning: %s\n", w)
			}
		}
		return nil

	case "apply":
		fs := flag.NewFlagSet("apply", flag.ContinueOnError)
		note := fs.String("note", "", "free-text note recorded with the applied plan")
		if err := fs.Parse(args); err != nil {
			return err
		}
		result, err := sess.ApplyPlan(ctx, *note)
		if errors.Is(err, planner.ErrNotConfirmed) {
			fmt.Println("apply aborted")
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Printf("plan %s %s\n", result.PlanID, result.Status)
		fmt.Print(display.RenderHistory(sess.History()))
		return nil

	case "history":
		sess.SelectTab(ctx, planner.TabHistory)
		if err := sess.LastError("history"); err != nil {
			return err
		}
		fmt.Print(display.RenderHistory(sess.History()))
		return nil

	case "status":
		plan, warnings := sess.Plan()
		fmt.Printf("strategy: %s\n", sess.SelectedStrategy())
		if plan == nil {
			fmt.Println("no plan outstanding")
			return nil
		}
		fmt.Print(display.RenderPlan(plan))
		for _, w := range warnings {
			fmt.Printf("warning: %s\n", w)
		}
		return nil

	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// stdinConfirmer is the interactive yes/no gate in front of plan application.
type stdinConfirmer struct{}

func (stdinConfirmer) Confirm(prompt string) (bool, error) {
	fmt.Printf("%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false, err
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}
