package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/PolicyEngine/ACA-Calc/internal/app"
	"github.com/PolicyEngine/ACA-Calc/internal/domain"
	"github.com/PolicyEngine/ACA-Calc/internal/pkg/logger"
)

// calculationOutput — вывод calculate --json.
type calculationOutput struct {
	ID          string                     `json:"id"`
	Key         domain.CacheKey            `json:"key"`
	Source      domain.Source              `json:"source"`
	CompletedAt time.Time                  `json:"completed_at"`
	Request     domain.CalculationRequest  `json:"request"`
	Result      *domain.CalculationResult  `json:"result"`
	ShareLink   string                     `json:"share_link"`
	Explanation *domain.ExplanationResult  `json:"explanation,omitempty"`
	Summary     *domain.ExplanationRequest `json:"summary,omitempty"`
}

func calculateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calculate",
		Short: "Calculate premium tax credits for a household",
		Long: "Runs one calculation with live progress. Results are cached (SQLite file by default), " +
			"so repeating the same household is served without a network call.",
		Example: `  acacalc calculate --age 45 --state PA --county "Lebanon County"
  acacalc calculate --age 40 --spouse 38 --deps 5,8 --state CA --county "Los Angeles County" --fpl700 --explain
  acacalc calculate --link "https://example.org/?age=45&state=PA&county=Lebanon+County&explain=1"`,
		Args: cobra.NoArgs,
		RunE: runCalculate,
	}
	householdFlags(cmd)
	f := cmd.Flags()
	f.Bool("explain", false, "Request a plain-language explanation after the calculation")
	f.String("cache", app.CacheSQLite, "Result cache backend (memory, redis, sqlite)")
	f.Bool("json", false, "Print the calculation as JSON")
	f.BoolP("verbose", "v", false, "Log at debug level")
	f.Duration("timeout", 0, "Abort the calculation after this duration (0 means no limit)")
	return cmd
}

func runCalculate(cmd *cobra.Command, _ []string) error {
	req, autoExplain, err := readRequest(cmd)
	if err != nil {
		return err
	}

	f := cmd.Flags()
	envFile, _ := f.GetString("env-file")
	cfg, err := app.LoadCfg(envFile)
	if err != nil {
		return err
	}
	if backend, _ := f.GetString("cache"); backend != "" {
		cfg.Cache.Backend = backend
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	cfg.Log.Level = "warn"
	if verbose, _ := f.GetBool("verbose"); verbose {
		cfg.Log.Level = "debug"
	}
	log := logger.NewWithWriter(cfg.Log, cmd.ErrOrStderr())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	if timeout, _ := f.GetDuration("timeout"); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	core, err := app.Build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := core.Close(); err != nil {
			log.Warn("shutdown", "error", err)
		}
	}()

	sess := core.Calculator.NewSession()
	defer sess.Close()

	asJSON, _ := f.GetBool("json")
	view := newProgressView(cmd.ErrOrStderr(), !asJSON)
	unsubscribe := sess.Subscribe(view.observe)
	calc, err := sess.Calculate(ctx, req)
	unsubscribe()
	view.done()
	if err != nil {
		log.Debug("calculation failed", "error", err)
		var invalid *domain.ValidationError
		if errors.As(err, &invalid) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return errors.New(domain.UserMessage(err))
	}

	explain, _ := f.GetBool("explain")
	var explanation *domain.ExplanationResult
	if explain || autoExplain {
		es := core.Explainer.NewSession()
		defer es.Close()
		explanation, _, err = es.AutoExplain(ctx, calc, true)
		if err != nil {
			log.Debug("explanation failed", "error", err)
			fmt.Fprintln(cmd.ErrOrStderr(), warnStyle.Render("Explanation unavailable: "+domain.UserMessage(err)))
		}
	}

	var summary *domain.ExplanationRequest
	if s, err := core.Explainer.BuildRequest(calc); err == nil {
		summary = &s
	}

	out := cmd.OutOrStdout()
	if asJSON {
		b, err := json.MarshalIndent(calculationOutput{
			ID:          calc.ID,
			Key:         calc.Key,
			Source:      calc.Source,
			CompletedAt: calc.CompletedAt,
			Request:     calc.Request,
			Result:      calc.Result,
			ShareLink:   domain.EncodeShareLink(calc.Request, explain || autoExplain).Encode(),
			Explanation: explanation,
			Summary:     summary,
		}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(b))
		return nil
	}

	fmt.Fprint(out, renderCalculation(calc, summary))
	if explanation != nil {
		fmt.Fprint(out, renderExplanation(explanation))
	}
	return nil
}
