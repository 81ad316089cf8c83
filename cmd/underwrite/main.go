// underwrite runs the deal underwriting engine from the command line.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"deal_underwriting/pkg/core/config"
	"deal_underwriting/pkg/core/ingest"
	"deal_underwriting/pkg/core/logging"
	"deal_underwriting/pkg/core/report"
	"deal_underwriting/pkg/core/valuation"
)

// Global config
var (
	cfg    *config.Config
	logger *zap.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "underwrite",
	Short: "Underwrite an income property from the command line",
	Long: `underwrite projects a hold-period cash-flow schedule for one property,
then reports terminal value, levered and unlevered IRR, equity multiple and
cash-on-cash returns. Deal files are JSON or Hjson.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configFile, _ := cmd.Flags().GetString("config")
		var err error
		cfg, err = config.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if level, _ := cmd.Flags().GetString("log-level"); level != "" {
			cfg.Logging.Level = level
		}
		logger = logging.New(cfg.Logging.Level)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", config.DefaultPath, "config file path")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(projectCmd)
	rootCmd.AddCommand(sensitivityCmd)
	rootCmd.AddCommand(irrCmd)
	rootCmd.AddCommand(statementCmd)
}

// --- Project Command ---

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Project a deal and print the return summary",
	Long: `Project a deal file and render the result.

Examples:
  underwrite project --deal examples/harbor_point.hjson
  underwrite project --deal deal.hjson --format xlsx --out harbor.xlsx`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dealPath, _ := cmd.Flags().GetString("deal")
		format, _ := cmd.Flags().GetString("format")
		out, _ := cmd.Flags().GetString("out")

		deal, err := ingest.LoadDealFile(dealPath)
		if err != nil {
			return err
		}
		a := deal.Resolve(cfg.Seed)
		for _, v := range a.Validate(cfg.Bounds) {
			logger.Warn("Assumption outside advisory range", zap.String("field", v.Field), zap.Float64("value", v.Value))
		}

		res, err := valuation.Project(deal.Baseline, a)
		if err != nil {
			return fmt.Errorf("%s: %w (missing %s)", dealPath, err, strings.Join(deal.Baseline.Missing(), ", "))
		}
		for _, v := range res.Warnings {
			logger.Warn("Projection incomplete", zap.String("field", v.Field), zap.String("reason", v.Message))
		}
		logger.Debug("Projection complete",
			zap.String("property_id", deal.Property.ID),
			zap.Int("years", len(res.Rows)),
		)

		return writeOutput(cmd.OutOrStdout(), out, func(w io.Writer) error {
			switch format {
			case "table":
				return writeTable(w, res)
			case "json":
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			default:
				f, err := report.ParseFormat(format)
				if err != nil {
					return err
				}
				data, err := report.Render(&report.Document{
					Property:   deal.Property,
					Result:     res,
					Violations: append(a.Validate(cfg.Bounds), res.Warnings...),
				}, f)
				if err != nil {
					return err
				}
				_, err = w.Write(data)
				return err
			}
		})
	},
}

func init() {
	projectCmd.Flags().String("deal", "", "deal file (JSON or Hjson)")
	projectCmd.Flags().String("format", "table", "output format: table, json, md, html, xlsx, pdf")
	projectCmd.Flags().String("out", "", "write output to this file instead of stdout")
	_ = projectCmd.MarkFlagRequired("deal")
}

// --- Sensitivity Command ---

var sensitivityCmd = &cobra.Command{
	Use:   "sensitivity",
	Short: "Print a two-way levered IRR grid",
	Long: `Flex two assumptions around the deal's values and print levered IRR.

Variables: purchase_price, rent_growth, expense_growth, exit_cap,
hold_period, ltv, interest_rate.

Examples:
  underwrite sensitivity --deal deal.hjson
  underwrite sensitivity --deal deal.hjson --rows ltv --row-step 5 --cols interest_rate --col-step 0.25`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dealPath, _ := cmd.Flags().GetString("deal")
		rowsName, _ := cmd.Flags().GetString("rows")
		colsName, _ := cmd.Flags().GetString("cols")
		rowStep, _ := cmd.Flags().GetFloat64("row-step")
		colStep, _ := cmd.Flags().GetFloat64("col-step")
		steps, _ := cmd.Flags().GetInt("steps")

		if rowsName == "" {
			rowsName, rowStep = cfg.Sensitivity.RowVariable, pick(rowStep, cfg.Sensitivity.RowStep)
		}
		if colsName == "" {
			colsName, colStep = cfg.Sensitivity.ColVariable, pick(colStep, cfg.Sensitivity.ColStep)
		}
		if steps <= 0 {
			steps = cfg.Sensitivity.Steps
		}
		if limit := cfg.Sensitivity.StepLimit(); steps > limit {
			return fmt.Errorf("--steps %d exceeds sensitivity.max_steps (%d)", steps, limit)
		}

		deal, err := ingest.LoadDealFile(dealPath)
		if err != nil {
			return err
		}
		base := deal.Resolve(cfg.Seed)

		rowVar, err := valuation.ParseVariable(rowsName)
		if err != nil {
			return err
		}
		colVar, err := valuation.ParseVariable(colsName)
		if err != nil {
			return err
		}
		grid, err := valuation.Sensitivity(context.Background(), deal.Baseline, base,
			valuation.Axis{Variable: rowVar, Values: valuation.Steps(rowVar.Get(base), rowStep, steps)},
			valuation.Axis{Variable: colVar, Values: valuation.Steps(colVar.Get(base), colStep, steps)},
		)
		if err != nil {
			return err
		}
		return writeGrid(cmd.OutOrStdout(), grid)
	},
}

func init() {
	sensitivityCmd.Flags().String("deal", "", "deal file (JSON or Hjson)")
	sensitivityCmd.Flags().String("rows", "", "row variable (default from config)")
	sensitivityCmd.Flags().String("cols", "", "column variable (default from config)")
	sensitivityCmd.Flags().Float64("row-step", 0, "row step")
	sensitivityCmd.Flags().Float64("col-step", 0, "column step")
	sensitivityCmd.Flags().Int("steps", 0, "values per axis")
	_ = sensitivityCmd.MarkFlagRequired("deal")
}

// --- IRR Command ---

var irrCmd = &cobra.Command{
	Use:   "irr -- CF0 CF1 [CF2 ...]",
	Short: "Solve the IRR of a cash-flow series",
	Long: `Solve the internal rate of return of an annual cash-flow series.

Series with several sign changes can have more than one IRR; --guess picks
the starting point.

Examples:
  underwrite irr -- -100 110
  underwrite irr --guess 0.5 -- -100 230 -132`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		guess, _ := cmd.Flags().GetFloat64("guess")

		flows := make([]float64, len(args))
		for i, a := range args {
			v, err := strconv.ParseFloat(strings.ReplaceAll(a, ",", ""), 64)
			if err != nil {
				return fmt.Errorf("cash flow %d: %w", i, err)
			}
			flows[i] = v
		}

		res := valuation.SolveIRR(flows, guess)
		if !res.Rate.Available {
			fmt.Fprintf(cmd.OutOrStdout(), "IRR: n/a (no convergence after %d iterations)\n", res.Iterations)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "IRR: %s (%d iterations)\n", report.MetricPercent(res.Rate), res.Iterations)
		return nil
	},
}

func init() {
	irrCmd.Flags().Float64("guess", valuation.DefaultIRRGuess, "starting rate as a decimal")
}

// --- Statement Command ---

var statementCmd = &cobra.Command{
	Use:   "statement",
	Short: "Extract baseline financials from an operating statement",
	Long: `Parse a trailing-twelve-month operating statement (HTML table) and print
the revenue, expense and NOI totals it carries.

Examples:
  underwrite statement --html t12.html
  underwrite statement --url https://example.com/t12.html --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		htmlPath, _ := cmd.Flags().GetString("html")
		url, _ := cmd.Flags().GetString("url")
		asJSON, _ := cmd.Flags().GetBool("json")

		var st *ingest.Statement
		switch {
		case htmlPath != "":
			data, err := os.ReadFile(htmlPath)
			if err != nil {
				return fmt.Errorf("failed to read statement: %w", err)
			}
			st, err = ingest.ParseOperatingStatement(string(data))
			if err != nil {
				return err
			}
		case url != "":
			cacheDir, _ := cmd.Flags().GetString("cache-dir")
			var err error
			st, err = ingest.NewStatementFetcher(cacheDir).FetchStatement(cmd.Context(), url)
			if err != nil {
				return err
			}
		default:
			return fmt.Errorf("provide --html or --url")
		}

		for _, cp := range st.Checkpoints {
			if cp.Status == ingest.StatusMaterialMismatch {
				logger.Warn("Statement does not foot", zap.String("check", cp.CheckpointName), zap.Float64("variance", cp.Variance))
			}
		}

		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(st.Baseline())
		}
		return writeStatement(cmd.OutOrStdout(), st)
	},
}

func init() {
	statementCmd.Flags().String("html", "", "operating statement HTML file")
	statementCmd.Flags().String("url", "", "operating statement URL")
	statementCmd.Flags().String("cache-dir", ".cache/statements", "download cache for --url")
	statementCmd.Flags().Bool("json", false, "print the baseline as JSON")
}

// --- Output helpers ---

func pick(v, fallback float64) float64 {
	if v != 0 {
		return v
	}
	return fallback
}

// writeOutput sends render's output to path, or to stdout when path is empty.
func writeOutput(stdout io.Writer, path string, render func(io.Writer) error) error {
	if path == "" {
		return render(stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := render(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	logger.Info("Report written", zap.String("path", path))
	return nil
}

func writeTable(w io.Writer, res *valuation.Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Year\tRevenue\tExpenses\tNOI\tDebt Service\tCash Flow\tCoC\t")
	for _, r := range res.Rows {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			r.Year,
			report.Currency(r.Revenue),
			report.Currency(r.Expenses),
			report.Currency(r.NOI),
			report.Currency(r.DebtService),
			report.Currency(r.CashFlow),
			report.Percent(r.CashOnCashPct),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	s := res.Summary
	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Loan amount\t%s\n", report.MetricCurrency(s.LoanAmount))
	fmt.Fprintf(tw, "Equity\t%s\n", report.MetricCurrency(s.Equity))
	fmt.Fprintf(tw, "Annual debt service\t%s\n", report.MetricCurrency(s.AnnualDebtService))
	fmt.Fprintf(tw, "Going-in cap\t%s\n", report.MetricPercent(s.GoingInCapPct))
	fmt.Fprintf(tw, "Terminal value\t%s\n", report.MetricCurrency(s.TerminalValue))
	fmt.Fprintf(tw, "Sale proceeds\t%s\n", report.MetricCurrency(s.SaleProceeds))
	fmt.Fprintf(tw, "Unlevered IRR\t%s\n", report.MetricPercent(s.UnleveredIRR))
	fmt.Fprintf(tw, "Levered IRR\t%s\n", report.MetricPercent(s.LeveredIRR))
	fmt.Fprintf(tw, "Equity multiple\t%s\n", report.MetricMultiple(s.EquityMultiple))
	fmt.Fprintf(tw, "Avg cash-on-cash\t%s\n", report.Percent(s.AvgCashOnCashPct))
	return tw.Flush()
}

func writeGrid(w io.Writer, g *valuation.Grid) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "%s \\ %s\t", g.Rows.Variable, g.Cols.Variable)
	for _, v := range g.Cols.Values {
		fmt.Fprintf(tw, "%g\t", v)
	}
	fmt.Fprintln(tw)
	for i, rv := range g.Rows.Values {
		fmt.Fprintf(tw, "%g\t", rv)
		for j := range g.Cols.Values {
			fmt.Fprintf(tw, "%s\t", report.MetricPercent(g.Cells[i][j].LeveredIRR))
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

func writeStatement(w io.Writer, st *ingest.Statement) error {
	amount := func(v *float64) string {
		if v == nil {
			return "missing"
		}
		return report.Currency(*v)
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Gross scheduled revenue\t%s\n", amount(st.Revenue))
	fmt.Fprintf(tw, "Total operating expenses\t%s\n", amount(st.Expenses))
	noi := amount(st.NOI)
	if st.NOIImplied {
		noi += " (implied)"
	}
	fmt.Fprintf(tw, "Net operating income\t%s\n", noi)
	for _, cp := range st.Checkpoints {
		fmt.Fprintf(tw, "Check %s\t%s\n", cp.CheckpointName, cp.Status)
	}
	return tw.Flush()
}
