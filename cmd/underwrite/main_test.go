package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dealFile = `{
	# reference deal
	property: { id: prop-17, name: Harbor Point }
	baseline: {
		gross_scheduled_revenue: 5000000
		total_operating_expenses: 2000000
		net_operating_income: 3000000
	}
	assumptions: {
		purchase_price: 50000000
		exit_cap_rate_pct: 5.5
		hold_period_years: 5
		loan_to_value_pct: 65
		interest_rate_pct: 6.5
	}
}`

// resetFlags restores every flag to its default; cobra commands are package
// globals and keep flag values between Execute calls.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "none.yaml")}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func writeDeal(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "deal.hjson")
	require.NoError(t, os.WriteFile(path, []byte(dealFile), 0644))
	return path
}

func TestIRRCommand(t *testing.T) {
	out, err := run(t, "irr", "--", "-100", "110")
	require.NoError(t, err)
	assert.Contains(t, out, "IRR: 10.00%")

	out, err = run(t, "irr", "--guess", "0.5", "--", "-100", "230", "-132")
	require.NoError(t, err)
	assert.Contains(t, out, "IRR: 20.00%")

	out, err = run(t, "irr", "--guess", "0.1", "--", "0", "0", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "IRR: n/a")
}

func TestProjectCommand_Table(t *testing.T) {
	out, err := run(t, "project", "--deal", writeDeal(t), "--format", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "$2,465,065.29")
	assert.Contains(t, out, "15.78%")
	assert.Contains(t, out, "10.89%")
}

func TestProjectCommand_MarkdownToFile(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "report.md")
	_, err := run(t, "project", "--deal", writeDeal(t), "--format", "md", "--out", outPath)
	require.NoError(t, err)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# Underwriting Summary: Harbor Point"))
}

func TestProjectCommand_MissingBaseline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.hjson")
	require.NoError(t, os.WriteFile(path, []byte(`{baseline: {net_operating_income: 1}}`), 0644))
	_, err := run(t, "project", "--deal", path, "--format", "json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "engine unavailable")
}

func TestSensitivityCommand(t *testing.T) {
	out, err := run(t, "sensitivity", "--deal", writeDeal(t), "--rows", "exit_cap", "--row-step", "0.5",
		"--cols", "ltv", "--col-step", "10", "--steps", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "exit_cap \\ ltv")
	assert.Contains(t, out, "15.78%")
}

func TestSensitivityCommand_Limits(t *testing.T) {
	_, err := run(t, "sensitivity", "--deal", writeDeal(t), "--steps", "100000")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_steps")

	_, err = run(t, "sensitivity", "--deal", writeDeal(t), "--rows", "hold_period", "--row-step", "0.5",
		"--cols", "ltv", "--col-step", "10", "--steps", "3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "whole years")
}

func TestStatementCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t12.html")
	html := `<table>
		<tr><td>Total Revenue</td><td>$900,000</td></tr>
		<tr><td>Total Expenses</td><td>(400,000)</td></tr>
	</table>`
	require.NoError(t, os.WriteFile(path, []byte(html), 0644))

	out, err := run(t, "statement", "--html", path)
	require.NoError(t, err)
	assert.Contains(t, out, "$500,000.00 (implied)")
}
