package validation

import (
	"fmt"
	"io"
	"strings"

	"smokegomodule/internal/types"

	"github.com/jedib0t/go-pretty/v6/table"
)

const (
	bannerTitle = "GLOBAL SMOKE TESTS - Authentication"
	markPass    = "✅"
	markFail    = "❌"
)

var banner = strings.Repeat("=", 60)

// Console prints the human-readable progress of a run
type Console struct {
	out io.Writer
}

// NewConsole creates a console printer writing to out
func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

// Header prints the run banner
func (c *Console) Header() {
	fmt.Fprintln(c.out, banner)
	fmt.Fprintln(c.out, bannerTitle)
	fmt.Fprintln(c.out, banner)
}

// AccountStarted announces an account's test
func (c *Console) AccountStarted(account types.TestAccount) {
	fmt.Fprintf(c.out, "\nTesting %s login with %s...\n", account.Role, account.Email)
}

// AccountFinished prints the login and logout outcome of an account
func (c *Console) AccountFinished(result types.TestResult) {
	fmt.Fprintf(c.out, "  Login: %s\n", mark(result.LoginSuccess))
	fmt.Fprintf(c.out, "  Logout: %s\n", mark(result.LogoutSuccess))
	if result.Error != "" {
		fmt.Fprintf(c.out, "  Error (%s): %s\n", result.ErrorKind, result.Error)
	}
}

// Summary prints the totals block
func (c *Console) Summary(summary types.Summary) {
	fmt.Fprintln(c.out, "\n"+banner)
	fmt.Fprintln(c.out, "SUMMARY")
	fmt.Fprintln(c.out, banner)
	fmt.Fprintf(c.out, "Total Tests: %d\n", summary.Total)
	fmt.Fprintf(c.out, "Passed: %d\n", summary.Passed)
	fmt.Fprintf(c.out, "Failed: %d\n", summary.Failed)
}

// Table renders one row per result
func (c *Console) Table(results []types.TestResult) {
	t := table.NewWriter()
	t.SetOutputMirror(c.out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Role", "Email", "Login", "Logout", "Expected", "Actual", "Status"})
	for _, r := range results {
		t.AppendRow(table.Row{r.Role, r.Email, mark(r.LoginSuccess), mark(r.LogoutSuccess), r.ExpectedRedirect, r.ActualRedirect, string(r.Status)})
	}
	fmt.Fprintln(c.out)
	t.Render()
}

// Saved confirms where the results file was written
func (c *Console) Saved(path string) {
	fmt.Fprintf(c.out, "\nResults saved to %s\n", path)
}

func mark(ok bool) string {
	if ok {
		return markPass
	}
	return markFail
}
