package validation

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"smokegomodule/internal/types"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Report formats
const (
	FormatJUnit    = "junit"
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
)

// Reporter writes a run report in one format into a directory
type Reporter struct {
	format string
	dir    string
}

// NewReporter creates a reporter for format writing into dir
func NewReporter(format, dir string) *Reporter {
	if dir == "" {
		dir = "."
	}
	return &Reporter{
		format: format,
		dir:    dir,
	}
}

// GenerateReport writes the report and returns the file path
func (r *Reporter) GenerateReport(report types.Report) (string, error) {
	var (
		data []byte
		ext  string
		err  error
	)

	switch r.format {
	case FormatJUnit:
		data, err = junitReport(report)
		ext = "xml"
	case FormatMarkdown:
		data = []byte(markdownReport(report))
		ext = "md"
	case FormatHTML:
		data, err = htmlReport(report)
		ext = "html"
	default:
		return "", fmt.Errorf("unsupported report format: %s", r.format)
	}
	if err != nil {
		return "", err
	}

	filename := filepath.Join(r.dir, fmt.Sprintf("auth-smoke-report-%s.%s", report.Timestamp.Format("20060102-150405"), ext))
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s report: %w", r.format, err)
	}
	return filename, nil
}

type junitSuite struct {
	XMLName   xml.Name    `xml:"testsuite"`
	Name      string      `xml:"name,attr"`
	Tests     int         `xml:"tests,attr"`
	Failures  int         `xml:"failures,attr"`
	Time      string      `xml:"time,attr"`
	Timestamp string      `xml:"timestamp,attr"`
	Cases     []junitCase `xml:"testcase"`
}

type junitCase struct {
	Name      string        `xml:"name,attr"`
	ClassName string        `xml:"classname,attr"`
	Failure   *junitFailure `xml:"failure,omitempty"`
}

type junitFailure struct {
	Message string `xml:"message,attr"`
	Text    string `xml:",chardata"`
}

func junitReport(report types.Report) ([]byte, error) {
	suite := junitSuite{
		Name:      "Authentication Smoke Tests",
		Tests:     report.Summary.Total,
		Failures:  report.Summary.Failed,
		Time:      fmt.Sprintf("%.3f", report.Duration.Seconds()),
		Timestamp: report.Timestamp.Format(time.RFC3339),
	}
	for _, res := range report.Results {
		tc := junitCase{Name: res.Email, ClassName: res.Role}
		if !res.Passed() {
			tc.Failure = &junitFailure{Message: failureMessage(res), Text: res.Error}
		}
		suite.Cases = append(suite.Cases, tc)
	}

	data, err := xml.MarshalIndent(suite, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JUnit report: %w", err)
	}
	return append([]byte(xml.Header), append(data, '\n')...), nil
}

func failureMessage(res types.TestResult) string {
	switch {
	case res.ErrorKind != types.ErrorKindNone:
		return fmt.Sprintf("%s error", res.ErrorKind)
	case !res.LoginSuccess && res.ActualRedirect != "":
		return fmt.Sprintf("expected %s, redirected to %s", res.ExpectedRedirect, res.ActualRedirect)
	case !res.LoginSuccess:
		return "login failed"
	default:
		return "logout failed"
	}
}

func markdownReport(report types.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Authentication smoke test\n\n")
	fmt.Fprintf(&b, "- Run: `%s`\n", report.RunID)
	fmt.Fprintf(&b, "- Target: %s\n", report.BaseURL)
	fmt.Fprintf(&b, "- Started: %s\n", report.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(&b, "- Duration: %s\n\n", report.Duration.Round(time.Millisecond))
	fmt.Fprintf(&b, "**Total:** %d | **Passed:** %d | **Failed:** %d\n\n",
		report.Summary.Total, report.Summary.Passed, report.Summary.Failed)

	b.WriteString("| Role | Email | Login | Logout | Expected | Actual | Status |\n")
	b.WriteString("|---|---|---|---|---|---|---|\n")
	for _, r := range report.Results {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s |\n",
			cell(r.Role), cell(r.Email), mark(r.LoginSuccess), mark(r.LogoutSuccess),
			cell(r.ExpectedRedirect), cell(r.ActualRedirect), r.Status)
	}
	return b.String()
}

// cell escapes pipes so values cannot break the table
func cell(s string) string {
	if s == "" {
		return "-"
	}
	return strings.ReplaceAll(s, "|", `\|`)
}

func htmlReport(report types.Report) ([]byte, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))

	var body bytes.Buffer
	if err := md.Convert([]byte(markdownReport(report)), &body); err != nil {
		return nil, fmt.Errorf("failed to render HTML report: %w", err)
	}

	var page bytes.Buffer
	page.WriteString("<!doctype html>\n<html><head><meta charset=\"utf-8\"><title>Authentication smoke test</title></head><body>\n")
	page.Write(body.Bytes())
	page.WriteString("</body></html>\n")
	return page.Bytes(), nil
}
