package types

import "time"

// Status is the binary outcome of one account's smoke test
type Status string

const (
	StatusPass Status = "PASS"
	StatusFail Status = "FAIL"
)

// ErrorKind names the fault that ended an account's test early
type ErrorKind string

const (
	ErrorKindNone      ErrorKind = ""
	ErrorKindTransport ErrorKind = "transport"
	ErrorKindTimeout   ErrorKind = "timeout"
	ErrorKindCanceled  ErrorKind = "canceled"
)

// TestAccount is one account to log in with. The password is never serialized to JSON.
type TestAccount struct {
	Email            string `yaml:"email" json:"email" bson:"email"`
	Password         string `yaml:"password" json:"-" bson:"password"`
	Role             string `yaml:"role" json:"role" bson:"role"`
	ExpectedRedirect string `yaml:"expectedRedirect" json:"expected_redirect" bson:"expected_redirect"`
}

// TestResult represents the outcome of one account's login/probe/logout sequence
type TestResult struct {
	Role             string    `json:"role"`
	Email            string    `json:"email"`
	LoginSuccess     bool      `json:"login_success"`
	LogoutSuccess    bool      `json:"logout_success"`
	ExpectedRedirect string    `json:"expected_redirect"`
	ActualRedirect   string    `json:"actual_redirect"`
	Status           Status    `json:"status"`
	ErrorKind        ErrorKind `json:"error_kind,omitempty"`
	Error            string    `json:"error,omitempty"`
	SessionRole      string    `json:"session_role,omitempty"`
}

// NewTestResult builds the result for account; Status is PASS iff both steps succeeded
func NewTestResult(account TestAccount, loginSuccess, logoutSuccess bool, actualRedirect string) TestResult {
	status := StatusFail
	if loginSuccess && logoutSuccess {
		status = StatusPass
	}
	return TestResult{
		Role:             account.Role,
		Email:            account.Email,
		LoginSuccess:     loginSuccess,
		LogoutSuccess:    logoutSuccess,
		ExpectedRedirect: account.ExpectedRedirect,
		ActualRedirect:   actualRedirect,
		Status:           status,
	}
}

// Passed reports whether the result is a PASS
func (r TestResult) Passed() bool {
	return r.Status == StatusPass
}

// Summary aggregates a run's results
type Summary struct {
	Total  int `json:"total"`
	Passed int `json:"passed"`
	Failed int `json:"failed"`
}

// Summarize counts PASS and FAIL results
func Summarize(results []TestResult) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		switch r.Status {
		case StatusPass:
			s.Passed++
		case StatusFail:
			s.Failed++
		}
	}
	return s
}

// Report is the envelope handed to report writers and publishers
type Report struct {
	RunID     string        `json:"run_id"`
	Timestamp time.Time     `json:"timestamp"`
	BaseURL   string        `json:"base_url"`
	Duration  time.Duration `json:"duration"`
	Summary   Summary       `json:"summary"`
	Results   []TestResult  `json:"results"`
}

// NewReport builds a report and its summary from results
func NewReport(runID, baseURL string, started time.Time, results []TestResult) Report {
	return Report{
		RunID:     runID,
		Timestamp: started,
		BaseURL:   baseURL,
		Duration:  time.Since(started),
		Summary:   Summarize(results),
		Results:   results,
	}
}
