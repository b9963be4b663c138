package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var adminAccount = TestAccount{
	Email:            "admin.manila@test.com",
	Password:         "password123",
	Role:             "ADMIN",
	ExpectedRedirect: "/admin",
}

func TestNewTestResultStatus(t *testing.T) {
	tests := []struct {
		name   string
		login  bool
		logout bool
		want   Status
	}{
		{"both succeed", true, true, StatusPass},
		{"logout fails", true, false, StatusFail},
		{"login fails", false, false, StatusFail},
		{"inconsistent flags", false, true, StatusFail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewTestResult(adminAccount, tt.login, tt.logout, "")
			assert.Equal(t, tt.want, r.Status)
			assert.Equal(t, tt.want == StatusPass, r.Passed())
			assert.Equal(t, "ADMIN", r.Role)
			assert.Equal(t, "/admin", r.ExpectedRedirect)
		})
	}
}

func TestResultJSONFieldNames(t *testing.T) {
	data, err := json.Marshal(NewTestResult(adminAccount, true, true, "/admin"))
	require.NoError(t, err)

	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &fields))

	assert.Equal(t, map[string]interface{}{
		"role":              "ADMIN",
		"email":             "admin.manila@test.com",
		"login_success":     true,
		"logout_success":    true,
		"expected_redirect": "/admin",
		"actual_redirect":   "/admin",
		"status":            "PASS",
	}, fields)
}

func TestAccountPasswordNeverSerialized(t *testing.T) {
	data, err := json.Marshal(adminAccount)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "password123")
}

func TestSummarize(t *testing.T) {
	results := []TestResult{
		NewTestResult(adminAccount, true, true, "/admin"),
		NewTestResult(adminAccount, true, true, "/admin"),
		NewTestResult(adminAccount, true, true, "/admin"),
		NewTestResult(adminAccount, false, false, ""),
		NewTestResult(adminAccount, true, false, "/admin"),
	}

	s := Summarize(results)
	assert.Equal(t, Summary{Total: 5, Passed: 3, Failed: 2}, s)
	assert.Equal(t, s.Total, s.Passed+s.Failed)
}

func TestNewReport(t *testing.T) {
	started := time.Now().Add(-2 * time.Second)
	report := NewReport("run-1", "https://example.test", started, []TestResult{NewTestResult(adminAccount, true, true, "/admin")})

	assert.Equal(t, "run-1", report.RunID)
	assert.Equal(t, 1, report.Summary.Passed)
	assert.GreaterOrEqual(t, report.Duration, 2*time.Second)
}
