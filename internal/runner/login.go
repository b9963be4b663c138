package runner

import (
	"context"
	"net/http"
	"time"

	"smokegomodule/internal/client"
	"smokegomodule/internal/metrics"
	"smokegomodule/internal/types"
	"smokegomodule/shared/logging"
)

// TestLogin runs one account's sequence on a fresh cookie session: load the login
// page, post the credentials, probe the expected landing page, then sign out.
// Transport faults end the sequence early with a FAIL result carrying the fault.
func (r *Runner) TestLogin(ctx context.Context, account types.TestAccount) types.TestResult {
	r.progress.AccountStarted(account)
	log := r.logger.WithFields(logging.Fields{"email": account.Email, "role": account.Role})

	result, err := r.testLogin(ctx, account, log)
	if err != nil {
		result.ErrorKind = client.ErrorKind(err)
		result.Error = err.Error()
		log.WithError(err).Errorw("account test aborted", "errorKind", string(result.ErrorKind))
	}

	log.Infow("account tested",
		"status", string(result.Status),
		"loginSuccess", result.LoginSuccess,
		"logoutSuccess", result.LogoutSuccess,
		"actualRedirect", result.ActualRedirect)

	r.metrics.RecordResult(result)
	r.progress.AccountFinished(result)
	return result
}

func (r *Runner) testLogin(ctx context.Context, account types.TestAccount, log logging.Logger) (types.TestResult, error) {
	var (
		loginSuccess   bool
		logoutSuccess  bool
		actualRedirect string
		sessionRole    string
	)
	build := func() types.TestResult {
		res := types.NewTestResult(account, loginSuccess, logoutSuccess, actualRedirect)
		res.SessionRole = sessionRole
		return res
	}

	session, err := client.NewSession(client.Options{
		BaseURL: r.target.BaseURL,
		Endpoints: client.Endpoints{
			LoginPage:   r.target.LoginPath,
			Credentials: r.target.CredentialsPath,
			Signout:     r.target.SignoutPath,
		},
		Timeout:   r.target.RequestTimeout,
		Transport: r.transport,
	})
	if err != nil {
		return build(), err
	}
	defer session.CloseIdleConnections()

	start := time.Now()
	page, err := session.LoadLoginPage(ctx)
	r.recordStep(metrics.StepLoginPage, start, err)
	if err != nil {
		return build(), err
	}
	log.Debugw("login page loaded", "step", "login_page", "statusCode", page.StatusCode, "title", page.Title)

	creds := client.Credentials{Email: account.Email, Password: account.Password}
	if r.run.SendCSRFToken {
		creds.CSRFToken = page.CSRFToken
	}
	start = time.Now()
	loginStatus, err := session.SubmitCredentials(ctx, creds)
	r.recordStep(metrics.StepCredentials, start, err)
	if err != nil {
		return build(), err
	}
	log.Debugw("credentials submitted", "step", "credentials", "statusCode", loginStatus)

	if !loginAccepted(loginStatus) {
		return build(), nil
	}

	start = time.Now()
	probe, err := session.Probe(ctx, account.ExpectedRedirect)
	r.recordStep(metrics.StepProbe, start, err)
	if err != nil {
		return build(), err
	}
	log.Debugw("landing page probed", "step", "probe", "statusCode", probe.StatusCode, "location", probe.Location)

	switch probe.StatusCode {
	case http.StatusOK:
		loginSuccess = true
		actualRedirect = account.ExpectedRedirect
	case http.StatusFound, http.StatusSeeOther:
		actualRedirect = probe.Location
	}

	if !loginSuccess {
		return build(), nil
	}

	if r.run.InspectSessionEnabled() {
		sessionRole = r.inspectSession(session, log)
	}

	start = time.Now()
	logoutStatus, err := session.SignOut(ctx)
	r.recordStep(metrics.StepSignout, start, err)
	if err != nil {
		return build(), err
	}
	log.Debugw("signed out", "step", "signout", "statusCode", logoutStatus)
	logoutSuccess = logoutStatus == http.StatusOK || logoutStatus == http.StatusFound

	return build(), nil
}

func (r *Runner) inspectSession(session *client.Session, log logging.Logger) string {
	token, ok := session.SessionToken()
	if !ok {
		log.Debug("no session cookie to inspect")
		return ""
	}
	claims, err := client.InspectSessionToken(token)
	if err != nil {
		log.Debugw("session token not inspectable", "reason", err.Error())
		return ""
	}
	return claims.Role
}

func (r *Runner) recordStep(step string, start time.Time, err error) {
	r.metrics.RecordStep(step, time.Since(start), err == nil)
}

func loginAccepted(status int) bool {
	switch status {
	case http.StatusOK, http.StatusFound, http.StatusSeeOther:
		return true
	}
	return false
}
