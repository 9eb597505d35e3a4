// internal/server/server_test.go
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loanbridge/internal/action"
	"loanbridge/internal/auth"
	"loanbridge/internal/common/config"
	"loanbridge/internal/common/database"
	httpclient "loanbridge/internal/common/http"
	"loanbridge/internal/common/logger"
	"loanbridge/internal/models"
	"loanbridge/internal/repository"
	"loanbridge/internal/store"
	"loanbridge/internal/submit"
	"loanbridge/internal/wizard"
)

// captureSMS records OTP messages for the tests to read codes out of.
type captureSMS struct {
	last string
}

func (c *captureSMS) SendSMS(_ context.Context, _, message string) error {
	c.last = message
	return nil
}

type fixture struct {
	ts         *httptest.Server
	mock       sqlmock.Sqlmock
	mr         *miniredis.Miniredis
	tokens     *auth.TokenService
	sms        *captureSMS
	applyCalls *int64
}

// newFixture wires a full server against miniredis and sqlmock, with the
// submission pipeline pointed back at the server's own HTTP surface.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mr := miniredis.RunT(t)
	rdb := database.NewRedisFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	log := logger.NewTestLogger(t)
	users := repository.NewUserRepository(db)
	apps := repository.NewApplicationRepository(db)
	tokens := auth.NewTokenService(rdb, time.Hour, 24*time.Hour)
	sms := &captureSMS{}
	otp := auth.NewOTPService(rdb, sms, 5*time.Minute, 6, 3, log)
	sessions := wizard.NewSessionStore(rdb, 30*time.Minute)

	// The outer handler is installed after the server exists, so the
	// pipeline can target the server's own address.
	var inner http.Handler
	var applyCalls int64
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/loans/apply" {
			atomic.AddInt64(&applyCalls, 1)
		}
		inner.ServeHTTP(w, r)
	}))
	t.Cleanup(ts.Close)

	appStore := store.New()
	actions := action.NewFactory(httpclient.NewClient(5*time.Second), appStore)
	pipeline := submit.NewPipeline(actions, ts.URL, 3*time.Second, log)

	cfg := &config.Config{}
	cfg.Server.Address = ":0"
	cfg.Server.UploadDir = t.TempDir()
	cfg.Wizard.SessionTTL = 1800

	srv := New(Options{
		Config:   cfg,
		Logger:   log,
		Users:    users,
		Apps:     apps,
		Tokens:   tokens,
		OTP:      otp,
		Sessions: sessions,
		Pipeline: pipeline,
		Verifier: wizard.CannedVerifier{Delay: 2 * time.Second},
	})
	inner = srv.Handler()

	return &fixture{ts: ts, mock: mock, mr: mr, tokens: tokens, sms: sms, applyCalls: &applyCalls}
}

func (fx *fixture) request(t *testing.T, method, path, token string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, fx.ts.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func (fx *fixture) customerToken(t *testing.T, userID string) string {
	t.Helper()
	sess, err := fx.tokens.Issue(context.Background(), &models.User{ID: userID, Role: models.RoleCustomer})
	require.NoError(t, err)
	return sess.AccessToken
}

func (fx *fixture) adminToken(t *testing.T) string {
	t.Helper()
	sess, err := fx.tokens.Issue(context.Background(), &models.User{ID: "admin-1", Role: models.RoleAdmin})
	require.NoError(t, err)
	return sess.AccessToken
}

func TestMobileOTPAuthFlow(t *testing.T) {
	fx := newFixture(t)

	resp, _ := fx.request(t, "POST", "/auth/mobile-auth", "", map[string]string{"mobile": "9876543210"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	code := regexp.MustCompile(`\d{6}`).FindString(fx.sms.last)
	require.NotEmpty(t, code)

	// Verification upserts the user.
	fx.mock.ExpectQuery("FROM users WHERE mobile").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "mobile", "email", "backup_email", "full_name", "role",
			"password_hash", "profile_picture", "address_line1", "address_line2",
			"city", "pincode", "created_at", "updated_at",
		}))
	fx.mock.ExpectExec("INSERT INTO users").WillReturnResult(sqlmock.NewResult(1, 1))

	resp, body := fx.request(t, "POST", "/auth/verify-mobile-otp", "", map[string]string{
		"mobile": "9876543210",
		"otp":    code,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data := body["data"].(map[string]interface{})
	assert.NotEmpty(t, data["accessToken"])
	assert.NotEmpty(t, data["refreshToken"])
}

func TestMobileAuthRejectsBadNumber(t *testing.T) {
	fx := newFixture(t)

	resp, body := fx.request(t, "POST", "/auth/mobile-auth", "", map[string]string{"mobile": "12345"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, false, body["success"])
}

func TestLoansRequireAuth(t *testing.T) {
	fx := newFixture(t)

	resp, _ := fx.request(t, "GET", "/loans", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestApplyPersistsApplication(t *testing.T) {
	fx := newFixture(t)
	token := fx.customerToken(t, "user-1")

	fx.mock.ExpectExec("INSERT INTO loan_applications").WillReturnResult(sqlmock.NewResult(1, 1))

	resp, body := fx.request(t, "POST", "/loans/apply", token, map[string]interface{}{
		"amount":        250000,
		"tenure_months": 24,
		"interest_rate": 12.0,
		"purpose":       "Personal",
		"employment":    map[string]interface{}{"type": "Salaried"},
		"consent_share": true,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Application submitted successfully!", body["message"])

	data := body["data"].(map[string]interface{})
	assert.NotEmpty(t, data["applicationId"])
	assert.NoError(t, fx.mock.ExpectationsWereMet())
}

func TestApplyRequiresConsent(t *testing.T) {
	fx := newFixture(t)
	token := fx.customerToken(t, "user-1")

	resp, _ := fx.request(t, "POST", "/loans/apply", token, map[string]interface{}{
		"amount":        250000,
		"tenure_months": 24,
		"interest_rate": 12.0,
		"purpose":       "Personal",
		"consent_share": false,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetLoanOwnership(t *testing.T) {
	fx := newFixture(t)
	token := fx.customerToken(t, "user-2")

	now := time.Now().UTC()
	fx.mock.ExpectQuery("FROM loan_applications WHERE id").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "amount", "tenure_months", "interest_rate", "purpose",
			"employment_type", "employment_details", "contact_details",
			"documents_submitted", "consent_share", "consent_credit_pull",
			"status", "decision_reason", "approved_terms", "created_at", "updated_at",
		}).AddRow("app-1", "user-1", int64(100000), 12, 10.0, "Personal",
			"Salaried", []byte(`{}`), []byte(`{}`), []byte(`{}`), true, false,
			"submitted", "", nil, now, now))

	// user-2 may not read user-1's application.
	resp, _ := fx.request(t, "GET", "/loans/app-1", token, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestWizardSessionFlow(t *testing.T) {
	fx := newFixture(t)

	resp, body := fx.request(t, "POST", "/wizard/sessions", "", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	data := body["data"].(map[string]interface{})
	sessID := data["id"].(string)
	require.NotEmpty(t, sessID)
	assert.Equal(t, float64(0), data["activeStep"])
	assert.Equal(t, false, data["canGoBack"])

	base := "/wizard/sessions/" + sessID

	// Defaults drive a live EMI.
	form := data["form"].(map[string]interface{})
	assert.Equal(t, float64(100000), form["amount"])
	assert.NotEqual(t, "0.00", data["emi"])

	// Set a field and watch the EMI move.
	resp, body = fx.request(t, "POST", base+"/fields", "", map[string]interface{}{
		"field": "amount", "value": 500000,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data = body["data"].(map[string]interface{})
	assert.Equal(t, "23536.74", data["emi"])

	// Employment type drives the visible conditional fields.
	resp, body = fx.request(t, "POST", base+"/fields", "", map[string]interface{}{
		"field": "employmentType", "value": "Self-Employed/Business",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data = body["data"].(map[string]interface{})
	assert.Equal(t,
		[]interface{}{"businessName", "businessNature", "yearsInBusiness"},
		data["employmentFields"])

	// Four Nexts land on the final review step with offers attached.
	for i := 0; i < 4; i++ {
		resp, body = fx.request(t, "POST", base+"/next", "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	data = body["data"].(map[string]interface{})
	assert.Equal(t, float64(4), data["activeStep"])
	assert.Equal(t, false, data["canGoNext"])
	assert.NotEmpty(t, data["offers"])

	// A fifth Next is rejected.
	resp, _ = fx.request(t, "POST", base+"/next", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Jump back to the start.
	resp, body = fx.request(t, "POST", base+"/jump", "", map[string]int{"step": 0})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data = body["data"].(map[string]interface{})
	assert.Equal(t, float64(0), data["activeStep"])
}

func TestWizardSubmitWithoutTokenFailsLocally(t *testing.T) {
	fx := newFixture(t)

	_, body := fx.request(t, "POST", "/wizard/sessions", "", nil)
	sessID := body["data"].(map[string]interface{})["id"].(string)
	base := "/wizard/sessions/" + sessID

	_, _ = fx.request(t, "POST", base+"/fields", "", map[string]interface{}{
		"field": "consentShare", "value": true,
	})

	before := atomic.LoadInt64(fx.applyCalls)
	resp, body := fx.request(t, "POST", base+"/submit", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data := body["data"].(map[string]interface{})
	result := data["result"].(map[string]interface{})
	assert.Equal(t, false, result["success"])
	assert.Equal(t, "Authentication token not found", result["error"])

	// The origination endpoint never saw a request.
	assert.Equal(t, before, atomic.LoadInt64(fx.applyCalls))
}

func TestWizardSubmitEndToEnd(t *testing.T) {
	fx := newFixture(t)
	token := fx.customerToken(t, "user-1")

	_, body := fx.request(t, "POST", "/wizard/sessions", "", nil)
	sessID := body["data"].(map[string]interface{})["id"].(string)
	base := "/wizard/sessions/" + sessID

	_, _ = fx.request(t, "POST", base+"/fields", "", map[string]interface{}{
		"field": "amount", "value": 250000,
	})
	_, _ = fx.request(t, "POST", base+"/fields", "", map[string]interface{}{
		"field": "consentShare", "value": true,
	})

	// The pipeline's POST lands on this server's own /loans/apply.
	fx.mock.ExpectExec("INSERT INTO loan_applications").WillReturnResult(sqlmock.NewResult(1, 1))

	resp, body := fx.request(t, "POST", base+"/submit", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data := body["data"].(map[string]interface{})
	result := data["result"].(map[string]interface{})
	require.Equal(t, true, result["success"], "submit result: %v", result)
	assert.Equal(t, "Application submitted successfully!", result["message"])
	assert.Equal(t, int64(1), atomic.LoadInt64(fx.applyCalls))

	// The form reset to defaults; the success banner is up.
	form := data["form"].(map[string]interface{})
	assert.Equal(t, float64(100000), form["amount"])
	assert.Equal(t, false, form["consentShare"])
	banner := data["banner"].(map[string]interface{})
	assert.Equal(t, "success", banner["kind"])
	assert.Equal(t, "Application submitted successfully!", banner["message"])
	assert.NoError(t, fx.mock.ExpectationsWereMet())
}

func TestWizardSubmitDoesNotReuseEarlierCallersToken(t *testing.T) {
	fx := newFixture(t)
	token := fx.customerToken(t, "user-1")

	newSubmittableSession := func() string {
		_, body := fx.request(t, "POST", "/wizard/sessions", "", nil)
		sessID := body["data"].(map[string]interface{})["id"].(string)
		_, _ = fx.request(t, "POST", "/wizard/sessions/"+sessID+"/fields", "", map[string]interface{}{
			"field": "consentShare", "value": true,
		})
		return sessID
	}

	fx.mock.ExpectExec("INSERT INTO loan_applications").WillReturnResult(sqlmock.NewResult(1, 1))

	_, body := fx.request(t, "POST", "/wizard/sessions/"+newSubmittableSession()+"/submit", token, nil)
	result := body["data"].(map[string]interface{})["result"].(map[string]interface{})
	require.Equal(t, true, result["success"])
	require.Equal(t, int64(1), atomic.LoadInt64(fx.applyCalls))

	// A later submit with no Authorization header must not inherit the
	// first caller's token: it fails locally, before any network call.
	_, body = fx.request(t, "POST", "/wizard/sessions/"+newSubmittableSession()+"/submit", "", nil)
	result = body["data"].(map[string]interface{})["result"].(map[string]interface{})
	assert.Equal(t, false, result["success"])
	assert.Equal(t, "Authentication token not found", result["error"])
	assert.Equal(t, int64(1), atomic.LoadInt64(fx.applyCalls))
}

func TestWizardVerifyIncome(t *testing.T) {
	fx := newFixture(t)

	_, body := fx.request(t, "POST", "/wizard/sessions", "", nil)
	sessID := body["data"].(map[string]interface{})["id"].(string)

	resp, body := fx.request(t, "POST", "/wizard/sessions/"+sessID+"/verify-income", "", map[string]interface{}{
		"salarySlip": map[string]interface{}{"name": "slip.pdf", "size": 1024, "type": "application/pdf"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data := body["data"].(map[string]interface{})
	income := data["income"].(map[string]interface{})
	assert.Equal(t, "pending", income["status"])

	form := data["form"].(map[string]interface{})
	slip := form["salarySlip"].(map[string]interface{})
	assert.Equal(t, "slip.pdf", slip["name"])
}

func TestWizardToggleContactEdit(t *testing.T) {
	fx := newFixture(t)

	_, body := fx.request(t, "POST", "/wizard/sessions", "", nil)
	sessID := body["data"].(map[string]interface{})["id"].(string)
	base := "/wizard/sessions/" + sessID

	resp, body := fx.request(t, "POST", base+"/toggle-contact-edit", "", map[string]string{"target": "mobile"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	ui := body["data"].(map[string]interface{})["ui"].(map[string]interface{})
	assert.Equal(t, true, ui["mobileEditing"])

	resp, _ = fx.request(t, "POST", base+"/toggle-contact-edit", "", map[string]string{"target": "fax"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAdminLogin(t *testing.T) {
	fx := newFixture(t)

	// sha256("hunter2")
	hash := "f52fbd32b2b3b86ff88ef6c490628285f482af15ddcb29541f94bcf526a3f6c7"
	now := time.Now().UTC()
	fx.mock.ExpectQuery("FROM users WHERE email").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "mobile", "email", "backup_email", "full_name", "role",
			"password_hash", "profile_picture", "address_line1", "address_line2",
			"city", "pincode", "created_at", "updated_at",
		}).AddRow("a1", "", "admin@loanbridge.example", "", "Admin", "admin",
			hash, "", "", "", "", "", now, now))

	resp, body := fx.request(t, "POST", "/admin/login", "", map[string]string{
		"email":    "admin@loanbridge.example",
		"password": "hunter2",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := body["data"].(map[string]interface{})
	assert.NotEmpty(t, data["accessToken"])
}

func TestAdminEndpointsRejectCustomers(t *testing.T) {
	fx := newFixture(t)
	token := fx.customerToken(t, "user-1")

	resp, _ := fx.request(t, "POST", "/admin/loans/app-1/approve", token, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAdminRejectRequiresReason(t *testing.T) {
	fx := newFixture(t)
	token := fx.adminToken(t)

	now := time.Now().UTC()
	fx.mock.ExpectQuery("FROM loan_applications WHERE id").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "amount", "tenure_months", "interest_rate", "purpose",
			"employment_type", "employment_details", "contact_details",
			"documents_submitted", "consent_share", "consent_credit_pull",
			"status", "decision_reason", "approved_terms", "created_at", "updated_at",
		}).AddRow("app-1", "user-1", int64(100000), 12, 10.0, "Personal",
			"Salaried", []byte(`{}`), []byte(`{}`), []byte(`{}`), true, false,
			"submitted", "", nil, now, now))

	resp, _ := fx.request(t, "POST", "/admin/loans/app-1/reject", token, map[string]string{"reason": ""})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHealthz(t *testing.T) {
	fx := newFixture(t)

	resp, body := fx.request(t, "GET", "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestProfileRoundTrip(t *testing.T) {
	fx := newFixture(t)
	token := fx.customerToken(t, "user-1")

	userRows := func() *sqlmock.Rows {
		now := time.Now().UTC()
		return sqlmock.NewRows([]string{
			"id", "mobile", "email", "backup_email", "full_name", "role",
			"password_hash", "profile_picture", "address_line1", "address_line2",
			"city", "pincode", "created_at", "updated_at",
		}).AddRow("user-1", "9876543210", "", "", "", "customer", "", "", "", "", "", "", now, now)
	}

	fx.mock.ExpectQuery("FROM users WHERE id").WillReturnRows(userRows())
	resp, body := fx.request(t, "GET", "/users/profile", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	user := body["data"].(map[string]interface{})["user"].(map[string]interface{})
	assert.Equal(t, "user-1", user["id"])

	fx.mock.ExpectExec("UPDATE users SET").WillReturnResult(sqlmock.NewResult(0, 1))
	fx.mock.ExpectQuery("FROM users WHERE id").WillReturnRows(userRows())
	resp, _ = fx.request(t, "PUT", "/users/profile", token, map[string]string{"fullName": "Priya Sharma"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Malformed email is rejected before any query runs.
	resp, _ = fx.request(t, "PUT", "/users/profile", token, map[string]string{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.NoError(t, fx.mock.ExpectationsWereMet())
}

func TestAdminSearchUnavailableWithoutIndexer(t *testing.T) {
	fx := newFixture(t)
	token := fx.adminToken(t)

	resp, _ := fx.request(t, "GET", "/admin/loans/search?q=personal", token, nil)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}
