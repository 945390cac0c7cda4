package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/openauthhq/openauth/middleware/appkey"
	"github.com/openauthhq/openauth/middleware/devkey"
	"github.com/openauthhq/openauth/server"
	"github.com/openauthhq/openauth/services/client"
	"github.com/openauthhq/openauth/services/developer"
	"github.com/openauthhq/openauth/services/emailotp"
	"github.com/openauthhq/openauth/services/totp"
	"github.com/openauthhq/openauth/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testAPI struct {
	srv    *server.Server
	mailer *testutils.FakeMailer
}

func newTestAPI(t *testing.T) *testAPI {
	cfg := testutils.GetTestConfig()
	db := testutils.SetupTestDB(t,
		&developer.Developer{},
		&developer.App{},
		&client.Client{},
		&totp.TOTPDevice{},
		&emailotp.EmailOTP{},
	)

	developers := developer.NewService(cfg, db, nil)
	clients := client.NewService(cfg, db, nil)
	totpService := totp.NewService(cfg, db, clients, nil)
	mailer := testutils.NewFakeMailer()
	emailOTP := emailotp.NewService(cfg, db, clients, mailer, nil)

	srv := server.New(cfg, nil)
	RegisterRoutes(srv, New(developers, clients, totpService, emailOTP, nil))

	return &testAPI{srv: srv, mailer: mailer}
}

func (api *testAPI) do(t *testing.T, method, path, body string, headers map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	api.srv.Echo().ServeHTTP(rec, req)

	payload := map[string]any{}
	if rec.Body.Len() > 0 {
		_ = json.Unmarshal(rec.Body.Bytes(), &payload)
	}
	return rec, payload
}

func TestEndToEndEmailOTPFlow(t *testing.T) {
	api := newTestAPI(t)

	rec, payload := api.do(t, http.MethodPost, "/developers/register",
		`{"name":"Alice","email":"alice@example.com","password":"correct horse"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	apiKey, _ := payload["developer_api_key"].(string)
	require.Len(t, apiKey, 64)

	rec, payload = api.do(t, http.MethodPost, "/developers/apps",
		`{"app_name":"Demo App"}`, map[string]string{devkey.HeaderName: apiKey})
	require.Equal(t, http.StatusCreated, rec.Code)
	secretKey, _ := payload["app_secret_key"].(string)
	require.Len(t, secretKey, 64)
	appAuth := map[string]string{appkey.HeaderName: secretKey}

	rec, _ = api.do(t, http.MethodPost, "/mfa/email/setup",
		`{"external_user_id":"u1","email":"a@example.com"}`, appAuth)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, _ = api.do(t, http.MethodPost, "/mfa/email/send",
		`{"external_user_id":"u1"}`, appAuth)
	require.Equal(t, http.StatusOK, rec.Code)

	msg := api.mailer.WaitForMessage(t, 2*time.Second)
	assert.Equal(t, "a@example.com", msg.To)
	code := strings.TrimPrefix(msg.Body, "Your verification code is ")
	require.Len(t, code, 6)

	rec, payload = api.do(t, http.MethodPost, "/mfa/email/verify",
		`{"external_user_id":"u1","otp":"`+code+`"}`, appAuth)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, payload["verified"])

	rec, _ = api.do(t, http.MethodPost, "/mfa/email/verify",
		`{"external_user_id":"u1","otp":"`+code+`"}`, appAuth)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, payload = api.do(t, http.MethodGet, "/mfa/status?external_user_id=u1", "", appAuth)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, payload["exists"])
	assert.Equal(t, "email", payload["mfa_type"])
	assert.Equal(t, true, payload["active"])
}

func TestTOTPSetupEndpoint(t *testing.T) {
	api := newTestAPI(t)

	_, payload := api.do(t, http.MethodPost, "/developers/register",
		`{"name":"Alice","email":"alice@example.com","password":"correct horse"}`, nil)
	apiKey, _ := payload["developer_api_key"].(string)

	_, payload = api.do(t, http.MethodPost, "/developers/apps",
		`{"app_name":"Demo App"}`, map[string]string{devkey.HeaderName: apiKey})
	secretKey, _ := payload["app_secret_key"].(string)
	appAuth := map[string]string{appkey.HeaderName: secretKey}

	rec, payload := api.do(t, http.MethodPost, "/mfa/totp/setup",
		`{"external_user_id":"u1"}`, appAuth)
	require.Equal(t, http.StatusCreated, rec.Code)
	secret, _ := payload["secret_key"].(string)
	uri, _ := payload["provisioning_uri"].(string)
	assert.NotEmpty(t, secret)
	assert.Contains(t, uri, "otpauth://totp/")
	assert.Contains(t, uri, "issuer=Demo App")

	rec, payload = api.do(t, http.MethodPost, "/mfa/totp/setup",
		`{"external_user_id":"u1"}`, appAuth)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, secret, payload["secret_key"], "repeat setup returns the same secret")

	rec, payload = api.do(t, http.MethodGet, "/mfa/status?external_user_id=u1", "", appAuth)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "totp", payload["mfa_type"])
}

func TestAuthRejections(t *testing.T) {
	api := newTestAPI(t)

	t.Run("app creation without developer key", func(t *testing.T) {
		rec, _ := api.do(t, http.MethodPost, "/developers/apps", `{"app_name":"Demo"}`, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("mfa operation with unknown app secret", func(t *testing.T) {
		rec, _ := api.do(t, http.MethodPost, "/mfa/totp/setup",
			`{"external_user_id":"u1"}`,
			map[string]string{appkey.HeaderName: strings.Repeat("0", 64)})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestValidationFailures(t *testing.T) {
	api := newTestAPI(t)

	_, payload := api.do(t, http.MethodPost, "/developers/register",
		`{"name":"Alice","email":"alice@example.com","password":"correct horse"}`, nil)
	apiKey, _ := payload["developer_api_key"].(string)
	_, payload = api.do(t, http.MethodPost, "/developers/apps",
		`{"app_name":"Demo App"}`, map[string]string{devkey.HeaderName: apiKey})
	secretKey, _ := payload["app_secret_key"].(string)
	appAuth := map[string]string{appkey.HeaderName: secretKey}

	t.Run("register without email", func(t *testing.T) {
		rec, _ := api.do(t, http.MethodPost, "/developers/register",
			`{"name":"Bob","password":"pw"}`, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("duplicate developer email", func(t *testing.T) {
		rec, _ := api.do(t, http.MethodPost, "/developers/register",
			`{"name":"Alice","email":"alice@example.com","password":"again"}`, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("totp setup without external user id", func(t *testing.T) {
		rec, _ := api.do(t, http.MethodPost, "/mfa/totp/setup", `{}`, appAuth)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("email setup with malformed email", func(t *testing.T) {
		rec, _ := api.do(t, http.MethodPost, "/mfa/email/setup",
			`{"external_user_id":"u1","email":"not-an-email"}`, appAuth)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("send for unconfigured client", func(t *testing.T) {
		rec, _ := api.do(t, http.MethodPost, "/mfa/email/send",
			`{"external_user_id":"ghost"}`, appAuth)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("status without external user id", func(t *testing.T) {
		rec, _ := api.do(t, http.MethodGet, "/mfa/status", "", appAuth)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
