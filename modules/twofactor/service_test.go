package twofactor_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	module "github.com/dmitrymomot/twofactor/modules/twofactor"
	"github.com/dmitrymomot/twofactor/pkg/clientip"
	"github.com/dmitrymomot/twofactor/pkg/logger"
	"github.com/dmitrymomot/twofactor/pkg/ratelimiter"
	"github.com/dmitrymomot/twofactor/pkg/secrets"
	"github.com/dmitrymomot/twofactor/pkg/totp"
	"github.com/dmitrymomot/twofactor/svc/twofactor"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) nextStep() {
	c.mu.Lock()
	c.now = c.now.Add(30 * time.Second)
	c.mu.Unlock()
}

type env struct {
	t       *testing.T
	handler http.Handler
	clock   *clock
	account uuid.UUID
	label   string
}

func newEnv(t *testing.T, opts ...module.Option) *env {
	t.Helper()

	key, err := secrets.GenerateKey()
	require.NoError(t, err)
	sealer, err := secrets.NewSealer(key)
	require.NoError(t, err)

	c := &clock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	lc, err := twofactor.NewLifecycle(twofactor.NewMemoryRepository(), sealer, "Acme",
		twofactor.WithClock(c.Now),
		twofactor.WithLogger(logger.Nop()),
	)
	require.NoError(t, err)
	t.Cleanup(lc.Close)

	svc := module.NewService(lc, module.NewHeaderSessions(time.Hour),
		append([]module.Option{module.WithLogger(logger.Nop())}, opts...)...)

	r := chi.NewRouter()
	r.Use(clientip.Middleware(clientip.NewResolver()))
	r.Mount("/2fa", svc.Handle())

	return &env{t: t, handler: r, clock: c, account: uuid.New(), label: "alice@example.com"}
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (e *env) do(method, path string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	var req *http.Request
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(e.t, err)
		req = httptest.NewRequest(method, path, strings.NewReader(string(b)))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(module.HeaderAccountID, e.account.String())
	if e.label != "" {
		req.Header.Set(module.HeaderLabel, e.label)
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) (T, envelope) {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	var v T
	if len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, &v))
	}
	return v, env
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	_, env := decode[struct{}](t, rec)
	require.NotNil(t, env.Error, rec.Body.String())
	return env.Error.Code
}

// enable runs setup and confirmation and returns the active secret.
func (e *env) enable() totp.Secret {
	e.t.Helper()
	rec := e.do(http.MethodPost, "/2fa/setup", nil)
	require.Equal(e.t, http.StatusOK, rec.Code, rec.Body.String())
	status, _ := decode[module.StatusResponse](e.t, rec)
	require.NotNil(e.t, status.Setup)

	secret, err := totp.ParseSecret(status.Setup.Secret)
	require.NoError(e.t, err)

	rec = e.do(http.MethodPost, "/2fa/enable", module.CodeRequest{Code: totp.CodeAt(secret, e.clock.Now())})
	require.Equal(e.t, http.StatusOK, rec.Code, rec.Body.String())
	e.clock.nextStep()
	return secret
}

func TestService_RequiresPrincipal(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	for _, path := range []string{"/2fa/setup", "/2fa/verify"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Accept", "application/json")
		rec := httptest.NewRecorder()
		e.handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
		assert.Equal(t, "unauthorized", errorCode(t, rec), path)
	}
}

func TestService_SetupFlow(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	rec := e.do(http.MethodGet, "/2fa/setup", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	status, _ := decode[module.StatusResponse](t, rec)
	assert.Equal(t, "disabled", status.State)
	assert.False(t, status.Enabled)
	assert.Nil(t, status.Setup)

	rec = e.do(http.MethodPost, "/2fa/setup", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	pending, _ := decode[module.StatusResponse](t, rec)
	assert.Equal(t, "pending_enable", pending.State)
	require.NotNil(t, pending.Setup)
	assert.True(t, strings.HasPrefix(pending.Setup.URI, "otpauth://totp/Acme:alice@example.com?secret="+pending.Setup.Secret))
	assert.True(t, strings.HasPrefix(pending.Setup.QRCode, "data:image/png;base64,"))
	assert.True(t, e.clock.Now().Add(twofactor.DefaultSetupTTL).Equal(pending.Setup.ExpiresAt))
	assert.NotContains(t, rec.Body.String(), "token")

	// The pending setup survives a reload.
	rec = e.do(http.MethodGet, "/2fa/setup", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	again, _ := decode[module.StatusResponse](t, rec)
	require.NotNil(t, again.Setup)
	assert.Equal(t, pending.Setup.Secret, again.Setup.Secret)

	rec = e.do(http.MethodPost, "/2fa/enable", module.CodeRequest{Code: "12"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	_, env := decode[struct{}](t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "invalid_code_format", env.Error.Code)
	assert.Equal(t, "enter a 6-digit code", env.Error.Message)

	secret, err := totp.ParseSecret(pending.Setup.Secret)
	require.NoError(t, err)
	rec = e.do(http.MethodPost, "/2fa/enable", module.CodeRequest{Code: totp.CodeAt(secret, e.clock.Now())})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	enabled, _ := decode[module.StatusResponse](t, rec)
	assert.Equal(t, "enabled", enabled.State)
	assert.True(t, enabled.Enabled)
	assert.NotNil(t, enabled.EnabledAt)

	rec = e.do(http.MethodPost, "/2fa/setup", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "invalid_state", errorCode(t, rec))

	e.clock.nextStep()
	rec = e.do(http.MethodPost, "/2fa/disable", module.CodeRequest{Code: totp.CodeAt(secret, e.clock.Now())})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	disabled, _ := decode[module.StatusResponse](t, rec)
	assert.False(t, disabled.Enabled)

	e.clock.nextStep()
	rec = e.do(http.MethodPost, "/2fa/disable", module.CodeRequest{Code: totp.CodeAt(secret, e.clock.Now())})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestService_EnableWithoutSetup(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	rec := e.do(http.MethodPost, "/2fa/enable", module.CodeRequest{Code: "123456"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "invalid_state", errorCode(t, rec))
}

func TestService_ExpiredSetup(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	rec := e.do(http.MethodPost, "/2fa/setup", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	pending, _ := decode[module.StatusResponse](t, rec)
	secret, err := totp.ParseSecret(pending.Setup.Secret)
	require.NoError(t, err)

	e.clock.mu.Lock()
	e.clock.now = e.clock.now.Add(twofactor.DefaultSetupTTL)
	e.clock.mu.Unlock()

	rec = e.do(http.MethodPost, "/2fa/enable", module.CodeRequest{Code: totp.CodeAt(secret, e.clock.Now())})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "setup_expired", errorCode(t, rec))

	// The dead token was dropped.
	rec = e.do(http.MethodGet, "/2fa/setup", nil)
	status, _ := decode[module.StatusResponse](t, rec)
	assert.Equal(t, "disabled", status.State)
}

func TestService_Throttled(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	secret := e.enable()

	bad := "000000"
	if ok, _ := totp.Verify(secret, bad, e.clock.Now(), 1); ok {
		bad = "111111"
	}
	for range twofactor.DefaultThrottle.Capacity {
		rec := e.do(http.MethodPost, "/2fa/disable", module.CodeRequest{Code: bad})
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, "code_rejected", errorCode(t, rec))
	}

	rec := e.do(http.MethodPost, "/2fa/disable", module.CodeRequest{Code: totp.CodeAt(secret, e.clock.Now())})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "too_many_attempts", errorCode(t, rec))
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}

func TestService_Reset(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	old := e.enable()

	rec := e.do(http.MethodPost, "/2fa/reset", module.CodeRequest{Code: totp.CodeAt(old, e.clock.Now())})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	pending, _ := decode[module.StatusResponse](t, rec)
	assert.Equal(t, "pending_enable", pending.State)
	require.NotNil(t, pending.Setup)
	assert.NotEqual(t, old.Base32(), pending.Setup.Secret)

	secret, err := totp.ParseSecret(pending.Setup.Secret)
	require.NoError(t, err)
	e.clock.nextStep()
	rec = e.do(http.MethodPost, "/2fa/enable", module.CodeRequest{Code: totp.CodeAt(secret, e.clock.Now())})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestService_LoginChallenge(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	secret := e.enable()

	rec := e.do(http.MethodPost, "/2fa/verify", module.VerifyRequest{Code: totp.CodeAt(secret, e.clock.Now())})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "no_challenge_pending", errorCode(t, rec))

	rec = e.do(http.MethodGet, "/2fa/verify", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	state, _ := decode[module.VerifyResponse](t, rec)
	assert.True(t, state.Pending)

	// Settings are closed until the challenge is answered.
	rec = e.do(http.MethodGet, "/2fa/setup", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = e.do(http.MethodPost, "/2fa/verify", module.VerifyRequest{Code: "abcdef"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = e.do(http.MethodPost, "/2fa/verify", module.VerifyRequest{Code: totp.CodeAt(secret, e.clock.Now()), RedirectURL: "/home"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res, _ := decode[module.VerifyResponse](t, rec)
	assert.True(t, res.Accepted)
	assert.Equal(t, "/home", res.RedirectURL)

	rec = e.do(http.MethodGet, "/2fa/setup", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Revisiting the challenge page does not lock a verified session out again.
	rec = e.do(http.MethodGet, "/2fa/verify", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	state, _ = decode[module.VerifyResponse](t, rec)
	assert.False(t, state.Pending)

	rec = e.do(http.MethodGet, "/2fa/setup", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestService_SetupWithoutLabel(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	e.label = ""

	rec := e.do(http.MethodPost, "/2fa/setup", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	status, _ := decode[module.StatusResponse](t, rec)
	require.NotNil(t, status.Setup)
	assert.True(t, strings.HasPrefix(status.Setup.URI, "otpauth://totp/Acme:"+e.account.String()+"?"), status.Setup.URI)

	// Reloading the page resumes the same pending setup.
	rec = e.do(http.MethodGet, "/2fa/setup", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resumed, _ := decode[module.StatusResponse](t, rec)
	require.NotNil(t, resumed.Setup)
	assert.Equal(t, status.Setup.Secret, resumed.Setup.Secret)
}

func TestService_LoginChallengeHTML(t *testing.T) {
	t.Parallel()
	e := newEnv(t, module.WithDefaultRedirect("/dashboard"))
	secret := e.enable()

	request := func(method, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, "/2fa/verify", strings.NewReader(body))
		if body != "" {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
		req.Header.Set(module.HeaderAccountID, e.account.String())
		rec := httptest.NewRecorder()
		e.handler.ServeHTTP(rec, req)
		return rec
	}

	rec := request(http.MethodGet, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), `name="code"`)

	rec = request(http.MethodPost, url.Values{"code": {"000"}}.Encode())
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "enter a 6-digit code")

	rec = request(http.MethodPost, url.Values{"code": {totp.CodeAt(secret, e.clock.Now())}}.Encode())
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))
}

func TestService_SetupPageHTML(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/2fa/setup", nil)
	req.Header.Set(module.HeaderAccountID, e.account.String())
	req.Header.Set(module.HeaderLabel, "alice@example.com")
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `<img src="data:image/png;base64,`)
	assert.Contains(t, body, `action="enable"`)
}

func TestService_VerifyLimiter(t *testing.T) {
	t.Parallel()

	limiter, err := ratelimiter.NewBucket(
		ratelimiter.NewMemoryStore(ratelimiter.WithCleanupInterval(0)),
		ratelimiter.Config{Capacity: 1, RefillRate: 1, RefillInterval: time.Minute},
	)
	require.NoError(t, err)
	e := newEnv(t, module.WithVerifyLimiter(limiter))

	rec := e.do(http.MethodPost, "/2fa/verify", module.VerifyRequest{Code: "123456"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = e.do(http.MethodPost, "/2fa/verify", module.VerifyRequest{Code: "123456"})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "too_many_requests", errorCode(t, rec))
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// Other routes are not limited per IP.
	rec = e.do(http.MethodGet, "/2fa/verify", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		err    error
		status int
		key    string
	}{
		{"format", twofactor.ErrInvalidCodeFormat, http.StatusUnprocessableEntity, "invalid_code_format"},
		{"rejected", twofactor.ErrCodeRejected, http.StatusUnprocessableEntity, "code_rejected"},
		{"expired", twofactor.ErrSetupExpired, http.StatusUnprocessableEntity, "setup_expired"},
		{"bad token", twofactor.ErrInvalidSetupToken, http.StatusUnprocessableEntity, "invalid_setup"},
		{"throttled", &twofactor.ThrottledError{RetryAfter: 42 * time.Second}, http.StatusTooManyRequests, "too_many_attempts"},
		{"transition", twofactor.ErrInvalidStateTransition, http.StatusConflict, "invalid_state"},
		{"no challenge", twofactor.ErrNoChallengePending, http.StatusConflict, "no_challenge_pending"},
		{"conflict", twofactor.ErrVersionConflict, http.StatusConflict, "conflict"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			he, ok := module.Classify(tt.err)
			require.True(t, ok)
			assert.Equal(t, tt.status, he.Code)
			assert.Equal(t, tt.key, he.Key)
			assert.ErrorIs(t, he, tt.err)
		})
	}

	he, _ := module.Classify(&twofactor.ThrottledError{RetryAfter: 42 * time.Second})
	assert.Equal(t, 42*time.Second, he.RetryAfter)

	_, ok := module.Classify(twofactor.ErrEntropyUnavailable)
	assert.False(t, ok)
}
