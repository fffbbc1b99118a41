package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/finance_tracker/internal/db/dbtest"
	"github.com/Skotchmaster/finance_tracker/internal/hash"
	"github.com/Skotchmaster/finance_tracker/internal/models"
	"github.com/Skotchmaster/finance_tracker/internal/repo"
	"github.com/Skotchmaster/finance_tracker/internal/service"
	"github.com/Skotchmaster/finance_tracker/internal/tokens"
)

var testSecret = []byte("test-jwt-secret")

type testEnv struct {
	e *echo.Echo
}

func newTestEnv(t *testing.T, opts ...func(*Deps)) *testEnv {
	t.Helper()

	r := repo.New(dbtest.Open(t))
	authSvc := &service.AuthService{
		Users:          r,
		Tokens:         r,
		Issuer:         tokens.NewIssuer(testSecret, 2*time.Hour),
		RefreshTTL:     7 * 24 * time.Hour,
		MinPasswordLen: 4,
		BcryptCost:     hash.MinCost,
	}
	catSvc := &service.CategoryService{Store: r}
	require.NoError(t, catSvc.Init(context.Background()))

	d := &Deps{
		Auth:       &AuthHTTP{Svc: authSvc},
		Ledger:     &LedgerHTTP{Svc: &service.LedgerService{Store: r}},
		Categories: &CategoryHTTP{Svc: catSvc},
		AuthMW:     &AuthMiddleware{Verifier: authSvc},
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(d)
	}
	return &testEnv{e: New(d)}
}

func (env *testEnv) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, rdr)
	if rdr != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (env *testEnv) register(t *testing.T, username string) sessionResponse {
	t.Helper()
	rec := env.do(t, http.MethodPost, "/api/auth/register", map[string]string{"username": username, "password": "secret"}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[sessionResponse](t, rec)
}

func TestAuthFlow(t *testing.T) {
	env := newTestEnv(t)

	reg := env.register(t, "alice")
	assert.NotEmpty(t, reg.AccessToken)
	assert.NotEmpty(t, reg.RefreshToken)
	require.NotNil(t, reg.User)
	assert.Equal(t, "alice", reg.User.Username)

	rec := env.do(t, http.MethodPost, "/api/auth/register", map[string]string{"username": "alice", "password": "secret"}, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"error":"username taken"}`, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/api/auth/login", map[string]string{"username": "alice", "password": "secret"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	login := decode[sessionResponse](t, rec)

	rec = env.do(t, http.MethodGet, "/api/auth/me", nil, login.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[struct {
		User map[string]any `json:"user"`
	}](t, rec)
	assert.Equal(t, "alice", me.User["username"])
	assert.NotContains(t, me.User, "passwordHash")

	rec = env.do(t, http.MethodPost, "/api/auth/refresh", map[string]string{"refreshToken": login.RefreshToken}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	refreshed := decode[sessionResponse](t, rec)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	rec = env.do(t, http.MethodPost, "/api/auth/refresh", map[string]string{"refreshToken": login.RefreshToken}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/auth/logout", map[string]string{"refreshToken": refreshed.RefreshToken}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/api/auth/refresh", map[string]string{"refreshToken": refreshed.RefreshToken}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthErrors(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice")

	tests := []struct {
		name   string
		path   string
		body   any
		status int
		want   string
	}{
		{name: "register missing fields", path: "/api/auth/register", body: map[string]string{}, status: http.StatusBadRequest},
		{name: "register short password", path: "/api/auth/register", body: map[string]string{"username": "bob", "password": "abc"}, status: http.StatusBadRequest, want: `{"error":"password too short"}`},
		{name: "register bad json", path: "/api/auth/register", body: "{", status: http.StatusBadRequest, want: `{"error":"invalid body"}`},
		{name: "login missing fields", path: "/api/auth/login", body: map[string]string{"username": "alice"}, status: http.StatusBadRequest},
		{name: "login wrong password", path: "/api/auth/login", body: map[string]string{"username": "alice", "password": "wrong"}, status: http.StatusUnauthorized, want: `{"error":"invalid credentials"}`},
		{name: "login unknown user", path: "/api/auth/login", body: map[string]string{"username": "zed", "password": "secret"}, status: http.StatusUnauthorized, want: `{"error":"invalid credentials"}`},
		{name: "refresh missing token", path: "/api/auth/refresh", body: map[string]string{}, status: http.StatusBadRequest},
		{name: "refresh unknown token", path: "/api/auth/refresh", body: map[string]string{"refreshToken": "nope"}, status: http.StatusUnauthorized},
		{name: "logout without body", path: "/api/auth/logout", body: nil, status: http.StatusOK},
		{name: "logout unknown token", path: "/api/auth/logout", body: map[string]string{"refreshToken": "nope"}, status: http.StatusOK},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, tt.path, tt.body, "")
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.want != "" {
				assert.JSONEq(t, tt.want, rec.Body.String())
			}
		})
	}
}

func TestMe_UnknownUserIsUnauthorized(t *testing.T) {
	env := newTestEnv(t)

	ghost, _, err := tokens.NewIssuer(testSecret, time.Hour).Issue("0b7f3c1e-6d0a-4a5e-9a55-3c1f0e2d9b11", "ghost")
	require.NoError(t, err)

	rec := env.do(t, http.MethodGet, "/api/auth/me", nil, ghost)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"invalid token","code":"TOKEN_INVALID"}`, rec.Body.String())
}

func TestRequireAuth_TokenErrors(t *testing.T) {
	env := newTestEnv(t)

	expired, _, err := (&tokens.Issuer{
		Secret: testSecret,
		TTL:    time.Minute,
		Now:    func() time.Time { return time.Now().Add(-time.Hour) },
	}).Issue("u1", "alice")
	require.NoError(t, err)

	rec := env.do(t, http.MethodGet, "/api/transactions", nil, expired)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"token expired","code":"TOKEN_EXPIRED"}`, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/transactions", nil, "garbage")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"invalid token","code":"TOKEN_INVALID"}`, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/transactions", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"invalid token","code":"TOKEN_INVALID"}`, rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set(echo.HeaderAuthorization, "Basic abc")
	rec = httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTransactionsCRUD(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")

	rec := env.do(t, http.MethodPost, "/api/transactions", `{"type":"expense","amount":12.345,"description":"Monthly Rent","date":"2024-03-01"}`, alice.AccessToken)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[models.Transaction](t, rec)
	assert.EqualValues(t, 1235, created.AmountMinor)
	assert.Equal(t, "USD", created.Currency)
	assert.Equal(t, "Uncategorized", created.Category)
	assert.Equal(t, "2024-03-01T00:00:00.000Z", created.Date)

	rec = env.do(t, http.MethodPost, "/api/transactions", `{"type":"income","amount":"50","description":"gift"}`, alice.AccessToken)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/transactions?search=rent", nil, alice.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]models.Transaction](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)

	rec = env.do(t, http.MethodGet, "/api/transactions?type=income", nil, alice.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Transaction](t, rec), 1)

	rec = env.do(t, http.MethodGet, "/api/transactions", nil, bob.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/transactions/"+created.ID, nil, alice.AccessToken)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/transactions/"+created.ID, nil, bob.AccessToken)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/transactions/"+created.ID, `{"amount":"20","category":"Rent"}`, alice.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[models.Transaction](t, rec)
	assert.EqualValues(t, 2000, updated.AmountMinor)
	assert.Equal(t, "Rent", updated.Category)
	assert.Equal(t, "Monthly Rent", updated.Description)

	rec = env.do(t, http.MethodPut, "/api/transactions/"+created.ID, `{"amount":"1"}`, bob.AccessToken)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"not found"}`, rec.Body.String())

	rec = env.do(t, http.MethodDelete, "/api/transactions/"+created.ID, nil, bob.AccessToken)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/transactions/"+created.ID, nil, alice.AccessToken)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/transactions/"+created.ID, nil, alice.AccessToken)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTransactionsValidation(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice")

	for _, body := range []string{
		`{"type":"transfer","amount":1}`,
		`{"amount":1}`,
		`{"type":"expense"}`,
		`{"type":"expense","amount":"abc"}`,
		`{"type":"expense","amount":true}`,
		`{"type":"expense","amount":-5}`,
		`{"type":"expense","amount":1,"date":"not a date"}`,
	} {
		rec := env.do(t, http.MethodPost, "/api/transactions", body, alice.AccessToken)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Contains(t, rec.Body.String(), `"error"`)
	}
}

func TestMonthlySummary(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice")

	for _, body := range []string{
		`{"type":"income","amount":50}`,
		`{"type":"expense","amount":"20.00"}`,
	} {
		rec := env.do(t, http.MethodPost, "/api/transactions", body, alice.AccessToken)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := env.do(t, http.MethodGet, "/api/transactions/summary/monthly", nil, alice.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)
	sum := decode[service.MonthlySummary](t, rec)
	assert.Equal(t, time.Now().UTC().Format("2006-01"), sum.Month)
	assert.EqualValues(t, 5000, sum.IncomeMinor)
	assert.EqualValues(t, 2000, sum.ExpenseMinor)
	assert.EqualValues(t, 3000, sum.NetMinor)
}

func TestCategories(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice")

	rec := env.do(t, http.MethodGet, "/api/transactions/categories", nil, alice.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)
	cats := decode[[]models.Category](t, rec)
	require.Len(t, cats, 5)
	assert.Equal(t, "Food", cats[0].Name)

	rec = env.do(t, http.MethodPost, "/api/transactions/categories", `{"name":"Gifts","type":"expense","color":"#abcdef"}`, alice.AccessToken)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	gifts := decode[models.Category](t, rec)

	rec = env.do(t, http.MethodPost, "/api/transactions/categories", `{"name":"Bad","type":"expense","color":"blue"}`, alice.AccessToken)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/transactions/categories", `{"name":"Bad","type":"loan"}`, alice.AccessToken)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/transactions/categories/"+gifts.ID, nil, alice.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/transactions/categories/"+gifts.ID, nil, alice.AccessToken)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/transactions/categories/"+gifts.ID, nil, alice.AccessToken)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/transactions/categories", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealthAndUnknownRoutes(t *testing.T) {
	env := newTestEnv(t, func(d *Deps) {
		d.Ready = func(context.Context) error { return nil }
	})

	rec := env.do(t, http.MethodGet, "/api/health", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	health := decode[healthResponse](t, rec)
	assert.Equal(t, "ok", health.Status)

	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/health/live", nil, "").Code)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/health/ready", nil, "").Code)

	rec = env.do(t, http.MethodGet, "/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Not Found"}`, rec.Body.String())
}

func TestHealthReadyFailure(t *testing.T) {
	env := newTestEnv(t, func(d *Deps) {
		d.Ready = func(context.Context) error { return assert.AnError }
	})

	rec := env.do(t, http.MethodGet, "/health/ready", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAuthRateLimit(t *testing.T) {
	env := newTestEnv(t, func(d *Deps) { d.AuthRateLimit = 1 })

	statuses := make([]int, 0, 5)
	for i := 0; i < 5; i++ {
		statuses = append(statuses, env.do(t, http.MethodPost, "/api/auth/logout", nil, "").Code)
	}
	assert.Equal(t, http.StatusOK, statuses[0])
	assert.Contains(t, statuses, http.StatusTooManyRequests)
}

func TestAmount_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		in      string
		want    Amount
		wantErr bool
	}{
		{in: `12.345`, want: "12.345"},
		{in: `"12.345"`, want: "12.345"},
		{in: `-1`, want: "-1"},
		{in: `1e3`, want: "1e3"},
		{in: `true`, wantErr: true},
		{in: `{}`, wantErr: true},
	}

	for _, tt := range tests {
		var a Amount
		err := json.Unmarshal([]byte(tt.in), &a)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, a)
	}
}

func TestStatusFor_UnknownErrorIsGeneric(t *testing.T) {
	status, body := statusFor(io.ErrUnexpectedEOF)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Internal Server Error", body.Error)
}

func TestPageBounds(t *testing.T) {
	tests := []struct {
		page, size         int
		wantOffset, wantLn int
	}{
		{page: 1, size: 20, wantOffset: 0, wantLn: 20},
		{page: 3, size: 5, wantOffset: 10, wantLn: 5},
		{page: 0, size: 0, wantOffset: 0, wantLn: defaultPageSize},
		{page: 2, size: 1000, wantOffset: defaultPageSize, wantLn: defaultPageSize},
	}

	for _, tt := range tests {
		offset, limit := pageBounds(tt.page, tt.size)
		assert.Equal(t, tt.wantOffset, offset)
		assert.Equal(t, tt.wantLn, limit)
	}
}

func TestTransactionsPagination(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice")

	for _, day := range []string{"01", "02", "03"} {
		rec := env.do(t, http.MethodPost, "/api/transactions", `{"type":"expense","amount":1,"date":"2024-03-`+day+`"}`, alice.AccessToken)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := env.do(t, http.MethodGet, "/api/transactions?page=2&size=2", nil, alice.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[[]models.Transaction](t, rec)
	require.Len(t, page, 1)
	assert.Equal(t, "2024-03-01T00:00:00.000Z", page[0].Date)

	rec = env.do(t, http.MethodGet, "/api/transactions", nil, alice.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Transaction](t, rec), 3)
}
