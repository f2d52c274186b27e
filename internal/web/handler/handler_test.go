package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"fxconverter/internal/converter"
	"fxconverter/internal/domain"
	"fxconverter/internal/session"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockCurrencyClient struct{ mock.Mock }

func (m *MockCurrencyClient) GetCurrencies(ctx context.Context, baseURL string) (domain.Catalog, error) {
	args := m.Called(ctx, baseURL)
	catalog, _ := args.Get(0).(domain.Catalog)
	return catalog, args.Error(1)
}

func (m *MockCurrencyClient) GetLatest(ctx context.Context, baseURL string, req domain.ConversionRequest) (domain.Rates, error) {
	args := m.Called(ctx, baseURL, req)
	rates, _ := args.Get(0).(domain.Rates)
	return rates, args.Error(1)
}

func newClient() *MockCurrencyClient {
	client := new(MockCurrencyClient)
	client.On("GetCurrencies", mock.Anything, "http://fx.test").Return(domain.Catalog{"USD", "EUR", "JPY"}, nil)
	client.On("GetLatest", mock.Anything, "http://fx.test", mock.Anything).Return(domain.Rates{
		"EUR": decimal.RequireFromString("0.92"),
		"JPY": decimal.RequireFromString("150.5"),
	}, nil)
	return client
}

func newTestHandler(t *testing.T, client *MockCurrencyClient) (*Handler, *session.Manager) {
	t.Helper()
	m, err := session.NewManager(context.Background(), client, session.Config{
		BaseURL: "http://fx.test",
		TTL:     time.Minute,
		Amount:  decimal.NewFromInt(1),
		From:    "USD",
		To:      "EUR",
	})
	require.NoError(t, err)
	t.Cleanup(m.Close)
	return NewHandler(m, 2*time.Second), m
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == CookieName {
			return c
		}
	}
	t.Fatalf("response has no %s cookie", CookieName)
	return nil
}

func withCookie(req *http.Request, c *http.Cookie) *http.Request {
	if c != nil {
		req.AddCookie(c)
	}
	return req
}

func decodeState(t *testing.T, rec *httptest.ResponseRecorder) StateResponse {
	t.Helper()
	var res StateResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	return res
}

type errorJSON struct {
	Error string `json:"error"`
}

// --- Page ---

func TestHandler_Page_StartsSession(t *testing.T) {
	h, m := newTestHandler(t, newClient())

	rec := httptest.NewRecorder()
	h.Page(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	body := rec.Body.String()
	require.Contains(t, body, `<option value="USD" selected>USD</option>`)
	require.Contains(t, body, `<option value="JPY">JPY</option>`)
	require.Contains(t, body, "1 USD = 0.92 EUR")

	c := sessionCookie(t, rec)
	require.True(t, c.HttpOnly)
	require.Equal(t, 1, m.Len())
}

func TestHandler_Page_ReusesSession(t *testing.T) {
	client := newClient()
	h, m := newTestHandler(t, client)

	first := httptest.NewRecorder()
	h.Page(first, httptest.NewRequest(http.MethodGet, "/", nil))
	c := sessionCookie(t, first)

	second := httptest.NewRecorder()
	h.Page(second, withCookie(httptest.NewRequest(http.MethodGet, "/", nil), c))

	require.Equal(t, http.StatusOK, second.Code)
	require.Empty(t, second.Result().Cookies())
	require.Equal(t, 1, m.Len())
	client.AssertNumberOfCalls(t, "GetCurrencies", 1)
}

func TestHandler_Page_UnknownCookieStartsNewSession(t *testing.T) {
	h, _ := newTestHandler(t, newClient())

	stale := &http.Cookie{Name: CookieName, Value: "77b5d9f5-0569-47e3-aee2-f659d59fbd97"}
	rec := httptest.NewRecorder()
	h.Page(rec, withCookie(httptest.NewRequest(http.MethodGet, "/", nil), stale))

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEqual(t, stale.Value, sessionCookie(t, rec).Value)
}

func TestHandler_Page_ShowsBackendError(t *testing.T) {
	client := new(MockCurrencyClient)
	client.On("GetCurrencies", mock.Anything, "http://fx.test").Return(domain.Catalog{"USD", "EUR"}, nil)
	client.On("GetLatest", mock.Anything, "http://fx.test", mock.Anything).
		Return(nil, domain.ErrWrongRequest)
	h, _ := newTestHandler(t, client)

	rec := httptest.NewRecorder()
	h.Page(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `<h2 class="error">Wrong Request. Try again with other params.</h2>`)
	require.Contains(t, rec.Body.String(), "1 USD = 0 EUR")
}

// --- Submit ---

func TestHandler_Submit_AppliesFormAndRedirects(t *testing.T) {
	client := newClient()
	h, _ := newTestHandler(t, client)

	first := httptest.NewRecorder()
	h.Page(first, httptest.NewRequest(http.MethodGet, "/", nil))
	c := sessionCookie(t, first)

	form := url.Values{"amount": {"10"}, "from": {"USD"}, "to": {"JPY"}}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.Submit(rec, withCookie(req, c))

	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/", rec.Header().Get("Location"))

	stateRec := httptest.NewRecorder()
	h.GetState(stateRec, withCookie(httptest.NewRequest(http.MethodGet, "/api/v1/state", nil), c))
	res := decodeState(t, stateRec)
	require.Equal(t, "10", res.Amount)
	require.Equal(t, "JPY", res.To)
	require.Equal(t, "150.50", res.Result)
	require.Equal(t, "10 USD = 150.50 JPY", res.ResultLine)

	// mount plus one request for the whole submission
	client.AssertNumberOfCalls(t, "GetLatest", 2)
}

func TestHandler_Submit_ValidationError(t *testing.T) {
	client := newClient()
	h, _ := newTestHandler(t, client)

	form := url.Values{"amount": {"ten"}, "to": {"JPY"}}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.Submit(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), converter.ErrAmountInvalid.Error())
	require.Contains(t, rec.Body.String(), "1 USD = 0.92 EUR")
	client.AssertNumberOfCalls(t, "GetLatest", 1)
}

// --- API ---

func TestHandler_GetState(t *testing.T) {
	h, _ := newTestHandler(t, newClient())

	rec := httptest.NewRecorder()
	h.GetState(rec, httptest.NewRequest(http.MethodGet, "/api/v1/state", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	res := decodeState(t, rec)
	require.Equal(t, []string{"USD", "EUR", "JPY"}, res.Currencies)
	require.Equal(t, "1", res.Amount)
	require.Equal(t, "0.92", res.Result)
	require.Empty(t, res.Error)
	require.False(t, res.Loading)
}

func TestHandler_UpdateState(t *testing.T) {
	h, _ := newTestHandler(t, newClient())

	first := httptest.NewRecorder()
	h.GetState(first, httptest.NewRequest(http.MethodGet, "/api/v1/state", nil))
	c := sessionCookie(t, first)

	cases := []struct {
		name       string
		body       string
		wantStatus int
		wantErr    string
	}{
		{name: "invalid json", body: `{"amount":`, wantStatus: http.StatusBadRequest, wantErr: "invalid JSON body"},
		{name: "empty amount", body: `{"amount":""}`, wantStatus: http.StatusBadRequest, wantErr: converter.ErrAmountRequired.Error()},
		{name: "bad code", body: `{"to":"E1"}`, wantStatus: http.StatusBadRequest, wantErr: converter.ErrCurrencyInvalid.Error()},
		{name: "unsupported code", body: `{"to":"GBP"}`, wantStatus: http.StatusBadRequest, wantErr: converter.ErrCurrencyUnsupported.Error()},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPatch, "/api/v1/state", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			h.UpdateState(rec, withCookie(req, c))

			require.Equal(t, tc.wantStatus, rec.Code)
			var got errorJSON
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
			require.Equal(t, tc.wantErr, got.Error)
		})
	}

	t.Run("success", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPatch, "/api/v1/state", strings.NewReader(`{"amount":"2","to":"jpy"}`))
		rec := httptest.NewRecorder()
		h.UpdateState(rec, withCookie(req, c))

		require.Equal(t, http.StatusOK, rec.Code)
		res := decodeState(t, rec)
		require.Equal(t, "2", res.Amount)
		require.Equal(t, "JPY", res.To)
		require.Equal(t, "150.50", res.Result)
	})
}

func TestHandler_GetStateText(t *testing.T) {
	h, _ := newTestHandler(t, newClient())

	rec := httptest.NewRecorder()
	h.GetStateText(rec, httptest.NewRequest(http.MethodGet, "/api/v1/state/text", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
	require.Equal(t, "Convert Currency\n"+
		"Amount: 1\n"+
		"From: [USD] EUR JPY\n"+
		"To: USD [EUR] JPY\n"+
		"1 USD = 0.92 EUR\n", rec.Body.String())
}

type failingSessions struct{}

func (failingSessions) Create() (string, *converter.Converter, error) {
	return "", nil, session.ErrSessionRejected
}

func (failingSessions) Get(string) (*converter.Converter, error) {
	return nil, errors.New("store offline")
}

func TestHandler_SessionUnavailable(t *testing.T) {
	h := NewHandler(failingSessions{}, time.Second)

	handlers := map[string]http.HandlerFunc{
		"page":  h.Page,
		"state": h.GetState,
		"text":  h.GetStateText,
	}
	for name, fn := range handlers {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			fn(rec, httptest.NewRequest(http.MethodGet, "/", nil))
			require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		})
	}

	t.Run("cookie lookup failure", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: CookieName, Value: "77b5d9f5-0569-47e3-aee2-f659d59fbd97"})
		rec := httptest.NewRecorder()
		h.GetState(rec, req)
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}
