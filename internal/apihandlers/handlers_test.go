package apihandlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketclassifier/internal/app"
	"ticketclassifier/internal/services"
	"ticketclassifier/pkg/categorizer"
)

type completerFunc func(ctx context.Context, messages []categorizer.ChatMessage) (string, error)

func (f completerFunc) GenerateChatCompletion(ctx context.Context, messages []categorizer.ChatMessage) (string, error) {
	return f(ctx, messages)
}

func answer(text string) completerFunc {
	return func(context.Context, []categorizer.ChatMessage) (string, error) { return text, nil }
}

func failWith(err error) completerFunc {
	return func(context.Context, []categorizer.ChatMessage) (string, error) { return "", err }
}

func setupRouter(t *testing.T, completer categorizer.Completer, withDefault bool) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var taxonomy *categorizer.Taxonomy
	if withDefault {
		var err error
		taxonomy, err = categorizer.ParseTaxonomy([]byte(`{"Issue Type": ["Bug", "Feature"], "Priority": ["High", "Low"]}`))
		require.NoError(t, err)
	}

	a := &app.App{
		CategorizationService: services.NewCategorizationService(categorizer.NewLLMCategorizer(completer, "")),
	}
	router := gin.New()
	NewAPIHandler(a, taxonomy).RegisterRoutes(router)
	return router
}

func doJSON(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *APIError       `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func TestClassifyHandler_Success(t *testing.T) {
	router := setupRouter(t, answer(`{"category":"Issue Type","subcategory":"Bug"}`), true)

	w := doJSON(router, http.MethodPost, "/api/v1/classify", `{"ticket": "Dashboard crashes on load."}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	env := decode(t, w)
	var data struct {
		ID     string          `json:"id"`
		Case   int             `json:"case"`
		Result json.RawMessage `json:"result"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.NotEmpty(t, data.ID)
	assert.Equal(t, data.ID, w.Header().Get("X-Request-ID"))
	assert.Equal(t, 1, data.Case)
	assert.JSONEq(t, `{"case_1": {"category": "Issue Type", "subcategory": "Bug"}}`, string(data.Result))
}

func TestClassifyHandler_InlineCategoriesAndCase(t *testing.T) {
	router := setupRouter(t, answer(`{"case_3": [{"category": "Billing", "subcategories": ["Refund"], "comment": "wants money back"}]}`), false)

	body := `{"ticket": "Please refund me.", "categories": {"Billing": ["Refund", "Invoice"]}, "case": "case_3"}`
	w := doJSON(router, http.MethodPost, "/api/v1/classify", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"case_3"`)
	assert.Contains(t, w.Body.String(), "wants money back")
}

func TestClassifyHandler_BadRequests(t *testing.T) {
	testCases := []struct {
		name        string
		body        string
		withDefault bool
	}{
		{"Malformed JSON", `{"ticket":`, true},
		{"Empty ticket", `{"ticket": "   "}`, true},
		{"Invalid case", `{"ticket": "x", "case": 4}`, true},
		{"No categories and no default", `{"ticket": "x"}`, false},
		{"Invalid categories", `{"ticket": "x", "categories": {"A": []}}`, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			called := false
			router := setupRouter(t, completerFunc(func(context.Context, []categorizer.ChatMessage) (string, error) {
				called = true
				return "", nil
			}), tc.withDefault)

			w := doJSON(router, http.MethodPost, "/api/v1/classify", tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			env := decode(t, w)
			require.NotNil(t, env.Error)
			assert.Equal(t, "bad_request", env.Error.Code)
			assert.False(t, called, "model must not be called for bad input")
		})
	}
}

func TestClassifyHandler_ErrorStatus(t *testing.T) {
	testCases := []struct {
		name      string
		completer completerFunc
		status    int
		code      string
	}{
		{"Timeout", failWith(categorizer.NewClientError(categorizer.ErrTimeout, "openai", context.DeadlineExceeded)), http.StatusGatewayTimeout, "upstream_timeout"},
		{"Auth", failWith(categorizer.NewClientError(categorizer.ErrAuthentication, "openai", nil)), http.StatusBadGateway, "upstream_auth"},
		{"Upstream", failWith(categorizer.NewClientError(categorizer.ErrUpstream, "openai", nil)), http.StatusBadGateway, "upstream_error"},
		{"Parse", answer("I am not sure."), http.StatusBadGateway, "upstream_parse"},
		{"Validation", answer(`{"category": "Billing", "subcategory": "Refund"}`), http.StatusUnprocessableEntity, "validation_failed"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			router := setupRouter(t, tc.completer, true)
			w := doJSON(router, http.MethodPost, "/api/v1/classify", `{"ticket": "x"}`)
			assert.Equal(t, tc.status, w.Code)
			env := decode(t, w)
			require.NotNil(t, env.Error)
			assert.Equal(t, tc.code, env.Error.Code)
			assert.Nil(t, env.Data)
		})
	}
}

func TestClassifyHandler_ValidationMismatches(t *testing.T) {
	router := setupRouter(t, answer(`{"category": "Issue Type", "subcategory": "High"}`), true)

	w := doJSON(router, http.MethodPost, "/api/v1/classify", `{"ticket": "x"}`)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	env := decode(t, w)
	require.NotNil(t, env.Error)
	assert.Equal(t, []categorizer.Mismatch{{Index: 0, Category: "Issue Type", Subcategory: "High"}}, env.Error.Mismatches)
}

func TestClassifyHandler_Lenient(t *testing.T) {
	router := setupRouter(t, answer(`{"category": "Billing", "subcategory": "Refund"}`), true)

	w := doJSON(router, http.MethodPost, "/api/v1/classify?lenient=true", `{"ticket": "x"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"lenient":true`)
	assert.Contains(t, w.Body.String(), "Billing")
}

func TestCategoriesHandler(t *testing.T) {
	router := setupRouter(t, answer(""), true)
	w := doJSON(router, http.MethodGet, "/api/v1/categories", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data": {"Issue Type": ["Bug", "Feature"], "Priority": ["High", "Low"]}}`, w.Body.String())

	router = setupRouter(t, answer(""), false)
	w = doJSON(router, http.MethodGet, "/api/v1/categories", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthHandler(t *testing.T) {
	router := setupRouter(t, answer(""), false)
	w := doJSON(router, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}
