package ctx_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shashiranjanraj/souq/config"
	"github.com/shashiranjanraj/souq/pkg/apperr"
	"github.com/shashiranjanraj/souq/pkg/auth"
	appctx "github.com/shashiranjanraj/souq/pkg/ctx"
	"github.com/shashiranjanraj/souq/pkg/reqid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, req *http.Request, h appctx.HandlerFunc) (*httptest.ResponseRecorder, appctx.Envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	appctx.Wrap(h)(rec, req)

	var env appctx.Envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func TestSuccessEnvelope(t *testing.T) {
	rec, env := serve(t, httptest.NewRequest(http.MethodGet, "/", nil), func(c *appctx.Context) {
		c.Success(map[string]any{"id": 1})
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 200, env.Status)
	assert.Equal(t, map[string]any{"id": float64(1)}, env.Data)
}

func TestBindJSONValidationError(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":""}`))
	rec, env := serve(t, req, func(c *appctx.Context) {
		var input struct {
			Name string `json:"name" validate:"required"`
		}
		assert.False(t, c.BindJSON(&input))
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Validation failed", env.Message)
	assert.Equal(t, map[string]any{"name": "The name field is required."}, env.Errors)
}

func TestBindJSONMalformed(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
	rec, _ := serve(t, req, func(c *appctx.Context) {
		var input struct{}
		assert.False(t, c.BindJSON(&input))
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFailMapsAppErr(t *testing.T) {
	rec, env := serve(t, httptest.NewRequest(http.MethodGet, "/", nil), func(c *appctx.Context) {
		c.Fail(apperr.Conflict("Insufficient stock for %s", "Dates").Wrap(errors.New("rows=0")))
	})

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Insufficient stock for Dates", env.Message)
	assert.Empty(t, env.Detail)
}

func TestFailInternalCarriesRequestID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(reqid.WithValue(req.Context(), "req-12345678"))

	config.Set("APP_ENV", "production")
	t.Cleanup(func() { config.Set("APP_ENV", "testing") })

	rec, env := serve(t, req, func(c *appctx.Context) {
		c.Fail(errors.New("connection refused"))
	})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal Server Error", env.Message)
	assert.Equal(t, "req-12345678", env.RequestID)
	assert.Empty(t, env.Detail, "production must not leak internals")
	assert.Empty(t, env.Stack)
}

func TestFailInternalDetailOutsideProduction(t *testing.T) {
	config.Set("APP_ENV", "local")

	_, env := serve(t, httptest.NewRequest(http.MethodGet, "/", nil), func(c *appctx.Context) {
		c.Fail(errors.New("connection refused"))
	})

	assert.Equal(t, "connection refused", env.Detail)
	assert.NotEmpty(t, env.Stack)
}

func TestParamUintAndIdentity(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/orders/{id}", appctx.Wrap(func(c *appctx.Context) {
		id, ok := c.ParamUint("id")
		assert.True(t, ok)
		assert.Equal(t, uint(7), id)
		assert.Equal(t, uint(3), c.UserID())
		c.Success(nil)
	}))

	req := httptest.NewRequest(http.MethodGet, "/orders/7", nil)
	req = req.WithContext(auth.WithIdentity(req.Context(), auth.Identity{UserID: 3}))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestQueryInt(t *testing.T) {
	serve(t, httptest.NewRequest(http.MethodGet, "/?page=3&limit=x", nil), func(c *appctx.Context) {
		assert.Equal(t, 3, c.QueryInt("page", 1))
		assert.Equal(t, 20, c.QueryInt("limit", 20))
		c.Success(nil)
	})
}
