package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/posregister/internal/cart/application"
	"github.com/wyfcoding/posregister/internal/cart/domain"
	"github.com/wyfcoding/posregister/internal/cart/infrastructure/memory"
	carthttp "github.com/wyfcoding/posregister/internal/cart/interfaces/http"
	catalog "github.com/wyfcoding/posregister/internal/catalog/domain"
	"github.com/wyfcoding/posregister/pkg/metrics"
	"github.com/wyfcoding/posregister/pkg/mq"
)

type staticCatalog map[string]*catalog.Product

func (s staticCatalog) Find(_ context.Context, code string) (*catalog.Product, error) {
	p, ok := s[code]
	if !ok {
		return nil, catalog.ErrProductNotFound
	}
	return p, nil
}

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	products := staticCatalog{"C001": {Code: "C001", Name: "Baby Suit - Blue", Price: decimal.NewFromInt(1200), Stock: 2}}
	svc := application.NewCartApplicationService(memory.NewSessionStore(), products, mq.LogPublisher{}, metrics.Nop{})

	r := gin.New()
	carthttp.NewCartHandler(svc).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCartFlow(t *testing.T) {
	r := newRouter()

	w := do(r, http.MethodPost, "/api/v1/sessions", `{"operator":"admin"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var session domain.Session
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &session))
	require.NotEmpty(t, session.ID)
	base := "/api/v1/sessions/" + session.ID

	w = do(r, http.MethodPost, base+"/cart/items", `{"code":"C001","qty":2}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(r, http.MethodPost, base+"/cart/items", `{"code":"C001","qty":1}`)
	require.Equal(t, http.StatusConflict, w.Code)

	w = do(r, http.MethodPost, base+"/cart/items", `{"code":"NOPE","qty":1}`)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodPost, base+"/cart/items", `{"code":"C001","qty":0}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodGet, base+"/cart", "")
	require.Equal(t, http.StatusOK, w.Code)
	var view application.CartView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	require.Equal(t, 2, view.Units)
	require.Equal(t, "2400", view.Subtotal.String())

	w = do(r, http.MethodDelete, base+"/cart/items/C001", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodDelete, base+"/cart", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodDelete, base, "")
	require.JSONEq(t, `{"session_id":"`+session.ID+`","removed":true}`, w.Body.String())

	w = do(r, http.MethodGet, base+"/cart", "")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestOpenSessionRequiresOperator(t *testing.T) {
	r := newRouter()
	w := do(r, http.MethodPost, "/api/v1/sessions", `{}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
