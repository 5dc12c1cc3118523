package handler

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/IlliaFransua/burger-order-api/internal/queue"
	"github.com/IlliaFransua/burger-order-api/internal/service"
	"github.com/IlliaFransua/burger-order-api/internal/store/memory"
)

type testServer struct {
	handler http.Handler
	events  *queue.Memory
}

func newTestServer(t *testing.T, auth *service.AuthService, secret string) *testServer {
	t.Helper()
	s := memory.NewStore()
	burgers, orders := memory.NewBurgers(s), memory.NewOrders(s)
	events := queue.NewMemory(1024, nil)
	t.Cleanup(func() { _ = events.Close() })

	orderSvc := service.NewOrderService(orders, burgers, events, "example@example.example", nil)
	svc := Services{
		Burgers:   service.NewBurgerService(burgers, nil),
		Orders:    orderSvc,
		Reports:   service.NewReportService(orders, nil),
		Importer:  service.NewImporter(orderSvc, nil),
		Auth:      auth,
		JWTSecret: secret,
	}
	return &testServer{handler: NewRouter(svc, nil), events: events}
}

func (s *testServer) do(t *testing.T, method, path, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) seedBurgers(t *testing.T, names ...string) {
	t.Helper()
	for _, name := range names {
		rec := s.do(t, http.MethodPost, "/api/burger", `{"name":"`+name+`","unitPrice":"2.50"}`)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}
}

func TestPing(t *testing.T) {
	rec := newTestServer(t, nil, "").do(t, http.MethodGet, "/ping", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "PONG", rec.Body.String())
}

func TestBurgerEndpoints(t *testing.T) {
	s := newTestServer(t, nil, "")

	rec := s.do(t, http.MethodPost, "/api/burger", `{"name":"Classic Beef","unitPrice":5.5}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created burgerResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Equal(t, int64(1), created.ID)

	rec = s.do(t, http.MethodPost, "/api/burger", `{"name":"Classic Beef","unitPrice":6}`)
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/burger", `{"name":"Mac","unitPrice":6}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/burger", `{"name":"No Price Burger"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPut, "/api/burger/1", `{"name":"Classic Beef XL","unitPrice":7}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPut, "/api/burger/9", `{"name":"Classic Beef XL","unitPrice":7}`)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/burger", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []burgerResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	require.Equal(t, "Classic Beef XL", list[0].Name)

	rec = s.do(t, http.MethodDelete, "/api/burger/1", "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/burger/abc", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOrderEndpoints(t *testing.T) {
	s := newTestServer(t, nil, "")
	s.seedBurgers(t, "Classic Beef", "Double Cheese")

	rec := s.do(t, http.MethodPost, "/api/order", `{"burgerIds":[1,2,3]}`)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/order", `{"burgerIds":[]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/order", `{"burgerIds":[1,2]}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var order orderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &order))
	require.Len(t, order.Burgers, 2)
	require.Equal(t, "5", order.TotalPrice.String())

	rec = s.do(t, http.MethodGet, "/api/order/1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPut, "/api/order/1", `{"burgerIds":[2]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/burger/2", "")
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/order/1", "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/order/1", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListOrders(t *testing.T) {
	s := newTestServer(t, nil, "")
	s.seedBurgers(t, "Classic Beef")
	for i := 0; i < 12; i++ {
		require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/order", `{"burgerIds":[1]}`).Code)
	}

	rec := s.do(t, http.MethodPost, "/api/order/_list", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var page pageResponse[orderResponse]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Len(t, page.Content, 10)
	require.Equal(t, int64(12), page.TotalElements)
	require.Equal(t, 2, page.TotalPages)

	rec = s.do(t, http.MethodPost, "/api/order/_list?page=1&size=5&sort=totalPrice,desc", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Len(t, page.Content, 5)
	require.Equal(t, 1, page.Number)

	rec = s.do(t, http.MethodPost, "/api/order/_list?sort=name,asc", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/order/_list?size=ten", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/order/_list?page=922337203685477581&size=10", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReportEndpoint(t *testing.T) {
	s := newTestServer(t, nil, "")
	s.seedBurgers(t, "Classic Beef", "Double Cheese")
	s.do(t, http.MethodPost, "/api/order", `{"burgerIds":[1]}`)
	s.do(t, http.MethodPost, "/api/order", `{"burgerIds":[2]}`)

	rec := s.do(t, http.MethodPost, "/api/order/_report", `{"burgerName":"pokemon"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	require.Contains(t, rec.Header().Get("Content-Disposition"), "orders_report.csv")
	require.Equal(t, "id,createdAt,burgers\n", rec.Body.String())

	rec = s.do(t, http.MethodPost, "/api/order/_report", "")
	require.Equal(t, http.StatusOK, rec.Code)
	rows, err := csv.NewReader(bytes.NewReader(rec.Body.Bytes())).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	rec = s.do(t, http.MethodPost, "/api/order/_report", `{"orderCreatedAtFrom":"yesterday"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadEndpoint(t *testing.T) {
	s := newTestServer(t, nil, "")
	s.seedBurgers(t, "Classic Beef")

	rec := s.do(t, http.MethodPost, "/api/order/upload", `[{"burgerIds":[1]},{"burgerIds":[7]},{"burgerIds":[8]}]`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"successfulCount":1,"failedCount":2,"totalRecords":3}`, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/api/order/upload", `[{"burgerIds":[1]},{"burgerIds":`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.EqualValues(t, 1, body["successfulCount"])
	require.EqualValues(t, 1, body["totalRecords"])
}

func TestUploadOutlivesServerReadTimeout(t *testing.T) {
	s := newTestServer(t, nil, "")
	s.seedBurgers(t, "Classic Beef")

	srv := httptest.NewUnstartedServer(s.handler)
	srv.Config.ReadTimeout = 100 * time.Millisecond
	srv.Start()
	defer srv.Close()

	pr, pw := io.Pipe()
	go func() {
		_, _ = pw.Write([]byte(`[{"burgerIds":[1]}`))
		time.Sleep(300 * time.Millisecond)
		_, _ = pw.Write([]byte(`,{"burgerIds":[1]}]`))
		_ = pw.Close()
	}()

	resp, err := http.Post(srv.URL+"/api/order/upload", "application/json", pr)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stats map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	require.EqualValues(t, 2, stats["successfulCount"])
}

func TestOperatorAuthProtectsMutations(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.MinCost)
	require.NoError(t, err)
	auth := service.NewAuthService("ops", string(hash), "key")
	s := newTestServer(t, auth, "key")

	rec := s.do(t, http.MethodPost, "/api/burger", `{"name":"Classic Beef","unitPrice":1}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/auth/token", `{"login":"ops","password":"nope"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/auth/token", `{"login":"ops","password":"pw"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	token := rec.Header().Get("Authorization")
	require.True(t, strings.HasPrefix(token, "Bearer "))

	rec = s.do(t, http.MethodPost, "/api/burger", `{"name":"Classic Beef","unitPrice":1}`, "Authorization", token)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/burger", "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestStatusFor(t *testing.T) {
	require.Equal(t, http.StatusNotFound, statusFor(service.ErrNotFound))
	require.Equal(t, http.StatusConflict, statusFor(service.ErrDuplicate))
	require.Equal(t, http.StatusConflict, statusFor(service.ErrConflict))
	require.Equal(t, http.StatusBadRequest, statusFor(service.ErrInvalidInput))
	require.Equal(t, http.StatusInternalServerError, statusFor(service.ErrTechnical))

	rec := httptest.NewRecorder()
	writeError(rec, httptest.NewRequest(http.MethodGet, "/", nil), &service.TechnicalError{Op: "stream", Stage: service.StageInit, Err: bytes.ErrTooLarge})
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
}
