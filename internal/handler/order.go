package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/IlliaFransua/burger-order-api/internal/model"
	"github.com/IlliaFransua/burger-order-api/internal/service"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

type orderRequest struct {
	BurgerIDs []int64 `json:"burgerIds"`
}

func CreateOrderHandler(orderSvc *service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req orderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, r, fmt.Errorf("invalid json: %w", service.ErrInvalidInput))
			return
		}

		order, err := orderSvc.Create(r.Context(), req.BurgerIDs)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, toOrderResponse(order))
	}
}

func GetOrderHandler(orderSvc *service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		order, err := orderSvc.Find(r.Context(), id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toOrderResponse(order))
	}
}

func UpdateOrderHandler(orderSvc *service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		var req orderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, r, fmt.Errorf("invalid json: %w", service.ErrInvalidInput))
			return
		}

		order, err := orderSvc.Update(r.Context(), id, req.BurgerIDs)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toOrderResponse(order))
	}
}

func DeleteOrderHandler(orderSvc *service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if err := orderSvc.Delete(r.Context(), id); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func ListOrdersHandler(orderSvc *service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := parsePageRequest(r)
		if err != nil {
			writeError(w, r, err)
			return
		}

		page, err := orderSvc.List(r.Context(), req)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toPageResponse(page))
	}
}

// parsePageRequest reads page, size and sort=field[,dir] from the query.
func parsePageRequest(r *http.Request) (model.PageRequest, error) {
	q := r.URL.Query()
	req := model.PageRequest{
		Size: defaultPageSize,
		Sort: model.Sort{Field: model.SortCreatedAt, Direction: model.SortAsc},
	}

	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return req, fmt.Errorf("page must be an integer: %w", service.ErrInvalidInput)
		}
		req.Page = n
	}
	if v := q.Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return req, fmt.Errorf("size must be an integer: %w", service.ErrInvalidInput)
		}
		req.Size = min(n, maxPageSize)
	}
	if v := q.Get("sort"); v != "" {
		field, dir, _ := strings.Cut(v, ",")
		req.Sort.Field = strings.TrimSpace(field)
		if dir = strings.ToLower(strings.TrimSpace(dir)); dir != "" {
			req.Sort.Direction = model.SortDirection(dir)
		}
	}
	return req, nil
}

func UploadOrdersHandler(importer *service.Importer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// The body is consumed for as long as the import runs, so the
		// server-wide read timeout does not apply here.
		_ = http.NewResponseController(w).SetReadDeadline(time.Time{})

		stats, err := importer.Import(r.Context(), r.Body)
		if err == nil {
			writeJSON(w, http.StatusOK, stats)
			return
		}

		var streamErr *service.StreamError
		if errors.As(err, &streamErr) && statusFor(err) == http.StatusBadRequest {
			writeJSON(w, http.StatusBadRequest, uploadErrorResponse{Error: "malformed upload: " + streamErr.Err.Error(), UploadStats: stats})
			return
		}
		writeError(w, r, err)
	}
}

type uploadErrorResponse struct {
	Error string `json:"error"`
	model.UploadStats
}

func ReportHandler(reportSvc *service.ReportService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var filter model.FilterCriteria
		if err := json.NewDecoder(r.Body).Decode(&filter); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, r, fmt.Errorf("invalid filter: %w", service.ErrInvalidInput))
			return
		}

		cw := &countingWriter{w: w}
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="orders_report.csv"`)

		if err := reportSvc.Stream(r.Context(), filter, cw); err != nil {
			if cw.n == 0 {
				w.Header().Del("Content-Disposition")
				writeError(w, r, err)
				return
			}
			// Headers are gone; drop the connection so the client sees a
			// truncated body instead of a complete-looking file.
			panic(http.ErrAbortHandler)
		}
	}
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

func PingHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("PONG"))
	}
}
