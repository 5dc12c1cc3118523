package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/IlliaFransua/burger-order-api/internal/service"
)

type burgerRequest struct {
	Name      string           `json:"name"`
	UnitPrice *decimal.Decimal `json:"unitPrice"`
}

func (r burgerRequest) validate() error {
	if r.UnitPrice == nil {
		return fmt.Errorf("unitPrice is required: %w", service.ErrInvalidInput)
	}
	return nil
}

func ListBurgersHandler(burgerSvc *service.BurgerService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		burgers, err := burgerSvc.List(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toBurgerResponses(burgers))
	}
}

func CreateBurgerHandler(burgerSvc *service.BurgerService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := decodeBurger(r)
		if err != nil {
			writeError(w, r, err)
			return
		}

		b, err := burgerSvc.Create(r.Context(), req.Name, *req.UnitPrice)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, toBurgerResponse(b))
	}
}

func UpdateBurgerHandler(burgerSvc *service.BurgerService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		req, err := decodeBurger(r)
		if err != nil {
			writeError(w, r, err)
			return
		}

		b, err := burgerSvc.Update(r.Context(), id, req.Name, *req.UnitPrice)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toBurgerResponse(b))
	}
}

func DeleteBurgerHandler(burgerSvc *service.BurgerService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if err := burgerSvc.Delete(r.Context(), id); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func decodeBurger(r *http.Request) (burgerRequest, error) {
	var req burgerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return burgerRequest{}, fmt.Errorf("invalid json: %w", service.ErrInvalidInput)
	}
	if err := req.validate(); err != nil {
		return burgerRequest{}, err
	}
	return req, nil
}

var errBadID = errors.New("id must be a positive integer")

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %w", errBadID, service.ErrInvalidInput)
	}
	return id, nil
}
