package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/IlliaFransua/burger-order-api/internal/service"
)

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

func TokenHandler(authSvc *service.AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		if err := authSvc.Authenticate(r.Context(), req.Login, req.Password); err != nil {
			if errors.Is(err, service.ErrInvalidCredentials) {
				http.Error(w, "invalid login or password", http.StatusUnauthorized)
				return
			}
			writeError(w, r, err)
			return
		}

		tokenString, err := authSvc.IssueToken(req.Login)
		if err != nil {
			writeError(w, r, err)
			return
		}

		w.Header().Set("Authorization", "Bearer "+tokenString)
		w.WriteHeader(http.StatusOK)
	}
}
