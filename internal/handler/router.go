package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/IlliaFransua/burger-order-api/internal/mw"
	"github.com/IlliaFransua/burger-order-api/internal/service"
)

type Services struct {
	Burgers  *service.BurgerService
	Orders   *service.OrderService
	Reports  *service.ReportService
	Importer *service.Importer
	// Auth is nil when operator auth is not configured.
	Auth      *service.AuthService
	JWTSecret string
}

func NewRouter(svc Services, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.AccessLog(log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Authorization", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/ping", PingHandler())

	// Public routes
	r.Get("/api/burger", ListBurgersHandler(svc.Burgers))
	r.Post("/api/order", CreateOrderHandler(svc.Orders))
	r.Get("/api/order/{id}", GetOrderHandler(svc.Orders))
	r.Put("/api/order/{id}", UpdateOrderHandler(svc.Orders))
	r.Delete("/api/order/{id}", DeleteOrderHandler(svc.Orders))
	r.Post("/api/order/_list", ListOrdersHandler(svc.Orders))
	r.Post("/api/order/_report", ReportHandler(svc.Reports))

	// Operator routes
	r.Group(func(r chi.Router) {
		if svc.Auth != nil {
			r.Use(mw.AuthMiddleware(svc.JWTSecret))
		}

		r.Post("/api/burger", CreateBurgerHandler(svc.Burgers))
		r.Put("/api/burger/{id}", UpdateBurgerHandler(svc.Burgers))
		r.Delete("/api/burger/{id}", DeleteBurgerHandler(svc.Burgers))
		r.Post("/api/order/upload", UploadOrdersHandler(svc.Importer))
	})

	if svc.Auth != nil {
		r.Post("/api/auth/token", TokenHandler(svc.Auth))
	}

	return r
}
