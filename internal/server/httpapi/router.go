package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Naimehossein77/gym-nfc/internal/logging"
	"github.com/Naimehossein77/gym-nfc/internal/nfc"
	"github.com/Naimehossein77/gym-nfc/internal/passkit"
	"github.com/Naimehossein77/gym-nfc/internal/server/models"
	"github.com/Naimehossein77/gym-nfc/internal/server/services"
)

// AuthService authenticates staff accounts.
type AuthService interface {
	Login(ctx context.Context, username, password string) (string, error)
}

// TokenService is the token lifecycle surface the API exposes.
type TokenService interface {
	Generate(ctx context.Context, memberID int64, ttlDays *int) (*models.IssuedToken, error)
	IsValid(ctx context.Context, token string) (bool, error)
	Get(ctx context.Context, token string) (*models.Token, error)
	ListForMember(ctx context.Context, memberID int64) ([]*models.Token, error)
	Revoke(ctx context.Context, token string) (bool, error)
	CleanupExpired(ctx context.Context) (int64, error)
	ValidatePayload(ctx context.Context, payload string) (*services.PayloadResult, error)
}

// ProvisionService writes verified tokens onto cards.
type ProvisionService interface {
	Provision(ctx context.Context, token string, memberID int64, timeout time.Duration) (*nfc.WriteResult, error)
}

// Gateway is the read-only slice of the NFC reader the API exposes.
type Gateway interface {
	Read(ctx context.Context, timeout time.Duration) nfc.ReadResult
	Status(ctx context.Context) nfc.Status
}

// PassService signs wallet passes and reports certificate readiness.
type PassService interface {
	Issue(ctx context.Context, d *passkit.Declaration) (*services.IssuedPass, error)
	CertificateStatus() map[string]passkit.FileStatus
}

// Deps bundles everything the router needs.
type Deps struct {
	Auth      AuthService
	Tokens    TokenService
	Provision ProvisionService
	Gateway   Gateway
	Pass      PassService
	JWTSecret []byte
	Logger    logging.Logger
}

// NewRouter builds the chi router with the full middleware stack and all
// API routes. Everything under /api except the login endpoint requires a
// staff bearer token.
func NewRouter(deps Deps) chi.Router {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(RequestLogger(deps.Logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})

	authHandler := &AuthHandler{auth: deps.Auth}
	tokenHandler := &TokenHandler{tokens: deps.Tokens}
	nfcHandler := &NFCHandler{provision: deps.Provision, gateway: deps.Gateway, tokens: deps.Tokens}
	passHandler := &PassHandler{pass: deps.Pass}

	router.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(Authenticator(deps.JWTSecret))
			r.Use(RequireStaff)

			r.Route("/tokens", func(r chi.Router) {
				r.Post("/generate", tokenHandler.Generate)
				r.Get("/validate/{token}", tokenHandler.Validate)
				r.Get("/member/{id}", tokenHandler.ListForMember)
				r.Delete("/{token}", tokenHandler.Revoke)
				r.Post("/cleanup", tokenHandler.Cleanup)
			})

			r.Route("/nfc", func(r chi.Router) {
				r.Post("/write", nfcHandler.Write)
				r.Get("/read", nfcHandler.Read)
				r.Get("/status", nfcHandler.Status)
				r.Post("/validate", nfcHandler.ValidatePayload)
			})

			r.Route("/pass", func(r chi.Router) {
				r.Post("/sign", passHandler.Sign)
				r.Get("/certificates/status", passHandler.CertificateStatus)
			})
		})
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "endpoint not found"})
	})

	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
	})

	return router
}
