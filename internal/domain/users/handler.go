package users

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"dog-walk-service/internal/middleware"
	"dog-walk-service/internal/platform/apperr"
	"dog-walk-service/internal/platform/logger"
	"dog-walk-service/internal/ports/auth"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes monta /api/users. authLimit envuelve register/login (puede ser nil).
func RegisterRoutes(r chi.Router, svc *Service, tokens auth.TokenIssuer, authLimit func(http.Handler) http.Handler, log logger.Logger) {
	r.Route("/api/users", func(ur chi.Router) {
		ur.Group(func(pub chi.Router) {
			if authLimit != nil {
				pub.Use(authLimit)
			}
			pub.Post("/register", registerHandler(svc, log))
			pub.Post("/login", loginHandler(svc, tokens, log))
		})
		ur.Post("/logout", logoutHandler())
		ur.Get("/me", meHandler(svc))
		ur.Get("/", listUsersHandler(svc, log))
	})
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type registerResponse struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Success   bool       `json:"success"`
	Message   string     `json:"message"`
	UserID    string     `json:"user_id"`
	Role      auth.Role  `json:"role"`
	Redirect  string     `json:"redirect"`
	Token     string     `json:"token,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type userResponse struct {
	UserID   string    `json:"user_id"`
	Username string    `json:"username"`
	Email    string    `json:"email,omitempty"`
	Role     auth.Role `json:"role"`
}

// registerHandler godoc
// @Summary Registrar usuario
// @Description Crea un dueño (owner) o paseador (walker). El password se guarda con bcrypt.
// @Tags users
// @Accept json
// @Produce json
// @Param payload body registerRequest true "Datos de registro"
// @Success 201 {object} registerResponse
// @Failure 400 {object} errorResponse
// @Failure 409 {object} errorResponse "username o email ya registrados"
// @Router /api/users/register [post]
func registerHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, apperr.Validation("invalid json"), log)
			return
		}

		u, err := svc.Register(r.Context(), RegisterInput{
			Username: req.Username,
			Email:    req.Email,
			Password: req.Password,
			Role:     req.Role,
		})
		if err != nil {
			writeError(w, err, log)
			return
		}

		log.Info("user registered", map[string]any{"user_id": u.ID, "role": string(u.Role)})
		writeJSON(w, http.StatusCreated, registerResponse{Message: "User registered", UserID: u.ID})
	}
}

// loginHandler godoc
// @Summary Login
// @Description Verifica credenciales y devuelve un token de sesión (también como cookie session).
// @Tags users
// @Accept json
// @Produce json
// @Param payload body loginRequest true "Credenciales"
// @Success 200 {object} loginResponse
// @Failure 401 {object} errorResponse
// @Router /api/users/login [post]
func loginHandler(svc *Service, tokens auth.TokenIssuer, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, apperr.Validation("invalid json"), log)
			return
		}

		u, err := svc.Authenticate(r.Context(), req.Username, req.Password)
		if err != nil {
			writeError(w, err, log)
			return
		}

		resp := loginResponse{
			Success:  true,
			Message:  "Login successful",
			UserID:   u.ID,
			Role:     u.Role,
			Redirect: dashboardFor(u.Role),
		}

		// Sin issuer (modo dev) el cliente se identifica con X-Debug-User-*.
		if tokens != nil {
			token, exp, err := tokens.Issue(r.Context(), u.Claims())
			if err != nil {
				writeError(w, err, log)
				return
			}
			resp.Token = token
			resp.ExpiresAt = &exp

			http.SetCookie(w, &http.Cookie{
				Name:     middleware.SessionCookie,
				Value:    token,
				Path:     "/",
				Expires:  exp,
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func logoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		http.SetCookie(w, &http.Cookie{
			Name:     middleware.SessionCookie,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
		})
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Logged out successfully"})
	}
}

func meHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			writeError(w, apperr.ErrUnauthenticated, nil)
			return
		}

		u, err := svc.GetByID(r.Context(), claims.UserID)
		if err != nil {
			writeError(w, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, userResponse{UserID: u.ID, Username: u.Username, Role: u.Role})
	}
}

func listUsersHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			writeError(w, apperr.ErrUnauthenticated, log)
			return
		}

		items, err := svc.List(r.Context())
		if err != nil {
			writeError(w, err, log)
			return
		}

		out := make([]userResponse, 0, len(items))
		for _, u := range items {
			out = append(out, userResponse{UserID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func dashboardFor(role auth.Role) string {
	if role == auth.RoleOwner {
		return "/owner-dashboard.html"
	}
	return "/walker-dashboard.html"
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// writeJSON/writeError están duplicados intencionalmente en cada módulo
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error, log logger.Logger) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError && log != nil {
		log.Error("request failed", map[string]any{"err": err})
	}
	writeJSON(w, status, errorResponse{Error: apperr.Code(err), Message: apperr.Message(err)})
}
