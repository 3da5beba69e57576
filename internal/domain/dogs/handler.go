package dogs

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"dog-walk-service/internal/middleware"
	"dog-walk-service/internal/platform/apperr"
	"dog-walk-service/internal/platform/logger"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, log logger.Logger) {
	r.Route("/api/dogs", func(dr chi.Router) {
		// Listado público
		dr.Get("/", listDogsHandler(svc, log))

		// Dueño
		dr.Post("/", createDogHandler(svc, log))
		dr.Get("/mine", listMyDogsHandler(svc, log))
	})
}

type createDogRequest struct {
	Name string `json:"name"`
	Size string `json:"size" enums:"small,medium,large"`
}

type dogResponse struct {
	DogID     string    `json:"dog_id"`
	OwnerID   string    `json:"owner_id"`
	Name      string    `json:"name"`
	Size      Size      `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

type dogListingResponse struct {
	DogName       string `json:"dog_name"`
	Size          Size   `json:"size"`
	OwnerUsername string `json:"owner_username"`
}

// listDogsHandler godoc
// @Summary Listar perros
// @Description Todos los perros con su tamaño y el username del dueño. Público.
// @Tags dogs
// @Produce json
// @Success 200 {array} dogListingResponse
// @Router /api/dogs [get]
func listDogsHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListAll(r.Context())
		if err != nil {
			writeError(w, err, log)
			return
		}

		out := make([]dogListingResponse, 0, len(items))
		for _, l := range items {
			out = append(out, dogListingResponse{
				DogName:       l.DogName,
				Size:          l.Size,
				OwnerUsername: l.OwnerUsername,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// createDogHandler godoc
// @Summary Registrar perro
// @Description El actor debe tener rol owner.
// @Tags dogs
// @Accept json
// @Produce json
// @Param Authorization header string false "Bearer token"
// @Param payload body createDogRequest true "Perro"
// @Success 201 {object} dogResponse
// @Failure 400 {object} errorResponse
// @Failure 401 {object} errorResponse
// @Failure 403 {object} errorResponse
// @Router /api/dogs [post]
func createDogHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			writeError(w, apperr.ErrUnauthenticated, log)
			return
		}

		var req createDogRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, apperr.Validation("invalid json"), log)
			return
		}

		d, err := svc.Create(r.Context(), claims, CreateInput{Name: req.Name, Size: req.Size})
		if err != nil {
			writeError(w, err, log)
			return
		}

		writeJSON(w, http.StatusCreated, toDogResponse(d))
	}
}

func listMyDogsHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	// Owner-only
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			writeError(w, apperr.ErrUnauthenticated, log)
			return
		}

		items, err := svc.ListByOwner(r.Context(), claims.UserID)
		if err != nil {
			writeError(w, err, log)
			return
		}

		out := make([]dogResponse, 0, len(items))
		for _, d := range items {
			out = append(out, toDogResponse(d))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func toDogResponse(d Dog) dogResponse {
	return dogResponse{
		DogID:     d.ID,
		OwnerID:   d.OwnerUserID,
		Name:      d.Name,
		Size:      d.Size,
		CreatedAt: d.CreatedAt,
	}
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos (users/dogs/walks)
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
