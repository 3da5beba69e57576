package walks

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

// Formato alternativo aceptado en requested_time (el de los formularios originales).
const legacyTimeLayout = "2006-01-02 15:04:05"

func RegisterRoutes(r chi.Router, svc *Service, log logger.Logger) {
	// Vistas públicas
	r.Get("/api/walkrequests/open", listOpenHandler(svc, log))
	r.Get("/api/walkers/summary", summaryHandler(svc, log))

	r.Route("/api/walks", func(wr chi.Router) {
		wr.Post("/", createWalkHandler(svc, log))

		wr.Get("/applications/mine", listMyApplicationsHandler(svc, log))
		wr.Post("/applications/{applicationID}/accept", acceptHandler(svc, log))

		wr.Get("/{requestID}", getWalkHandler(svc, log))
		wr.Get("/{requestID}/applications", listApplicationsHandler(svc, log))
		wr.Post("/{requestID}/apply", applyHandler(svc, log))
		wr.Post("/{requestID}/complete", completeHandler(svc, log))
		wr.Post("/{requestID}/cancel", cancelHandler(svc, log))
		wr.Post("/{requestID}/rating", rateHandler(svc, log))
		wr.Get("/{requestID}/rating", getRatingHandler(svc, log))
	})
}

type createWalkRequest struct {
	DogID           string `json:"dog_id"`
	RequestedTime   string `json:"requested_time" example:"2025-04-20T08:00:00Z"`
	DurationMinutes int    `json:"duration_minutes"`
	Location        string `json:"location"`
}

type walkResponse struct {
	RequestID       string        `json:"request_id"`
	DogID           string        `json:"dog_id"`
	RequestedTime   time.Time     `json:"requested_time"`
	DurationMinutes int           `json:"duration_minutes"`
	Location        string        `json:"location"`
	Status          RequestStatus `json:"status"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

type applicationResponse struct {
	ApplicationID string            `json:"application_id"`
	RequestID     string            `json:"request_id"`
	WalkerID      string            `json:"walker_id"`
	Status        ApplicationStatus `json:"status"`
	CreatedAt     time.Time         `json:"created_at"`
}

type acceptResponse struct {
	Request     walkResponse        `json:"request"`
	Application applicationResponse `json:"application"`
}

type ratingRequest struct {
	Rating   int    `json:"rating"`
	Comments string `json:"comments"`
}

type ratingResponse struct {
	RatingID  string    `json:"rating_id"`
	RequestID string    `json:"request_id"`
	WalkerID  string    `json:"walker_id"`
	OwnerID   string    `json:"owner_id"`
	Rating    int       `json:"rating"`
	Comments  string    `json:"comments"`
	CreatedAt time.Time `json:"created_at"`
}

type openRequestResponse struct {
	RequestID       string    `json:"request_id"`
	DogName         string    `json:"dog_name"`
	RequestedTime   time.Time `json:"requested_time"`
	DurationMinutes int       `json:"duration_minutes"`
	Location        string    `json:"location"`
	OwnerUsername   string    `json:"owner_username"`
}

type summaryResponse struct {
	WalkerUsername string   `json:"walker_username"`
	CompletedWalks int      `json:"completed_walks"`
	TotalRatings   int      `json:"total_ratings"`
	AverageRating  *float64 `json:"average_rating"`
}

// listOpenHandler godoc
// @Summary Solicitudes abiertas
// @Description Solicitudes en estado open con el perro y el dueño. Público.
// @Tags walks
// @Produce json
// @Success 200 {array} openRequestResponse
// @Router /api/walkrequests/open [get]
func listOpenHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListOpenRequests(r.Context())
		if err != nil {
			writeError(w, err, log)
			return
		}

		out := make([]openRequestResponse, 0, len(items))
		for _, o := range items {
			out = append(out, openRequestResponse{
				RequestID:       o.RequestID,
				DogName:         o.DogName,
				RequestedTime:   o.RequestedTime,
				DurationMinutes: o.DurationMinutes,
				Location:        o.Location,
				OwnerUsername:   o.OwnerUsername,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// summaryHandler godoc
// @Summary Resumen por paseador
// @Description Paseos completados, cantidad de ratings y promedio (null si no hay ratings), ordenado por username.
// @Tags walks
// @Produce json
// @Success 200 {array} summaryResponse
// @Router /api/walkers/summary [get]
func summaryHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := svc.WalkerSummary(r.Context())
		if err != nil {
			writeError(w, err, log)
			return
		}

		out := make([]summaryResponse, 0, len(rows))
		for _, s := range rows {
			out = append(out, summaryResponse(s))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// createWalkHandler godoc
// @Summary Crear solicitud de paseo
// @Description El actor debe ser dueño del perro. requested_time en RFC3339 o "2006-01-02 15:04:05" (UTC).
// @Tags walks
// @Accept json
// @Produce json
// @Param Authorization header string false "Bearer token"
// @Param payload body createWalkRequest true "Solicitud"
// @Success 201 {object} walkResponse
// @Failure 400 {object} errorResponse
// @Failure 401 {object} errorResponse
// @Failure 403 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /api/walks [post]
func createWalkHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireClaims(w, r, log)
		if !ok {
			return
		}

		var req createWalkRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, apperr.Validation("invalid json"), log)
			return
		}

		var at time.Time
		if strings.TrimSpace(req.RequestedTime) != "" {
			t, err := parseRequestedTime(req.RequestedTime)
			if err != nil {
				writeError(w, apperr.Validation("requested_time must be RFC3339 or %q", legacyTimeLayout), log)
				return
			}
			at = t
		}

		wr, err := svc.CreateWalkRequest(r.Context(), claims, CreateRequestInput{
			DogID:           req.DogID,
			RequestedTime:   at,
			DurationMinutes: req.DurationMinutes,
			Location:        req.Location,
		})
		if err != nil {
			writeError(w, err, log)
			return
		}
		writeJSON(w, http.StatusCreated, toWalkResponse(wr))
	}
}

func getWalkHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireClaims(w, r, log)
		if !ok {
			return
		}

		wr, err := svc.GetRequest(r.Context(), claims, chi.URLParam(r, "requestID"))
		if err != nil {
			writeError(w, err, log)
			return
		}
		writeJSON(w, http.StatusOK, toWalkResponse(wr))
	}
}

func listApplicationsHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	// Solo el dueño del perro
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireClaims(w, r, log)
		if !ok {
			return
		}

		items, err := svc.ListApplications(r.Context(), claims, chi.URLParam(r, "requestID"))
		if err != nil {
			writeError(w, err, log)
			return
		}
		writeJSON(w, http.StatusOK, toApplicationResponses(items))
	}
}

func listMyApplicationsHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireClaims(w, r, log)
		if !ok {
			return
		}

		items, err := svc.ListMyApplications(r.Context(), claims)
		if err != nil {
			writeError(w, err, log)
			return
		}
		writeJSON(w, http.StatusOK, toApplicationResponses(items))
	}
}

// applyHandler godoc
// @Summary Postularse a una solicitud
// @Tags walks
// @Produce json
// @Param Authorization header string false "Bearer token"
// @Param requestID path string true "Walk request ID"
// @Success 201 {object} applicationResponse
// @Failure 400 {object} errorResponse "ya postulado"
// @Failure 403 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Failure 409 {object} errorResponse "la solicitud no está open"
// @Router /api/walks/{requestID}/apply [post]
func applyHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireClaims(w, r, log)
		if !ok {
			return
		}

		app, err := svc.SubmitApplication(r.Context(), claims, chi.URLParam(r, "requestID"))
		if err != nil {
			writeError(w, err, log)
			return
		}
		writeJSON(w, http.StatusCreated, toApplicationResponse(app))
	}
}

// acceptHandler godoc
// @Summary Aceptar postulación
// @Description Acepta la postulación, rechaza las demás y pasa la solicitud a accepted, todo en una transacción.
// @Tags walks
// @Produce json
// @Param Authorization header string false "Bearer token"
// @Param applicationID path string true "Application ID"
// @Success 200 {object} acceptResponse
// @Failure 403 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Failure 409 {object} errorResponse
// @Router /api/walks/applications/{applicationID}/accept [post]
func acceptHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireClaims(w, r, log)
		if !ok {
			return
		}

		acc, err := svc.AcceptApplication(r.Context(), claims, chi.URLParam(r, "applicationID"))
		if err != nil {
			writeError(w, err, log)
			return
		}
		writeJSON(w, http.StatusOK, acceptResponse{
			Request:     toWalkResponse(acc.Request),
			Application: toApplicationResponse(acc.Application),
		})
	}
}

// completeHandler godoc
// @Summary Marcar paseo completado
// @Tags walks
// @Produce json
// @Param Authorization header string false "Bearer token"
// @Param requestID path string true "Walk request ID"
// @Success 200 {object} walkResponse
// @Failure 403 {object} errorResponse
// @Failure 409 {object} errorResponse
// @Router /api/walks/{requestID}/complete [post]
func completeHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireClaims(w, r, log)
		if !ok {
			return
		}

		wr, err := svc.MarkCompleted(r.Context(), claims, chi.URLParam(r, "requestID"))
		if err != nil {
			writeError(w, err, log)
			return
		}
		writeJSON(w, http.StatusOK, toWalkResponse(wr))
	}
}

// cancelHandler godoc
// @Summary Cancelar solicitud
// @Tags walks
// @Produce json
// @Param Authorization header string false "Bearer token"
// @Param requestID path string true "Walk request ID"
// @Success 200 {object} walkResponse
// @Failure 403 {object} errorResponse
// @Failure 409 {object} errorResponse
// @Router /api/walks/{requestID}/cancel [post]
func cancelHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireClaims(w, r, log)
		if !ok {
			return
		}

		wr, err := svc.CancelRequest(r.Context(), claims, chi.URLParam(r, "requestID"))
		if err != nil {
			writeError(w, err, log)
			return
		}
		writeJSON(w, http.StatusOK, toWalkResponse(wr))
	}
}

// rateHandler godoc
// @Summary Calificar paseo
// @Description Un único rating (1-5) por solicitud completada, solo el dueño del perro.
// @Tags walks
// @Accept json
// @Produce json
// @Param Authorization header string false "Bearer token"
// @Param requestID path string true "Walk request ID"
// @Param payload body ratingRequest true "Rating"
// @Success 201 {object} ratingResponse
// @Failure 400 {object} errorResponse
// @Failure 403 {object} errorResponse
// @Failure 409 {object} errorResponse
// @Router /api/walks/{requestID}/rating [post]
func rateHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireClaims(w, r, log)
		if !ok {
			return
		}

		var req ratingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, apperr.Validation("invalid json"), log)
			return
		}

		rt, err := svc.SubmitRating(r.Context(), claims, chi.URLParam(r, "requestID"), RatingInput{
			Rating:   req.Rating,
			Comments: req.Comments,
		})
		if err != nil {
			writeError(w, err, log)
			return
		}
		writeJSON(w, http.StatusCreated, toRatingResponse(rt))
	}
}

func getRatingHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireClaims(w, r, log)
		if !ok {
			return
		}

		rt, err := svc.GetRating(r.Context(), claims, chi.URLParam(r, "requestID"))
		if err != nil {
			writeError(w, err, log)
			return
		}
		writeJSON(w, http.StatusOK, toRatingResponse(rt))
	}
}

func requireClaims(w http.ResponseWriter, r *http.Request, log logger.Logger) (auth.Claims, bool) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || strings.TrimSpace(claims.UserID) == "" {
		writeError(w, apperr.ErrUnauthenticated, log)
		return auth.Claims{}, false
	}
	return claims, true
}

func parseRequestedTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.ParseInLocation(legacyTimeLayout, s, time.UTC)
}

func toWalkResponse(wr WalkRequest) walkResponse {
	return walkResponse{
		RequestID:       wr.ID,
		DogID:           wr.DogID,
		RequestedTime:   wr.RequestedTime,
		DurationMinutes: wr.DurationMinutes,
		Location:        wr.Location,
		Status:          wr.Status,
		CreatedAt:       wr.CreatedAt,
		UpdatedAt:       wr.UpdatedAt,
	}
}

func toApplicationResponse(a WalkApplication) applicationResponse {
	return applicationResponse{
		ApplicationID: a.ID,
		RequestID:     a.RequestID,
		WalkerID:      a.WalkerID,
		Status:        a.Status,
		CreatedAt:     a.CreatedAt,
	}
}

func toApplicationResponses(items []WalkApplication) []applicationResponse {
	out := make([]applicationResponse, 0, len(items))
	for _, a := range items {
		out = append(out, toApplicationResponse(a))
	}
	return out
}

func toRatingResponse(rt WalkRating) ratingResponse {
	return ratingResponse{
		RatingID:  rt.ID,
		RequestID: rt.RequestID,
		WalkerID:  rt.WalkerID,
		OwnerID:   rt.OwnerID,
		Rating:    rt.Rating,
		Comments:  rt.Comments,
		CreatedAt: rt.CreatedAt,
	}
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
