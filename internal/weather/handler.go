package weather

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/osmacan/weather-api/internal/auth"
	"github.com/osmacan/weather-api/internal/httpx"
	"github.com/osmacan/weather-api/internal/user"
)

type Handler interface {
	Routes() chi.Router
}

type handler struct {
	logger *zap.Logger
	client *Client
	users  user.Repo
	mw     *auth.Middleware
}

func NewHandler(client *Client, users user.Repo, mw *auth.Middleware, l *zap.Logger) Handler {
	return &handler{
		logger: l,
		client: client,
		users:  users,
		mw:     mw,
	}
}

func (h *handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(h.mw.OptionalAuth)
	r.Get("/", h.Current)
	r.Get("/forecast", h.WeeklyForecast)
	return r
}

func (h *handler) Current(w http.ResponseWriter, r *http.Request) {
	city := h.resolveCity(r)
	httpx.WriteJSON(w, http.StatusOK, h.client.CurrentWeather(r.Context(), city))
}

func (h *handler) WeeklyForecast(w http.ResponseWriter, r *http.Request) {
	city := h.resolveCity(r)
	httpx.WriteJSON(w, http.StatusOK, h.client.WeeklyForecast(r.Context(), city))
}

// resolveCity picks the query parameter first, then the authenticated
// caller's home city, then the configured default. Anonymous callers are
// never rejected here; this route group runs behind the optional gate.
func (h *handler) resolveCity(r *http.Request) string {
	if city := r.URL.Query().Get("city"); city != "" {
		return city
	}

	claims, ok := auth.ClaimsFrom(r.Context())
	if !ok {
		return ""
	}

	u, err := h.users.FindByEmail(r.Context(), claims.Email)
	if err != nil || u == nil {
		h.logger.Debug("could not resolve home city", zap.Error(err))
		return ""
	}
	return u.City
}
