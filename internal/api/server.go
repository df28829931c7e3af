package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"nasfaqv2/brokerbot/ytlive/internal/livestatus"
	"nasfaqv2/brokerbot/ytlive/internal/livestreams"
	"nasfaqv2/brokerbot/ytlive/internal/metrics"
	"nasfaqv2/brokerbot/ytlive/internal/youtube"
	"nasfaqv2/brokerbot/ytlive/internal/ytdata"
)

type Checker interface {
	Check(ctx context.Context, identifier string) (*livestatus.Result, error)
}

type StreamLister interface {
	ListChannelStreams(ctx context.Context, channelID string) ([]livestreams.Stream, error)
	ListLiveChannels(ctx context.Context, since time.Time) ([]string, error)
}

// LiveChannelWindow is how recent a live check must be for the channel to be
// listed by GET /v1/live/channels.
const LiveChannelWindow = 30 * time.Minute

// Handler serves on-demand checks and the stored stream view.
type Handler struct {
	checker Checker
	streams StreamLister
	logger  zerolog.Logger
}

func NewHandler(checker Checker, streams StreamLister, logger zerolog.Logger) *Handler {
	return &Handler{checker: checker, streams: streams, logger: logger}
}

// NewRouter wires the handler, health and metrics endpoints. m may be nil.
func NewRouter(h *Handler, m *metrics.Metrics) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(h.logger))
	if m != nil {
		r.Use(metrics.RequestMiddleware(m))
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}

	r.Get("/healthz", h.Health)
	r.Get("/v1/live", h.CheckLive)
	r.Get("/v1/live/channels", h.ListLiveChannels)
	r.Route("/v1/channels/{identifier}", func(r chi.Router) {
		r.Get("/live", h.CheckLive)
		r.Get("/streams", h.ListStreams)
	})
	return r
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// CheckLive handles GET /v1/channels/{identifier}/live and
// GET /v1/live?channel=<identifier>, the latter for URL identifiers.
func (h *Handler) CheckLive(w http.ResponseWriter, r *http.Request) {
	identifier := chi.URLParam(r, "identifier")
	if identifier == "" {
		identifier = r.URL.Query().Get("channel")
	}

	res, err := h.checker.Check(r.Context(), identifier)
	if err != nil {
		status := statusForError(err)
		h.logger.Warn().Err(err).Str("identifier", identifier).Int("status", status).Msg("api: live check failed")
		writeError(w, status, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ListStreams handles GET /v1/channels/{identifier}/streams. Only canonical
// channel IDs are accepted; the stored view is keyed by them.
func (h *Handler) ListStreams(w http.ResponseWriter, r *http.Request) {
	channelID := chi.URLParam(r, "identifier")
	if !youtube.IsChannelID(channelID) {
		writeError(w, http.StatusBadRequest, errors.New("a canonical channel ID is required"))
		return
	}

	streams, err := h.streams.ListChannelStreams(r.Context(), channelID)
	if err != nil {
		h.logger.Error().Err(err).Str("channel_id", channelID).Msg("api: list streams failed")
		writeError(w, http.StatusInternalServerError, errors.New("stream store unavailable"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"channelId": channelID,
		"streams":   streams,
	})
}

// ListLiveChannels handles GET /v1/live/channels: channels the poller saw
// live within LiveChannelWindow.
func (h *Handler) ListLiveChannels(w http.ResponseWriter, r *http.Request) {
	ids, err := h.streams.ListLiveChannels(r.Context(), time.Now().Add(-LiveChannelWindow))
	if err != nil {
		h.logger.Error().Err(err).Msg("api: list live channels failed")
		writeError(w, http.StatusInternalServerError, errors.New("stream store unavailable"))
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"channels": ids})
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, youtube.ErrInvalidIdentifier):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, youtube.ErrResolutionFailed):
		return http.StatusNotFound
	case errors.Is(err, youtube.ErrFetchFailed), errors.Is(err, ytdata.ErrDataNotFound):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
