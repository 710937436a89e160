package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/fwojciec/glimpse"
	"github.com/fwojciec/glimpse/normalize"
)

// maxMessageSize bounds request bodies; captured images arrive as data URLs.
const maxMessageSize = 32 << 20

// Handler serves the host bridge contract: a POST to /message carrying a
// glimpse.Message is answered with the action's JSON response.
type Handler struct {
	Previews glimpse.Previewer
	Capturer glimpse.Capturer
	Store    glimpse.Store
	Logger   *slog.Logger

	mux *http.ServeMux
}

// NewHandler returns a Handler with routes registered.
func NewHandler(previews glimpse.Previewer, capturer glimpse.Capturer, store glimpse.Store) *Handler {
	h := &Handler{
		Previews: previews,
		Capturer: capturer,
		Store:    store,
		mux:      http.NewServeMux(),
	}
	h.mux.HandleFunc("POST /message", h.handleMessage)
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// errorResponse is the body of every failed action.
type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// saveResponse is the body of a successful save.
type saveResponse struct {
	Success bool `json:"success"`
}

func (h *Handler) handleMessage(w http.ResponseWriter, r *http.Request) {
	var msg glimpse.Message
	if err := json.NewDecoder(io.LimitReader(r.Body, maxMessageSize)).Decode(&msg); err != nil {
		h.error(w, r, glimpse.Errorf(glimpse.EINVALID, "invalid message: %v", err))
		return
	}

	switch msg.Action {
	case glimpse.ActionFetchOpenGraph:
		h.fetchOpenGraph(w, r)
	case glimpse.ActionCaptureSelection:
		h.captureSelection(w, r, msg.Payload)
	case glimpse.ActionSaveCapturedImage:
		h.save(w, r, msg.Payload, true)
	case glimpse.ActionSaveOpenGraphPreview:
		h.save(w, r, msg.Payload, false)
	default:
		h.error(w, r, glimpse.Errorf(glimpse.EINVALID, "unknown action %q", msg.Action))
	}
}

func (h *Handler) fetchOpenGraph(w http.ResponseWriter, r *http.Request) {
	if h.Previews == nil {
		h.error(w, r, glimpse.Errorf(glimpse.ENOTFOUND, "no page attached"))
		return
	}
	h.json(w, http.StatusOK, h.Previews.Preview(r.Context()))
}

func (h *Handler) captureSelection(w http.ResponseWriter, r *http.Request, payload json.RawMessage) {
	var region glimpse.Region
	if err := json.Unmarshal(payload, &region); err != nil {
		h.error(w, r, glimpse.Errorf(glimpse.EINVALID, "invalid region: %v", err))
		return
	}
	if err := region.Validate(); err != nil {
		h.error(w, r, err)
		return
	}
	if h.Capturer == nil {
		h.error(w, r, glimpse.Errorf(glimpse.ENOTFOUND, "capture not supported"))
		return
	}

	capture, err := h.Capturer.CaptureRegion(r.Context(), region)
	if err != nil {
		h.error(w, r, err)
		return
	}
	h.json(w, http.StatusOK, capture)
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request, payload json.RawMessage, screenshot bool) {
	var raw map[string]any
	if err := json.Unmarshal(payload, &raw); err != nil {
		h.error(w, r, glimpse.Errorf(glimpse.EINVALID, "invalid item: %v", err))
		return
	}
	item, err := normalize.Item(raw)
	if err != nil {
		h.error(w, r, err)
		return
	}
	if screenshot {
		item.IsScreenshot = true
	}
	for _, warning := range normalize.Warnings(item) {
		h.logger().Warn(warning, "url", item.URL)
	}

	if err := h.Store.SaveItem(r.Context(), item); err != nil {
		h.error(w, r, err)
		return
	}
	h.json(w, http.StatusOK, saveResponse{Success: true})
}

func (h *Handler) error(w http.ResponseWriter, r *http.Request, err error) {
	code := glimpse.ErrorCode(err)
	if code == glimpse.EINTERNAL {
		h.logger().Error("bridge request failed", "path", r.URL.Path, "error", err)
	}
	h.json(w, statusCode(code), errorResponse{Success: false, Error: glimpse.ErrorMessage(err)})
}

func (h *Handler) json(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) logger() *slog.Logger {
	if h.Logger == nil {
		return slog.Default()
	}
	return h.Logger
}

var codes = map[string]int{
	glimpse.EINVALID:  http.StatusBadRequest,
	glimpse.ENOTFOUND: http.StatusNotFound,
	glimpse.ETIMEOUT:  http.StatusGatewayTimeout,
	glimpse.EINTERNAL: http.StatusInternalServerError,
}

func statusCode(code string) int {
	if v, ok := codes[code]; ok {
		return v
	}
	return http.StatusInternalServerError
}

// errorCode maps an HTTP status back to an application error code.
func errorCode(status int) string {
	for code, v := range codes {
		if v == status {
			return code
		}
	}
	return glimpse.EINTERNAL
}
