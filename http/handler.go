package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sagarc03/relapse"
)

const (
	// UserIDHeader carries the caller supplied user id.
	UserIDHeader = "X-User-Id"

	// multipart parts beyond this size are spooled to temporary files
	multipartMemory = 32 << 20
)

type Service interface {
	CreateEvent(ctx context.Context, req relapse.CreateEventRequest) (relapse.Event, error)
	SavePhoto(ctx context.Context, req relapse.SavePhotoRequest, content io.Reader) (relapse.SavedPhoto, error)
	ViewEvent(ctx context.Context, eventUUID string) (relapse.EventView, error)
	ListUserPhotos(ctx context.Context, userID string) ([]relapse.PhotoView, error)
	Ping(ctx context.Context) error
}

type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type HandlerConfig struct {
	CORS CORSConfig
	// MaxUploadSize caps request bodies in bytes. Zero means unlimited.
	MaxUploadSize int64
	Logger        *slog.Logger
}

// Handler provides the HTTP API for events and photos.
type Handler struct {
	config  HandlerConfig
	service Service
}

// NewHandler creates a new Handler with the given configuration and service.
func NewHandler(config *HandlerConfig, service Service) *Handler {
	cfg := *config
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Handler{
		config:  cfg,
		service: service,
	}
}

// Router returns an http.Handler with all routes configured.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(h.config.Logger))
	r.Use(middleware.Recoverer)

	if h.config.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORS.AllowedOrigins,
			AllowedMethods:   h.config.CORS.AllowedMethods,
			AllowedHeaders:   h.config.CORS.AllowedHeaders,
			ExposedHeaders:   h.config.CORS.ExposedHeaders,
			AllowCredentials: h.config.CORS.AllowCredentials,
			MaxAge:           h.config.CORS.MaxAge,
		}))
	}

	r.NotFound(notFound)
	r.MethodNotAllowed(methodNotAllowed)

	r.Get("/health", h.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(MaxBodySize(h.config.MaxUploadSize))
		r.Post("/photo/save", h.handleSavePhoto)
		r.Post("/event/create", h.handleCreateEvent)
	})

	r.Get("/event/view/{event_uuid}", h.handleViewEvent)
	r.Get("/photos/view", h.handleViewUserPhotos)

	return r
}

type createEventResponse struct {
	EventUUID string `json:"event_uuid"`
}

type savePhotoResponse struct {
	PhotoID int64   `json:"photo_id"`
	URL     *string `json:"url"`
}

type eventPhoto struct {
	PhotoID   int64   `json:"photo_id"`
	URL       *string `json:"url"`
	CreatedAt string  `json:"created_at"`
}

type eventViewResponse struct {
	Event  string       `json:"event"`
	Photos []eventPhoto `json:"photos"`
}

type userPhoto struct {
	PhotoID   int64   `json:"photo_id"`
	URL       *string `json:"url"`
	EventUUID *string `json:"event_uuid"`
	CreatedAt string  `json:"created_at"`
}

type userPhotosResponse struct {
	UserID string      `json:"user_id"`
	Photos []userPhoto `json:"photos"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type healthResponse struct {
	Status string `json:"status"`
}

func (h *Handler) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			WriteError(w, http.StatusRequestEntityTooLarge, "Request body too large", "")
			return
		}
		HandleError(w, err)
		return
	}

	event, err := h.service.CreateEvent(r.Context(), decodeCreateEvent(body))
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusCreated, createEventResponse{EventUUID: event.UUID})
}

func (h *Handler) handleSavePhoto(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			WriteError(w, http.StatusRequestEntityTooLarge, "Request body too large", "")
			return
		}
		// Anything else is treated as a request without form fields.
		h.config.Logger.Debug("multipart parse failed", "error", err)
	}
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}

	userID := r.Header.Get(UserIDHeader)
	if userID == "" {
		userID = formValue(r.MultipartForm, "user_id")
	}
	if userID == "" {
		WriteError(w, http.StatusBadRequest, "Missing X-User-Id header or user_id form field", "")
		return
	}

	header := formFile(r.MultipartForm, "file")
	if header == nil {
		WriteError(w, http.StatusBadRequest, "file is required", "")
		return
	}

	file, err := header.Open()
	if err != nil {
		HandleError(w, err)
		return
	}
	defer func() { _ = file.Close() }()

	eventUUID := formValue(r.MultipartForm, "event_uuid")
	if eventUUID == "" {
		eventUUID = r.URL.Query().Get("event_uuid")
	}

	saved, err := h.service.SavePhoto(r.Context(), relapse.SavePhotoRequest{
		UserID:      userID,
		EventUUID:   eventUUID,
		Filename:    header.Filename,
		ContentType: partContentType(header),
	}, file)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusCreated, savePhotoResponse{PhotoID: saved.PhotoID, URL: saved.URL})
}

func (h *Handler) handleViewEvent(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.ViewEvent(r.Context(), chi.URLParam(r, "event_uuid"))
	if err != nil {
		HandleError(w, err)
		return
	}

	if !view.Ready {
		_ = WriteJSON(w, http.StatusCreated, messageResponse{Message: "photos not ready"})
		return
	}

	photos := make([]eventPhoto, 0, len(view.Photos))
	for _, p := range view.Photos {
		photos = append(photos, eventPhoto{
			PhotoID:   p.ID,
			URL:       p.URL,
			CreatedAt: relapse.FormatTimestamp(p.CreatedAt),
		})
	}

	_ = WriteJSON(w, http.StatusOK, eventViewResponse{Event: view.Event.UUID, Photos: photos})
}

func (h *Handler) handleViewUserPhotos(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get(UserIDHeader)
	if userID == "" {
		userID = r.URL.Query().Get("user_id")
	}
	if userID == "" {
		WriteError(w, http.StatusBadRequest, "Missing X-User-Id header or user_id query param", "")
		return
	}

	views, err := h.service.ListUserPhotos(r.Context(), userID)
	if err != nil {
		HandleError(w, err)
		return
	}

	photos := make([]userPhoto, 0, len(views))
	for _, p := range views {
		photos = append(photos, userPhoto{
			PhotoID:   p.ID,
			URL:       p.URL,
			EventUUID: p.EventUUID,
			CreatedAt: relapse.FormatTimestamp(p.CreatedAt),
		})
	}

	_ = WriteJSON(w, http.StatusOK, userPhotosResponse{UserID: userID, Photos: photos})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.service.Ping(ctx); err != nil {
		h.config.Logger.Error("health check failed", "error", err)
		_ = WriteJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
		return
	}

	_ = WriteJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

// decodeCreateEvent reads fields one by one from a JSON object. Malformed or
// non-object bodies count as empty, and a field of the wrong type does not
// discard the others.
func decodeCreateEvent(body []byte) relapse.CreateEventRequest {
	var fields map[string]any
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil {
		return relapse.CreateEventRequest{}
	}

	var req relapse.CreateEventRequest
	if name, ok := scalarField(fields, "name"); ok {
		req.Name = &name
	}
	req.ProcessDatetime, _ = scalarField(fields, "process_datetime")
	return req
}

// scalarField returns the string form of a string, number or bool field.
func scalarField(fields map[string]any, key string) (string, bool) {
	switch v := fields[key].(type) {
	case string:
		return v, true
	case json.Number:
		return v.String(), true
	case bool:
		return strconv.FormatBool(v), true
	default:
		return "", false
	}
}

func formValue(form *multipart.Form, key string) string {
	if form == nil {
		return ""
	}
	if values := form.Value[key]; len(values) > 0 {
		return values[0]
	}
	return ""
}

func formFile(form *multipart.Form, key string) *multipart.FileHeader {
	if form == nil {
		return nil
	}
	if files := form.File[key]; len(files) > 0 {
		return files[0]
	}
	return nil
}

// partContentType returns the part's media type without parameters.
func partContentType(header *multipart.FileHeader) string {
	raw := header.Header.Get("Content-Type")
	if raw == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(raw)
	if err != nil {
		return ""
	}
	return mediaType
}
