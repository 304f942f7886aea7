package http

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/bucketry/bucketry"
)

// Service is the storage surface the gateway exposes over HTTP.
// *bucketry.Storage satisfies it.
type Service interface {
	Save(ctx context.Context, name string, content io.Reader) (string, error)
	URL(ctx context.Context, name string, opts bucketry.URLOptions) (string, error)
	Delete(ctx context.Context, name string) error
	Exists(ctx context.Context, name string) (bool, error)
	Listdir(ctx context.Context, name string) (dirs, files []string, err error)
}

type CORSConfig struct {
	Enabled          bool
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

type HandlerConfig struct {
	CORS CORSConfig
}

// Handler provides HTTP handlers that resolve stored names against the
// storage service. Requests address objects as /{scheme}/{bucket}/{key...}.
type Handler struct {
	config  HandlerConfig
	service Service
}

// NewHandler creates a new Handler with the given configuration and service.
func NewHandler(config *HandlerConfig, service Service) *Handler {
	return &Handler{
		config:  *config,
		service: service,
	}
}

// Router returns an http.Handler with the gateway routes configured.
// GET redirects to a signed or public object URL, PUT uploads through the
// storage pipeline, DELETE removes, and HEAD reports existence.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

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

	r.Route("/{scheme}/{bucket}", func(r chi.Router) {
		r.Get("/*", h.handleGet)
		r.Head("/*", h.handleHead)
		r.Put("/*", h.handlePut)
		r.Delete("/*", h.handleDelete)
	})

	return r
}

// storedName rebuilds the scheme://bucket/key form from the route params.
func storedName(r *http.Request) string {
	scheme := chi.URLParam(r, "scheme")
	bucket := chi.URLParam(r, "bucket")
	key := chi.URLParam(r, "*")
	return scheme + "://" + bucket + "/" + key
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	name := storedName(r)

	if r.URL.Query().Has("list") {
		h.handleList(w, r, name)
		return
	}

	opts := bucketry.URLOptions{}
	if expiresStr := r.URL.Query().Get("expires"); expiresStr != "" {
		seconds, err := strconv.Atoi(expiresStr)
		if err != nil || seconds <= 0 {
			WriteError(w, http.StatusBadRequest, "invalid_expires", "expires must be a positive number of seconds")
			return
		}
		opts.Expires = time.Duration(seconds) * time.Second
	}
	if version := r.URL.Query().Get("version"); version != "" {
		opts.Params = map[string]string{"VersionId": version}
	}

	url, err := h.service.URL(r.Context(), name, opts)
	if err != nil {
		HandleError(w, err)
		return
	}

	http.Redirect(w, r, url, http.StatusFound)
}

func (h *Handler) handleHead(w http.ResponseWriter, r *http.Request) {
	exists, err := h.service.Exists(r.Context(), storedName(r))
	if err != nil {
		HandleError(w, err)
		return
	}
	if !exists {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) handlePut(w http.ResponseWriter, r *http.Request) {
	name := storedName(r)
	if strings.HasSuffix(name, "/") {
		WriteError(w, http.StatusBadRequest, "invalid_name", "Cannot upload to a directory name")
		return
	}

	finalName, err := h.service.Save(r.Context(), name, r.Body)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusCreated, map[string]string{"name": finalName})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), storedName(r)); err != nil {
		HandleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListResponse is the JSON body returned for directory listings.
type ListResponse struct {
	Dirs  []string `json:"dirs"`
	Files []string `json:"files"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request, name string) {
	dirs, files, err := h.service.Listdir(r.Context(), name)
	if err != nil {
		HandleError(w, err)
		return
	}

	if dirs == nil {
		dirs = []string{}
	}
	if files == nil {
		files = []string{}
	}
	_ = WriteJSON(w, http.StatusOK, ListResponse{Dirs: dirs, Files: files})
}
