package server

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"filevault/internal/documents"
	"filevault/internal/sqlite"
	"filevault/internal/storage"
)

type Config struct {
	AdminToken  string `env:"FILEVAULT_ADMIN_TOKEN,required"`
	StoragePath string `env:"STORAGE_PATH" envDefault:"/data/storage"`
	DBPath      string `env:"FILEVAULT_DB_PATH" envDefault:"/data/filevault.db"`
	MaxSize     int64  `env:"FILEVAULT_MAX_SIZE" envDefault:"33554432"`
}

func New(cfg *Config) *http.Server {
	// Initialize structured logger with JSON handler
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Initialize file store and document repository
	store := storage.New(storage.Config{BasePath: cfg.StoragePath, Logger: logger})
	repo, err := sqlite.NewRepository(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize repository", "error", err)
		panic(fmt.Sprintf("Failed to initialize repository: %v", err))
	}

	svc := documents.NewService(store, repo)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", healthz(store))
	mux.HandleFunc("POST /v1/documents", auth(cfg.AdminToken, uploadDocument(cfg, svc)))
	mux.HandleFunc("GET /v1/documents", auth(cfg.AdminToken, listDocuments(svc)))
	mux.HandleFunc("GET /v1/documents/{id}", auth(cfg.AdminToken, downloadDocument(svc)))
	mux.HandleFunc("POST /v1/documents/{id}/rename", auth(cfg.AdminToken, renameDocument(svc)))
	mux.HandleFunc("DELETE /v1/documents/{id}", auth(cfg.AdminToken, deleteDocument(svc)))

	handler := loggingMiddleware(limitBody(mux, cfg.MaxSize))

	return &http.Server{
		Addr:         ":8080",
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}

// healthz probes the file store, recreating the uploads directory if needed.
func healthz(store *storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !store.Check() {
			http.Error(w, "Storage unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

func uploadDocument(cfg *Config, svc *documents.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := r.ParseMultipartForm(cfg.MaxSize)
		if err != nil {
			http.Error(w, "Failed to parse multipart form", http.StatusBadRequest)
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "No file provided", http.StatusBadRequest)
			return
		}
		defer file.Close()

		content, err := io.ReadAll(file)
		if err != nil {
			http.Error(w, "Failed to read file", http.StatusBadRequest)
			return
		}

		doc, err := svc.Upload(&documents.UploadRequest{
			Name:    header.Filename,
			Content: content,
		})
		if err != nil {
			slog.Error("Upload failed", "error", err, "filename", header.Filename)
			http.Error(w, "Upload failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		if err := json.NewEncoder(w).Encode(doc); err != nil {
			slog.Error("Failed to encode response", "error", err)
		}
	}
}

func listDocuments(svc *documents.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		docs, err := svc.List()
		if err != nil {
			slog.Error("List documents failed", "error", err)
			http.Error(w, "Failed to list documents", http.StatusInternalServerError)
			return
		}
		if docs == nil {
			docs = []*documents.Document{}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(docs); err != nil {
			slog.Error("Failed to encode documents list", "error", err)
		}
	}
}

func downloadDocument(svc *documents.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")

		doc, content, err := svc.Download(id)
		if err != nil {
			slog.Error("Download failed", "error", err, "document_id", id)
			http.Error(w, "Download failed", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", doc.ContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Name))
		w.Header().Set("Content-Length", fmt.Sprintf("%d", len(content)))
		w.WriteHeader(http.StatusOK)
		w.Write(content)
	}
}

func renameDocument(svc *documents.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")

		var req struct {
			Name string `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if req.Name == "" {
			http.Error(w, "Name is required", http.StatusBadRequest)
			return
		}

		doc, err := svc.Rename(id, req.Name)
		if err != nil {
			slog.Error("Rename failed", "error", err, "document_id", id)
			http.Error(w, "Rename failed", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(doc); err != nil {
			slog.Error("Failed to encode response", "error", err)
		}
	}
}

func deleteDocument(svc *documents.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		slog.Info("Deleting document", "document_id", id)

		if err := svc.Delete(id); err != nil {
			slog.Error("Delete failed", "error", err, "document_id", id)
			http.Error(w, "Delete failed", http.StatusNotFound)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func auth(token string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+token {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	}
}

// limitBody caps request bodies at maxSize bytes.
func limitBody(next http.Handler, maxSize int64) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxSize)
		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests with structured logging
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		slog.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"remote_addr", r.RemoteAddr,
		)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
