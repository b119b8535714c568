package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"orgdex/internal/corpus"
	"orgdex/internal/query"
	"orgdex/internal/search"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	svc := s.service()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"documents":     svc.DocumentCount(),
		"skipped":       len(svc.Skipped()),
		"duplicate_ids": len(svc.Warnings()),
	})
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs := s.service().Documents(csvParam(r, "tags"))
	writeJSON(w, http.StatusOK, map[string]any{
		"documents": docs,
		"count":     len(docs),
	})
}

func (s *Server) handleReadDocument(w http.ResponseWriter, r *http.Request) {
	raw, err := s.service().Raw(chi.URLParam(r, "*"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(raw))
}

func (s *Server) handleOutline(w http.ResponseWriter, r *http.Request) {
	outline, err := s.service().Outline(chi.URLParam(r, "*"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outline)
}

func (s *Server) handleHeading(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "*")
	path := r.URL.Query().Get("path")
	content, err := s.service().Heading(docID, path)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(content))
}

func (s *Server) handleByID(w http.ResponseWriter, r *http.Request) {
	loc, err := s.service().ByID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loc)
}

type searchRequest struct {
	Query       string   `json:"query"`
	Tags        []string `json:"tags"`
	Limit       int      `json:"limit"`
	SnippetSize int      `json:"snippet_size"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	results, err := s.service().Search(search.Query{
		Text:        req.Query,
		Tags:        req.Tags,
		Limit:       req.Limit,
		SnippetSize: req.SnippetSize,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	if results == nil {
		results = []search.Result{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"results": results,
		"count":   len(results),
	})
}

func (s *Server) handleTasks(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			jsonError(w, "invalid limit: "+v, http.StatusBadRequest)
			return
		}
		limit = n
	}

	tasks := s.service().Tasks(query.TaskFilter{
		States:   csvParam(r, "states"),
		Tags:     csvParam(r, "tags"),
		Priority: r.URL.Query().Get("priority"),
		Limit:    limit,
	})
	if tasks == nil {
		tasks = []query.Task{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"tasks": tasks,
		"count": len(tasks),
	})
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	svc, err := s.rebuild(r.Context())
	if err != nil {
		s.log.Error("reload failed", "error", err)
		writeError(w, err)
		return
	}
	s.svc.Store(svc)
	s.log.Info("corpus reloaded", "documents", svc.DocumentCount())
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "reloaded",
		"documents": svc.DocumentCount(),
		"skipped":   len(svc.Skipped()),
	})
}

// csvParam reads a comma-separated query parameter, dropping empty parts.
func csvParam(r *http.Request, key string) []string {
	v := r.URL.Query().Get(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// writeError maps domain errors onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	var nf *query.NotFoundError
	if errors.As(err, &nf) {
		jsonError(w, err.Error(), http.StatusNotFound)
		return
	}
	var inv *query.InvalidInputError
	if errors.As(err, &inv) || errors.Is(err, search.ErrInvalidLimit) {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if errors.Is(err, corpus.ErrNoDocuments) {
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	jsonError(w, err.Error(), http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, status, map[string]string{"error": msg})
}
