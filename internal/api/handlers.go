package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JoaoFavoreto/Powerpoint-translator/internal/pipeline"
	"github.com/JoaoFavoreto/Powerpoint-translator/internal/translate"
)

const pptxMIME = "application/vnd.openxmlformats-officedocument.presentationml.presentation"

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	targetLanguage := r.FormValue("target_language")
	if targetLanguage == "" {
		jsonError(w, "target_language is required", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !strings.EqualFold(filepath.Ext(filename), ".pptx") {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	provider := r.FormValue("provider")
	if provider == "" {
		provider = s.cfg.DefaultProvider
	}
	if !s.orchestrator.HasProvider(provider) {
		jsonError(w, fmt.Sprintf("unknown provider: %s", provider), http.StatusBadRequest)
		return
	}

	style, err := translate.ParseStyle(r.FormValue("style"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	glossary, err := parseGlossary(r.FormValue("glossary"))
	if err != nil {
		jsonError(w, "invalid glossary: "+err.Error(), http.StatusBadRequest)
		return
	}

	now := time.Now()
	job := &pipeline.Job{
		ID:             pipeline.ContentHashHex([]byte(fmt.Sprintf("%s-%s-%d", filename, targetLanguage, now.UnixNano())))[:20],
		Filename:       filename,
		TargetLanguage: targetLanguage,
		Provider:       provider,
		Style:          style,
		Glossary:       glossary,
		Status:         pipeline.StatusQueued,
		Phase:          "queued",
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	job.SetFileData(data)

	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":       job.ID,
		"status":       job.Status,
		"poll_url":     fmt.Sprintf("/api/translate/%s/status", job.ID),
		"download_url": fmt.Sprintf("/api/translate/%s/download", job.ID),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	snap := job.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snap)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}

	snap := job.Snapshot()
	if snap.Status != pipeline.StatusCompleted {
		jsonError(w, fmt.Sprintf("job is %s, not completed", snap.Status), http.StatusConflict)
		return
	}
	result := job.Result()
	if result == nil {
		jsonError(w, "result unavailable", http.StatusConflict)
		return
	}

	base := strings.TrimSuffix(snap.Filename, filepath.Ext(snap.Filename))
	lang := strings.ToLower(strings.ReplaceAll(snap.TargetLanguage, " ", "_"))
	outName := fmt.Sprintf("%s_translated_%s.pptx", base, lang)

	w.Header().Set("Content-Type", pptxMIME)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", outName))
	w.Write(result)
}

func (s *Server) handleProviderStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"queue_depth": s.orchestrator.QueueDepth(),
		"stats":       s.orchestrator.ProviderStats(),
	})
}

// parseGlossary decodes the optional glossary form field: a JSON
// object mapping source terms to the translation that must be used
// for them.
func parseGlossary(s string) (map[string]string, error) {
	if s == "" {
		return nil, nil
	}
	var glossary map[string]string
	if err := json.Unmarshal([]byte(s), &glossary); err != nil {
		return nil, err
	}
	for term, translation := range glossary {
		if strings.TrimSpace(term) == "" || strings.TrimSpace(translation) == "" {
			return nil, fmt.Errorf("empty term or translation")
		}
	}
	return glossary, nil
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
