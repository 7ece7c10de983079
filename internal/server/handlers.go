package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/chazu/steplab/pkg/kernel"
	"github.com/chazu/steplab/pkg/session"
)

// loadResponse is the payload for both upload and load_file: everything
// the viewer needs to show the model.
type loadResponse struct {
	Success  bool                 `json:"success"`
	Info     session.LoadInfo     `json:"info"`
	Mesh     *kernel.Mesh         `json:"mesh"`
	Faces    []session.FaceRecord `json:"faces"`
	Filename string               `json:"filename"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "steplab API")
	fmt.Fprintln(w, "  POST /api/upload      multipart STEP upload")
	fmt.Fprintln(w, "  POST /api/load_file   load from a local path")
	fmt.Fprintln(w, "  GET  /api/faces       face metadata")
	fmt.Fprintln(w, "  GET  /api/face/{id}   one face")
	fmt.Fprintln(w, "  GET  /api/mesh        render mesh")
	fmt.Fprintln(w, "  GET  /api/features    stored assignment")
	fmt.Fprintln(w, "  POST /api/features    replace assignment")
	fmt.Fprintln(w, "  POST /api/export      download renamed STEP")
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	maxBytes := int64(s.cfg.MaxUploadMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		writeError(w, http.StatusBadRequest, "upload too large or malformed")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file provided")
		return
	}
	defer file.Close()

	if header.Filename == "" {
		writeError(w, http.StatusBadRequest, "no file selected")
		return
	}
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext != ".step" && ext != ".stp" {
		writeError(w, http.StatusBadRequest, "file must be .step or .stp")
		return
	}

	path := filepath.Join(s.uploadDir, filepath.Base(header.Filename))
	dst, err := os.Create(path)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "saving upload failed")
		return
	}
	if _, err := dst.ReadFrom(file); err != nil {
		dst.Close()
		writeError(w, http.StatusInternalServerError, "saving upload failed")
		return
	}
	dst.Close()

	s.respondLoaded(w, path, filepath.Base(header.Filename))
}

func (s *Server) handleLoadFile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Filepath string `json:"filepath"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Filepath == "" {
		writeError(w, http.StatusBadRequest, "filepath required")
		return
	}
	if _, err := os.Stat(req.Filepath); err != nil {
		writeError(w, http.StatusNotFound, "file not found")
		return
	}
	s.respondLoaded(w, req.Filepath, filepath.Base(req.Filepath))
}

// respondLoaded loads a file and answers with the full viewer payload.
func (s *Server) respondLoaded(w http.ResponseWriter, path, filename string) {
	info, err := s.load(path)
	if err != nil {
		s.logger.Error("load failed", "path", path, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.mu.Lock()
	mesh, meshErr := s.session.Mesh(s.cfg.LinearDeflection, s.cfg.AngularDeflection)
	faces, facesErr := s.session.Faces()
	s.mu.Unlock()
	if meshErr != nil {
		s.logger.Error("tessellation failed", "path", path, "error", meshErr)
		writeError(w, http.StatusInternalServerError, meshErr.Error())
		return
	}
	if facesErr != nil {
		writeError(w, http.StatusInternalServerError, facesErr.Error())
		return
	}

	writeJSON(w, http.StatusOK, loadResponse{
		Success:  true,
		Info:     info,
		Mesh:     mesh,
		Faces:    faces,
		Filename: filename,
	})
}

func (s *Server) handleFaces(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	faces, err := s.session.Faces()
	s.mu.Unlock()
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"faces": faces})
}

func (s *Server) handleFace(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "face id must be an integer")
		return
	}
	s.mu.Lock()
	face, err := s.session.Face(id)
	s.mu.Unlock()
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, face)
}

func (s *Server) handleMesh(w http.ResponseWriter, r *http.Request) {
	linear := queryFloat(r, "linear_deflection", s.cfg.LinearDeflection)
	angular := queryFloat(r, "angular_deflection", s.cfg.AngularDeflection)

	s.mu.Lock()
	mesh, err := s.session.Mesh(linear, angular)
	s.mu.Unlock()
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mesh)
}

func (s *Server) handleGetFeatures(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	features := s.session.Features()
	s.mu.Unlock()
	if features == nil {
		features = session.Features{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"features": features})
}

func (s *Server) handleSetFeatures(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Features session.Features `json:"features"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid feature payload")
		return
	}
	s.mu.Lock()
	err := s.session.SetFeatures(req.Features)
	s.mu.Unlock()
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Features session.Features `json:"features"`
	}
	if r.Body != nil {
		// An empty body means "use the stored assignment".
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	s.mu.Lock()
	name, err := s.session.ExportName()
	if err == nil {
		err = s.session.Export(req.Features, filepath.Join(s.uploadDir, name))
	}
	s.mu.Unlock()
	if err != nil {
		writeSessionError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/step")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	http.ServeFile(w, r, filepath.Join(s.uploadDir, name))
}

// --- helpers ---

func queryFloat(r *http.Request, key string, fallback float64) float64 {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeSessionError maps the session error taxonomy onto HTTP statuses
// so the client can render a specific message per failure kind.
func writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNotLoaded):
		writeError(w, http.StatusBadRequest, "no STEP file loaded")
	case errors.Is(err, session.ErrFaceNotFound):
		writeError(w, http.StatusNotFound, "face not found")
	case errors.Is(err, session.ErrNoAssignment):
		writeError(w, http.StatusBadRequest, "no features defined")
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
