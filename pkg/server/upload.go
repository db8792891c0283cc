package server

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"
)

// maxUploadBytes caps one upload request.
const maxUploadBytes = 10 << 20

var allowedExtensions = map[string]struct{}{
	".jpeg": {}, ".jpg": {}, ".png": {}, ".gif": {},
	".pdf": {}, ".doc": {}, ".docx": {},
	".xls": {}, ".xlsx": {}, ".ppt": {}, ".pptx": {},
	".txt": {},
}

type uploadResponse struct {
	Filename string `json:"filename"`
	Original string `json:"original"`
	Size     int64  `json:"size"`
	Path     string `json:"path"`
}

// handleUpload accepts one multipart file and stores it under uploads/
// with a collision-proof name.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "file too large or malformed form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	ext := strings.ToLower(path.Ext(header.Filename))
	if _, ok := allowedExtensions[ext]; !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("file type %q not allowed", ext))
		return
	}

	name := fmt.Sprintf("%s-%s%s",
		strings.TrimSuffix(path.Base(header.Filename), ext), uuid.NewString(), ext)
	dst := path.Join("uploads", name)

	wc, err := s.opts.Files.Write(r.Context(), dst)
	if err != nil {
		slog.Error("server: open upload target", "path", dst, "err", err)
		writeError(w, http.StatusInternalServerError, "storing upload failed")
		return
	}
	size, err := io.Copy(wc, file)
	if cerr := wc.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		slog.Error("server: store upload", "path", dst, "err", err)
		writeError(w, http.StatusInternalServerError, "storing upload failed")
		return
	}

	slog.Info("server: stored upload", "path", dst, "size", size)
	writeJSON(w, http.StatusOK, uploadResponse{
		Filename: name,
		Original: header.Filename,
		Size:     size,
		Path:     dst,
	})
}
