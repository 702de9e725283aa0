package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/shadowplex/shadowplex/internal/catalog"
)

type uploadResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	ID      int64       `json:"id"`
	Data    interface{} `json:"data"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	var req catalog.UploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := s.uploader.Upload(r.Context(), &req)
	if errors.Is(err, catalog.ErrTitleRequired) {
		s.respondError(w, http.StatusBadRequest, "Title is required")
		return
	}
	if err != nil {
		log.Printf("api: upload: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Upload failed")
		return
	}

	// The upload event reaches the hub through the notify task, so the
	// dashboard sees exactly one event per upload.
	s.respondJSON(w, http.StatusOK, uploadResponse{
		Success: true,
		Message: "Upload successful",
		ID:      result.ID,
		Data:    result.Record(),
	})
}
