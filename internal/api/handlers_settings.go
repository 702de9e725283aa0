package api

import (
	"encoding/json"
	"net/http"
)

// handleGetSettings returns every setting keyed by name, in the
// key → {value, description} wire shape.
func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.settings.GetAll()
	if err != nil {
		s.respondStorageError(w, "get settings", err)
		return
	}

	out := make(map[string]map[string]string, len(settings))
	for _, setting := range settings {
		out[setting.Key] = map[string]string{
			"value":       setting.Value,
			"description": setting.Description,
		}
	}
	s.respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpdateSetting(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Key == "" {
		s.respondError(w, http.StatusBadRequest, "Setting key is required")
		return
	}

	if err := s.settings.Set(req.Key, req.Value); err != nil {
		s.respondStorageError(w, "update setting", err)
		return
	}
	s.respondJSON(w, http.StatusOK, Response{Success: true, Message: "Setting updated"})
}
