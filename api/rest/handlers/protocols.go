package handlers

import (
	"net/http"

	"lab-orchestrator/core/catalog"
	"lab-orchestrator/core/models"

	"github.com/gorilla/mux"
)

// ProtocolHandler handles protocol catalog HTTP requests
type ProtocolHandler struct {
	library *catalog.Library
}

// NewProtocolHandler creates a new protocol handler
func NewProtocolHandler(library *catalog.Library) *ProtocolHandler {
	return &ProtocolHandler{library: library}
}

// ListProtocols handles GET /api/protocols with optional q and
// sample_type filters
func (h *ProtocolHandler) ListProtocols(w http.ResponseWriter, r *http.Request) {
	var protocols []models.TestProtocol

	switch {
	case r.URL.Query().Get("q") != "":
		protocols = h.library.SearchProtocols(r.URL.Query().Get("q"))
	case r.URL.Query().Get("sample_type") != "":
		protocols = h.library.SuggestProtocols(r.URL.Query().Get("sample_type"))
	default:
		protocols = h.library.GetAllProtocols()
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"protocols": protocols,
		"count":     len(protocols),
	})
}

// GetProtocol handles GET /api/protocols/{id}
func (h *ProtocolHandler) GetProtocol(w http.ResponseWriter, r *http.Request) {
	protocol, ok := h.library.GetProtocol(mux.Vars(r)["id"])
	if !ok {
		http.Error(w, "Protocol not found", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, protocol)
}

// GetProtocolsByStandard handles GET /api/protocols/standard/{standard}
func (h *ProtocolHandler) GetProtocolsByStandard(w http.ResponseWriter, r *http.Request) {
	standard := models.TestStandard(mux.Vars(r)["standard"])
	protocols := h.library.GetByStandard(standard)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"standard":  standard,
		"protocols": protocols,
		"count":     len(protocols),
	})
}
