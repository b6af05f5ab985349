package handlers

import (
	"net/http"

	"github.com/PabloViniegra/how-are-u/internal/config"
	"github.com/PabloViniegra/how-are-u/internal/constants"
	"github.com/PabloViniegra/how-are-u/internal/labels"
)

// ConfigHandler handles configuration endpoints
type ConfigHandler struct {
	config *config.Config
}

// NewConfigHandler creates a new config handler
func NewConfigHandler(cfg *config.Config) *ConfigHandler {
	return &ConfigHandler{
		config: cfg,
	}
}

// ConfigResponse describes the upload limits and display settings a client needs.
type ConfigResponse struct {
	MaxFileSize   int           `json:"max_file_size"`
	AcceptedTypes []string      `json:"accepted_types"`
	PublicURL     string        `json:"public_url,omitempty"`
	ScoreBands    []labels.Band `json:"score_bands"`
}

// Get returns the public configuration
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, ConfigResponse{
		MaxFileSize:   constants.MaxFileSize,
		AcceptedTypes: constants.AcceptedImageTypes,
		PublicURL:     h.config.Web.PublicURL,
		ScoreBands:    labels.Default().Bands,
	})
}
