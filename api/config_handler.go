package api

import (
	"encoding/json"
	"net/http"

	"github.com/seenimoa/fraudscope/internal/analysis/composite"
	"github.com/seenimoa/fraudscope/internal/config"
)

// ConfigResponse is the data returned by GET /api/v1/config. Only
// analysis settings and setting health are exposed.
type ConfigResponse struct {
	ModelVersion string                 `json:"model_version"`
	Weights      composite.Weights      `json:"weights"`
	Years        int                    `json:"years"`
	SecondDigit  bool                   `json:"second_digit"`
	RateLimit    float64                `json:"rate_limit_per_sec"`
	CacheTTLSec  int                    `json:"cache_ttl_sec"`
	Settings     []config.SettingStatus `json:"settings"`
}

func (s *Server) configResponse() ConfigResponse {
	return ConfigResponse{
		ModelVersion: composite.ModelVersion,
		Weights:      s.currentWeights(),
		Years:        s.cfg.SEC.Years,
		SecondDigit:  s.cfg.Analysis.SecondDigit,
		RateLimit:    s.cfg.SEC.RateLimitPerSec,
		CacheTTLSec:  s.cfg.Cache.TTLSec,
		Settings:     config.CheckSettings(s.cfg),
	}
}

// handleGetConfig returns the running analysis configuration.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: s.configResponse()})
}

// handleUpdateWeights replaces the composite weights for subsequent
// analyses. The change lives in memory only.
func (s *Server) handleUpdateWeights(w http.ResponseWriter, r *http.Request) {
	var incoming composite.Weights
	if err := json.NewDecoder(r.Body).Decode(&incoming); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if err := incoming.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if incoming.Sum() == 0 {
		writeError(w, http.StatusBadRequest, "at least one weight must be positive")
		return
	}

	s.mu.Lock()
	s.weights = incoming
	s.mu.Unlock()
	s.logger.Info("composite weights updated", "sum", incoming.Sum())

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: s.configResponse()})
}
