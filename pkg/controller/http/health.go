package http

import (
	"encoding/json"
	"net/http"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/emailfinder/pkg/domain/model"
	"github.com/m-mizutani/emailfinder/pkg/domain/types"
)

// newHealthHandler reports liveness together with the upload limit clients have to respect
func newHealthHandler(maxUploadBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := &model.HealthStatus{
			Status:         "healthy",
			Service:        "emailfinder",
			Version:        types.Version,
			MaxUploadBytes: maxUploadBytes,
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(status); err != nil {
			ctxlog.From(r.Context()).Error("Failed to encode health response", "error", err)
		}
	}
}
