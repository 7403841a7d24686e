package http

import (
	_ "embed"
	"net/http"

	"github.com/m-mizutani/ctxlog"
)

//go:embed templates/upload.html
var uploadPage []byte

// handleUploadPage serves the upload form
func handleUploadPage(w http.ResponseWriter, r *http.Request) {
	ctxlog.From(r.Context()).Info("Home route accessed")

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(uploadPage); err != nil {
		ctxlog.From(r.Context()).Error("Failed to write upload page", "error", err)
	}
}
