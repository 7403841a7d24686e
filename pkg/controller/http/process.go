package http

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/emailfinder/pkg/domain/interfaces"
	"github.com/m-mizutani/emailfinder/pkg/domain/model"
	"github.com/m-mizutani/emailfinder/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// maxMemory is the part of a multipart body kept in memory before spilling to disk
const maxMemory = 32 << 20

// ProcessHandler handles workbook uploads on /process
type ProcessHandler struct {
	processUC      interfaces.ProcessUseCase
	maxUploadBytes int64
}

// NewProcessHandler creates a new ProcessHandler
func NewProcessHandler(processUC interfaces.ProcessUseCase, maxUploadBytes int64) *ProcessHandler {
	return &ProcessHandler{
		processUC:      processUC,
		maxUploadBytes: maxUploadBytes,
	}
}

// Handle reads the "file" field, processes the workbook and returns it as an attachment
// under the uploaded filename
func (h *ProcessHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := ctxlog.From(ctx)

	logger.Info("Processing file upload")

	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	}

	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			logger.Warn("Upload too large", "limit", tooLarge.Limit)
			writeError(w, "File too large.", http.StatusRequestEntityTooLarge)
			return
		}
		logger.Error("Invalid file type or no file uploaded", "error", err)
		writeError(w, types.ErrInvalidFileType.Error(), http.StatusBadRequest)
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	file, header, err := r.FormFile(model.DefaultFileField)
	if err != nil {
		logger.Error("Invalid file type or no file uploaded", "error", err)
		writeError(w, types.ErrInvalidFileType.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := filepath.Base(header.Filename)
	if !strings.HasSuffix(filename, model.XLSXExtension) {
		logger.Error("Invalid file type or no file uploaded", "filename", filename)
		writeError(w, types.ErrInvalidFileType.Error(), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		h.internalError(w, r, goerr.Wrap(err, "failed to read uploaded file", goerr.V("filename", filename)))
		return
	}

	output, err := h.processUC.ProcessWorkbook(ctx, data)
	if errors.Is(err, types.ErrNoURLColumn) {
		logger.Error("No URL column found", "filename", filename)
		writeError(w, types.ErrNoURLColumn.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		h.internalError(w, r, err)
		return
	}

	logger.Info("Sending file", "filename", filename, "size", len(output))

	w.Header().Set("Content-Type", model.XLSXContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": filename,
	}))
	w.Header().Set("Content-Length", strconv.Itoa(len(output)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(output); err != nil {
		logger.Error("Failed to write processed file", "error", err)
	}
}

func (h *ProcessHandler) internalError(w http.ResponseWriter, r *http.Request, err error) {
	ctxlog.From(r.Context()).Error("Error occurred", "error", err)
	sentry.CaptureException(err)
	writeError(w, "An error occurred: "+err.Error(), http.StatusInternalServerError)
}
