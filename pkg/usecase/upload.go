package usecase

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/emailfinder/pkg/domain/interfaces"
	"github.com/m-mizutani/emailfinder/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

// UploadHandler submits a form to the process endpoint and downloads the result.
// Each Submit call is independent; calls may overlap and share the display.
type UploadHandler struct {
	client  interfaces.ProcessClient
	sink    interfaces.ArtifactSink
	display interfaces.StatusDisplay
}

// NewUploadHandler creates a new UploadHandler
func NewUploadHandler(client interfaces.ProcessClient, sink interfaces.ArtifactSink, display interfaces.StatusDisplay) *UploadHandler {
	return &UploadHandler{
		client:  client,
		sink:    sink,
		display: display,
	}
}

// Submit runs one submission: pending, request, download, then success or error.
// Failures are shown on the display, logged, and returned. Nothing is retried.
func (h *UploadHandler) Submit(ctx context.Context, form *model.Form) (string, error) {
	submissionID := uuid.NewString()
	logger := ctxlog.From(ctx).With("submission_id", submissionID)

	h.display.SetPending()

	if form == nil || form.File == nil {
		return "", h.fail(ctx, submissionID, goerr.New("no file selected"))
	}

	filename := filepath.Base(form.File.Name)
	logger.Info("Submitting file", "filename", filename, "size", len(form.File.Content))

	processed, err := h.client.Process(ctx, form)
	if err != nil {
		return "", h.fail(ctx, submissionID, err)
	}

	if processed.ServerFilename != "" && processed.ServerFilename != filename {
		logger.Debug("Ignoring filename suggested by server",
			"server_filename", processed.ServerFilename,
			"filename", filename,
		)
	}

	path, err := h.sink.Save(ctx, filename, processed.Data)
	processed.Data = nil
	if err != nil {
		return "", h.fail(ctx, submissionID, goerr.Wrap(err, "failed to save processed file", goerr.V("filename", filename)))
	}

	h.display.SetSuccess()
	logger.Info("Processed file downloaded", "path", path)

	return path, nil
}

func (h *UploadHandler) fail(ctx context.Context, submissionID string, err error) error {
	ctxlog.From(ctx).Error("File processing failed",
		"submission_id", submissionID,
		"error", err,
	)
	h.display.SetError(FailureDescription(err))
	return err
}

// FailureDescription returns the text shown to the user for err: the message
// of the innermost error in its wrap chain.
func FailureDescription(err error) string {
	if err == nil {
		return ""
	}
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}
