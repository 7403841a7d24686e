package interfaces

import (
	"context"

	"github.com/m-mizutani/emailfinder/pkg/domain/model"
)

// UploadUseCase drives one form submission from upload to download
type UploadUseCase interface {
	// Submit posts the form, stores the processed file and returns its location
	Submit(ctx context.Context, form *model.Form) (string, error)
}

// ProcessUseCase turns an uploaded workbook into one with an Emails column
type ProcessUseCase interface {
	// ProcessWorkbook reads the workbook, scrapes every URL and returns the new workbook
	ProcessWorkbook(ctx context.Context, data []byte) ([]byte, error)
}
