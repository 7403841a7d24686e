package interfaces

import (
	"context"

	"github.com/m-mizutani/emailfinder/pkg/domain/model"
)

// ProcessClient sends a form to the process endpoint
type ProcessClient interface {
	// Process posts the form and returns the response body on a success status
	Process(ctx context.Context, form *model.Form) (*model.ProcessedFile, error)
}

// ArtifactSink receives the processed file, the Go counterpart of a browser download
type ArtifactSink interface {
	// Save stores data under name and returns where it was written
	Save(ctx context.Context, name string, data []byte) (string, error)
}

// EmailFinder collects email addresses published on a website
type EmailFinder interface {
	// FindEmails crawls the site at rawURL and returns the unique emails found
	FindEmails(ctx context.Context, rawURL string) ([]string, error)
}

// SheetCodec reads and writes Excel workbooks
type SheetCodec interface {
	// Decode reads the first worksheet of a workbook
	Decode(data []byte) (*model.Sheet, error)

	// Encode writes sheet as a new single-sheet workbook
	Encode(sheet *model.Sheet) ([]byte, error)
}
