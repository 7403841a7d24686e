package types

import "github.com/m-mizutani/goerr/v2"

var (
	// ErrProcessingFailed is returned when the process endpoint answers with a non-success status
	ErrProcessingFailed = goerr.New("File processing failed")

	// ErrInvalidFileType is returned when the uploaded file is missing or is not an Excel workbook
	ErrInvalidFileType = goerr.New("Invalid file type. Please upload an Excel file.")

	// ErrNoURLColumn is returned when no header looks like it holds website URLs
	ErrNoURLColumn = goerr.New("No column found that likely contains URLs.")

	// ErrEmptyWorkbook is returned when the workbook has no sheet or no header row
	ErrEmptyWorkbook = goerr.New("workbook has no header row")
)
