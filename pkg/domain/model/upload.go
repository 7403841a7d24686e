package model

import "net/url"

// DefaultFileField is the multipart field name of the file input
const DefaultFileField = "file"

// UploadFile is the file selected for one submission
type UploadFile struct {
	Name    string // Original filename, used again for the download
	Content []byte // Raw file content
}

// Form is the submission context: the form's field values plus the selected file
type Form struct {
	Fields    url.Values  // Additional form fields sent along with the file
	FileField string      // Multipart field name for the file; DefaultFileField if empty
	File      *UploadFile // Selected file
}

// FileFieldName returns the multipart field name used for the file part
func (f *Form) FileFieldName() string {
	if f.FileField == "" {
		return DefaultFileField
	}
	return f.FileField
}

// ProcessedFile is the opaque artifact returned by the process endpoint
type ProcessedFile struct {
	Data           []byte // Response body
	ContentType    string // Content-Type header of the response
	ServerFilename string // Filename suggested by Content-Disposition, if any
}
