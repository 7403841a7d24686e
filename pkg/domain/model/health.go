package model

// HealthStatus is the body of GET /health
type HealthStatus struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`

	// MaxUploadBytes is the accepted workbook size; 0 means unlimited
	MaxUploadBytes int64 `json:"max_upload_bytes"`
}
