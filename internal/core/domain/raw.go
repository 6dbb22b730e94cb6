package domain

// RawDocument represents opaque uploaded bytes before normalisation.
type RawDocument struct {
	// URI is the original location (file path, upload filename).
	URI string

	// MIMEType is the content type (e.g., "application/pdf").
	MIMEType string

	// Content is the raw bytes.
	Content []byte

	// Metadata contains caller-supplied key-value pairs.
	Metadata map[string]any
}

// MIMETypePDF is the only upload type accepted by ingestion.
const MIMETypePDF = "application/pdf"
