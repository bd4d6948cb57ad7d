package domain

import (
	"mime"
	"strings"
	"time"
)

// MaxFileSize is the largest attachment accepted, in bytes.
const MaxFileSize int64 = 10 * 1024 * 1024

// PDFMediaType is the only media type accepted for attachments.
const PDFMediaType = "application/pdf"

// PDFData describes the file attached to a request.
type PDFData struct {
	ID            string    `json:"id"`
	FileName      string    `json:"fileName"`
	MediaType     string    `json:"fileType"`
	Size          int64     `json:"size"`
	GeneratedDate time.Time `json:"generatedDate"`
	Notes         string    `json:"notes,omitempty"`
}

// FileRecord is the uploaded_files entry kept for each attachment.
type FileRecord struct {
	ID         string    `json:"id"`
	RequestID  string    `json:"requestId"`
	UserID     string    `json:"userId"`
	FileName   string    `json:"fileName"`
	MediaType  string    `json:"fileType"`
	Size       int64     `json:"fileSize"`
	UploadDate time.Time `json:"uploadDate"`
	UploadedBy string    `json:"uploadedBy"`
	Notes      string    `json:"notes,omitempty"`
}

// FileUpload is an attachment as received from the caller.
type FileUpload struct {
	FileName   string
	MediaType  string
	Content    []byte
	Notes      string
	UploadedBy string
}

// IsPDFMediaType reports whether the declared media type is PDF, ignoring case and parameters.
func IsPDFMediaType(mediaType string) bool {
	parsed, _, err := mime.ParseMediaType(strings.TrimSpace(mediaType))
	if err != nil {
		return false
	}
	return parsed == PDFMediaType
}
