package gateway

import "io"

// Document is a file the backend has ingested.
type Document struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
}

// ChatResponse is the backend's answer to a query.
type ChatResponse struct {
	Answer      string   `json:"answer"`
	ContextUsed []string `json:"context_used"`
}

// Upload describes the file sent to /upload-doc. Open is called once per
// request attempt and must return the file from its start each time.
type Upload struct {
	Filename string
	Open     func() (io.ReadCloser, error)
	Size     int64 // bytes; zero or less disables progress reporting
}

// chatRequest is the /chat payload. FileID is omitted entirely when the
// query is not scoped to a document.
type chatRequest struct {
	Query  string `json:"query"`
	FileID string `json:"file_id,omitempty"`
}

// uploadResponse accepts both the ack shape ({file_id, filename, message})
// and a plain Document.
type uploadResponse struct {
	ID       string `json:"id"`
	FileID   string `json:"file_id"`
	Filename string `json:"filename"`
	Message  string `json:"message"`
}

type errorResponse struct {
	Detail any `json:"detail"`
}
