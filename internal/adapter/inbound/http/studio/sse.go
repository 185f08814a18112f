package studiohttp

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// StreamWriter wraps a gin.ResponseWriter for SSE streaming.
type StreamWriter struct {
	w       gin.ResponseWriter
	flusher http.Flusher
}

// NewStreamWriter creates a new stream writer.
func NewStreamWriter(w gin.ResponseWriter) *StreamWriter {
	flusher, _ := w.(http.Flusher)
	return &StreamWriter{w: w, flusher: flusher}
}

// WriteEvent writes one named SSE event with a JSON payload.
func (sw *StreamWriter) WriteEvent(event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if _, err := fmt.Fprintf(sw.w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		return err
	}
	sw.flush()
	return nil
}

// WriteDone writes the end-of-stream marker.
func (sw *StreamWriter) WriteDone() error {
	if _, err := fmt.Fprint(sw.w, "event: done\ndata: [DONE]\n\n"); err != nil {
		return err
	}
	sw.flush()
	return nil
}

func (sw *StreamWriter) flush() {
	if sw.flusher != nil {
		sw.flusher.Flush()
	}
}
