package detection

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/candidwatch/go-proctor/internal/httpc"
)

// HTTPFrameSource pulls JPEG frames from a camera snapshot endpoint
// (e.g. an IP camera or a capture sidecar exposing /frame.jpg).
type HTTPFrameSource struct {
	url    string
	client *http.Client
}

// NewHTTPFrameSource creates a frame source for a snapshot URL.
func NewHTTPFrameSource(url string) *HTTPFrameSource {
	return &HTTPFrameSource{
		url:    url,
		client: httpc.NewClient(2 * time.Second),
	}
}

// CaptureJPEG fetches one frame.
func (s *HTTPFrameSource) CaptureJPEG() ([]byte, error) {
	resp, err := s.client.Get(s.url)
	if err != nil {
		return nil, fmt.Errorf("fetch frame: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch frame: unexpected status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
