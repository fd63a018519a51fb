// Package extractor provides the client for the face descriptor service.
// The service accepts an image and returns one fixed-dimension descriptor
// per detected face; model loading is the service's own startup concern.
package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/mholecek/snapmatch/internal/gallery"
)

const defaultExtractorURL = "http://localhost:8000"

// Extractor turns raw image bytes into face descriptors. An empty result
// means no face was detected, which is a valid outcome, not an error.
type Extractor interface {
	Extract(ctx context.Context, image []byte) ([]gallery.Descriptor, error)
}

// Func adapts a plain function to the Extractor interface.
type Func func(ctx context.Context, image []byte) ([]gallery.Descriptor, error)

func (f Func) Extract(ctx context.Context, image []byte) ([]gallery.Descriptor, error) {
	return f(ctx, image)
}

// Client calls the face descriptor HTTP service.
type Client struct {
	baseURL string
	dim     int
	client  *http.Client
}

// NewClient creates a new descriptor service client. dim is the expected
// descriptor dimension; vectors of any other length are rejected.
func NewClient(baseURL string, dim int) *Client {
	if baseURL == "" {
		baseURL = defaultExtractorURL
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		dim:     dim,
		client:  &http.Client{},
	}
}

// faceDetection represents a single detected face in the service response.
type faceDetection struct {
	FaceIndex int       `json:"face_index"`
	Dim       int       `json:"dim"`
	Embedding []float32 `json:"embedding"`
}

// facesResponse represents the response from the face descriptor endpoint.
type facesResponse struct {
	FacesCount int             `json:"faces_count"`
	Faces      []faceDetection `json:"faces"`
	Model      string          `json:"model"`
}

// Extract posts the image to the descriptor service and returns one
// descriptor per detected face, ordered by face index.
func (c *Client) Extract(ctx context.Context, image []byte) ([]gallery.Descriptor, error) {
	body, err := c.postMultipartImage(ctx, "/faces/embed", image)
	if err != nil {
		return nil, err
	}

	var resp facesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	descriptors := make([]gallery.Descriptor, 0, len(resp.Faces))
	for _, face := range resp.Faces {
		if len(face.Embedding) != c.dim {
			return nil, fmt.Errorf("face %d: descriptor dimension %d, expected %d",
				face.FaceIndex, len(face.Embedding), c.dim)
		}
		descriptors = append(descriptors, gallery.Descriptor(face.Embedding))
	}
	return descriptors, nil
}

// postMultipartImage constructs a multipart form with the image data and
// posts it to the given endpoint. The part carries an explicit Content-Type
// header based on magic byte detection.
func (c *Client) postMultipartImage(ctx context.Context, endpoint string, image []byte) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="image.jpg"`)
	h.Set("Content-Type", DetectMIMEType(image))
	part, err := writer.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}

	if _, err := part.Write(image); err != nil {
		return nil, fmt.Errorf("failed to write image data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}
	return body, nil
}

// DetectMIMEType detects the MIME type from image data.
func DetectMIMEType(data []byte) string {
	if len(data) < 8 {
		return "application/octet-stream"
	}
	// JPEG: FF D8 FF
	if data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF {
		return "image/jpeg"
	}
	// PNG: 89 50 4E 47 0D 0A 1A 0A
	if data[0] == 0x89 && data[1] == 0x50 && data[2] == 0x4E && data[3] == 0x47 {
		return "image/png"
	}
	// GIF: 47 49 46 38
	if data[0] == 0x47 && data[1] == 0x49 && data[2] == 0x46 && data[3] == 0x38 {
		return "image/gif"
	}
	// WebP: 52 49 46 46 ... 57 45 42 50
	if len(data) >= 12 && data[0] == 0x52 && data[1] == 0x49 && data[2] == 0x46 && data[3] == 0x46 &&
		data[8] == 0x57 && data[9] == 0x45 && data[10] == 0x42 && data[11] == 0x50 {
		return "image/webp"
	}
	return "application/octet-stream"
}
