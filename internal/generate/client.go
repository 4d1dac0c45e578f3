// Package generate talks to the external generative image-editing
// service: it uploads the flattened composite plus the instruction text
// and returns the edited image the service produces.
package generate

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// Request carries one generation job.
type Request struct {
	// Image is the flattened composite, PNG-encoded.
	Image []byte

	// References are optional style/content reference images, each
	// PNG- or JPEG-encoded as read from disk.
	References [][]byte

	// Instruction is the user's edit instruction text.
	Instruction string
}

// Client is a generation service client. The zero value is not usable;
// construct with New.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

// New creates a client for the given service endpoint. apiKey may be
// empty for unauthenticated local services.
func New(endpoint, apiKey string) *Client {
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		http: &http.Client{
			// Generation runs tens of seconds; the context carries any
			// tighter per-call deadline.
			Timeout: 5 * time.Minute,
		},
	}
}

// Generate submits the request and returns the edited image bytes.
// Blocks until the service responds or ctx is canceled.
func (c *Client) Generate(ctx context.Context, req Request) ([]byte, error) {
	if len(req.Image) == 0 {
		return nil, fmt.Errorf("generate: empty image")
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile("image", "composite.png")
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(req.Image); err != nil {
		return nil, err
	}

	for i, ref := range req.References {
		part, err := mw.CreateFormFile("reference", fmt.Sprintf("reference_%d", i))
		if err != nil {
			return nil, err
		}
		if _, err := part.Write(ref); err != nil {
			return nil, err
		}
	}

	if err := mw.WriteField("instruction", req.Instruction); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("generate: service returned %s: %s", resp.Status, bytes.TrimSpace(msg))
	}

	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("generate: read response: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("generate: service returned an empty image")
	}
	return out, nil
}
