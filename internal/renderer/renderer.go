// Package renderer is the client for the face-reenactment engine: the
// pretrained model server that warps and re-renders a portrait from the
// control parameters the composition layer produces.
package renderer

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kozaktomas/facepoke/internal/expression"
	"github.com/kozaktomas/facepoke/internal/landmark"
)

// ErrDispatchFailed marks any failure to get a rendered frame out of the
// engine: unreachable backend, timeout, or a rejected state. The local
// expression state is never rolled back on it; local and rendered state
// are eventually consistent, not transactional.
var ErrDispatchFailed = errors.New("dispatch failed")

// DefaultTimeout bounds a single render round-trip. Warm renders are
// sub-second, but the first transform after upload can hit a cold model.
const DefaultTimeout = 60 * time.Second

// Client talks to the engine API.
type Client struct {
	URL       string
	parsedURL *url.URL
	timeout   time.Duration
}

// PhotoInfo is the engine's description of an uploaded portrait: the
// opaque reference plus the face crop geometry the UI needs for hit
// testing.
type PhotoInfo struct {
	UID    string       `json:"uuid"`
	Center [2]float64   `json:"center"`
	Size   float64      `json:"size"`
	BBox   [][2]float64 `json:"bbox"`
	Angle  float64      `json:"angle"` // radians, counterclockwise
}

// TransformRequest is the per-edit wire message. One message per accepted
// edit, in production order; the engine renders the portrait that results
// from folding the message into its state for the photo.
type TransformRequest struct {
	Group    landmark.Group    `json:"group"`
	Vector   expression.Vector `json:"vector"`
	Distance float64           `json:"distance"`
	Params   expression.Params `json:"params,omitempty"`
}

// NewClient creates an engine client. The timeout applies per request;
// zero means DefaultTimeout.
func NewClient(rawURL string, timeout time.Duration) (*Client, error) {
	apiURL := strings.TrimRight(rawURL, "/") + "/api/v1"
	parsed, err := url.Parse(apiURL)
	if err != nil {
		return nil, fmt.Errorf("invalid engine URL: %w", err)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{URL: apiURL, parsedURL: parsed, timeout: timeout}, nil
}

// resolveURL builds a full URL from the base API URL and path segments.
func (c *Client) resolveURL(pathSegments ...string) string {
	if len(pathSegments) == 0 {
		return c.parsedURL.String()
	}
	return c.parsedURL.JoinPath(pathSegments...).String()
}

// UploadPhoto sends the portrait bytes to the engine, which crops the face
// and caches its extracted features for later transforms.
func (c *Client) UploadPhoto(ctx context.Context, filename string, data []byte) (*PhotoInfo, error) {
	info, err := doUploadJSON[PhotoInfo](c, ctx, "photos", filename, data)
	if err != nil {
		return nil, fmt.Errorf("upload photo: %w", err)
	}
	if info.UID == "" {
		return nil, fmt.Errorf("upload photo: engine returned no photo reference")
	}
	return info, nil
}

// Transform dispatches one edit and returns the rendered WebP frame.
func (c *Client) Transform(ctx context.Context, photoUID string, req TransformRequest) ([]byte, error) {
	frame, err := doPostImage(c, ctx, req, "photos", photoUID, "transform")
	if err != nil {
		return nil, fmt.Errorf("%w: transform %s: %v", ErrDispatchFailed, req.Group, err)
	}
	return frame, nil
}

// Restore asks the engine to drop all edits for the photo and returns the
// render of the original, unedited portrait.
func (c *Client) Restore(ctx context.Context, photoUID string) ([]byte, error) {
	frame, err := doPostImage(c, ctx, nil, "photos", photoUID, "restore")
	if err != nil {
		return nil, fmt.Errorf("%w: restore: %v", ErrDispatchFailed, err)
	}
	return frame, nil
}

// Forget releases the engine's cached features for the photo. Best-effort;
// the engine also evicts on its own.
func (c *Client) Forget(ctx context.Context, photoUID string) error {
	if err := doDelete(c, ctx, "photos", photoUID); err != nil {
		return fmt.Errorf("forget photo: %w", err)
	}
	return nil
}
