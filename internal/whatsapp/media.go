package whatsapp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// maxMediaBytes caps attachment downloads; WhatsApp documents are at most 100 MB.
const maxMediaBytes = 100 << 20

// MediaClient downloads attachments through the Graph API.
// It implements pipeline.MediaFetcher.
type MediaClient struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewMediaClient creates a client for the given Graph API base URL,
// e.g. "https://graph.facebook.com/v18.0".
func NewMediaClient(baseURL, token string, httpClient *http.Client) *MediaClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &MediaClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    httpClient,
	}
}

type mediaInfo struct {
	URL      string `json:"url"`
	MimeType string `json:"mime_type"`
	FileSize int64  `json:"file_size"`
}

// FetchMedia resolves the media URL and downloads the bytes.
func (c *MediaClient) FetchMedia(ctx context.Context, mediaID string) ([]byte, error) {
	if mediaID == "" {
		return nil, fmt.Errorf("FetchMedia: empty media ID")
	}

	body, err := c.get(ctx, c.baseURL+"/"+url.PathEscape(mediaID))
	if err != nil {
		return nil, fmt.Errorf("FetchMedia: media lookup %s: %w", mediaID, err)
	}

	var info mediaInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("FetchMedia: decode media info: %w", err)
	}
	if info.URL == "" {
		return nil, fmt.Errorf("FetchMedia: media %s has no download URL", mediaID)
	}

	data, err := c.get(ctx, info.URL)
	if err != nil {
		return nil, fmt.Errorf("FetchMedia: download %s: %w", mediaID, err)
	}
	return data, nil
}

func (c *MediaClient) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxMediaBytes+1))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(string(data), 300))
	}
	if len(data) > maxMediaBytes {
		return nil, fmt.Errorf("response exceeds %d bytes", maxMediaBytes)
	}
	return data, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
