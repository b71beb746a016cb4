package bot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bowerhall/mediaqa/internal/extract"
)

var downloadClient = &http.Client{Timeout: 60 * time.Second}

// download fetches an attachment, refusing anything over maxMediaSize.
func download(ctx context.Context, url, name, mimeType string) (*extract.Source, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := downloadClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxMediaSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxMediaSize {
		return nil, extract.ErrTooLarge
	}

	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}

	return &extract.Source{Name: name, MimeType: mimeType, Data: data}, nil
}
