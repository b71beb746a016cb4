package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"

	"github.com/bowerhall/mediaqa/internal/interaction"
	"github.com/bowerhall/mediaqa/internal/llm"
	"github.com/bowerhall/mediaqa/internal/proxy"
	"github.com/bowerhall/mediaqa/internal/transcribe"
)

// Client talks to a running proxy. It satisfies the ingest pipeline's
// querier and the extractor's transcriber so the pipeline can run locally.
type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http.DefaultClient,
	}
}

type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details"`
	Message string `json:"message"`
}

// Query sends a built prompt. Non-2xx answers come back as
// *llm.UpstreamError carrying the proxy's status and error details.
func (c *Client) Query(ctx context.Context, req proxy.Request) (string, error) {
	var out struct {
		Answer string `json:"answer"`
	}
	if err := c.postJSON(ctx, "/api/query", req, &out); err != nil {
		return "", err
	}
	if out.Answer == "" {
		return llm.NoResponse, nil
	}
	return out.Answer, nil
}

func (c *Client) TranscribeURL(ctx context.Context, url string) (*transcribe.Result, error) {
	var result transcribe.Result
	if err := c.postJSON(ctx, "/api/process-remote-video", map[string]string{"url": url}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) TranscribeFile(ctx context.Context, name string, data []byte) (*transcribe.Result, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, name))
	h.Set("Content-Type", "application/octet-stream")

	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(data); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	var result transcribe.Result
	if err := c.do(ctx, "POST", "/api/upload-audio", mw.FormDataContentType(), &buf, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// History lists the most recent interactions, newest first.
func (c *Client) History(ctx context.Context, limit int) ([]interaction.Interaction, error) {
	var records []interaction.Interaction
	path := "/api/interactions?limit=" + strconv.Itoa(limit)
	if err := c.do(ctx, "GET", path, "", nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// Health reports whether the proxy answers its liveness probe.
func (c *Client) Health(ctx context.Context) error {
	var out map[string]string
	return c.do(ctx, "GET", "/health", "", nil, &out)
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	return c.do(ctx, "POST", path, "application/json", bytes.NewReader(data), out)
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &llm.UpstreamError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &llm.UpstreamError{Status: resp.StatusCode, Body: describe(respBody)}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// describe turns the proxy's error body into a single line.
func describe(body []byte) string {
	var e errorBody
	if err := json.Unmarshal(body, &e); err != nil || e.Error == "" {
		return strings.TrimSpace(string(body))
	}

	msg := e.Error
	if e.Details != "" {
		msg += ": " + e.Details
	} else if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}
