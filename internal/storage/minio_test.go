package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

func TestObjectKey(t *testing.T) {
	cases := map[string]string{
		"clip.mp4":             "clip.mp4",
		"my holiday (1).mov":   "my_holiday__1_.mov",
		"../../etc/passwd":     "passwd",
		`C:\videos\talk.webm`:  "talk.webm",
		"":                     "upload",
		"vidéo.mp4":            "vid_o.mp4",
	}

	for name, wantSuffix := range cases {
		key := objectKey(name)
		if !strings.HasPrefix(key, stagingPrefix) {
			t.Errorf("%q: key %q missing prefix", name, key)
		}
		if !strings.HasSuffix(key, "-"+wantSuffix) {
			t.Errorf("%q: key %q, want suffix %q", name, key, wantSuffix)
		}
	}

	if objectKey("a.mp4") == objectKey("a.mp4") {
		t.Error("keys must be unique per upload")
	}

	long := strings.Repeat("x", 200) + ".mp4"
	if key := objectKey(long); !strings.HasSuffix(key, ".mp4") || len(key) > len(stagingPrefix)+36+1+maxObjectNameLen {
		t.Errorf("long name not clipped: %q", key)
	}
}

func TestStageUploadsAndPresigns(t *testing.T) {
	var gotPath, gotBody, gotType string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			w.WriteHeader(http.StatusNotImplemented)
			return
		}
		gotPath = r.URL.Path
		gotType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	endpoint := strings.TrimPrefix(srv.URL, "http://")
	c, err := NewClient(Config{Endpoint: endpoint, AccessKey: "ak", SecretKey: "sk", Bucket: "staging", LinkTTL: 10 * time.Minute})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	link, err := c.Stage(context.Background(), "clip.mp4", "video/mp4", []byte("video-bytes"))
	if err != nil {
		t.Fatalf("Stage failed: %v", err)
	}

	if !strings.HasPrefix(gotPath, "/staging/media/") || !strings.HasSuffix(gotPath, "-clip.mp4") {
		t.Errorf("unexpected object path %q", gotPath)
	}
	if gotBody != "video-bytes" || gotType != "video/mp4" {
		t.Errorf("unexpected upload body %q type %q", gotBody, gotType)
	}

	u, err := url.Parse(link)
	if err != nil {
		t.Fatalf("bad presigned url: %v", err)
	}
	if u.Host != endpoint || u.Path != gotPath {
		t.Errorf("presigned url %q does not point at the staged object", link)
	}
	if u.Query().Get("X-Amz-Signature") == "" || u.Query().Get("X-Amz-Expires") != "600" {
		t.Errorf("expected signed url with 600s expiry, got %q", link)
	}
}

func TestNewClientDefaults(t *testing.T) {
	c, err := NewClient(Config{Endpoint: "localhost:9000"})
	if err != nil {
		t.Fatal(err)
	}
	if c.Bucket() != DefaultBucket || c.LinkTTL() != DefaultLinkTTL {
		t.Errorf("defaults not applied: %s %s", c.Bucket(), c.LinkTTL())
	}
}
