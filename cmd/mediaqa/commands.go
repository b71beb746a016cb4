package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bowerhall/mediaqa/internal/client"
	"github.com/bowerhall/mediaqa/internal/config"
	"github.com/bowerhall/mediaqa/internal/extract"
	"github.com/bowerhall/mediaqa/internal/ingest"
	"github.com/bowerhall/mediaqa/internal/logger"
	"github.com/bowerhall/mediaqa/internal/session"
	"github.com/bowerhall/mediaqa/internal/storage"
)

const cliSession = "cli"

type askCmd struct {
	File  string `help:"Local file to ask about." xor:"source" type:"existingfile"`
	Link  string `help:"Link to ask about (video or document URL)." xor:"source"`
	Query string `arg:"" help:"The question."`
}

func (c *askCmd) Run(cfg *config.ClientConfig) error {
	if c.File == "" && c.Link == "" {
		return errors.New("one of --file or --link is required")
	}

	ctx := context.Background()
	pipeline := newPipeline(ctx, cfg)

	if err := ingestSource(ctx, pipeline, c.File, c.Link); err != nil {
		return err
	}

	answer, err := pipeline.Ask(ctx, cliSession, c.Query)
	if err != nil {
		return err
	}

	fmt.Println(answer)
	return nil
}

type chatCmd struct{}

func (c *chatCmd) Run(cfg *config.ClientConfig) error {
	ctx := context.Background()
	pipeline := newPipeline(ctx, cfg)
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("mediaqa chat. /file <path> or /link <url> to load an item, /clear to drop it, empty line to quit.")

	for {
		fmt.Print("> ")
		input, err := reader.ReadString('\n')
		input = strings.TrimSpace(input)
		if input == "" {
			if err == nil {
				fmt.Println("Goodbye!")
			}
			return nil
		}

		switch {
		case strings.HasPrefix(input, "/file "):
			path := strings.TrimSpace(strings.TrimPrefix(input, "/file "))
			if err := ingestSource(ctx, pipeline, path, ""); err != nil {
				fmt.Println("Error:", err)
			}
		case strings.HasPrefix(input, "/link "):
			link := strings.TrimSpace(strings.TrimPrefix(input, "/link "))
			if err := ingestSource(ctx, pipeline, "", link); err != nil {
				fmt.Println("Error:", err)
			}
		case input == "/clear":
			removed, err := pipeline.Remove(ctx, cliSession)
			if err != nil {
				fmt.Println("Error:", err)
			} else if removed {
				fmt.Println("Cleared.")
			}
		default:
			answer, err := pipeline.Ask(ctx, cliSession, input)
			if err != nil {
				fmt.Println("Error:", err)
				continue
			}
			fmt.Println(answer)
			fmt.Println("---")
		}
	}
}

type historyCmd struct {
	Limit int `help:"Number of interactions to show." default:"20"`
}

func (c *historyCmd) Run(cfg *config.ClientConfig) error {
	records, err := client.New(cfg.ProxyURL).History(context.Background(), c.Limit)
	if err != nil {
		return err
	}

	for _, r := range records {
		name := "-"
		if r.File != nil {
			name = fmt.Sprintf("%s (%s)", r.File.Name, r.File.Category)
		}
		fmt.Printf("%s  %s\n  Q: %s\n  A: %s\n", r.Timestamp.Local().Format(time.DateTime), name,
			logger.Truncate(r.Query, 200), logger.Truncate(r.Response, 200))
	}
	return nil
}

type healthCmd struct{}

func (c *healthCmd) Run(cfg *config.ClientConfig) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.New(cfg.ProxyURL).Health(ctx); err != nil {
		return fmt.Errorf("proxy at %s: %w", cfg.ProxyURL, err)
	}
	fmt.Println("ok")
	return nil
}

// newPipeline runs ingestion locally and sends queries and transcription
// work to the proxy. Local videos are staged in MinIO when it is configured.
func newPipeline(ctx context.Context, cfg *config.ClientConfig) *ingest.Pipeline {
	proxyClient := client.New(cfg.ProxyURL)

	var stager extract.Stager
	if cfg.Storage.Enabled {
		storageClient, err := storage.NewClient(storage.Config{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			UseSSL:    cfg.Storage.UseSSL,
			Bucket:    cfg.Storage.Bucket,
			LinkTTL:   cfg.Storage.LinkTTL,
		})
		if err != nil {
			logger.Warn("storage unavailable, local videos will not be transcribed", "error", err)
		} else {
			initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			if err := storageClient.Init(initCtx); err != nil {
				logger.Warn("storage unavailable, local videos will not be transcribed", "error", err)
			} else {
				stager = storageClient
			}
			cancel()
		}
	}

	extractor := extract.New(proxyClient, stager, cfg.MaxUploadBytes)
	return ingest.New(session.NewStore(), extractor, proxyClient)
}

func ingestSource(ctx context.Context, pipeline *ingest.Pipeline, path, link string) error {
	if link != "" {
		item, err := pipeline.IngestLink(ctx, cliSession, link)
		if err != nil {
			return err
		}
		fmt.Printf("Loaded %s (%s)\n", item.Name, item.Category)
		return nil
	}

	src, err := readSource(path)
	if err != nil {
		return err
	}

	item, err := pipeline.IngestFile(ctx, cliSession, src)
	if err != nil {
		return err
	}
	fmt.Printf("Loaded %s (%s, %d bytes)\n", item.Name, item.Category, item.SizeBytes)
	return nil
}

func readSource(path string) (extract.Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return extract.Source{}, fmt.Errorf("read %s: %w", path, err)
	}

	name := filepath.Base(path)
	mimeType := mime.TypeByExtension(filepath.Ext(name))
	if mimeType == "" && len(data) > 0 {
		mimeType = http.DetectContentType(data)
	}

	return extract.Source{Name: name, MimeType: mimeType, Data: data}, nil
}
