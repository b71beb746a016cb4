package main

import (
	"os"

	"github.com/alecthomas/kong"
	"github.com/bowerhall/mediaqa/internal/config"
	"github.com/bowerhall/mediaqa/internal/logger"
	"github.com/joho/godotenv"
)

func init() {
	godotenv.Load()
}

var cli struct {
	ProxyURL string `help:"Base URL of the mediaqa proxy (overrides PROXY_URL)" name:"proxy-url"`
	Debug    bool   `help:"Log debug output to stderr."`

	Ask     askCmd     `cmd:"" help:"Ask one question about a file or link."`
	Chat    chatCmd    `cmd:"" help:"Interactive session: /file <path>, /link <url>, /clear, then ask away."`
	History historyCmd `cmd:"" help:"Show recent interactions recorded by the proxy."`
	Health  healthCmd  `cmd:"" help:"Check that the proxy is reachable."`
}

func main() {
	ctx := kong.Parse(&cli,
		kong.Name("mediaqa"),
		kong.Description("Ask questions about documents, images, audio and video."),
		kong.UsageOnError(),
	)

	if cli.Debug {
		logger.Configure(os.Stderr, true)
	}

	cfg, err := config.LoadClient()
	if err != nil {
		logger.Fatal("failed to load config", "error", err)
	}
	if cli.ProxyURL != "" {
		cfg.ProxyURL = cli.ProxyURL
	}

	ctx.FatalIfErrorf(ctx.Run(cfg))
}
