package config

import "time"

type Config struct {
	Port           int
	MaxUploadBytes int64
	LLM            LLMConfig
	Transcribe     TranscribeConfig
	Store          StoreConfig
	Storage        StorageConfig
	Bots           MultiBot
	OwnerChatID    int64
	Janitor        JanitorConfig
}

// ClientConfig is what the CLI needs to run the pipeline locally.
type ClientConfig struct {
	ProxyURL       string
	MaxUploadBytes int64
	Storage        StorageConfig
}

type LLMConfig struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
}

type TranscribeConfig struct {
	Enabled      bool
	APIKey       string
	BaseURL      string
	PollInterval time.Duration
	Timeout      time.Duration
}

type StoreConfig struct {
	Driver     string // sqlite, mongo or memory
	SQLitePath string
	MongoURI   string
	Database   string
	Collection string
}

type StorageConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	LinkTTL   time.Duration
}

type MultiBot struct {
	Telegram BotInstance
	Discord  BotInstance
}

type BotInstance struct {
	Enabled bool
	Token   string
}

type JanitorConfig struct {
	Schedule       string
	SessionIdleTTL time.Duration
	ObjectMaxAge   time.Duration
}
