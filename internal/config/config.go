package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	defaultPort           = 5000
	defaultMaxUploadBytes = 50 << 20
)

// Load reads the proxy server configuration.
func Load() (*Config, error) {
	e, err := loadOverlay()
	if err != nil {
		return nil, err
	}

	port := defaultPort
	if p, err := strconv.Atoi(e.get("PORT")); err == nil && p > 0 {
		port = p
	}

	llmConfig, err := loadLLMConfig(e)
	if err != nil {
		return nil, err
	}

	storeConfig, err := loadStoreConfig(e)
	if err != nil {
		return nil, err
	}

	var ownerChatID int64
	if id, err := strconv.ParseInt(e.get("TELEGRAM_OWNER_CHAT_ID"), 10, 64); err == nil {
		ownerChatID = id
	}

	return &Config{
		Port:           port,
		MaxUploadBytes: loadMaxUploadBytes(e),
		LLM:            llmConfig,
		Transcribe:     loadTranscribeConfig(e),
		Store:          storeConfig,
		Storage:        loadStorageConfig(e),
		Bots:           loadMultiBotConfig(e),
		OwnerChatID:    ownerChatID,
		Janitor:        loadJanitorConfig(e),
	}, nil
}

// LoadClient reads the CLI configuration. No model credentials are needed
// on the client side.
func LoadClient() (*ClientConfig, error) {
	e, err := loadOverlay()
	if err != nil {
		return nil, err
	}

	proxyURL := e.get("PROXY_URL")
	if proxyURL == "" {
		proxyURL = "http://localhost:5000"
	}

	return &ClientConfig{
		ProxyURL:       proxyURL,
		MaxUploadBytes: loadMaxUploadBytes(e),
		Storage:        loadStorageConfig(e),
	}, nil
}

func loadMaxUploadBytes(e env) int64 {
	if n, err := strconv.ParseInt(e.get("MAX_UPLOAD_BYTES"), 10, 64); err == nil && n > 0 {
		return n
	}
	return defaultMaxUploadBytes
}

func loadLLMConfig(e env) (LLMConfig, error) {
	provider := e.get("LLM_PROVIDER")
	if provider == "" {
		provider = "gemini"
	}

	apiKey, err := getAPIKey(e, provider)
	if err != nil {
		return LLMConfig{}, err
	}

	return LLMConfig{
		Provider: provider,
		APIKey:   apiKey,
		Model:    e.get("LLM_MODEL"),
		BaseURL:  e.get("LLM_BASE_URL"),
	}, nil
}

func loadTranscribeConfig(e env) TranscribeConfig {
	apiKey := e.get("ASSEMBLYAI_API_KEY")

	return TranscribeConfig{
		Enabled:      apiKey != "",
		APIKey:       apiKey,
		BaseURL:      e.get("ASSEMBLYAI_BASE_URL"),
		PollInterval: parseDuration(e.get("TRANSCRIBE_POLL_INTERVAL"), 3*time.Second),
		Timeout:      parseDuration(e.get("TRANSCRIBE_TIMEOUT"), 10*time.Minute),
	}
}

func loadStoreConfig(e env) (StoreConfig, error) {
	driver := e.get("STORE")
	if driver == "" {
		driver = "sqlite"
	}

	sqlitePath := e.get("SQLITE_PATH")
	if sqlitePath == "" {
		sqlitePath = "mediaqa.db"
	}

	mongoURI := e.get("MONGODB_URI")
	if mongoURI == "" {
		mongoURI = "mongodb://localhost:27017"
	}

	database := e.get("MONGODB_DATABASE")
	if database == "" {
		database = "multimodal"
	}

	collection := e.get("MONGODB_COLLECTION")
	if collection == "" {
		collection = "interactions"
	}

	switch driver {
	case "sqlite", "mongo", "memory":
	default:
		return StoreConfig{}, fmt.Errorf("unknown STORE: %s", driver)
	}

	return StoreConfig{
		Driver:     driver,
		SQLitePath: sqlitePath,
		MongoURI:   mongoURI,
		Database:   database,
		Collection: collection,
	}, nil
}

func loadStorageConfig(e env) StorageConfig {
	endpoint := e.get("MINIO_ENDPOINT")
	if endpoint == "" {
		endpoint = "minio:9000"
	}

	accessKey := e.get("MINIO_ACCESS_KEY")
	secretKey := e.get("MINIO_SECRET_KEY")

	return StorageConfig{
		Enabled:   accessKey != "" && secretKey != "",
		Endpoint:  endpoint,
		AccessKey: accessKey,
		SecretKey: secretKey,
		UseSSL:    e.get("MINIO_USE_SSL") == "true",
		Bucket:    e.get("MINIO_BUCKET"),
		LinkTTL:   parseDuration(e.get("MINIO_LINK_TTL"), time.Hour),
	}
}

func loadMultiBotConfig(e env) MultiBot {
	telegramToken := e.get("TELEGRAM_TOKEN")
	discordToken := e.get("DISCORD_TOKEN")

	return MultiBot{
		Telegram: BotInstance{
			Enabled: telegramToken != "",
			Token:   telegramToken,
		},
		Discord: BotInstance{
			Enabled: discordToken != "",
			Token:   discordToken,
		},
	}
}

func loadJanitorConfig(e env) JanitorConfig {
	schedule := e.get("JANITOR_SCHEDULE")
	if schedule == "" {
		schedule = "*/5 * * * *"
	}

	return JanitorConfig{
		Schedule:       schedule,
		SessionIdleTTL: parseDuration(e.get("SESSION_IDLE_TTL"), time.Hour),
		ObjectMaxAge:   parseDuration(e.get("STAGED_OBJECT_MAX_AGE"), 2*time.Hour),
	}
}

func getAPIKey(e env, provider string) (string, error) {
	if key := e.get("LLM_API_KEY"); key != "" {
		return key, nil
	}

	switch provider {
	case "gemini":
		key := e.get("GEMINI_API_KEY")
		if key == "" {
			return "", fmt.Errorf("GEMINI_API_KEY not set")
		}
		return key, nil
	case "claude":
		key := e.get("ANTHROPIC_API_KEY")
		if key == "" {
			return "", fmt.Errorf("ANTHROPIC_API_KEY not set")
		}
		return key, nil
	case "openai":
		key := e.get("OPENAI_API_KEY")
		if key == "" {
			return "", fmt.Errorf("OPENAI_API_KEY not set")
		}
		return key, nil
	case "ollama":
		// Ollama doesn't need an API key
		return "ollama", nil
	default:
		// other OpenAI-compatible providers use {PROVIDER}_API_KEY
		name := strings.ToUpper(provider) + "_API_KEY"
		key := e.get(name)
		if key == "" {
			return "", fmt.Errorf("%s not set", name)
		}
		return key, nil
	}
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return fallback
}
