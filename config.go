package main

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config collects every runtime setting, read once at startup from the
// environment. Optional integrations stay disabled when their settings are
// absent.
type Config struct {
	Port string

	// Resolver mirrors, tried in order.
	MirrorURLs   []string
	RapidAPIKey  string
	RapidAPIHost string

	// Fetch proxies, tried before the direct request.
	ProxyPrefixes   []string
	MaxPayloadBytes int64
	FFmpegEnabled   bool

	// Speech backend.
	SpeechURL    string
	SpeechAPIKey string
	SpeechModel  string
	SpeechFormat string
	PollAttempts int
	PollDelay    time.Duration

	// History persistence.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Optional metadata lookup.
	YouTubeAPIKey      string
	YouTubeCredentials string

	// Optional export and notification.
	S3Bucket       string
	S3Region       string
	S3Profile      string
	S3Prefix       string
	S3UsePathStyle bool
	KafkaBrokers   []string
	KafkaTopic     string
}

// LoadConfig reads configuration from the environment with sensible defaults.
func LoadConfig() Config {
	return Config{
		Port: getEnvOrDefault("PORT", "8080"),

		MirrorURLs:   splitList(os.Getenv("MIRROR_URLS")),
		RapidAPIKey:  os.Getenv("RAPIDAPI_KEY"),
		RapidAPIHost: os.Getenv("RAPIDAPI_HOST"),

		ProxyPrefixes:   splitList(os.Getenv("FETCH_PROXIES")),
		MaxPayloadBytes: getEnvInt64("MAX_PAYLOAD_BYTES", 0),
		FFmpegEnabled:   strings.EqualFold(os.Getenv("FFMPEG_ENABLED"), "true"),

		SpeechURL:    getEnvOrDefault("SPEECH_URL", "https://api.groq.com/openai/v1/audio/transcriptions"),
		SpeechAPIKey: os.Getenv("SPEECH_API_KEY"),
		SpeechModel:  os.Getenv("SPEECH_MODEL"),
		SpeechFormat: os.Getenv("SPEECH_FORMAT"),
		PollAttempts: getEnvInt("POLL_ATTEMPTS", 0),
		PollDelay:    time.Duration(getEnvInt("POLL_DELAY_SECONDS", 0)) * time.Second,

		RedisAddr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		YouTubeAPIKey:      os.Getenv("YOUTUBE_API_KEY"),
		YouTubeCredentials: os.Getenv("YOUTUBE_CREDENTIALS_FILE"),

		S3Bucket:       strings.TrimSpace(os.Getenv("S3_BUCKET")),
		S3Region:       strings.TrimSpace(os.Getenv("S3_REGION")),
		S3Profile:      strings.TrimSpace(os.Getenv("S3_PROFILE")),
		S3Prefix:       strings.TrimSpace(os.Getenv("S3_PREFIX")),
		S3UsePathStyle: strings.EqualFold(strings.TrimSpace(os.Getenv("S3_USE_PATH_STYLE")), "true"),
		KafkaBrokers:   splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:     getEnvOrDefault("KAFKA_TOPIC", "transcripts"),
	}
}

// getEnvOrDefault returns the environment value or a fallback.
func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

// splitList parses a comma-separated env value, dropping empty entries.
func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
