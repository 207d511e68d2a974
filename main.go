package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"

	"transcriber/api"
	"transcriber/export"
	"transcriber/history"
	"transcriber/media"
	"transcriber/notify"
	"transcriber/orchestrator"
	"transcriber/transcription"
)

func main() {
	// Load environment variables from .env if present (non-fatal if missing)
	_ = godotenv.Load()

	cfg := LoadConfig()

	store := history.NewRedisStore(history.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer store.Close()

	ledger := history.NewLedger(store)
	if err := ledger.Refresh(context.Background()); err != nil {
		log.Printf("Warning: could not load history: %v", err)
	}

	orch := orchestrator.New(orchestrator.Options{
		Invoker:  buildInvoker(cfg),
		Ledger:   ledger,
		Refiner:  buildRefiner(),
		Metadata: buildMetadata(cfg),
		Archiver: buildArchiver(cfg),
		Notifier: buildNotifier(cfg),
	})

	addr := ":" + cfg.Port
	r := api.NewRouter(orch, ledger)
	log.Printf("Starting API server on %s", addr)
	log.Println("API endpoints available:")
	log.Println("  GET  /health")
	log.Println("  POST /api/jobs")
	log.Println("  GET  /api/status")
	log.Println("  POST /api/jobs/reset")
	log.Println("  POST /api/transcript/refine")
	log.Println("  PUT  /api/transcript")
	log.Println("  GET  /api/history")
	log.Println("  GET  /api/history/:id")
	log.Println("  DELETE /api/history/:id")
	log.Println("  GET  /api/feed")

	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

// buildInvoker wires the resolver chain, fetch chain, and speech backend.
func buildInvoker(cfg Config) *transcription.Invoker {
	mirrors := make([]media.Mirror, 0, len(cfg.MirrorURLs))
	for _, base := range cfg.MirrorURLs {
		mirrors = append(mirrors, media.NewConverterMirror(base, cfg.RapidAPIKey, cfg.RapidAPIHost))
	}

	strategies := make([]media.Strategy, 0, len(cfg.ProxyPrefixes)+1)
	for _, prefix := range cfg.ProxyPrefixes {
		strategies = append(strategies, media.Strategy{Name: prefix, Prefix: prefix})
	}
	strategies = append(strategies, media.Strategy{Name: "direct"})

	var downmixer media.Downmixer
	if cfg.FFmpegEnabled {
		downmixer = media.NewFFmpegDownmixer()
	}

	speech := transcription.NewHTTPSpeechBackend(
		cfg.SpeechURL, cfg.SpeechAPIKey, cfg.SpeechModel,
		transcription.SpeechFormat(cfg.SpeechFormat))

	return transcription.NewInvoker(
		media.NewResolver(mirrors...),
		media.NewFetcher(strategies, cfg.MaxPayloadBytes, downmixer),
		speech,
		cfg.PollAttempts, cfg.PollDelay)
}

// buildRefiner returns the Cohere refiner, or nil when not configured.
func buildRefiner() orchestrator.TextRefiner {
	refiner := transcription.NewRefinerFromEnv()
	if refiner == nil {
		log.Println("Cohere not configured; transcripts will not be refined")
		return nil
	}
	return refiner
}

// buildMetadata prefers the YouTube Data API and falls back to page
// extraction when no API credentials are configured.
func buildMetadata(cfg Config) media.MetadataLookup {
	if cfg.YouTubeAPIKey != "" || cfg.YouTubeCredentials != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		lookup, err := media.NewYouTubeMetadata(ctx, cfg.YouTubeAPIKey, cfg.YouTubeCredentials)
		if err != nil {
			log.Printf("Warning: YouTube metadata client failed: %v (falling back to page extraction)", err)
		} else {
			return lookup
		}
	}
	return media.PageMetadata{}
}

// buildArchiver returns the S3 archiver if configured via env.
// Required: S3_BUCKET. Optional: S3_REGION, S3_PROFILE, S3_PREFIX, S3_USE_PATH_STYLE=true
func buildArchiver(cfg Config) orchestrator.Archiver {
	if cfg.S3Bucket == "" {
		log.Println("S3 not configured; transcript archiving disabled")
		return nil
	}

	client, err := export.NewS3(context.Background(), export.S3Config{
		Region:       cfg.S3Region,
		Profile:      cfg.S3Profile,
		UsePathStyle: cfg.S3UsePathStyle,
	})
	if err != nil {
		log.Printf("Warning: failed to init S3 client: %v (archiving disabled)", err)
		return nil
	}
	return export.NewArchiver(client, cfg.S3Bucket, cfg.S3Prefix)
}

// buildNotifier returns the Kafka producer if configured via env.
func buildNotifier(cfg Config) orchestrator.Notifier {
	if len(cfg.KafkaBrokers) == 0 {
		log.Println("Kafka not configured; notifications disabled")
		return nil
	}

	producer, err := notify.NewProducer(notify.ProducerConfig{
		Brokers: cfg.KafkaBrokers,
		Topic:   cfg.KafkaTopic,
	})
	if err != nil {
		log.Printf("Warning: failed to init Kafka producer: %v (notifications disabled)", err)
		return nil
	}
	return producer
}
