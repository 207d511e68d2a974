package transcription

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"strings"
	"time"

	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"

	"transcriber/fault"
)

const defaultRefineModel = "command-r-08-2024"

const refinePrompt = `You are a content editor. Edit the transcript below.

Requirements:
1. Fix spelling, grammar, punctuation and capitalization of proper nouns.
2. Split the text into sensible paragraphs wherever the topic shifts.
3. Separate paragraphs with exactly one blank line.
4. Do not change the meaning and do not add any preamble or commentary.
Return only the edited text.

Transcript:
`

// Refiner submits raw transcript text to a language model for correction
// and re-paragraphing.
type Refiner struct {
	client *cohereclient.Client
	model  string
}

// NewRefinerFromEnv returns a refiner when COHERE_API_KEY is set, nil
// otherwise. Callers must treat a nil refiner as "skip refinement".
func NewRefinerFromEnv() *Refiner {
	apiKey := os.Getenv("COHERE_API_KEY")
	if apiKey == "" {
		return nil
	}

	model := os.Getenv("COHERE_MODEL")
	if model == "" {
		model = defaultRefineModel
	}

	// Force HTTP/1.1 to avoid HTTP/2 protocol errors against the Cohere
	// endpoint.
	httpClient := &http.Client{
		Timeout: 60 * time.Second,
		Transport: &http.Transport{
			TLSNextProto:      make(map[string]func(authority string, c *tls.Conn) http.RoundTripper),
			ForceAttemptHTTP2: false,
		},
	}
	client := cohereclient.NewClient(
		cohereclient.WithToken(apiKey),
		cohereclient.WithHTTPClient(httpClient),
	)

	return &Refiner{client: client, model: model}
}

// Refine returns the corrected, re-paragraphed version of text. Any
// failure comes back as a refinement fault; nothing is partially applied.
func (r *Refiner) Refine(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", fault.New(fault.KindRefinement, "transcript text is empty")
	}

	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	resp, err := r.client.Chat(ctx, &cohere.ChatRequest{
		Model:   &r.model,
		Message: refinePrompt + text,
	})
	if err != nil {
		return "", fault.Wrap(fault.KindRefinement, "refinement request failed", err)
	}
	if resp == nil || strings.TrimSpace(resp.Text) == "" {
		return "", fault.New(fault.KindRefinement, "refinement returned no text")
	}

	return strings.TrimSpace(resp.Text), nil
}
