package impact

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	geminiDefaultTimeout = 15 * time.Second
	geminiDefaultModel   = "gemini-2.0-flash"
	geminiDefaultBase    = "https://generativelanguage.googleapis.com/v1beta"
	geminiLegacyBase     = "https://generativelanguage.googleapis.com/v1beta2"
	maxResponseBytes     = 1 << 20
	errNoAPIKey          = "no API key configured"
)

// KeySource resolves the API key per call so rotated keys apply without a restart.
type KeySource interface {
	APIKey(ctx context.Context) (string, error)
}

// StaticKey is a KeySource for a fixed key.
type StaticKey string

func (k StaticKey) APIKey(context.Context) (string, error) { return strings.TrimSpace(string(k)), nil }

type GeminiOptions struct {
	Keys          KeySource
	Model         string
	BaseURL       string
	LegacyBaseURL string
	HTTPClient    *http.Client
	Timeout       time.Duration
	UseFallback   bool
	Logger        zerolog.Logger
}

// GeminiClassifier asks a Generative Language model for a JSON verdict.
type GeminiClassifier struct {
	keys        KeySource
	model       string
	baseURL     string
	legacyURL   string
	client      *http.Client
	timeout     time.Duration
	useFallback bool
	log         zerolog.Logger
}

type geminiContentRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type legacyTextRequest struct {
	Prompt          legacyPrompt `json:"prompt"`
	Temperature     float64      `json:"temperature"`
	MaxOutputTokens int          `json:"maxOutputTokens"`
}

type legacyPrompt struct {
	Text string `json:"text"`
}

func NewGeminiClassifier(opts GeminiOptions) *GeminiClassifier {
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = geminiDefaultModel
	}
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = geminiDefaultBase
	}
	legacy := strings.TrimRight(opts.LegacyBaseURL, "/")
	if legacy == "" {
		legacy = geminiLegacyBase
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = geminiDefaultTimeout
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	keys := opts.Keys
	if keys == nil {
		keys = StaticKey("")
	}
	return &GeminiClassifier{
		keys:        keys,
		model:       model,
		baseURL:     base,
		legacyURL:   legacy,
		client:      client,
		timeout:     timeout,
		useFallback: opts.UseFallback,
		log:         opts.Logger,
	}
}

func (g *GeminiClassifier) Classify(ctx context.Context, in Input) Verdict {
	v := Verdict{Result: Unknown, Provider: ProviderGemini}

	key, err := g.keys.APIKey(ctx)
	if err != nil {
		g.log.Error().Err(err).Msg("gemini classifier: api key lookup failed")
		return g.fail(v, in, fmt.Sprintf("api key lookup: %v", err))
	}
	if key == "" {
		g.log.Warn().Msg("gemini classifier: " + errNoAPIKey)
		v.Error = errNoAPIKey
		return v
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req, err := g.newRequest(ctx, key, buildPrompt(in))
	if err != nil {
		g.log.Error().Err(err).Msg("gemini classifier unexpected error")
		return g.fail(v, in, err.Error())
	}

	g.log.Info().Str("model", g.model).Msg("gemini classifier: calling model")
	resp, err := g.client.Do(req)
	if err != nil {
		g.log.Error().Err(err).Msg("gemini classifier unexpected error")
		return g.fail(v, in, err.Error())
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		g.log.Error().Err(err).Msg("gemini classifier unexpected error")
		return g.fail(v, in, err.Error())
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(body))
		g.log.Error().Int("status", resp.StatusCode).Msg("gemini classifier error")
		v.Text = string(body)
		return g.fail(v, in, msg)
	}

	root, err := decodeNode(body)
	if err != nil {
		g.log.Error().Err(err).Msg("gemini classifier unexpected error")
		return g.fail(v, in, err.Error())
	}
	v.Raw = json.RawMessage(body)

	text := strings.TrimSpace(extractModelText(root))
	if text == "" {
		text = compactJSON(body)
	}
	text = trimCodeFence(text)
	v.Text = text
	v.Result, v.Reason = interpret(text)
	return v
}

// fail records msg and applies the keyword fallback when enabled.
func (g *GeminiClassifier) fail(v Verdict, in Input, msg string) Verdict {
	v.Error = msg
	v.Raw = nil
	if g.useFallback {
		v.Result = TriOf(KeywordFallback(in.Title, in.Area, in.Description))
	} else {
		v.Result = Unknown
	}
	return v
}

func (g *GeminiClassifier) newRequest(ctx context.Context, key, prompt string) (*http.Request, error) {
	var (
		endpoint string
		payload  any
	)
	legacy := strings.Contains(g.model, "text-bison")
	model := url.PathEscape(g.model)
	if legacy {
		endpoint = fmt.Sprintf("%s/models/%s:generateText?key=%s", g.legacyURL, model, url.QueryEscape(key))
		payload = legacyTextRequest{Prompt: legacyPrompt{Text: prompt}, Temperature: 0, MaxOutputTokens: 256}
	} else {
		endpoint = fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, model)
		payload = geminiContentRequest{Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}}}
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if !legacy {
		req.Header.Set("X-goog-api-key", key)
	}
	return req, nil
}

func buildPrompt(in Input) string {
	sb := &strings.Builder{}
	sb.WriteString("You are a concise classifier. Given the project title, impact area, and description,")
	sb.WriteString(" decide whether the project is a social impact project. Reply ONLY with a JSON object")
	sb.WriteString(" with two fields: \"impactful\" (true or false) and \"reason\" (short string).\n\n")
	fmt.Fprintf(sb, "Title: %s\nImpact Area: %s\nDescription: %s\n", in.Title, in.Area, in.Description)
	return sb.String()
}

func compactJSON(body []byte) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, body); err != nil {
		return string(body)
	}
	return buf.String()
}
