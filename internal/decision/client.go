// Package decision wraps the follow-up language-model endpoint with bounded
// retries and a degrade-to-stop fallback. Nothing in this package returns an
// error to the caller: a conversation must never hang on a failed decision.
package decision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/probewise/interview/internal/config"
	apperrors "github.com/probewise/interview/internal/errors"
	"github.com/probewise/interview/internal/resilience"
	"github.com/probewise/interview/internal/session"
	"github.com/probewise/interview/internal/trace"
)

// Decision is the outcome of one follow-up call. Err is set when the client
// degraded to stop after exhausting retries or receiving an unusable
// response; Continue is then always false.
type Decision struct {
	Continue     bool
	NextQuestion string
	Reasoning    string
	Err          error
}

// Client calls the decision endpoint.
type Client struct {
	cfg  config.DecisionConfig
	http *http.Client
}

// NewClient creates a decision client.
func NewClient(cfg config.DecisionConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: timeout},
	}
}

type requestMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type requestBody struct {
	Model    string           `json:"model,omitempty"`
	System   string           `json:"system"`
	Messages []requestMessage `json:"messages"`
}

// Decide asks the endpoint whether to probe further. It retries transport
// failures a small bounded number of times with a fixed delay, then returns
// a stop decision carrying the last error.
func (c *Client) Decide(ctx context.Context, cfg session.Config, probeCount, maxProbes int, history []session.ThreadEntry) Decision {
	ctx, span := trace.StartSpan(ctx, "decision_call")
	defer span.End()
	span.SetAttr("probe_count", probeCount)

	log := trace.Logger(ctx)

	body := requestBody{
		Model:    c.cfg.Model,
		System:   buildSystemPrompt(cfg, probeCount, maxProbes),
		Messages: buildMessages(history),
	}

	var raw string
	attempts := c.cfg.MaxAttempts
	if attempts <= 0 {
		attempts = 2
	}
	delay := c.cfg.RetryDelay
	if delay <= 0 {
		delay = time.Second
	}

	err := resilience.Retry(ctx, resilience.FixedRetryConfig(attempts, delay), func() error {
		var callErr error
		raw, callErr = c.call(ctx, body)
		return callErr
	})
	if err != nil {
		span.SetAttr("error", err.Error())
		log.Error("decision call exhausted retries", "error", err)
		return Decision{Continue: false, Reasoning: "decision endpoint unavailable", Err: err}
	}

	d := parseDecision(raw)
	log.Info("decision received", "continue", d.Continue, "reasoning", d.Reasoning)
	return d
}

func (c *Client) call(ctx context.Context, body requestBody) (string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeDecisionFailed, "encode request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeDecisionFailed, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeUnavailable, "decision request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeUnavailable, "read decision response")
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", apperrors.New(apperrors.CodeRateLimited, "decision endpoint rate limited")
	case resp.StatusCode >= 500:
		return "", apperrors.Newf(apperrors.CodeUnavailable, "decision endpoint returned %d", resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return "", apperrors.Newf(apperrors.CodeDecisionFailed, "decision endpoint returned %d", resp.StatusCode)
	}

	return extractText(data), nil
}

// extractText unwraps common response envelopes, falling back to the raw
// body when none match.
func extractText(data []byte) string {
	var envelope struct {
		Text    string `json:"text"`
		Content string `json:"content"`
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(data, &envelope); err == nil {
		if envelope.Text != "" {
			return envelope.Text
		}
		if envelope.Content != "" {
			return envelope.Content
		}
		if len(envelope.Choices) > 0 && envelope.Choices[0].Message.Content != "" {
			return envelope.Choices[0].Message.Content
		}
	}
	return string(data)
}

func buildSystemPrompt(cfg session.Config, probeCount, maxProbes int) string {
	var b strings.Builder
	b.WriteString("You are conducting a survey interview. The original question was:\n")
	b.WriteString(cfg.QuestionText)
	b.WriteString("\n\n")
	if cfg.ProbingInstructions != "" {
		b.WriteString("Probing instructions: ")
		b.WriteString(cfg.ProbingInstructions)
		b.WriteString("\n")
	}
	b.WriteString(intensityInstruction(cfg.Intensity))
	fmt.Fprintf(&b, "\nFollow-ups asked so far: %d of at most %d.\n\n", probeCount, maxProbes)
	b.WriteString("Decide whether one more follow-up question would materially improve the answer. ")
	b.WriteString(`Respond with strict JSON: either {"done": true, "reasoning": "..."} `)
	b.WriteString(`or {"next_question": "...", "reasoning": "..."}. No other text.`)
	return b.String()
}

func intensityInstruction(intensity session.ProbingIntensity) string {
	switch intensity {
	case session.IntensityDeep:
		return "Probe thoroughly: pursue specifics, motivations, and concrete examples."
	case session.IntensityModerate:
		return "Probe moderately: ask only follow-ups that fill clear gaps in the answer."
	default:
		return "Do not probe."
	}
}

func buildMessages(history []session.ThreadEntry) []requestMessage {
	msgs := make([]requestMessage, 0, len(history))
	for _, entry := range history {
		role := "user"
		if entry.Role == session.RolePrompter {
			role = "assistant"
		}
		msgs = append(msgs, requestMessage{Role: role, Content: entry.Content})
	}
	return msgs
}
