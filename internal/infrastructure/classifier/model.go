package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"regintel/internal/config"
	"regintel/internal/domain"
	"regintel/internal/ports"
	"regintel/internal/rules"
)

const systemPromptTemplate = `You classify regulatory documents about %s.
Respond with a single JSON object and nothing else, using exactly these fields:
{"documentType": one of [regulation, proposed_rule, final_rule, guidance, bulletin, memo, press_release, announcement, enforcement_action, license_update, policy_change, public_notice, emergency_rule, advisory],
"category": string, "subCategory": string, "summary": string (max 2 sentences),
"relevanceScore": number between 0 and 1, "topics": array of strings,
"urgency": one of [low, medium, high, critical],
"dispensaryRelevant": boolean, "licensingRelevant": boolean, "complianceRelevant": boolean}`

// Model classifies via an OpenAI-compatible chat completion. Any failure
// (network, non-2xx, malformed output) degrades silently to the heuristic
// fallback, so the pipeline never depends on model availability.
type Model struct {
	endpoint   string
	model      string
	apiKey     string
	rules      rules.RuleSet
	fallback   ports.Classifier
	httpClient *http.Client
	logger     *slog.Logger
}

var _ ports.Classifier = (*Model)(nil)

// NewModel builds a model-backed classifier around a mandatory fallback.
func NewModel(cfg config.ModelConfig, rs rules.RuleSet, fallback ports.Classifier, log *slog.Logger) *Model {
	return &Model{
		endpoint: cfg.Endpoint,
		model:    cfg.Model,
		apiKey:   cfg.APIKey,
		rules:    rs,
		fallback: fallback,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
		logger: log,
	}
}

// Classify asks the model; on any failure it returns the heuristic result.
func (m *Model) Classify(ctx context.Context, in ports.ClassifyInput) domain.Classification {
	cls, err := m.complete(ctx, in)
	if err != nil {
		if m.logger != nil {
			m.logger.Debug("model classification failed, using heuristic", "error", err)
		}
		return m.fallback.Classify(ctx, in)
	}
	return cls
}

func (m *Model) complete(ctx context.Context, in ports.ClassifyInput) (domain.Classification, error) {
	if m.apiKey == "" || m.endpoint == "" || m.model == "" {
		return domain.Classification{}, fmt.Errorf("model classifier misconfigured")
	}

	userPrompt := fmt.Sprintf("Agency: %s (%s)\nTitle: %s\nDescription: %s",
		in.AgencyName, in.Jurisdiction, in.Title, in.Description)

	body, err := json.Marshal(map[string]any{
		"model":       m.model,
		"temperature": 0,
		"messages": []map[string]string{
			{"role": "system", "content": fmt.Sprintf(systemPromptTemplate, m.rules.PromptFocus)},
			{"role": "user", "content": userPrompt},
		},
	})
	if err != nil {
		return domain.Classification{}, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.Classification{}, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return domain.Classification{}, fmt.Errorf("send completion: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return domain.Classification{}, fmt.Errorf("model error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var completion struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return domain.Classification{}, fmt.Errorf("decode completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return domain.Classification{}, fmt.Errorf("completion has no choices")
	}

	return m.parseContent(completion.Choices[0].Message.Content)
}

// parseContent pulls the first {...} object out of the model output and
// normalizes every field that fails enum validation to a safe default.
func (m *Model) parseContent(content string) (domain.Classification, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return domain.Classification{}, fmt.Errorf("no JSON object in model output")
	}

	var cls domain.Classification
	if err := json.Unmarshal([]byte(content[start:end+1]), &cls); err != nil {
		return domain.Classification{}, fmt.Errorf("parse model output: %w", err)
	}

	cls = cls.Normalize()
	if cls.Category == "" {
		cls.Category = m.rules.DefaultCategory
	}
	return cls, nil
}
