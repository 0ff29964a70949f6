package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"time"
)

const openaiAPIURL = "https://api.openai.com/v1/chat/completions"

// OpenAIClient translates batches through the OpenAI chat completions
// API in JSON mode.
type OpenAIClient struct {
	apiKey     string
	model      string
	httpClient *http.Client
}

func NewOpenAIClient(apiKey, model string) *OpenAIClient {
	return &OpenAIClient{
		apiKey: apiKey,
		model:  model,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

func (c *OpenAIClient) Name() string {
	return "openai"
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
	Temperature    float64         `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Translate sends every text in one request and expects a JSON object
// holding the translations as an array aligned by position.
func (c *OpenAIClient) Translate(ctx context.Context, req Request) ([]string, error) {
	payload, err := json.Marshal(map[string]any{"texts": req.Texts})
	if err != nil {
		return nil, fmt.Errorf("marshal texts: %w", err)
	}

	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: translationPrompt(req)},
			{Role: "user", Content: string(payload)},
		},
		ResponseFormat: &responseFormat{Type: "json_object"},
		Temperature:    0.1,
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, openaiAPIURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("openai api: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{
			Provider:   c.Name(),
			StatusCode: resp.StatusCode,
			Message:    string(respBody),
		}
	}

	var apiResp chatResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if apiResp.Error != nil {
		return nil, fmt.Errorf("openai error: %s: %s", apiResp.Error.Type, apiResp.Error.Message)
	}
	if len(apiResp.Choices) == 0 {
		return nil, fmt.Errorf("empty response from openai")
	}

	content := stripCodeBlock(apiResp.Choices[0].Message.Content)
	var parsed struct {
		Translations []string `json:"translations"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, fmt.Errorf("parse translations json: %w (raw: %s)", err, truncate(content, 200))
	}

	return parsed.Translations, nil
}

var styleInstructions = map[Style]string{
	StyleFormalTechnical: "Keep a formal, technical tone and preserve specialized terminology.",
	StyleCasual:          "Use a casual, colloquial tone, adapting to everyday language.",
	StyleAcademic:        "Keep a formal academic register with terminological precision.",
}

func translationPrompt(req Request) string {
	style, ok := styleInstructions[req.Style]
	if !ok {
		style = styleInstructions[StyleFormalTechnical]
	}

	var b strings.Builder
	fmt.Fprintf(&b, `You are a precise translation engine for business presentations.
You will receive a JSON object with a "texts" array of strings.
Translate every string into %s.
Style: %s
Preserve the formatting of numbers, dates and symbols.
Respond with a single JSON object of the form {"translations": [...]} where
the array has exactly the same number of elements as the input, in the same
order. Do not merge, split, or reorder entries. Do not add commentary.`, req.TargetLang, style)

	if len(req.Glossary) > 0 {
		b.WriteString("\n\nMandatory glossary, always use these translations for these terms:")
		for _, term := range sortedKeys(req.Glossary) {
			fmt.Fprintf(&b, "\n- %s: %s", term, req.Glossary[term])
		}
	}
	return b.String()
}

// sortedKeys keeps the glossary block stable across calls.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var codeBlockRe = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

func stripCodeBlock(s string) string {
	s = strings.TrimSpace(s)
	if m := codeBlockRe.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return s
}

// Close releases resources.
func (c *OpenAIClient) Close() {
	c.httpClient.CloseIdleConnections()
}
