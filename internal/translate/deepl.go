package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const deeplAPIURL = "https://api-free.deepl.com/v2/translate"

// DeepLClient translates batches through the DeepL API. DeepL accepts
// multiple text fields per request and returns translations in the
// same order, which matches the batch contract directly.
type DeepLClient struct {
	apiKey     string
	httpClient *http.Client
}

func NewDeepLClient(apiKey string) *DeepLClient {
	return &DeepLClient{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

func (c *DeepLClient) Name() string {
	return "deepl"
}

func (c *DeepLClient) Translate(ctx context.Context, req Request) ([]string, error) {
	// Glossaries are pre-registered resources in the DeepL API, not
	// request payload; refusing is better than silently ignoring a
	// mandatory term list.
	if len(req.Glossary) > 0 {
		return nil, fmt.Errorf("deepl provider does not support inline glossaries")
	}

	form := url.Values{}
	for _, t := range req.Texts {
		form.Add("text", t)
	}
	form.Set("target_lang", deeplLangCode(req.TargetLang))
	if f := deeplFormality(req.Style); f != "" {
		form.Set("formality", f)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, deeplAPIURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Authorization", "DeepL-Auth-Key "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("deepl api: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{
			Provider:   c.Name(),
			StatusCode: resp.StatusCode,
			Message:    string(body),
		}
	}

	var deeplResp struct {
		Translations []struct {
			Text string `json:"text"`
		} `json:"translations"`
	}
	if err := json.Unmarshal(body, &deeplResp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	out := make([]string, len(deeplResp.Translations))
	for i, t := range deeplResp.Translations {
		out[i] = t.Text
	}
	return out, nil
}

// deeplFormality maps a translation style to DeepL's formality
// parameter. prefer_* degrades gracefully for languages without
// formality support.
func deeplFormality(style Style) string {
	switch style {
	case StyleCasual:
		return "prefer_less"
	case StyleFormalTechnical, StyleAcademic:
		return "prefer_more"
	}
	return ""
}

// deeplLangCode maps common language names and ISO codes to DeepL's
// target codes. Unknown inputs pass through upper-cased.
func deeplLangCode(lang string) string {
	mapping := map[string]string{
		"english":    "EN-US",
		"en":         "EN-US",
		"spanish":    "ES",
		"es":         "ES",
		"french":     "FR",
		"fr":         "FR",
		"german":     "DE",
		"de":         "DE",
		"portuguese": "PT-BR",
		"pt":         "PT-BR",
		"italian":    "IT",
		"it":         "IT",
		"japanese":   "JA",
		"ja":         "JA",
		"chinese":    "ZH",
		"zh":         "ZH",
		"russian":    "RU",
		"ru":         "RU",
		"korean":     "KO",
		"ko":         "KO",
		"dutch":      "NL",
		"nl":         "NL",
		"polish":     "PL",
		"pl":         "PL",
	}
	if code, ok := mapping[strings.ToLower(strings.TrimSpace(lang))]; ok {
		return code
	}
	return strings.ToUpper(lang)
}

// Close releases resources.
func (c *DeepLClient) Close() {
	c.httpClient.CloseIdleConnections()
}
