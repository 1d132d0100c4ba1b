package processing

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ExtractedFields is the structured result of one extraction call. Attributes
// carries document-type specific fields the pipeline stores but never reads.
type ExtractedFields struct {
	MerchantName    string         `json:"merchantName"`
	Total           float64        `json:"total"`
	CurrencyCode    string         `json:"currencyCode"`
	TxDate          string         `json:"txDate"` // YYYY-MM-DD or empty
	Category        string         `json:"category"`
	Tax             *float64       `json:"tax"`
	PaymentMethod   string         `json:"paymentMethod"`
	ConfidenceScore float64        `json:"confidenceScore"`
	RawText         string         `json:"rawText"`
	Attributes      map[string]any `json:"attributes"`
}

// Extractor is the external vision model boundary. Implementations receive a
// short-lived readable URL for the stored document.
type Extractor interface {
	ExtractFields(ctx context.Context, documentURL string, documentType string) (*ExtractedFields, error)
}

type GeminiExtractor struct {
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewGeminiExtractor builds an extractor for the Gemini REST API. The client
// is constructed once and injected into the processing service so tests can
// substitute a fake.
func NewGeminiExtractor(apiKey, model string) *GeminiExtractor {
	return &GeminiExtractor{
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

const extractionPrompt = `Analyze this receipt or invoice image and respond ONLY with a valid JSON object containing exactly these fields: ` +
	`'merchantName' (string), 'total' (number), 'currencyCode' (3-letter ISO string), 'txDate' (string in YYYY-MM-DD format or empty string if unreadable), ` +
	`'category' (string), 'tax' (number or null), 'paymentMethod' (string), 'confidenceScore' (number between 0 and 1), ` +
	`'rawText' (string with all readable text), and 'attributes' (object with any document-specific fields such as invoice number, vendor address, or medical provider details). ` +
	`Do not include any explanations, markdown formatting, or extra text.`

func (g *GeminiExtractor) ExtractFields(ctx context.Context, documentURL string, documentType string) (*ExtractedFields, error) {
	imageData, mimeType, err := g.fetchDocument(ctx, documentURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch document: %w", err)
	}

	base64Image := base64.StdEncoding.EncodeToString(imageData)
	geminiURL := fmt.Sprintf("https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent?key=%s", g.model, g.apiKey)

	requestBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"parts": []map[string]interface{}{
					{
						"text": fmt.Sprintf("%s The document type is %q.", extractionPrompt, documentType),
					},
					{
						"inline_data": map[string]interface{}{
							"mime_type": mimeType,
							"data":      base64Image,
						},
					},
				},
			},
		},
		"generationConfig": map[string]interface{}{
			"temperature": 0.1,
			"topP":        0.8,
			"topK":        40,
		},
	}

	requestJSON, err := json.Marshal(requestBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", geminiURL, bytes.NewBuffer(requestJSON))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("gemini API error: %s - %s", resp.Status, string(bodyBytes))
	}

	var geminiResp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&geminiResp); err != nil {
		return nil, err
	}

	if len(geminiResp.Candidates) == 0 || len(geminiResp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("gemini returned no candidates")
	}

	return parseExtractionResponse(geminiResp.Candidates[0].Content.Parts[0].Text)
}

func (g *GeminiExtractor) fetchDocument(ctx context.Context, documentURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", documentURL, nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("document fetch returned %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}

	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return data, mimeType, nil
}

var jsonPattern = regexp.MustCompile(`(?s)\{.*\}`)

// parseExtractionResponse tolerates the model wrapping its JSON in markdown
// fences or prose, and numeric fields arriving as strings.
func parseExtractionResponse(responseText string) (*ExtractedFields, error) {
	if matches := jsonPattern.FindString(responseText); matches != "" {
		responseText = matches
	}

	responseText = strings.TrimSpace(responseText)
	responseText = strings.TrimPrefix(responseText, "```json")
	responseText = strings.TrimPrefix(responseText, "```")
	responseText = strings.TrimSuffix(responseText, "```")
	responseText = strings.TrimSpace(responseText)

	var fields ExtractedFields
	if err := json.Unmarshal([]byte(responseText), &fields); err == nil {
		clampConfidence(&fields)
		return &fields, nil
	}

	// Some responses quote numbers; retry with string-typed amounts.
	var loose struct {
		MerchantName    string         `json:"merchantName"`
		Total           json.Number    `json:"total"`
		CurrencyCode    string         `json:"currencyCode"`
		TxDate          string         `json:"txDate"`
		Category        string         `json:"category"`
		Tax             json.Number    `json:"tax"`
		PaymentMethod   string         `json:"paymentMethod"`
		ConfidenceScore json.Number    `json:"confidenceScore"`
		RawText         string         `json:"rawText"`
		Attributes      map[string]any `json:"attributes"`
	}
	if err := json.Unmarshal([]byte(responseText), &loose); err != nil {
		return nil, fmt.Errorf("failed to parse extraction response: %v - raw response: %s", err, responseText)
	}

	fields = ExtractedFields{
		MerchantName:  loose.MerchantName,
		CurrencyCode:  strings.ToUpper(loose.CurrencyCode),
		TxDate:        loose.TxDate,
		Category:      loose.Category,
		PaymentMethod: loose.PaymentMethod,
		RawText:       loose.RawText,
		Attributes:    loose.Attributes,
	}
	fields.Total = parseNumber(loose.Total)
	if v := loose.Tax.String(); v != "" && v != "null" {
		tax := parseNumber(loose.Tax)
		fields.Tax = &tax
	}
	fields.ConfidenceScore = parseNumber(loose.ConfidenceScore)

	clampConfidence(&fields)
	return &fields, nil
}

func parseNumber(n json.Number) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(n.String()), 64)
	if err != nil {
		return 0
	}
	return v
}

func clampConfidence(fields *ExtractedFields) {
	if fields.ConfidenceScore < 0 || fields.ConfidenceScore > 1 {
		fields.ConfidenceScore = 0.5
	}
	fields.CurrencyCode = strings.ToUpper(fields.CurrencyCode)
}
