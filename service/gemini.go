package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	embeddingAPI  = "https://generativelanguage.googleapis.com/v1beta/models/gemini-embedding-001:embedContent"
	generationAPI = "https://generativelanguage.googleapis.com/v1beta/models/gemini-3-pro-preview:generateContent"

	maxRetries     = 3
	initialBackoff = time.Second
)

// GeminiBackend implements every model-facing interface of the pipeline
// (classification, summarization, opinion, verdict generation, confidence
// scoring, entity tagging, embedding) against the Gemini REST API.
type GeminiBackend struct {
	apiKey     string
	httpClient *http.Client
}

// NewGeminiBackend creates a Gemini-backed model client.
func NewGeminiBackend(apiKey string) *GeminiBackend {
	return &GeminiBackend{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

type embeddingRequest struct {
	Model                string       `json:"model"`
	Content              contentInput `json:"content"`
	TaskType             string       `json:"task_type,omitempty"`
	OutputDimensionality int          `json:"output_dimensionality,omitempty"`
}

type contentInput struct {
	Parts []partInput `json:"parts"`
}

type partInput struct {
	Text string `json:"text"`
}

type embeddingResponse struct {
	Embedding struct {
		Values []float64 `json:"values"`
	} `json:"embedding"`
}

// Generate runs a single text-generation call with retry and exponential
// backoff. 400/401 responses are not retried.
func (g *GeminiBackend) Generate(ctx context.Context, prompt string) (string, error) {
	return g.generateWithRetry(ctx, prompt, 0.2)
}

func (g *GeminiBackend) generateWithRetry(ctx context.Context, prompt string, temperature float64) (string, error) {
	var content string
	var err error
	backoff := initialBackoff
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(backoff)
			backoff *= 2
		}

		content, err = g.callGenerationAPI(ctx, prompt, temperature)
		if err == nil && content != "" {
			return content, nil
		}
		if err != nil && !isRetryable(err) {
			return "", err
		}
	}
	if err != nil {
		return "", fmt.Errorf("generation failed after %d attempts: %w", maxRetries, err)
	}
	return "", fmt.Errorf("generation returned empty content after %d attempts", maxRetries)
}

type apiStatusError struct {
	code int
	body string
}

func (e *apiStatusError) Error() string {
	return fmt.Sprintf("API error: %d - %s", e.code, e.body)
}

func isRetryable(err error) bool {
	if apiErr, ok := err.(*apiStatusError); ok {
		return apiErr.code != http.StatusBadRequest && apiErr.code != http.StatusUnauthorized
	}
	return true
}

// callGenerationAPI calls the Gemini generation API directly via HTTP.
func (g *GeminiBackend) callGenerationAPI(ctx context.Context, prompt string, temperature float64) (string, error) {
	if g.apiKey == "" {
		return "", fmt.Errorf("GEMINI_API_KEY not set")
	}

	reqBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"parts": []map[string]interface{}{
					{"text": prompt},
				},
			},
		},
		"generationConfig": map[string]interface{}{
			"temperature": temperature,
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", generationAPI, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", &apiStatusError{code: resp.StatusCode, body: string(bodyBytes)}
	}

	var apiResp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
			FinishReason string `json:"finishReason,omitempty"`
		} `json:"candidates"`
		PromptFeedback struct {
			BlockReason string `json:"blockReason,omitempty"`
		} `json:"promptFeedback,omitempty"`
	}
	if err := json.Unmarshal(bodyBytes, &apiResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if apiResp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("API blocked prompt: %s", apiResp.PromptFeedback.BlockReason)
	}
	if len(apiResp.Candidates) == 0 {
		return "", fmt.Errorf("API returned no candidates")
	}

	var responseText strings.Builder
	for i, candidate := range apiResp.Candidates {
		if candidate.FinishReason != "" && candidate.FinishReason != "STOP" {
			log.Printf("Warning: candidate %d finished with reason: %s", i, candidate.FinishReason)
		}
		for _, part := range candidate.Content.Parts {
			responseText.WriteString(part.Text)
		}
	}

	result := strings.TrimSpace(responseText.String())
	if result == "" {
		return "", fmt.Errorf("API returned empty content")
	}
	return result, nil
}

// Classify returns a single clause-type label for the text.
func (g *GeminiBackend) Classify(ctx context.Context, text string) (string, error) {
	prompt := fmt.Sprintf(`Classify the following contract clause into a single short type label (for example: Termination, Payment, Confidentiality, Governing Law, Indemnity, Warranty, Assignment).

Respond with the label only, no punctuation, no explanation.

Clause:
%s`, text)

	label, err := g.generateWithRetry(ctx, prompt, 0.1)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(strings.Split(label, "\n")[0]), nil
}

// Summarize produces an abstractive summary of at most maxWords words.
func (g *GeminiBackend) Summarize(ctx context.Context, text string, maxWords int) (string, error) {
	prompt := fmt.Sprintf(`Summarize this clause in one sentence of at most %d words: %s`, maxWords, text)
	return g.generateWithRetry(ctx, prompt, 0.2)
}

// Opinion runs the free-text compliance-opinion prompt for a clause. The
// raw model output is returned verbatim; no local parsing.
func (g *GeminiBackend) Opinion(ctx context.Context, clauseText string) (string, error) {
	prompt := fmt.Sprintf(`You are a contract compliance assistant. For the following clause:
"""%s"""

Respond with:
- Validation Status (Compliant / Needs Revision)
- Risk Level (Low / Medium / High)
- Reason (1-2 lines)
`, clauseText)
	return g.generateWithRetry(ctx, prompt, 0.2)
}

// Score runs the extractive confidence pass: how confident the model is
// that the question is answerable from the clause, as a number in [0,1].
func (g *GeminiBackend) Score(ctx context.Context, clauseText, question string) (float64, error) {
	prompt := fmt.Sprintf(`Context:
%s

Question: %s

How confident are you that the context answers the question? Respond with a single number between 0 and 1, nothing else.`, clauseText, question)

	raw, err := g.generateWithRetry(ctx, prompt, 0.0)
	if err != nil {
		return 0, err
	}

	score, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse confidence score %q: %w", raw, err)
	}
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score, nil
}

// Entities runs the model-based named-entity pass and returns a map of
// entity label (ORG, PER, DATE, MISC) to the first surface form found.
func (g *GeminiBackend) Entities(ctx context.Context, text string) (map[string]string, error) {
	prompt := fmt.Sprintf(`Extract named entities from the following contract text. Return ONLY a JSON object mapping entity labels to the single most relevant surface form, using the labels ORG, PER, DATE and MISC. Omit labels with no entity. No markdown, no explanations.

Text:
%s`, text)

	raw, err := g.generateWithRetry(ctx, prompt, 0.1)
	if err != nil {
		return nil, err
	}

	jsonStr := stripCodeFences(raw)
	start := strings.Index(jsonStr, "{")
	end := strings.LastIndex(jsonStr, "}")
	if start == -1 || end == -1 || start >= end {
		return nil, fmt.Errorf("could not find JSON object in entity response")
	}

	entities := make(map[string]string)
	if err := json.Unmarshal([]byte(jsonStr[start:end+1]), &entities); err != nil {
		return nil, fmt.Errorf("failed to parse entity response: %w", err)
	}
	return entities, nil
}

// stripCodeFences removes markdown code fences the model sometimes wraps
// JSON output in.
func stripCodeFences(response string) string {
	response = strings.TrimSpace(response)
	if !strings.HasPrefix(response, "```") {
		return response
	}
	var jsonLines []string
	inCodeBlock := false
	for _, line := range strings.Split(response, "\n") {
		if strings.HasPrefix(line, "```") {
			inCodeBlock = !inCodeBlock
			continue
		}
		if inCodeBlock {
			jsonLines = append(jsonLines, line)
		}
	}
	return strings.Join(jsonLines, "\n")
}

// Embed generates a normalized embedding for text. taskType is
// "RETRIEVAL_DOCUMENT" for corpus chunks and "RETRIEVAL_QUERY" for queries.
func (g *GeminiBackend) Embed(ctx context.Context, text, taskType string) ([]float64, error) {
	if g.apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY not set")
	}

	reqBody := embeddingRequest{
		Model: "models/gemini-embedding-001",
		Content: contentInput{
			Parts: []partInput{{Text: text}},
		},
		TaskType:             taskType,
		OutputDimensionality: 768,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	backoff := initialBackoff
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(backoff)
			backoff *= 2
		}

		req, err := http.NewRequestWithContext(ctx, "POST", embeddingAPI, bytes.NewBuffer(jsonData))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-goog-api-key", g.apiKey)

		resp, err := g.httpClient.Do(req)
		if err != nil {
			if attempt == maxRetries-1 {
				return nil, fmt.Errorf("failed to send request after %d attempts: %w", maxRetries, err)
			}
			continue
		}

		if resp.StatusCode == http.StatusOK {
			var apiResp embeddingResponse
			decodeErr := json.NewDecoder(resp.Body).Decode(&apiResp)
			resp.Body.Close()
			if decodeErr != nil {
				if attempt == maxRetries-1 {
					return nil, fmt.Errorf("failed to decode response: %w", decodeErr)
				}
				continue
			}

			embedding := apiResp.Embedding.Values
			NormalizeEmbedding(embedding)
			return embedding, nil
		}

		resp.Body.Close()
		if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized {
			return nil, fmt.Errorf("API error: %d", resp.StatusCode)
		}
		if attempt == maxRetries-1 {
			return nil, fmt.Errorf("API error after %d attempts: %d", maxRetries, resp.StatusCode)
		}
	}

	return nil, ErrEmbeddingFailed
}

// NormalizeEmbedding scales a vector to unit L2 norm in place. Required for
// embedding dimensions below the model's native size.
func NormalizeEmbedding(embedding []float64) {
	var sumSq float64
	for _, v := range embedding {
		sumSq += v * v
	}
	if sumSq == 0 {
		return
	}
	norm := math.Sqrt(sumSq)
	for i := range embedding {
		embedding[i] /= norm
	}
}
