// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"text/template"

	"github.com/pdiddy/research-agent/pkg/types"
)

// claudeAPIURL is the Claude Messages API endpoint. Package-level var
// for test substitution.
var claudeAPIURL = "https://api.anthropic.com/v1/messages"

const defaultClaudeModel = "claude-sonnet-4-5-20250929"

// filterPromptTmpl asks the model to clean one page's raw text into a
// report excerpt.
var filterPromptTmpl = template.Must(template.New("filter").Parse(`You are a research assistant cleaning web page text for a research report. Remove navigation remnants, boilerplate, and advertising copy. Keep the substantive prose verbatim. Limit the output to roughly {{.MaxLen}} characters, ending at a natural point if possible.

Respond with the cleaned text only, no preamble.

Page text:
{{.Text}}
`))

// subQueriesPromptTmpl asks the model for follow-up research questions.
var subQueriesPromptTmpl = template.Must(template.New("subqueries").Parse(`You are a research assistant. Given a research query and excerpts gathered for it, propose up to {{.Max}} follow-up research questions that would deepen the investigation. Each question must be a single sentence.

Respond with a JSON object of the form {"sub_queries": ["...", "..."]}. Do not include any text outside the JSON object.

Research query: {{.Query}}

Excerpts:
{{range .Excerpts}}---
{{.}}
{{end}}`))

// summaryPromptTmpl asks the model to summarize a research session.
var summaryPromptTmpl = template.Must(template.New("summary").Parse(`You are a research assistant. Summarize the following research session as Markdown: one "## <query>" heading per query, followed by a short bullet list of the key findings.

Respond with the Markdown only.

{{range .Reports}}Query: {{.Query}}
{{range .Findings}}Source {{.SourceURL}}: {{.Excerpt}}
{{end}}
{{end}}`))

// Claude implements Synthesizer over the Claude Messages API.
type Claude struct {
	APIKey        string
	Model         string
	Client        *http.Client
	MaxSubQueries int
	MaxExcerptLen int
}

// FilterContent asks the model to clean the page text into an excerpt.
func (c *Claude) FilterContent(ctx context.Context, text string) (string, error) {
	max := c.MaxExcerptLen
	if max <= 0 {
		max = 1000
	}

	var prompt bytes.Buffer
	err := filterPromptTmpl.Execute(&prompt, struct {
		MaxLen int
		Text   string
	}{max, text})
	if err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}

	reply, err := c.message(ctx, prompt.String())
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(reply), nil
}

// SubQueries asks the model for follow-up questions and parses the JSON
// reply.
func (c *Claude) SubQueries(ctx context.Context, query string, findings []types.Finding) ([]string, error) {
	max := c.MaxSubQueries
	if max <= 0 {
		max = 5
	}

	excerpts := make([]string, 0, len(findings))
	for _, f := range findings {
		excerpts = append(excerpts, f.Excerpt)
	}

	var prompt bytes.Buffer
	err := subQueriesPromptTmpl.Execute(&prompt, struct {
		Max      int
		Query    string
		Excerpts []string
	}{max, query, excerpts})
	if err != nil {
		return nil, fmt.Errorf("rendering prompt: %w", err)
	}

	reply, err := c.message(ctx, prompt.String())
	if err != nil {
		return nil, err
	}

	var parsed struct {
		SubQueries []string `json:"sub_queries"`
	}
	if err := json.Unmarshal([]byte(reply), &parsed); err != nil {
		return nil, fmt.Errorf("parsing sub-query JSON: %w", err)
	}
	if len(parsed.SubQueries) > max {
		parsed.SubQueries = parsed.SubQueries[:max]
	}
	return parsed.SubQueries, nil
}

// Summarize asks the model for a Markdown session summary.
func (c *Claude) Summarize(ctx context.Context, reports []types.Report) (string, error) {
	var prompt bytes.Buffer
	err := summaryPromptTmpl.Execute(&prompt, struct {
		Reports []types.Report
	}{reports})
	if err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}

	reply, err := c.message(ctx, prompt.String())
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(reply), nil
}

// claudeRequest is the request body for the Claude Messages API.
type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	Messages  []claudeMessage `json:"messages"`
}

// claudeMessage is a single message in the Claude API conversation.
type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// claudeResponse is the response body from the Claude Messages API.
type claudeResponse struct {
	Content []claudeContent `json:"content"`
}

// claudeContent is a content block in the Claude API response.
type claudeContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// message sends one user prompt and returns the first text block.
func (c *Claude) message(ctx context.Context, prompt string) (string, error) {
	model := c.Model
	if model == "" {
		model = defaultClaudeModel
	}

	reqBody := claudeRequest{
		Model:     model,
		MaxTokens: 4096,
		Messages: []claudeMessage{
			{Role: "user", Content: prompt},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, claudeAPIURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling Claude API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("Claude API returned %d: %s", resp.StatusCode, string(body))
	}

	var cResp claudeResponse
	if err := json.NewDecoder(resp.Body).Decode(&cResp); err != nil {
		return "", fmt.Errorf("decoding Claude response: %w", err)
	}

	for _, block := range cResp.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("no text content in Claude API response")
}
