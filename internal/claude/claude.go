// Package claude asks the Anthropic API to propose dependency edges for a
// task set.
package claude

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/tidwall/gjson"

	"github.com/joshharrison/depweave/internal/graph"
	"github.com/joshharrison/depweave/internal/logger"
)

// TaskSummary is the minimal task info sent for dependency inference.
type TaskSummary struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Priority int    `json:"priority"`
}

// Proposal is a single inferred edge with its rationale.
type Proposal struct {
	Edge   graph.Edge `json:"edge"`
	Reason string     `json:"reason"`
}

// Inference holds the parsed model response.
type Inference struct {
	Proposals []Proposal `json:"proposals"`
	Summary   string     `json:"summary"`
	// Discarded counts entries that were not well-formed edges.
	Discarded int `json:"discarded"`
}

// Client wraps the Anthropic SDK.
type Client struct {
	inner anthropic.Client
	model anthropic.Model
}

// NewClient creates a client. apiKey defaults to ANTHROPIC_API_KEY and
// model defaults to Claude Sonnet.
func NewClient(apiKey, model string) (*Client, error) {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY not set")
	}

	m := anthropic.ModelClaudeSonnet4_6
	if model != "" {
		m = anthropic.Model(model)
	}
	return &Client{inner: anthropic.NewClient(option.WithAPIKey(apiKey)), model: m}, nil
}

const inferPrompt = `You are an expert software project manager. Given the tasks of a project and the dependency edges already recorded between them, propose missing edges.

Edge kinds:
- "blocks": "from" must finish before "to" can start.
- "relates_to": the tasks touch the same area but neither waits on the other.

Rules:
- Only add a "blocks" edge when there is a strong causal reason.
- Do not repeat existing edges or add transitive ones.
- Do not create cycles.
- Only use task IDs from the provided list. A task cannot depend on itself.

Return your answer as JSON with this exact structure:
{
  "edges": [
    {"from": "<task id>", "to": "<task id>", "kind": "blocks", "reason": "<short explanation>"}
  ],
  "summary": "<one paragraph summary of the dependency structure>"
}

Return ONLY the JSON object. No markdown fences, no commentary outside the JSON.
`

func buildPrompt(tasks []graph.Task, existing []graph.Edge) (string, error) {
	summaries := make([]TaskSummary, len(tasks))
	for i, t := range tasks {
		summaries[i] = TaskSummary{ID: t.ID, Title: t.Title, Priority: t.Priority}
	}
	taskData, err := json.MarshalIndent(summaries, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal tasks: %w", err)
	}
	if existing == nil {
		existing = []graph.Edge{}
	}
	edgeData, err := json.MarshalIndent(existing, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal edges: %w", err)
	}

	var b strings.Builder
	b.WriteString(inferPrompt)
	b.WriteString("\nTasks:\n")
	b.Write(taskData)
	b.WriteString("\n\nExisting edges:\n")
	b.Write(edgeData)
	return b.String(), nil
}

// InferEdges asks the model for edges missing from the given snapshot.
// The proposals are only shape-checked; callers validate them against the
// graph before committing.
func (c *Client) InferEdges(ctx context.Context, snap graph.Snapshot) (*Inference, error) {
	prompt, err := buildPrompt(snap.Tasks, snap.Edges)
	if err != nil {
		return nil, err
	}

	resp, err := c.inner.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: int64(4096),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("claude API call: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	inf, err := ParseInference(text.String())
	if err != nil {
		return nil, err
	}
	logger.Component("claude").Info().
		Int("proposed", len(inf.Proposals)).
		Int("discarded", inf.Discarded).
		Msg("edges inferred")
	return inf, nil
}

// ParseInference reads the model's JSON answer, fenced or not. Entries
// with an unknown kind or a missing endpoint are counted and dropped.
func ParseInference(text string) (*Inference, error) {
	text = stripJSONFences(text)
	if !gjson.Valid(text) {
		return nil, fmt.Errorf("parse claude response: invalid JSON\nraw: %s", text)
	}
	root := gjson.Parse(text)

	inf := &Inference{Summary: root.Get("summary").String()}
	root.Get("edges").ForEach(func(_, item gjson.Result) bool {
		from := item.Get("from").String()
		to := item.Get("to").String()
		kindStr := item.Get("kind").String()
		if kindStr == "" {
			kindStr = string(graph.Blocks)
		}
		kind, ok := graph.ParseKind(kindStr)
		if !ok || from == "" || to == "" {
			inf.Discarded++
			return true
		}
		inf.Proposals = append(inf.Proposals, Proposal{
			Edge:   graph.Edge{From: from, To: to, Kind: kind},
			Reason: item.Get("reason").String(),
		})
		return true
	})
	return inf, nil
}

// stripJSONFences removes markdown code fences the model sometimes adds.
func stripJSONFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx >= 0 {
			s = s[idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}
	return s
}
