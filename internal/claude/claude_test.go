package claude

import (
	"strings"
	"testing"

	"github.com/joshharrison/depweave/internal/graph"
)

func TestStripJSONFences_Clean(t *testing.T) {
	input := `{"edges": [], "summary": "no deps"}`
	if got := stripJSONFences(input); got != input {
		t.Errorf("expected unchanged, got %q", got)
	}
}

func TestStripJSONFences_WithJSONTag(t *testing.T) {
	input := "```json\n{\"edges\": []}\n```"
	if got := stripJSONFences(input); got != `{"edges": []}` {
		t.Errorf("expected clean JSON, got %q", got)
	}
}

func TestStripJSONFences_WithWhitespace(t *testing.T) {
	input := "  \n```\n{\"edges\": []}\n```\n  "
	if got := stripJSONFences(input); got != `{"edges": []}` {
		t.Errorf("expected clean JSON, got %q", got)
	}
}

func TestBuildPrompt_ContainsTasksAndEdges(t *testing.T) {
	tasks := []graph.Task{
		{ID: "T1", Title: "Setup DB", Priority: 1},
		{ID: "T2", Title: "Add API", Priority: 2},
	}
	edges := []graph.Edge{{From: "T1", To: "T2", Kind: graph.Blocks}}

	prompt, err := buildPrompt(tasks, edges)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"T1", "Setup DB", "Add API", `"kind": "blocks"`, "strong causal reason"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildPrompt_NoEdges(t *testing.T) {
	prompt, err := buildPrompt([]graph.Task{{ID: "T1"}}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(prompt, "Existing edges:\n[]") {
		t.Error("expected empty edge list in prompt")
	}
}

func TestParseInference(t *testing.T) {
	raw := `{
		"edges": [
			{"from": "T1", "to": "T2", "kind": "blocks", "reason": "API needs DB"},
			{"from": "T3", "to": "T2", "reason": "kind defaults to blocks"},
			{"from": "T2", "to": "T4", "kind": "blocked-by"},
			{"from": "T1", "to": "T4", "kind": "parent"},
			{"from": "T1", "kind": "blocks"}
		],
		"summary": "T2 depends on T1"
	}`
	inf, err := ParseInference(raw)
	if err != nil {
		t.Fatalf("ParseInference: %v", err)
	}
	if inf.Summary != "T2 depends on T1" {
		t.Errorf("unexpected summary %q", inf.Summary)
	}
	if len(inf.Proposals) != 3 {
		t.Fatalf("expected 3 proposals, got %d", len(inf.Proposals))
	}
	if inf.Discarded != 2 {
		t.Errorf("expected 2 discarded, got %d", inf.Discarded)
	}
	if inf.Proposals[0].Reason != "API needs DB" {
		t.Errorf("unexpected reason %q", inf.Proposals[0].Reason)
	}
	if inf.Proposals[1].Edge.Kind != graph.Blocks {
		t.Errorf("expected default kind blocks, got %s", inf.Proposals[1].Edge.Kind)
	}
	if inf.Proposals[2].Edge.Kind != graph.BlockedBy {
		t.Errorf("expected blocked_by, got %s", inf.Proposals[2].Edge.Kind)
	}
}

func TestParseInference_Invalid(t *testing.T) {
	if _, err := ParseInference("not json"); err == nil {
		t.Error("expected error for invalid JSON")
	}
}
