package ragflow

import (
	"encoding/json"
	"strings"
	"testing"
)

func decodeDelta(t *testing.T, line string) StreamChunk {
	t.Helper()
	payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
	var chunk StreamChunk
	if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
		t.Fatalf("emitted line is not valid JSON: %q: %v", line, err)
	}
	return chunk
}

func feedAll(t *testing.T, lines []string) []string {
	t.Helper()
	n := NewNormalizer()
	var out []string
	for _, line := range lines {
		if delta, ok := n.Next(line); ok {
			out = append(out, delta)
		}
	}
	return out
}

func TestNormalizerDeltas(t *testing.T) {
	lines := []string{
		`data: {"code": 0, "data": {"answer": "Hi"}}`,
		`data: {"code": 0, "data": {"answer": "Hi there"}}`,
		`data: {"code": 0, "data": {"answer": "Hi there!"}}`,
	}

	out := feedAll(t, lines)
	if len(out) != 3 {
		t.Fatalf("emitted %d deltas, want 3", len(out))
	}

	want := []string{"Hi", " there", "!"}
	for i, line := range out {
		if got := decodeDelta(t, line).Data.Answer; got != want[i] {
			t.Errorf("delta[%d] = %q, want %q", i, got, want[i])
		}
	}
}

func TestNormalizerDropsLinesWithoutAnswer(t *testing.T) {
	lines := []string{
		"",
		`data: {"code": 0, "data": {"answer": "A"}}`,
		`: keep-alive`,
		`data: {"code": 0, "data": true}`,
		`data: {"code": 0, "data": {"answer": "AB"}}`,
	}

	out := feedAll(t, lines)
	if len(out) != 2 {
		t.Fatalf("emitted %d deltas, want 2", len(out))
	}
	if got := decodeDelta(t, out[1]).Data.Answer; got != "B" {
		t.Errorf("delta[1] = %q, want %q", got, "B")
	}
}

func TestNormalizerPrefixViolation(t *testing.T) {
	lines := []string{
		`data: {"code": 0, "data": {"answer": "Hello world"}}`,
		`data: {"code": 0, "data": {"answer": "Different text"}}`,
		`data: {"code": 0, "data": {"answer": "Different text extended"}}`,
	}

	out := feedAll(t, lines)
	if len(out) != 3 {
		t.Fatalf("emitted %d deltas, want 3", len(out))
	}

	// Broken prefix: full current answer is emitted rather than failing.
	if got := decodeDelta(t, out[1]).Data.Answer; got != "Different text" {
		t.Errorf("delta[1] = %q, want full answer on prefix violation", got)
	}
	// Diffing resumes from the violating chunk.
	if got := decodeDelta(t, out[2]).Data.Answer; got != " extended" {
		t.Errorf("delta[2] = %q, want %q", got, " extended")
	}
}

func TestNormalizerMalformedLineEmitsNeutralChunk(t *testing.T) {
	lines := []string{
		`data: {"code": 0, "data": {"answer": "start"}}`,
		`data: {"answer" not json`,
		`data: {"code": 0, "data": {"answer": "start again"}}`,
	}

	out := feedAll(t, lines)
	if len(out) != 3 {
		t.Fatalf("emitted %d deltas, want 3: stream must survive a bad line", len(out))
	}
	if got := decodeDelta(t, out[1]).Data.Answer; got != "" {
		t.Errorf("malformed line produced answer %q, want neutral empty chunk", got)
	}
	// The neutral chunk reset the window, so the next delta is the full text.
	if got := decodeDelta(t, out[2]).Data.Answer; got != "start again" {
		t.Errorf("delta after neutral chunk = %q, want full answer", got)
	}
}

func TestNormalizerReconstructsFinalAnswer(t *testing.T) {
	cumulative := []string{"T", "The", "The ans", "The answer", "The answer is 42."}

	lines := make([]string, len(cumulative))
	for i, ans := range cumulative {
		b, _ := json.Marshal(StreamChunk{Data: ChunkData{Answer: ans}})
		lines[i] = "data: " + string(b)
	}

	var rebuilt strings.Builder
	for _, line := range feedAll(t, lines) {
		rebuilt.WriteString(decodeDelta(t, line).Data.Answer)
	}

	if rebuilt.String() != cumulative[len(cumulative)-1] {
		t.Errorf("concatenated deltas = %q, want %q", rebuilt.String(), cumulative[len(cumulative)-1])
	}
}

func TestNormalizerPreservesReferenceAggregates(t *testing.T) {
	lines := []string{
		`data: {"code": 0, "data": {"answer": "Hi"}}`,
		`data: {"code": 0, "data": {"answer": "Hi!", "reference": {"doc_aggs": [{"doc_name": "policy.md"}]}}}`,
	}

	out := feedAll(t, lines)
	if len(out) != 2 {
		t.Fatalf("emitted %d deltas, want 2", len(out))
	}

	chunk := decodeDelta(t, out[1])
	if chunk.Data.Answer != "!" {
		t.Errorf("delta answer = %q, want %q", chunk.Data.Answer, "!")
	}
	if !strings.Contains(string(chunk.Data.Reference), "policy.md") {
		t.Errorf("reference aggregates were lost during re-framing: %s", chunk.Data.Reference)
	}
}
