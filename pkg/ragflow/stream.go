package ragflow

import (
	"encoding/json"
	"strings"
)

const streamPrefix = "data:"

// TerminalChunk is appended by the normalizer after the upstream stream ends,
// so clients always see an unambiguous close signal even though the backend's
// own completion line was consumed during normalization.
const TerminalChunk = `data: {"code": 0, "data": true}`

// Normalizer converts the backend's cumulative answer stream into incremental
// deltas. The backend repeats all prior text in every chunk; clients want only
// what is new. The normalizer folds over the stream carrying one prior chunk.
//
// Known limitation: when a chunk does not extend its predecessor (backend
// reset or reorder) the full current answer is emitted instead of failing, so
// concatenated deltas may double-count in that case.
type Normalizer struct {
	prev *StreamChunk
}

func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Next feeds one raw line into the normalizer. It returns the re-framed delta
// line and true, or "" and false when the line carries no answer (keep-alives,
// blank lines, the backend's terminal marker) and is dropped.
func (n *Normalizer) Next(line string) (string, bool) {
	if !strings.Contains(line, `"answer"`) {
		return "", false
	}

	payload := strings.TrimSpace(strings.TrimPrefix(line, streamPrefix))

	var chunk StreamChunk
	if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
		// A single malformed line must not kill the stream. Emit a neutral
		// chunk and carry on; diffing restarts from it.
		chunk = StreamChunk{}
	}

	// First retained chunk: its cumulative text is the first visible delta,
	// so it passes through unchanged.
	if n.prev == nil {
		n.prev = &chunk
		return frame(chunk), true
	}

	out := chunk
	if strings.HasPrefix(chunk.Data.Answer, n.prev.Data.Answer) {
		out.Data.Answer = chunk.Data.Answer[len(n.prev.Data.Answer):]
	}
	// else: prefix invariant violated, keep the full current answer as the
	// delta rather than fail.

	n.prev = &chunk
	return frame(out), true
}

func frame(chunk StreamChunk) string {
	b, err := json.Marshal(chunk)
	if err != nil {
		// StreamChunk contains nothing unmarshalable; this is unreachable.
		return TerminalChunk
	}
	return streamPrefix + " " + string(b)
}
