package ragflow

import "encoding/json"

// --- Request/Response structs (wire format of the RAG backend) ---

type sessionCreateRequest struct {
	Name string `json:"name"`
}

type sessionCreateResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    *struct {
		ID string `json:"id"`
	} `json:"data"`
}

type completionRequest struct {
	Question  string `json:"question"`
	Stream    bool   `json:"stream"`
	SessionID string `json:"session_id,omitempty"`
}

type completionResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    *CompletionData `json:"data"`
}

// probeResponse is the shape of the first completions call made without a
// session id. Only the freshly issued session_id matters; the answer content
// is discarded.
type probeResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    *struct {
		SessionID string `json:"session_id"`
	} `json:"data"`
}

// CompletionData is the backend's answer payload, decoded once at the
// boundary and passed through typed from there on.
type CompletionData struct {
	Answer    string     `json:"answer"`
	Reference *Reference `json:"reference,omitempty"`
	SessionID string     `json:"session_id,omitempty"`
	ID        string     `json:"id,omitempty"`
	Prompt    string     `json:"prompt,omitempty"`
}

// Reference carries the documents the backend cited for an answer. Chunks is
// kept raw: this gateway only consumes the per-document aggregates.
type Reference struct {
	DocAggs []DocAgg        `json:"doc_aggs,omitempty"`
	Chunks  json.RawMessage `json:"chunks,omitempty"`
	Total   int             `json:"total,omitempty"`
}

type DocAgg struct {
	DocID   string `json:"doc_id,omitempty"`
	DocName string `json:"doc_name"`
	Count   int    `json:"count,omitempty"`
}

// --- Streaming chunk types ---

// StreamChunk is one parsed line of the backend's cumulative answer stream.
type StreamChunk struct {
	Code int       `json:"code"`
	Data ChunkData `json:"data"`
}

// ChunkData holds the cumulative answer-so-far plus whatever reference
// aggregates the backend attached. Reference stays raw so re-serialized
// chunks keep it byte for byte.
type ChunkData struct {
	Answer    string          `json:"answer"`
	Reference json.RawMessage `json:"reference,omitempty"`
	SessionID string          `json:"session_id,omitempty"`
	ID        string          `json:"id,omitempty"`
}
