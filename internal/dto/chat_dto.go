package dto

import "ai-affairs-gateway/pkg/ragflow"

// --- Request DTO's ---

type ChatRequest struct {
	Question  string `json:"question" validate:"required"`
	SessionId string `json:"session_id"`
	UserId    string `json:"user_id"`
}

// CompletionRequest is the body of the raw streaming endpoint. The session id
// may ride in the body or in the X-Session-ID header; the header wins when
// both are set.
type CompletionRequest struct {
	Question  string `json:"question" validate:"required"`
	SessionId string `json:"session_id"`
}

// --- Response DTO's ---

type ChatResponse struct {
	TurnId    string                  `json:"turn_id"`
	SessionId string                  `json:"session_id"`
	Answer    *ragflow.CompletionData `json:"answer"`
	Keyword   string                  `json:"keyword"`
	Documents []DocumentInfo          `json:"documents"`
	UserId    string                  `json:"user_id,omitempty"`
}

// --- Callback DTO's ---

// CallbackPayload is the notification shipped to the configured callback URL
// after a completed turn. Field names follow the receiver's contract.
type CallbackPayload struct {
	TurnId    string         `json:"turn_id"`
	Answer    string         `json:"answer"`
	Documents []DocumentInfo `json:"documents"`
	Keyword   string         `json:"keyword"`
	UserId    string         `json:"user_id,omitempty"`
}

type DocumentInfo struct {
	DocName string `json:"docName"`
	PdfUrl  string `json:"pdfUrl"`
}
