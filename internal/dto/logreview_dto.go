package dto

import "encoding/json"

type LogReviewRequest struct {
	Content string `json:"content" validate:"required"`
	UserId  string `json:"user_id"`
}

type LogReviewResponse struct {
	Result json.RawMessage `json:"result"`
}
