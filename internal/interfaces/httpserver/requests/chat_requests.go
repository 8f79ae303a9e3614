package requests

import "github.com/coder4-c/survivor-support/internal/domain/chat"

// ChatRequest is one chat turn with optional prior history.
type ChatRequest struct {
	Message string         `json:"message" binding:"required"`
	History []chat.Message `json:"history"`
}
