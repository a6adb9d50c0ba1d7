// Package brain adapts the response-generation collaborator behind a small
// request/response contract.
package brain

import "context"

// Turn is one role-tagged entry of the bounded history sent with a request.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// MessageRequest carries the recent conversation plus the new user input.
type MessageRequest struct {
	History []Turn `json:"history"`
	Input   string `json:"input"`
}

// Adapter generates one assistant response for a request.
type Adapter interface {
	Generate(ctx context.Context, req MessageRequest) (string, error)
}
