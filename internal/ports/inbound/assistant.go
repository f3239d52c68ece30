// Package inbound defines the interfaces for inbound ports (primary/driving adapters)
package inbound

import "context"

// ResponseType tags what the final reply carries so the transport can
// render it (plain answer, confirmation prompt, clarifying question...).
type ResponseType string

const (
	ResponseAnswer        ResponseType = "answer"
	ResponseConfirmation  ResponseType = "confirmation"
	ResponseClarification ResponseType = "clarification"
	ResponseError         ResponseType = "error"
)

// Reply is the single final event of a turn. Streaming step events are a
// transport concern and out of scope here.
type Reply struct {
	Status       string       `json:"status"` // ok|error
	Message      string       `json:"message"`
	ResponseType ResponseType `json:"response_type"`
	Data         any          `json:"data,omitempty"`
}

// AssistantService is the conversational entry point contract.
type AssistantService interface {
	Send(ctx context.Context, message, sessionID, timezone string) (*Reply, error)
}
