package dto

// ChatMessage is one turn in the assistant conversation.
type ChatMessage struct {
	Role    string `json:"role" validate:"required,oneof=system user assistant"`
	Content string `json:"content" validate:"required"`
}

// ChatRequest relays a teacher-assistant conversation to the model.
type ChatRequest struct {
	System   string        `json:"system"`
	Messages []ChatMessage `json:"messages" validate:"required,min=1,dive"`
}

// ChatResponse carries the assistant reply.
type ChatResponse struct {
	Reply string `json:"reply"`
}
