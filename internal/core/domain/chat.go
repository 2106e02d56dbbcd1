package domain

import "time"

type ChatMessage struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	IsUser    bool      `json:"isUser"`
	Timestamp time.Time `json:"timestamp"`
}

type ChatReply struct {
	Message string `json:"message"`
	Usage   Usage  `json:"usage"`
}

// AskRequest carries one question plus the context snapshot read at call time.
type AskRequest struct {
	Question   string      `json:"question"`
	Document   *Document   `json:"document,omitempty"`
	Analysis   *Analysis   `json:"analysis,omitempty"`
	PageSignal *PageSignal `json:"pageSignal,omitempty"`
}
