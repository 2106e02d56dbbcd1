package domain

type Analysis struct {
	Summary             string   `json:"summary"`
	Topics              []string `json:"topics"`
	Keywords            []string `json:"keywords"`
	Content             string   `json:"content"`
	ExtractedText       string   `json:"extractedText"`
	ExtractedTextLength int      `json:"extractedTextLength"`
}

// Usage is the token accounting reported by the completion backend.
type Usage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
	TotalTokens      int64 `json:"total_tokens"`
}

// AnalysisResult tags whether the analysis was decoded from the model reply
// or synthesized from document metadata.
type AnalysisResult struct {
	Analysis Analysis `json:"analysis"`
	Usage    Usage    `json:"usage"`
	Fallback bool     `json:"fallback"`
}
