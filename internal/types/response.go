package types

type Response struct {
	RequestID        string   `json:"request_id"`
	Model            string   `json:"model"`
	Provider         string   `json:"provider"`
	Choices          []Choice `json:"choices"`
	Usage            Usage    `json:"usage"`
	EstimatedCostUSD float64  `json:"estimated_cost_usd"`
	CreditsCharged   float64  `json:"credits_charged"`
	FallbackUsed     bool     `json:"fallback_used,omitempty"`
}

type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
