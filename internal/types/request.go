package types

import "time"

// Request is the canonical internal representation of an incoming AI request.
// Provider-specific formats are converted to/from this type by adapters.
type Request struct {
	RequestID string `json:"request_id"`
	WalletID  string `json:"wallet_id,omitempty"`

	// Model pins a specific model; when empty the router picks one by
	// modality and strategy.
	Model    string `json:"model,omitempty"`
	Modality string `json:"modality,omitempty"`
	Strategy string `json:"strategy,omitempty"`

	Messages    []Message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
	MaxTokens   *int      `json:"max_tokens,omitempty"`
	Stream      bool      `json:"stream"`
	TopP        *float64  `json:"top_p,omitempty"`
	Stop        []string  `json:"stop,omitempty"`

	// Internal tracking
	ReceivedAt      time.Time `json:"-"`
	IdempotencyKey  string    `json:"-"`
	EstimatedTokens int       `json:"-"`
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Name    string `json:"name,omitempty"`
}
