package adapters

import (
	"context"
	"net/http"

	"github.com/voroninsergei/oneflow-ai-sub000/internal/types"
)

// ProviderAdapter transforms requests/responses between the canonical format
// and provider-specific API formats. Transport execution (timeouts, retries,
// circuit breaking) is owned by the resilient client, not the adapter.
type ProviderAdapter interface {
	Name() string
	TransformRequest(ctx context.Context, req *types.Request) (*http.Request, error)
	TransformResponse(ctx context.Context, resp *http.Response) (*types.Response, error)
	TransformStreamChunk(chunk []byte) ([]byte, error)
	SupportsStreaming() bool
}
