package gateway

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/voroninsergei/oneflow-ai-sub000/internal/client"
	"github.com/voroninsergei/oneflow-ai-sub000/internal/config"
	"github.com/voroninsergei/oneflow-ai-sub000/internal/httputil"
	"github.com/voroninsergei/oneflow-ai-sub000/internal/pricing"
	"github.com/voroninsergei/oneflow-ai-sub000/internal/router"
	"github.com/voroninsergei/oneflow-ai-sub000/internal/router/adapters"
	"github.com/voroninsergei/oneflow-ai-sub000/internal/telemetry"
	"github.com/voroninsergei/oneflow-ai-sub000/internal/types"
	"github.com/voroninsergei/oneflow-ai-sub000/internal/wallet"
)

// defaultCompletionTokens is assumed for cost estimation when the request
// does not cap max_tokens.
const defaultCompletionTokens = 1024

// Handler holds dependencies for the gateway HTTP handlers.
type Handler struct {
	registry *router.Registry
	breakers *router.BreakerRegistry
	rt       *router.Router
	engine   *pricing.Engine
	client   *client.Client
	ledger   *wallet.Ledger
	metrics  *telemetry.Metrics
	cfg      func() *config.Config
}

func NewHandler(registry *router.Registry, breakers *router.BreakerRegistry, rt *router.Router, engine *pricing.Engine, resilient *client.Client, ledger *wallet.Ledger, metrics *telemetry.Metrics, cfg func() *config.Config) *Handler {
	return &Handler{
		registry: registry,
		breakers: breakers,
		rt:       rt,
		engine:   engine,
		client:   resilient,
		ledger:   ledger,
		metrics:  metrics,
		cfg:      cfg,
	}
}

// ChatCompletions handles POST /v1/chat/completions
func (h *Handler) ChatCompletions(w http.ResponseWriter, r *http.Request) {
	reqID := w.Header().Get("X-Request-ID")
	receivedAt := time.Now()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		httputil.WriteBadRequestError(w, reqID, "Failed to read request body")
		return
	}
	defer r.Body.Close()

	var req types.Request
	if err := json.Unmarshal(body, &req); err != nil {
		httputil.WriteBadRequestError(w, reqID, "Invalid JSON: "+err.Error())
		return
	}

	req.RequestID = reqID
	req.ReceivedAt = receivedAt
	req.IdempotencyKey = r.Header.Get(client.IdempotencyKeyHeader)
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = reqID
	}
	if req.WalletID == "" {
		req.WalletID = r.Header.Get("X-Oneflow-Wallet")
	}

	if len(req.Messages) == 0 {
		httputil.WriteBadRequestError(w, reqID, "messages is required")
		return
	}
	if req.Modality == "" {
		req.Modality = "text"
	}

	inputTokens := estimatePromptTokens(req.Messages)
	outputTokens := defaultCompletionTokens
	if req.MaxTokens != nil {
		if *req.MaxTokens < 0 {
			httputil.WriteBadRequestError(w, reqID, "max_tokens must be non-negative")
			return
		}
		outputTokens = *req.MaxTokens
	}
	req.EstimatedTokens = inputTokens + outputTokens

	strategyName := req.Strategy
	if strategyName == "" {
		strategyName = r.Header.Get("X-Oneflow-Strategy")
	}
	if strategyName == "" {
		strategyName = h.cfg().Routing.DefaultStrategy
	}
	strategy, err := router.ParseStrategy(strategyName)
	if err != nil {
		httputil.WriteBadRequestError(w, reqID, err.Error())
		return
	}

	plan, estimatedCredits, ok := h.buildPlan(w, reqID, &req, strategy, inputTokens, outputTokens)
	if !ok {
		return
	}

	// Wallet pre-check with the estimate; actual usage is debited after the call
	if h.ledger.Enabled() && req.WalletID != "" {
		balance, err := h.ledger.Balance(r.Context(), req.WalletID)
		if err == nil && balance < estimatedCredits {
			httputil.WriteInsufficientCreditsError(w, reqID, "Wallet balance below estimated cost")
			return
		}
		spend, err := h.ledger.CheckDailySpend(r.Context(), req.WalletID, h.cfg().Pricing.DailyLimitCredits)
		if err == nil && !spend.Allowed {
			httputil.WriteInsufficientCreditsError(w, reqID, "Daily spend limit reached")
			return
		}
	}

	h.execute(w, r, &req, plan, strategy, receivedAt)
}

// buildPlan resolves the ordered list of models to try. A pinned model gets a
// single-entry plan; otherwise the router supplies primary plus fallbacks.
func (h *Handler) buildPlan(w http.ResponseWriter, reqID string, req *types.Request, strategy router.Strategy, inputTokens, outputTokens int) ([]string, float64, bool) {
	if req.Model != "" {
		est, err := h.engine.EstimateCost(req.Model, inputTokens, outputTokens)
		if err != nil {
			if errors.Is(err, pricing.ErrUnknownModel) {
				httputil.WriteUnknownModelError(w, reqID, "Unknown model: "+req.Model)
			} else {
				httputil.WriteBadRequestError(w, reqID, err.Error())
			}
			return nil, 0, false
		}
		return []string{req.Model}, est.Credits, true
	}

	decision, err := h.rt.Route(inputTokens, outputTokens, strategy, req.Modality)
	if err != nil {
		switch {
		case errors.Is(err, router.ErrNoAvailableProvider):
			httputil.WriteServiceUnavailableError(w, reqID, "No provider available: "+err.Error())
		case errors.Is(err, pricing.ErrInvalidTokenCount):
			httputil.WriteBadRequestError(w, reqID, err.Error())
		default:
			httputil.WriteInternalError(w, reqID, err.Error())
		}
		return nil, 0, false
	}

	slog.Info("routing decision",
		"request_id", reqID,
		"primary_model", decision.PrimaryModel,
		"fallback_chain", decision.FallbackChain,
		"estimated_credits", decision.EstimatedCredits,
		"strategy", decision.StrategyUsed,
	)

	return append([]string{decision.PrimaryModel}, decision.FallbackChain...), decision.EstimatedCredits, true
}

// execute walks the plan, calling each model's provider through the resilient
// client until one succeeds.
func (h *Handler) execute(w http.ResponseWriter, r *http.Request, req *types.Request, plan []string, strategy router.Strategy, receivedAt time.Time) {
	reqID := req.RequestID

	var primaryProvider string
	for i, modelID := range plan {
		price, ok := h.engine.Table().Lookup(modelID)
		if !ok {
			continue
		}
		if i == 0 {
			primaryProvider = price.Provider
		}

		adapter, err := h.registry.Resolve(price.Provider)
		if err != nil {
			slog.Warn("skipping model without adapter", "model", modelID, "provider", price.Provider)
			continue
		}

		attempt := *req
		attempt.Model = modelID

		providerReq, err := adapter.TransformRequest(r.Context(), &attempt)
		if err != nil {
			slog.Error("failed to transform request", "error", err, "provider", adapter.Name())
			continue
		}
		client.WithIdempotencyKey(providerReq, req.IdempotencyKey)

		providerResp, err := h.client.Do(r.Context(), price.Provider, providerReq)
		if err != nil {
			var open *client.CircuitOpenError
			if errors.As(err, &open) && h.metrics != nil {
				h.metrics.RecordCircuitOpen(open.Provider)
			}
			slog.Warn("provider call failed, trying next candidate",
				"request_id", reqID,
				"model", modelID,
				"provider", price.Provider,
				"error", err,
			)
			continue
		}

		if req.Stream {
			h.finishStream(w, reqID, providerResp, adapter, modelID, i > 0, primaryProvider)
			return
		}

		resp, err := adapter.TransformResponse(r.Context(), providerResp)
		if err != nil {
			// Non-200 below 500 means the provider rejected the request
			// itself; failing over would resend a bad request.
			slog.Error("failed to process provider response", "error", err, "provider", adapter.Name())
			httputil.WriteInternalError(w, reqID, "Failed to process provider response")
			return
		}

		h.finishJSON(w, r, req, resp, modelID, strategy, receivedAt, i > 0, primaryProvider)
		return
	}

	httputil.WriteServiceUnavailableError(w, reqID, "All candidate providers failed")
}

// finishJSON prices the actual usage, debits the wallet, records metrics, and
// writes the canonical response.
func (h *Handler) finishJSON(w http.ResponseWriter, r *http.Request, req *types.Request, resp *types.Response, modelID string, strategy router.Strategy, receivedAt time.Time, fallbackUsed bool, primaryProvider string) {
	reqID := req.RequestID

	cost, err := h.engine.EstimateCost(modelID, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	if err != nil {
		slog.Warn("failed to price actual usage", "error", err, "model", modelID)
	}

	if req.WalletID != "" && cost.Credits > 0 {
		if err := h.ledger.Debit(r.Context(), req.WalletID, cost.Credits); err != nil {
			slog.Error("failed to debit wallet", "error", err, "wallet_id", req.WalletID)
		}
	}

	resp.RequestID = reqID
	resp.EstimatedCostUSD = cost.USD
	resp.CreditsCharged = cost.Credits
	resp.FallbackUsed = fallbackUsed

	totalDuration := time.Since(receivedAt)

	slog.Info("request completed",
		"request_id", reqID,
		"model_served", resp.Model,
		"provider", resp.Provider,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
		"estimated_cost_usd", resp.EstimatedCostUSD,
		"credits_charged", resp.CreditsCharged,
		"duration_ms", totalDuration.Milliseconds(),
		"strategy", strategy,
		"fallback_used", fallbackUsed,
	)

	if h.metrics != nil {
		h.metrics.RecordRequest(telemetry.RequestLabels{
			Model:            modelID,
			Provider:         resp.Provider,
			Status:           "200",
			Strategy:         string(strategy),
			DurationMs:       float64(totalDuration.Milliseconds()),
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			Credits:          resp.CreditsCharged,
		})
		if fallbackUsed {
			h.metrics.RecordFallback(primaryProvider, resp.Provider)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// finishStream forwards SSE events from the provider to the client.
func (h *Handler) finishStream(w http.ResponseWriter, reqID string, providerResp *http.Response, adapter adapters.ProviderAdapter, modelID string, fallbackUsed bool, primaryProvider string) {
	if providerResp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(providerResp.Body)
		providerResp.Body.Close()
		slog.Error("streaming provider returned error",
			"status", providerResp.StatusCode,
			"provider", adapter.Name(),
			"body", string(body),
		)
		httputil.WriteInternalError(w, reqID, "Provider returned error")
		return
	}

	slog.Info("streaming started",
		"request_id", reqID,
		"model", modelID,
		"provider", adapter.Name(),
		"fallback_used", fallbackUsed,
	)
	if h.metrics != nil && fallbackUsed {
		h.metrics.RecordFallback(primaryProvider, adapter.Name())
	}

	streamSSE(w, reqID, providerResp, adapter, fallbackUsed)
}

// Route handles POST /v1/route — a dry run that returns the routing decision
// without calling any provider.
func (h *Handler) Route(w http.ResponseWriter, r *http.Request) {
	reqID := w.Header().Get("X-Request-ID")

	var req routeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequestError(w, reqID, "Invalid JSON: "+err.Error())
		return
	}
	defer r.Body.Close()

	if req.InputTokens < 0 || req.OutputTokens < 0 {
		httputil.WriteBadRequestError(w, reqID, "token counts must be non-negative")
		return
	}

	strategy, err := router.ParseStrategy(req.Strategy)
	if err != nil {
		httputil.WriteBadRequestError(w, reqID, err.Error())
		return
	}
	modality := req.Modality
	if modality == "" {
		modality = "text"
	}

	decision, err := h.rt.Route(req.InputTokens, req.OutputTokens, strategy, modality)
	if err != nil {
		if errors.Is(err, router.ErrNoAvailableProvider) {
			httputil.WriteServiceUnavailableError(w, reqID, "No provider available: "+err.Error())
		} else {
			httputil.WriteInternalError(w, reqID, err.Error())
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(decision)
}

type routeRequest struct {
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
	Strategy     string `json:"strategy"`
	Modality     string `json:"modality"`
}

// ListModels handles GET /v1/models
func (h *Handler) ListModels(w http.ResponseWriter, r *http.Request) {
	var models []modelObject
	for _, modality := range []string{"text", "image", "audio", "video"} {
		for _, price := range h.engine.Table().ByModality(modality) {
			models = append(models, modelObject{
				ID:             price.ModelID,
				Object:         "model",
				OwnedBy:        price.Provider,
				Modality:       price.Modality,
				QualityTier:    price.QualityTier,
				InputPerMTok:   price.InputPerMTok,
				OutputPerMTok:  price.OutputPerMTok,
				TypicalLatency: price.TypicalLatencyMs,
			})
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(modelListResponse{
		Object: "list",
		Data:   models,
	})
}

// ProviderHealth handles GET /oneflow/v1/providers — circuit states per provider.
func (h *Handler) ProviderHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"providers": h.breakers.States(),
	})
}

// estimatePromptTokens approximates token usage as one token per 4 characters
// of message content.
func estimatePromptTokens(messages []types.Message) int {
	chars := 0
	for _, m := range messages {
		chars += len(m.Content)
	}
	tokens := chars / 4
	if tokens == 0 {
		tokens = 1
	}
	return tokens
}

type modelObject struct {
	ID             string  `json:"id"`
	Object         string  `json:"object"`
	OwnedBy        string  `json:"owned_by"`
	Modality       string  `json:"modality"`
	QualityTier    int     `json:"quality_tier"`
	InputPerMTok   float64 `json:"input_per_mtok"`
	OutputPerMTok  float64 `json:"output_per_mtok"`
	TypicalLatency int     `json:"typical_latency_ms"`
}

type modelListResponse struct {
	Object string        `json:"object"`
	Data   []modelObject `json:"data"`
}
