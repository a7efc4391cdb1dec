package gateway

import (
	"bufio"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/voroninsergei/oneflow-ai-sub000/internal/httputil"
	"github.com/voroninsergei/oneflow-ai-sub000/internal/router/adapters"
)

// streamSSE relays provider SSE events to the caller. Each data payload runs
// through the adapter's TransformStreamChunk so vendor-specific stream formats
// reach the caller as canonical chunks.
func streamSSE(w http.ResponseWriter, reqID string, providerResp *http.Response, adapter adapters.ProviderAdapter, fallbackUsed bool) {
	defer providerResp.Body.Close()

	flusher, ok := w.(http.Flusher)
	if !ok {
		httputil.WriteInternalError(w, reqID, "Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Request-ID", reqID)
	if fallbackUsed {
		w.Header().Set("X-Oneflow-Fallback", "true")
	}
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	scanner := bufio.NewScanner(providerResp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	chunks := 0
	for scanner.Scan() {
		line := scanner.Text()

		if !strings.HasPrefix(line, "data: ") {
			// event: lines and blank keep-alives pass through untouched
			if strings.HasPrefix(line, "event: ") || line == "" {
				fmt.Fprintf(w, "%s\n", line)
				flusher.Flush()
			}
			continue
		}

		payload := strings.TrimPrefix(line, "data: ")
		if payload == "[DONE]" {
			finishSSE(w, flusher, reqID, adapter.Name(), chunks)
			return
		}

		chunk, err := adapter.TransformStreamChunk([]byte(payload))
		if err != nil {
			slog.Error("failed to transform stream chunk",
				"request_id", reqID, "provider", adapter.Name(), "error", err)
			continue
		}
		// nil: vendor bookkeeping event with no canonical equivalent
		if chunk == nil {
			continue
		}
		// Adapters signal vendor end-of-stream events as [DONE]
		if string(chunk) == "[DONE]" {
			finishSSE(w, flusher, reqID, adapter.Name(), chunks)
			return
		}

		fmt.Fprintf(w, "data: %s\n\n", chunk)
		flusher.Flush()
		chunks++
	}

	if err := scanner.Err(); err != nil {
		slog.Error("stream read failed",
			"request_id", reqID, "provider", adapter.Name(), "error", err)
	}
}

// finishSSE terminates the stream with the [DONE] sentinel.
func finishSSE(w http.ResponseWriter, flusher http.Flusher, reqID, provider string, chunks int) {
	fmt.Fprintf(w, "data: [DONE]\n\n")
	flusher.Flush()
	slog.Info("stream completed",
		"request_id", reqID, "provider", provider, "chunks", chunks)
}
