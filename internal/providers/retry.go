package providers

import (
	"context"
	"time"
)

// ChatWithRetry wraps a completion call with a small bounded retry for
// rate-limit and transient failures. Backoff grows linearly per attempt;
// permanent and context-length errors return immediately.
func ChatWithRetry(ctx context.Context, p ChatProvider, req ChatRequest, attempts int) (ChatResponse, ProviderInfo, error) {
	if attempts <= 0 {
		attempts = 1
	}
	var (
		resp    ChatResponse
		info    ProviderInfo
		lastErr error
	)
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ChatResponse{}, info, ctx.Err()
			case <-time.After(time.Duration(attempt) * 2 * time.Second):
			}
		}
		var err error
		resp, info, err = p.Chat(ctx, req)
		if err == nil {
			return resp, info, nil
		}
		lastErr = err
		if !Retryable(ClassifyError(err)) {
			break
		}
	}
	return ChatResponse{}, info, lastErr
}
