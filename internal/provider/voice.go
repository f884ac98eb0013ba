package provider

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// VoiceStub accepts voice alerts without placing calls. It reports each send as
// queued under a fresh reference, the same shape the text gateway returns.
type VoiceStub struct{}

func (VoiceStub) Send(ctx context.Context, msg Message) (*SendResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, &ProviderError{Message: "voice send canceled", Cause: err}
	}
	if strings.TrimSpace(msg.Body) == "" {
		return nil, &ProviderError{Message: "audio reference is required"}
	}
	return &SendResult{ProviderRef: "VC" + strings.ReplaceAll(uuid.NewString(), "-", ""), Status: "queued"}, nil
}
