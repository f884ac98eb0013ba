package provider

import (
	"context"
	"strings"
)

// Gateway is the outbound message provider port. Status callbacks for a sent
// message arrive later, out of band.
type Gateway interface {
	Send(ctx context.Context, msg Message) (*SendResult, error)
}

// Message is one outbound message to one destination.
type Message struct {
	To   string
	Body string
}

// SendResult is what the provider reports synchronously. Status is the
// provider's raw status string.
type SendResult struct {
	ProviderRef  string
	Status       string
	ErrorCode    string
	ErrorMessage string
}

// Unconfigured fails every send. It stands in for a gateway whose credentials
// are missing, so each delivery is still recorded.
type Unconfigured struct {
	Name string
}

func (u Unconfigured) Send(context.Context, Message) (*SendResult, error) {
	name := strings.TrimSpace(u.Name)
	if name == "" {
		name = "provider"
	}
	return nil, &ProviderError{Message: name + " is not configured"}
}
