package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	DefaultTwilioBaseURL = "https://api.twilio.com"
	defaultTwilioTimeout = 10 * time.Second
)

// Twilio error codes that reject the destination rather than the request.
var addressRejectedCodes = map[int]struct{}{
	21211: {}, // invalid 'To' number
	21214: {}, // 'To' number cannot be reached
	21610: {}, // recipient unsubscribed
	21612: {}, // 'To' number not currently reachable
	21614: {}, // 'To' number is not a mobile number
}

type TwilioConfig struct {
	BaseURL           string
	AccountSID        string
	AuthToken         string
	FromNumber        string
	StatusCallbackURL string
	Timeout           time.Duration
}

type twilioMessageResponse struct {
	SID          string  `json:"sid"`
	Status       string  `json:"status"`
	ErrorCode    *int    `json:"error_code"`
	ErrorMessage *string `json:"error_message"`
}

type twilioErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}

// TwilioGateway sends SMS through the Twilio Messages REST API.
type TwilioGateway struct {
	client   *resty.Client
	cfg      TwilioConfig
	endpoint string
}

func NewTwilioGateway(cfg TwilioConfig) (*TwilioGateway, error) {
	client := resty.New()
	client.SetTimeout(defaultTwilioTimeout)

	return NewTwilioGatewayWithClient(cfg, client)
}

func NewTwilioGatewayWithClient(cfg TwilioConfig, client *resty.Client) (*TwilioGateway, error) {
	if client == nil {
		return nil, fmt.Errorf("resty client is required")
	}

	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultTwilioBaseURL
	}
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid provider base url: %w", err)
	}
	cfg.AccountSID = strings.TrimSpace(cfg.AccountSID)
	cfg.FromNumber = strings.TrimSpace(cfg.FromNumber)
	if cfg.AccountSID == "" || strings.TrimSpace(cfg.AuthToken) == "" {
		return nil, fmt.Errorf("provider account sid and auth token are required")
	}
	if cfg.FromNumber == "" {
		return nil, fmt.Errorf("provider from number is required")
	}

	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	} else if client.GetClient().Timeout == 0 {
		client.SetTimeout(defaultTwilioTimeout)
	}
	client.SetRetryCount(0)
	client.SetBasicAuth(cfg.AccountSID, cfg.AuthToken)

	return &TwilioGateway{
		client:   client,
		cfg:      cfg,
		endpoint: fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", cfg.BaseURL, url.PathEscape(cfg.AccountSID)),
	}, nil
}

func (g *TwilioGateway) Send(ctx context.Context, msg Message) (*SendResult, error) {
	if g == nil || g.client == nil {
		return nil, fmt.Errorf("provider is not initialized")
	}

	form := map[string]string{
		"To":   msg.To,
		"From": g.cfg.FromNumber,
		"Body": msg.Body,
	}
	if g.cfg.StatusCallbackURL != "" {
		form["StatusCallback"] = g.cfg.StatusCallbackURL
	}

	var ok twilioMessageResponse
	var failed twilioErrorResponse
	response, err := g.client.R().
		SetContext(ctx).
		SetFormData(form).
		SetResult(&ok).
		SetError(&failed).
		Post(g.endpoint)
	if err != nil {
		return nil, &ProviderError{
			Message:   "provider request failed",
			Transient: !errors.Is(err, context.Canceled),
			Cause:     err,
		}
	}
	if response == nil {
		return nil, &ProviderError{Message: "provider returned empty response", Transient: true}
	}

	statusCode := response.StatusCode()
	if statusCode >= http.StatusOK && statusCode < http.StatusMultipleChoices {
		if strings.TrimSpace(ok.SID) == "" {
			return nil, &ProviderError{StatusCode: statusCode, Message: "provider response has no message sid"}
		}
		result := &SendResult{ProviderRef: ok.SID, Status: ok.Status}
		if ok.ErrorCode != nil {
			result.ErrorCode = strconv.Itoa(*ok.ErrorCode)
		}
		if ok.ErrorMessage != nil {
			result.ErrorMessage = *ok.ErrorMessage
		}
		return result, nil
	}

	pe := &ProviderError{
		StatusCode: statusCode,
		Message:    strings.TrimSpace(failed.Message),
		Transient:  isTransientHTTPStatus(statusCode),
	}
	if failed.Code != 0 {
		pe.Code = strconv.Itoa(failed.Code)
		_, pe.AddressRejected = addressRejectedCodes[failed.Code]
	}
	if pe.Message == "" {
		pe.Message = providerErrorMessage(statusCode, strings.TrimSpace(response.String()))
	}
	return nil, pe
}

func isTransientHTTPStatus(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests || (statusCode >= http.StatusInternalServerError && statusCode <= 599)
}

func providerErrorMessage(statusCode int, body string) string {
	base := fmt.Sprintf("provider returned status %d", statusCode)
	if body == "" {
		return base
	}
	return fmt.Sprintf("%s: %s", base, body)
}
