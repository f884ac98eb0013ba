package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
)

func testTwilioConfig(baseURL string) TwilioConfig {
	return TwilioConfig{
		BaseURL:           baseURL,
		AccountSID:        "AC123",
		AuthToken:         "secret",
		FromNumber:        "+12015550100",
		StatusCallbackURL: "https://alerts.example.com/v1/webhooks/provider/status",
	}
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func TestTwilioGatewaySendSuccess(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/2010-04-01/Accounts/AC123/Messages.json" {
			t.Errorf("path = %s, want messages endpoint", r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "AC123" || pass != "secret" {
			t.Errorf("basic auth = %q/%q, want account credentials", user, pass)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm() error = %v", err)
		}
		want := map[string]string{
			"To":             "+12015550123",
			"From":           "+12015550100",
			"Body":           "Storm warning",
			"StatusCallback": "https://alerts.example.com/v1/webhooks/provider/status",
		}
		for k, v := range want {
			if got := r.PostForm.Get(k); got != v {
				t.Errorf("form %s = %q, want %q", k, got, v)
			}
		}

		writeJSON(w, http.StatusCreated, `{"sid":"SM1","status":"queued","error_code":null,"error_message":null}`)
	}))
	defer server.Close()

	g, err := NewTwilioGateway(testTwilioConfig(server.URL))
	if err != nil {
		t.Fatalf("NewTwilioGateway() error = %v", err)
	}

	result, err := g.Send(context.Background(), Message{To: "+12015550123", Body: "Storm warning"})
	if err != nil {
		t.Fatalf("Send() unexpected error: %v", err)
	}
	if result.ProviderRef != "SM1" {
		t.Fatalf("ProviderRef = %q, want %q", result.ProviderRef, "SM1")
	}
	if result.Status != "queued" {
		t.Fatalf("Status = %q, want %q", result.Status, "queued")
	}
}

func TestTwilioGatewaySendImmediateFailureStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, `{"sid":"SM2","status":"undelivered","error_code":30003,"error_message":"Unreachable destination handset"}`)
	}))
	defer server.Close()

	g, err := NewTwilioGateway(testTwilioConfig(server.URL))
	if err != nil {
		t.Fatalf("NewTwilioGateway() error = %v", err)
	}

	result, err := g.Send(context.Background(), Message{To: "+12015550123", Body: "hi"})
	if err != nil {
		t.Fatalf("Send() unexpected error: %v", err)
	}
	if result.Status != "undelivered" || result.ErrorCode != "30003" || result.ErrorMessage != "Unreachable destination handset" {
		t.Fatalf("Send() = %+v, want undelivered with error details", result)
	}
}

func TestTwilioGatewaySendErrorClassification(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name                string
		statusCode          int
		body                string
		plainText           bool
		wantTransient       bool
		wantAddressRejected bool
		wantCode            string
		wantReason          string
	}{
		{
			name:                "invalid destination is rejected",
			statusCode:          http.StatusBadRequest,
			body:                `{"code":21211,"message":"The 'To' number is not a valid phone number.","status":400}`,
			wantAddressRejected: true,
			wantCode:            "21211",
			wantReason:          "The 'To' number is not a valid phone number.",
		},
		{
			name:       "auth failure is permanent",
			statusCode: http.StatusUnauthorized,
			body:       `{"code":20003,"message":"Authenticate","status":401}`,
			wantCode:   "20003",
			wantReason: "Authenticate",
		},
		{
			name:          "too many requests is transient",
			statusCode:    http.StatusTooManyRequests,
			body:          `{"code":20429,"message":"Too Many Requests","status":429}`,
			wantTransient: true,
			wantCode:      "20429",
			wantReason:    "Too Many Requests",
		},
		{
			name:          "non json gateway error is transient",
			statusCode:    http.StatusBadGateway,
			body:          `bad gateway`,
			plainText:     true,
			wantTransient: true,
			wantReason:    "provider returned status 502: bad gateway",
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tc.plainText {
					w.Header().Set("Content-Type", "text/plain")
					w.WriteHeader(tc.statusCode)
					_, _ = w.Write([]byte(tc.body))
					return
				}
				writeJSON(w, tc.statusCode, tc.body)
			}))
			defer server.Close()

			g, err := NewTwilioGateway(testTwilioConfig(server.URL))
			if err != nil {
				t.Fatalf("NewTwilioGateway() error = %v", err)
			}

			_, err = g.Send(context.Background(), Message{To: "+12015550123", Body: "hi"})
			if err == nil {
				t.Fatal("expected error")
			}

			var providerErr *ProviderError
			if !errors.As(err, &providerErr) {
				t.Fatalf("expected ProviderError, got %T", err)
			}
			if providerErr.StatusCode != tc.statusCode {
				t.Fatalf("StatusCode = %d, want %d", providerErr.StatusCode, tc.statusCode)
			}
			if providerErr.Code != tc.wantCode {
				t.Fatalf("Code = %q, want %q", providerErr.Code, tc.wantCode)
			}
			if got := IsTransient(err); got != tc.wantTransient {
				t.Fatalf("IsTransient() = %v, want %v", got, tc.wantTransient)
			}
			if got := IsAddressRejected(err); got != tc.wantAddressRejected {
				t.Fatalf("IsAddressRejected() = %v, want %v", got, tc.wantAddressRejected)
			}
			if got := Reason(err); got != tc.wantReason {
				t.Fatalf("Reason() = %q, want %q", got, tc.wantReason)
			}
		})
	}
}

func TestTwilioGatewaySendTimeoutIsTransient(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		writeJSON(w, http.StatusCreated, `{"sid":"SM3","status":"queued"}`)
	}))
	defer server.Close()

	client := resty.New()
	client.SetTimeout(30 * time.Millisecond)

	g, err := NewTwilioGatewayWithClient(testTwilioConfig(server.URL), client)
	if err != nil {
		t.Fatalf("NewTwilioGatewayWithClient() error = %v", err)
	}

	_, err = g.Send(context.Background(), Message{To: "+12015550123", Body: "hi"})
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !IsTransient(err) {
		t.Fatalf("IsTransient() = false, want true (err=%v)", err)
	}
}

func TestNewTwilioGatewayValidation(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		mutate func(*TwilioConfig)
	}{
		{name: "missing account sid", mutate: func(c *TwilioConfig) { c.AccountSID = "" }},
		{name: "missing auth token", mutate: func(c *TwilioConfig) { c.AuthToken = " " }},
		{name: "missing from number", mutate: func(c *TwilioConfig) { c.FromNumber = "" }},
		{name: "invalid base url", mutate: func(c *TwilioConfig) { c.BaseURL = "not a url" }},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg := testTwilioConfig("https://api.twilio.com")
			tc.mutate(&cfg)
			if _, err := NewTwilioGateway(cfg); err == nil {
				t.Fatal("NewTwilioGateway() error = nil, want error")
			}
		})
	}
}

func TestVoiceStubSend(t *testing.T) {
	t.Parallel()

	result, err := VoiceStub{}.Send(context.Background(), Message{To: "+12015550123", Body: "https://cdn.example.com/a.m4a"})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if result.Status != "queued" || len(result.ProviderRef) != 34 {
		t.Fatalf("Send() = %+v, want queued with a 34 character reference", result)
	}

	if _, err := (VoiceStub{}).Send(context.Background(), Message{To: "+12015550123"}); err == nil {
		t.Fatal("Send() without audio should fail")
	}
}

func TestUnconfiguredSend(t *testing.T) {
	t.Parallel()

	_, err := Unconfigured{Name: "sms gateway"}.Send(context.Background(), Message{To: "+12015550123", Body: "hi"})
	if err == nil {
		t.Fatal("Send() error = nil, want error")
	}
	if got := Reason(err); got != "sms gateway is not configured" {
		t.Fatalf("Reason() = %q, want %q", got, "sms gateway is not configured")
	}
}

func TestReason(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "plain error", err: errors.New("boom"), want: "boom"},
		{name: "provider code only", err: &ProviderError{Code: "30008"}, want: "Provider error: 30008"},
		{name: "wrapped provider message", err: errors.Join(errors.New("ctx"), &ProviderError{Message: "blocked"}), want: "blocked"},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Reason(tc.err); got != tc.want {
				t.Fatalf("Reason() = %q, want %q", got, tc.want)
			}
		})
	}
}
