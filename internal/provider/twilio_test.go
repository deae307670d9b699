package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-resty/resty/v2"
)

func newTestTwilioProvider(t *testing.T, baseURL string) *TwilioProvider {
	t.Helper()

	p, err := NewTwilioProviderWithClient(TwilioConfig{
		AccountSID:         "AC123",
		AuthToken:          "secret",
		FromNumber:         "+15550001111",
		DefaultCountryCode: "+91",
		BaseURL:            baseURL,
	}, resty.New(), nil)
	if err != nil {
		t.Fatalf("NewTwilioProviderWithClient() error = %v", err)
	}
	return p
}

func TestTwilioNormalizeNumber(t *testing.T) {
	t.Parallel()

	p := newTestTwilioProvider(t, "http://localhost")

	tests := []struct {
		raw    string
		want   string
		wantOK bool
	}{
		{raw: "9876543210", want: "+919876543210", wantOK: true},
		{raw: " 98765-43210 ", want: "+919876543210", wantOK: true},
		{raw: "+1 (555) 123-4567", want: "+15551234567", wantOK: true},
		{raw: "009876543210", want: "+919876543210", wantOK: true},
		{raw: "0044 20 7946 0958", wantOK: false},
		{raw: "00919876543210", wantOK: false},
		{raw: "12345", wantOK: false},
		{raw: "919876543210", wantOK: false},
		{raw: "abc", wantOK: false},
		{raw: "", wantOK: false},
	}

	for _, tt := range tests {
		got, ok := p.NormalizeNumber(tt.raw)
		if ok != tt.wantOK {
			t.Fatalf("NormalizeNumber(%q) ok = %v, want %v", tt.raw, ok, tt.wantOK)
		}
		if ok && got != tt.want {
			t.Fatalf("NormalizeNumber(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestTwilioNormalizeNumberWithoutPlusInCountryCode(t *testing.T) {
	t.Parallel()

	p, err := NewTwilioProviderWithClient(TwilioConfig{DefaultCountryCode: "44"}, resty.New(), nil)
	if err != nil {
		t.Fatalf("NewTwilioProviderWithClient() error = %v", err)
	}

	got, ok := p.NormalizeNumber("7946095812")
	if !ok || got != "+447946095812" {
		t.Fatalf("NormalizeNumber() = %q, %v, want +447946095812, true", got, ok)
	}
}

func TestTwilioReady(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  TwilioConfig
		want bool
	}{
		{name: "all credentials", cfg: TwilioConfig{AccountSID: "AC1", AuthToken: "t", FromNumber: "+1"}, want: true},
		{name: "missing sid", cfg: TwilioConfig{AuthToken: "t", FromNumber: "+1"}, want: false},
		{name: "blank token", cfg: TwilioConfig{AccountSID: "AC1", AuthToken: "  ", FromNumber: "+1"}, want: false},
		{name: "missing from", cfg: TwilioConfig{AccountSID: "AC1", AuthToken: "t"}, want: false},
	}

	for _, tt := range tests {
		p, err := NewTwilioProviderWithClient(tt.cfg, resty.New(), nil)
		if err != nil {
			t.Fatalf("%s: NewTwilioProviderWithClient() error = %v", tt.name, err)
		}
		if got := p.Ready(); got != tt.want {
			t.Fatalf("%s: Ready() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestTwilioSendBatchPostsOneRequestPerRecipient(t *testing.T) {
	t.Parallel()

	var (
		mu       sync.Mutex
		gotTo    []string
		gotFrom  string
		gotBody  string
		gotPath  string
		authUser string
		authPass string
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm() error = %v", err)
		}

		mu.Lock()
		gotPath = r.URL.Path
		gotTo = append(gotTo, r.PostForm.Get("To"))
		gotFrom = r.PostForm.Get("From")
		gotBody = r.PostForm.Get("Body")
		authUser, authPass, _ = r.BasicAuth()
		mu.Unlock()

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sid":"SM1","status":"queued"}`))
	}))
	defer server.Close()

	p := newTestTwilioProvider(t, server.URL)

	sent, err := p.SendBatch(context.Background(), []string{"9876543210", "+15551234567", "bad", "+91 98765 43210"}, "hello")
	if err != nil {
		t.Fatalf("SendBatch() unexpected error: %v", err)
	}

	want := []string{"+919876543210", "+15551234567"}
	if strings.Join(sent, ",") != strings.Join(want, ",") {
		t.Fatalf("SendBatch() = %v, want %v", sent, want)
	}
	if strings.Join(gotTo, ",") != strings.Join(want, ",") {
		t.Fatalf("requests To = %v, want %v", gotTo, want)
	}
	if gotPath != "/2010-04-01/Accounts/AC123/Messages.json" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotFrom != "+15550001111" || gotBody != "hello" {
		t.Fatalf("form From=%q Body=%q", gotFrom, gotBody)
	}
	if authUser != "AC123" || authPass != "secret" {
		t.Fatalf("basic auth = %q/%q, want AC123/secret", authUser, authPass)
	}
}

func TestTwilioSendBatchSkipsFailedRecipients(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.PostForm.Get("To") == "+911111111111" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"message":"invalid To"}`))
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	p := newTestTwilioProvider(t, server.URL)

	sent, err := p.SendBatch(context.Background(), []string{"1111111111", "2222222222"}, "hello")
	if err != nil {
		t.Fatalf("SendBatch() unexpected error: %v", err)
	}
	if len(sent) != 1 || sent[0] != "+912222222222" {
		t.Fatalf("SendBatch() = %v, want [+912222222222]", sent)
	}
}

func TestTwilioSendBatchNotReady(t *testing.T) {
	t.Parallel()

	p, err := NewTwilioProviderWithClient(TwilioConfig{}, resty.New(), nil)
	if err != nil {
		t.Fatalf("NewTwilioProviderWithClient() error = %v", err)
	}

	_, err = p.SendBatch(context.Background(), []string{"9876543210"}, "hello")
	if !errors.Is(err, ErrNotReady) {
		t.Fatalf("SendBatch() error = %v, want ErrNotReady", err)
	}
}

func TestTwilioSendBatchStopsOnCanceledContext(t *testing.T) {
	t.Parallel()

	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	p := newTestTwilioProvider(t, server.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sent, err := p.SendBatch(ctx, []string{"9876543210"}, "hello")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("SendBatch() error = %v, want context.Canceled", err)
	}
	if len(sent) != 0 || calls != 0 {
		t.Fatalf("SendBatch() sent = %v calls = %d, want none", sent, calls)
	}
}

func TestNewTwilioProviderWithClientValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewTwilioProviderWithClient(TwilioConfig{}, nil, nil); err == nil {
		t.Fatal("expected error for nil client")
	}
	if _, err := NewTwilioProviderWithClient(TwilioConfig{BaseURL: "not a url"}, resty.New(), nil); err == nil {
		t.Fatal("expected error for invalid base url")
	}
}
