package udf

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/openai/openai-go"

	"github.com/hpn/hpn-chatgpt-udf/internal/adapter"
	"github.com/hpn/hpn-chatgpt-udf/internal/domain"
)

// fakeProvider records requests and answers through respond.
type fakeProvider struct {
	mu       sync.Mutex
	requests []adapter.OpenAIRequest
	respond  func(call int, req adapter.OpenAIRequest) (adapter.OpenAIResponse, error)
}

func (f *fakeProvider) ChatCompletion(_ context.Context, req adapter.OpenAIRequest) (adapter.OpenAIResponse, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	call := len(f.requests)
	f.mu.Unlock()
	return f.respond(call, req)
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func answer(text string) adapter.OpenAIResponse {
	return adapter.OpenAIResponse{
		Choices: []adapter.OpenAIChoice{{Message: adapter.OpenAIMessage{Role: adapter.RoleAssistant, Content: text}}},
		Usage:   adapter.OpenAIUsage{PromptTokens: 10, CompletionTokens: 2, TotalTokens: 12},
	}
}

// echoTask answers with the task message of the request.
func echoTask(_ int, req adapter.OpenAIRequest) (adapter.OpenAIResponse, error) {
	return answer("answer to " + req.Messages[2].Content), nil
}

type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.delays = append(s.delays, d)
	s.mu.Unlock()
	return ctx.Err()
}

func staticChain(key string) domain.CredentialChain {
	return domain.NewCredentialChain(domain.CredentialFunc{
		Source: "test",
		Lookup: func() string { return key },
	})
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestUDF wires a UDF to provider with a recorded, non-blocking sleep.
func newTestUDF(provider *fakeProvider, sleeps *sleepRecorder, gotKey *string) *ChatGPT {
	factory := func(apiKey string) adapter.AIProvider {
		if gotKey != nil {
			*gotKey = apiKey
		}
		return provider
	}
	return New(staticChain("sk-test"), factory,
		WithLogger(discardLogger()),
		WithSleep(sleeps.sleep),
	)
}

func TestSetup(t *testing.T) {
	u := New(staticChain("sk-test"), nil, WithLogger(discardLogger()))

	if u.Model() != domain.ModelGPT35Turbo || u.Temperature() != 0 {
		t.Fatalf("defaults = %s @ %v, want gpt-3.5-turbo @ 0", u.Model(), u.Temperature())
	}

	for _, m := range domain.SupportedModelNames() {
		if err := u.Setup(m, 0.3); err != nil {
			t.Errorf("Setup(%s) error = %v", m, err)
		}
	}

	if err := u.Setup("gpt-4", 0.5); err != nil {
		t.Fatalf("Setup(gpt-4) error = %v", err)
	}
	err := u.Setup("gpt-4o", 1.0)
	var unsupported *domain.UnsupportedModelError
	if !errors.As(err, &unsupported) {
		t.Fatalf("Setup(gpt-4o) error = %v, want *UnsupportedModelError", err)
	}
	if !domain.IsConfigurationError(err) {
		t.Error("IsConfigurationError() = false for unsupported model")
	}
	if u.Model() != domain.ModelGPT4 || u.Temperature() != 0.5 {
		t.Errorf("failed Setup changed state to %s @ %v", u.Model(), u.Temperature())
	}
}

func TestWithSetup_LeavesOriginal(t *testing.T) {
	u := New(staticChain("sk-test"), nil, WithLogger(discardLogger()))

	clone, err := u.WithSetup("gpt-4-32k", 0.9)
	if err != nil {
		t.Fatalf("WithSetup() error = %v", err)
	}
	if clone.Model() != domain.ModelGPT432K || clone.Temperature() != 0.9 {
		t.Errorf("clone = %s @ %v", clone.Model(), clone.Temperature())
	}
	if u.Model() != domain.DefaultModel || u.Temperature() != 0 {
		t.Errorf("original changed to %s @ %v", u.Model(), u.Temperature())
	}

	if _, err := u.WithSetup("davinci", 0); err == nil {
		t.Error("WithSetup(davinci) error = nil")
	}
}

func TestDescriptor(t *testing.T) {
	d := New(nil, nil).Descriptor()

	if d.Name != "ChatGPT" || d.Category != Category {
		t.Errorf("Descriptor() name/category = %s/%s", d.Name, d.Category)
	}
	if d.Cacheable || !d.Batchable {
		t.Errorf("Descriptor() cacheable=%v batchable=%v, want false/true", d.Cacheable, d.Batchable)
	}
	if len(d.Inputs) != 1 || len(d.Inputs[0].Columns) != 3 {
		t.Errorf("Descriptor() inputs = %+v", d.Inputs)
	}
	if len(d.Outputs) != 1 || d.Outputs[0].Columns[0].Name != "response" {
		t.Errorf("Descriptor() outputs = %+v", d.Outputs)
	}
}

func TestForward_PreservesOrderAndLength(t *testing.T) {
	provider := &fakeProvider{respond: echoTask}
	sleeps := &sleepRecorder{}
	var gotKey string
	u := newTestUDF(provider, sleeps, &gotKey)

	queries := []string{"q0", "q1", "q2", "q3"}
	out, err := u.Forward(context.Background(), domain.NewBatch(queries, []string{"c0", "c1", "c2", "c3"}))
	if err != nil {
		t.Fatalf("Forward() error = %v", err)
	}

	want := []string{
		"answer to Complete the following task: q0",
		"answer to Complete the following task: q1",
		"answer to Complete the following task: q2",
		"answer to Complete the following task: q3",
	}
	if got := out.Column().Values; !reflect.DeepEqual(got, want) {
		t.Errorf("response column = %v, want %v", got, want)
	}
	if gotKey != "sk-test" {
		t.Errorf("factory key = %q, want sk-test", gotKey)
	}
	if out.Usage.TotalTokens != 48 {
		t.Errorf("Usage.TotalTokens = %d, want 48", out.Usage.TotalTokens)
	}
	if len(sleeps.delays) != 0 {
		t.Errorf("sleeps = %v, want none", sleeps.delays)
	}
}

func TestForward_MessageAssembly(t *testing.T) {
	tests := []struct {
		name        string
		batch       domain.Batch
		wantSystem  string
		wantContext []string
	}{
		{
			name:        "query only uses query as content",
			batch:       domain.NewBatch([]string{"What is Go?", "Why?"}),
			wantSystem:  DefaultSystemPrompt,
			wantContext: []string{"Here is some context : What is Go?", "Here is some context : Why?"},
		},
		{
			name:        "query and content",
			batch:       domain.NewBatch([]string{"Summarize"}, []string{"A long article"}),
			wantSystem:  DefaultSystemPrompt,
			wantContext: []string{"Here is some context : A long article"},
		},
		{
			name: "prompt row 0 applies to all rows",
			batch: domain.NewBatch(
				[]string{"a", "b", "c"},
				[]string{"x", "y", "z"},
				[]string{"Be terse.", "ignored", "also ignored"},
			),
			wantSystem:  "Be terse.",
			wantContext: []string{"Here is some context : x", "Here is some context : y", "Here is some context : z"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &fakeProvider{respond: echoTask}
			u := newTestUDF(provider, &sleepRecorder{}, nil)

			if _, err := u.Forward(context.Background(), tt.batch); err != nil {
				t.Fatalf("Forward() error = %v", err)
			}
			if provider.calls() != len(tt.wantContext) {
				t.Fatalf("calls = %d, want %d", provider.calls(), len(tt.wantContext))
			}

			queries := tt.batch.Queries()
			for i, req := range provider.requests {
				if len(req.Messages) != 3 {
					t.Fatalf("row %d: %d messages, want 3", i, len(req.Messages))
				}
				if req.Messages[0].Role != adapter.RoleSystem || req.Messages[0].Content != tt.wantSystem {
					t.Errorf("row %d system = %+v, want %q", i, req.Messages[0], tt.wantSystem)
				}
				if req.Messages[1].Content != tt.wantContext[i] {
					t.Errorf("row %d context = %q, want %q", i, req.Messages[1].Content, tt.wantContext[i])
				}
				if want := "Complete the following task: " + queries[i]; req.Messages[2].Content != want {
					t.Errorf("row %d task = %q, want %q", i, req.Messages[2].Content, want)
				}
				if req.Model != "gpt-3.5-turbo" || req.Temperature != 0 {
					t.Errorf("row %d model/temperature = %s/%v", i, req.Model, req.Temperature)
				}
			}
		})
	}
}

func TestForward_AlwaysFailingRow(t *testing.T) {
	rateLimit := errors.New("Rate limit reached for gpt-3.5-turbo")
	provider := &fakeProvider{respond: func(_ int, req adapter.OpenAIRequest) (adapter.OpenAIResponse, error) {
		if strings.HasSuffix(req.Messages[2].Content, "bad") {
			return adapter.OpenAIResponse{}, rateLimit
		}
		return answer("ok"), nil
	}}
	sleeps := &sleepRecorder{}
	u := newTestUDF(provider, sleeps, nil)

	out, err := u.Forward(context.Background(), domain.NewBatch([]string{"bad", "good"}))
	if err != nil {
		t.Fatalf("Forward() error = %v", err)
	}

	if got := out.Column().Values; !reflect.DeepEqual(got, []string{rateLimit.Error(), "ok"}) {
		t.Errorf("response column = %v", got)
	}
	if out.Results[0].OK() || out.Results[0].Attempts != 6 {
		t.Errorf("row 0 = %+v, want Failure after 6 attempts", out.Results[0])
	}
	if !out.Results[1].OK() || out.Results[1].Attempts != 1 {
		t.Errorf("row 1 = %+v, want Success after 1 attempt", out.Results[1])
	}
	if provider.calls() != 7 {
		t.Errorf("calls = %d, want 7", provider.calls())
	}

	wantDelays := []time.Duration{20 * time.Second, 20 * time.Second, 20 * time.Second, 20 * time.Second, 20 * time.Second}
	if !reflect.DeepEqual(sleeps.delays, wantDelays) {
		t.Errorf("delays = %v, want %v", sleeps.delays, wantDelays)
	}
	if out.FailedRows() != 1 {
		t.Errorf("FailedRows() = %d, want 1", out.FailedRows())
	}
}

func TestForward_SucceedsOnThirdAttempt(t *testing.T) {
	provider := &fakeProvider{respond: func(call int, _ adapter.OpenAIRequest) (adapter.OpenAIResponse, error) {
		if call <= 2 {
			return adapter.OpenAIResponse{}, errors.New("connection reset by peer")
		}
		return answer("finally"), nil
	}}
	sleeps := &sleepRecorder{}
	u := newTestUDF(provider, sleeps, nil)

	out, err := u.Forward(context.Background(), domain.NewBatch([]string{"q"}))
	if err != nil {
		t.Fatalf("Forward() error = %v", err)
	}

	if out.Results[0].Text != "finally" || out.Results[0].Attempts != 3 {
		t.Errorf("row 0 = %+v, want finally after 3 attempts", out.Results[0])
	}
	if want := []time.Duration{20 * time.Second, 20 * time.Second}; !reflect.DeepEqual(sleeps.delays, want) {
		t.Errorf("delays = %v, want %v", sleeps.delays, want)
	}
}

func TestForward_CustomRetryPolicy(t *testing.T) {
	provider := &fakeProvider{respond: func(int, adapter.OpenAIRequest) (adapter.OpenAIResponse, error) {
		return adapter.OpenAIResponse{}, errors.New("timeout")
	}}
	sleeps := &sleepRecorder{}
	u := New(staticChain("sk-test"), func(string) adapter.AIProvider { return provider },
		WithLogger(discardLogger()),
		WithSleep(sleeps.sleep),
		WithRetryPolicy(RetryPolicy{Attempts: 2, Delay: time.Millisecond}),
	)

	out, err := u.Forward(context.Background(), domain.NewBatch([]string{"q"}))
	if err != nil {
		t.Fatalf("Forward() error = %v", err)
	}
	if out.Results[0].Attempts != 2 || provider.calls() != 2 {
		t.Errorf("attempts = %d, calls = %d, want 2", out.Results[0].Attempts, provider.calls())
	}
	if want := []time.Duration{time.Millisecond}; !reflect.DeepEqual(sleeps.delays, want) {
		t.Errorf("delays = %v, want %v", sleeps.delays, want)
	}
}

func TestForward_NoCredential(t *testing.T) {
	var built int32
	factory := func(string) adapter.AIProvider {
		atomic.AddInt32(&built, 1)
		return &fakeProvider{respond: echoTask}
	}
	u := New(staticChain(""), factory, WithLogger(discardLogger()))

	_, err := u.Forward(context.Background(), domain.NewBatch([]string{"q"}))
	var missing *domain.MissingCredentialError
	if !errors.As(err, &missing) {
		t.Fatalf("Forward() error = %v, want *MissingCredentialError", err)
	}
	if !strings.Contains(err.Error(), "OPENAI_KEY") {
		t.Errorf("error %q lacks remediation hint", err)
	}
	if built != 0 {
		t.Errorf("provider built %d times before credential check", built)
	}
	if _, ok := u.CredentialSource(); ok {
		t.Error("CredentialSource() ok = true with empty chain")
	}
}

func TestForward_SchemaError(t *testing.T) {
	provider := &fakeProvider{respond: echoTask}
	u := newTestUDF(provider, &sleepRecorder{}, nil)

	_, err := u.Forward(context.Background(), domain.NewBatch([]string{"a", "b"}, []string{"only one"}))
	if !domain.IsSchemaError(err) {
		t.Fatalf("Forward() error = %v, want *SchemaError", err)
	}
	if provider.calls() != 0 {
		t.Errorf("calls = %d, want 0", provider.calls())
	}
}

func TestForward_EmptyBatch(t *testing.T) {
	provider := &fakeProvider{respond: echoTask}
	u := newTestUDF(provider, &sleepRecorder{}, nil)

	out, err := u.Forward(context.Background(), domain.NewBatch([]string{}))
	if err != nil {
		t.Fatalf("Forward() error = %v", err)
	}
	if out.NumRows() != 0 || provider.calls() != 0 {
		t.Errorf("rows = %d, calls = %d, want 0/0", out.NumRows(), provider.calls())
	}
}

func TestForward_ContextCancelledDuringDelay(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	provider := &fakeProvider{respond: func(int, adapter.OpenAIRequest) (adapter.OpenAIResponse, error) {
		return adapter.OpenAIResponse{}, errors.New("503 service unavailable")
	}}
	sleep := func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}
	u := New(staticChain("sk-test"), func(string) adapter.AIProvider { return provider },
		WithLogger(discardLogger()),
		WithSleep(sleep),
	)

	_, err := u.Forward(ctx, domain.NewBatch([]string{"q0", "q1"}))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Forward() error = %v, want context.Canceled", err)
	}
	if provider.calls() != 1 {
		t.Errorf("calls = %d, want 1", provider.calls())
	}
}

func TestForward_CancelAfterLastRowKeepsBatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	provider := &fakeProvider{respond: func(call int, req adapter.OpenAIRequest) (adapter.OpenAIResponse, error) {
		if call == 2 {
			cancel()
		}
		return echoTask(call, req)
	}}
	u := newTestUDF(provider, &sleepRecorder{}, nil)

	out, err := u.Forward(ctx, domain.NewBatch([]string{"q0", "q1"}))
	if err != nil {
		t.Fatalf("Forward() error = %v, want finished batch", err)
	}
	if out.NumRows() != 2 || out.FailedRows() != 0 {
		t.Errorf("rows = %d, failed = %d, want 2/0", out.NumRows(), out.FailedRows())
	}
}

func TestForward_NonRetryableStatus(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`)
	}))
	defer srv.Close()

	sleeps := &sleepRecorder{}
	u := New(staticChain("sk-wrong"), adapter.NewOpenAIFactory(adapter.WithBaseURL(srv.URL)),
		WithLogger(discardLogger()),
		WithSleep(sleeps.sleep),
	)

	out, err := u.Forward(context.Background(), domain.NewBatch([]string{"q"}))
	if err != nil {
		t.Fatalf("Forward() error = %v", err)
	}
	if out.Results[0].OK() || out.Results[0].Attempts != 1 {
		t.Errorf("row 0 = %+v, want Failure after 1 attempt", out.Results[0])
	}
	if !strings.Contains(out.Column().Values[0], "401") {
		t.Errorf("failure text %q does not carry the status", out.Column().Values[0])
	}
	var apiErr *openai.Error
	if !errors.As(out.Results[0].Err, &apiErr) || out.Results[0].Err != error(apiErr) {
		t.Errorf("row error = %T, want the bare *openai.Error", out.Results[0].Err)
	}
	if calls != 1 || len(sleeps.delays) != 0 {
		t.Errorf("calls = %d, sleeps = %d, want 1/0", calls, len(sleeps.delays))
	}
}

func TestForward_EstimatesMissingUsage(t *testing.T) {
	provider := &fakeProvider{respond: func(int, adapter.OpenAIRequest) (adapter.OpenAIResponse, error) {
		return adapter.OpenAIResponse{Choices: []adapter.OpenAIChoice{{Message: adapter.OpenAIMessage{Content: "two words"}}}}, nil
	}}
	u := newTestUDF(provider, &sleepRecorder{}, nil)

	out, err := u.Forward(context.Background(), domain.NewBatch([]string{"q"}))
	if err != nil {
		t.Fatalf("Forward() error = %v", err)
	}
	if out.Usage.CompletionTokens != 2 || out.Usage.PromptTokens == 0 {
		t.Errorf("Usage = %+v, want estimated tokens", out.Usage)
	}
	if u.TotalSpend() <= 0 {
		t.Errorf("TotalSpend() = %v, want > 0", u.TotalSpend())
	}
}

func TestRetryCall_ZeroAttemptsStillCallsOnce(t *testing.T) {
	calls := 0
	_, attempts, err := retryCall(context.Background(), RetryPolicy{}, sleepContext, nil,
		func(context.Context) (string, error) {
			calls++
			return "", errors.New("boom")
		})

	if err == nil || attempts != 1 || calls != 1 {
		t.Errorf("retryCall() = attempts %d, calls %d, err %v; want 1, 1, error", attempts, calls, err)
	}
}

func TestSleepContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sleepContext(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("sleepContext(cancelled) = %v, want context.Canceled", err)
	}
	if err := sleepContext(context.Background(), 0); err != nil {
		t.Errorf("sleepContext(0) = %v, want nil", err)
	}
}
