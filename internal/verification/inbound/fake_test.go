package inbound

import (
	"context"
	"sync"
	"time"

	"github.com/shandysiswandi/goverify/internal/pkg/idempotency"
	"github.com/shandysiswandi/goverify/internal/verification/usecase"
)

type fakeUC struct {
	mu sync.Mutex

	requestIn  usecase.RequestCodeInput
	requestOut *usecase.RequestCodeOutput
	verifyIn   usecase.VerifyCodeInput
	verifyOut  *usecase.VerifyCodeOutput
	statusIn   usecase.GetStatusInput
	statusOut  *usecase.GetStatusOutput
	err        error

	issued     []int64
	superseded []usecase.SupersedeInput
	issueErr   error
}

func (f *fakeUC) RequestCode(_ context.Context, in usecase.RequestCodeInput) (*usecase.RequestCodeOutput, error) {
	f.requestIn = in
	return f.requestOut, f.err
}

func (f *fakeUC) VerifyCode(_ context.Context, in usecase.VerifyCodeInput) (*usecase.VerifyCodeOutput, error) {
	f.verifyIn = in
	return f.verifyOut, f.err
}

func (f *fakeUC) GetStatus(_ context.Context, in usecase.GetStatusInput) (*usecase.GetStatusOutput, error) {
	f.statusIn = in
	return f.statusOut, f.err
}

func (f *fakeUC) IssueInitialCode(_ context.Context, in usecase.IssueInitialCodeInput) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.issued = append(f.issued, in.AccountID)
	return f.issueErr
}

func (f *fakeUC) Supersede(_ context.Context, in usecase.SupersedeInput) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.superseded = append(f.superseded, in)
	return nil
}

// memIdempotency mirrors StateTracker without sticky failures.
type memIdempotency struct {
	mu   sync.Mutex
	done map[string]bool
}

func newMemIdempotency() *memIdempotency {
	return &memIdempotency{done: map[string]bool{}}
}

func (m *memIdempotency) Acquire(context.Context, string, time.Duration) (idempotency.State, error) {
	return idempotency.StateNone, nil
}

func (m *memIdempotency) MarkCompleted(context.Context, string, time.Duration) error { return nil }

func (m *memIdempotency) MarkFailed(context.Context, string, time.Duration) error { return nil }

func (m *memIdempotency) Release(context.Context, string) error { return nil }

func (m *memIdempotency) Exec(ctx context.Context, key string, fn func(context.Context) error, _ ...idempotency.Option) error {
	m.mu.Lock()
	if m.done[key] {
		m.mu.Unlock()
		return idempotency.ErrAlreadyCompleted
	}
	m.mu.Unlock()

	if err := fn(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	m.done[key] = true
	m.mu.Unlock()
	return nil
}

type plainKeyer struct{}

func (plainKeyer) Key(s string) string { return s }

type fixedID string

func (f fixedID) Generate() string { return string(f) }

type fakeMessage struct {
	id      string
	body    []byte
	headers map[string]string
}

func (m *fakeMessage) ID() string { return m.id }
func (m *fakeMessage) Topic() string { return "" }
func (m *fakeMessage) Body() []byte { return m.body }
func (m *fakeMessage) Header(k string) string { return m.headers[k] }
func (m *fakeMessage) Headers() map[string]string { return m.headers }
func (m *fakeMessage) Timestamp() time.Time { return time.Time{} }
func (m *fakeMessage) Ack(context.Context) error { return nil }
func (m *fakeMessage) Nack(context.Context) error { return nil }
