package usecase

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/goverify/internal/pkg/clock"
	"github.com/shandysiswandi/goverify/internal/pkg/goerror"
	"github.com/shandysiswandi/goverify/internal/pkg/hash"
	"github.com/shandysiswandi/goverify/internal/pkg/instrument"
	"github.com/shandysiswandi/goverify/internal/pkg/uid"
	"github.com/shandysiswandi/goverify/internal/pkg/validator"
	"github.com/shandysiswandi/goverify/internal/verification/entity"
	"go.uber.org/atomic"
)

var t0 = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

type recordKey struct {
	accountID int64
	purpose   entity.Purpose
}

// memStore implements repoDB with the same version predicate as the
// Postgres store.
type memStore struct {
	mu        sync.Mutex
	accounts  map[int64]entity.Account
	passwords map[int64]string
	records   map[recordKey]entity.Record
	conflicts int
	swapErr   error
}

func newMemStore(accounts ...entity.Account) *memStore {
	m := &memStore{
		accounts:  map[int64]entity.Account{},
		passwords: map[int64]string{},
		records:   map[recordKey]entity.Record{},
	}
	for _, a := range accounts {
		m.accounts[a.ID] = a
	}
	return m
}

func (m *memStore) GetAccountByEmail(_ context.Context, email string) (*entity.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, a := range m.accounts {
		if strings.EqualFold(a.Email, email) {
			return &a, nil
		}
	}
	return nil, goerror.ErrNotFound
}

func (m *memStore) GetAccountByID(_ context.Context, id int64) (*entity.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.accounts[id]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &a, nil
}

func (m *memStore) GetRecord(_ context.Context, accountID int64, purpose entity.Purpose) (*entity.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.records[recordKey{accountID, purpose}]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	c := r.Clone()
	return &c, nil
}

func (m *memStore) SwapRecord(_ context.Context, swap entity.RecordSwap) (*entity.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.swapErr != nil {
		return nil, m.swapErr
	}

	key := recordKey{swap.Next.AccountID, swap.Next.Purpose}
	cur, ok := m.records[key]
	if (swap.ExpectedVersion == 0 && ok) || (swap.ExpectedVersion != 0 && (!ok || cur.Version != swap.ExpectedVersion)) {
		m.conflicts++
		return nil, goerror.ErrConflict
	}

	next := swap.Next.Clone()
	next.Version = swap.ExpectedVersion + 1
	m.records[key] = next

	if eff := swap.Effect; eff != nil {
		acc := m.accounts[eff.AccountID]
		switch eff.Kind {
		case entity.EffectMarkEmailVerified:
			acc.EmailVerified = true
		case entity.EffectSetPassword:
			acc.HasPassword = true
			m.passwords[eff.AccountID] = eff.PasswordHash
		}
		m.accounts[eff.AccountID] = acc
	}

	out := next.Clone()
	return &out, nil
}

func (m *memStore) record(t *testing.T, accountID int64, purpose entity.Purpose) entity.Record {
	t.Helper()

	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.records[recordKey{accountID, purpose}]
	if !ok {
		t.Fatalf("no record for account %d purpose %s", accountID, purpose)
	}
	return r.Clone()
}

func (m *memStore) put(r entity.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if r.Version == 0 {
		r.Version = 1
	}
	m.records[recordKey{r.AccountID, r.Purpose}] = r.Clone()
}

type fakeMessaging struct {
	mu        sync.Mutex
	issued    []CodeIssuedEvent
	completed []VerificationCompletedEvent
	failIssue error
}

func (f *fakeMessaging) PublishCodeIssued(_ context.Context, msg CodeIssuedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failIssue != nil {
		return f.failIssue
	}
	f.issued = append(f.issued, msg)
	return nil
}

func (f *fakeMessaging) PublishVerificationCompleted(_ context.Context, msg VerificationCompletedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.completed = append(f.completed, msg)
	return nil
}

func (f *fakeMessaging) lastCode(t *testing.T) string {
	t.Helper()

	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.issued) == 0 {
		t.Fatalf("no code was published")
	}
	return f.issued[len(f.issued)-1].Code
}

// sequenceEngine hands out numbered secrets whose code is the number itself.
type sequenceEngine struct {
	next atomic.Uint64
}

func (e *sequenceEngine) NewSecret() ([]byte, error) {
	return binary.BigEndian.AppendUint64(nil, e.next.Inc()), nil
}

func (e *sequenceEngine) Derive(secret []byte, _ time.Time) (string, error) {
	if len(secret) != 8 {
		return "", errors.New("bad secret")
	}
	return fmt.Sprintf("%06d", binary.BigEndian.Uint64(secret)%1_000_000), nil
}

func (e *sequenceEngine) Matches(secret []byte, code string, at time.Time) bool {
	want, err := e.Derive(secret, at)
	return err == nil && want == code
}

func wrongCode(code string) string {
	b := []byte(code)
	b[0] = '0' + (b[0]-'0'+1)%10
	return string(b)
}

type harness struct {
	uc    *Usecase
	store *memStore
	msgs  *fakeMessaging
	clock *clock.Manual
}

const (
	testEmail     = "ana@example.com"
	testAccountID = int64(42)
)

func newHarness(t *testing.T, accounts ...entity.Account) *harness {
	t.Helper()

	if len(accounts) == 0 {
		accounts = []entity.Account{{ID: testAccountID, Email: testEmail, FullName: "Ana", HasPassword: true}}
	}

	v, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("NewV10Validator() error = %v", err)
	}

	h := &harness{
		store: newMemStore(accounts...),
		msgs:  &fakeMessaging{},
		clock: clock.NewManual(t0),
	}
	h.uc = New(Dependency{
		RepoDB:        h.store,
		RepoMessaging: h.msgs,
		Validator:     v,
		Argon2ID:      hash.NewArgon2id("pepper"),
		UUID:          uid.NewUUID(),
		OTP:           &sequenceEngine{},
		Clock:         h.clock,
		Instrument:    instrument.NewNoop(),
	})
	h.uc.swapBackoff = time.Millisecond

	return h
}

func assertReason(t *testing.T, err error, want string) {
	t.Helper()

	if err == nil {
		t.Fatalf("error = nil, want reason %s", want)
	}
	if got := goerror.ReasonOf(err); got != want {
		t.Fatalf("reason = %q (%v), want %q", got, err, want)
	}
}

func assertCode(t *testing.T, err error, want goerror.Code) {
	t.Helper()

	var ge *goerror.Error
	if !errors.As(err, &ge) {
		t.Fatalf("error = %v, want *goerror.Error", err)
	}
	if ge.Code() != want {
		t.Fatalf("code = %s, want %s", ge.Code(), want)
	}
}
