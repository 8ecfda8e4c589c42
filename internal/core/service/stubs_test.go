package service

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/vetconsult/auth-api/internal/core/domain"
	"github.com/vetconsult/auth-api/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Credential store stubs
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	mu     sync.Mutex
	byID   map[string]*domain.User
	seq    int
	ledger *stubLedger
}

func newStubUserRepo(ledger *stubLedger) *stubUserRepo {
	return &stubUserRepo{byID: make(map[string]*domain.User), ledger: ledger}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.Mobile == user.Mobile {
			return nil, domain.ErrUserExists
		}
	}
	r.seq++
	created := cloneUser(user)
	created.ID = "u" + strconv.Itoa(r.seq)
	r.byID[created.ID] = created
	return cloneUser(created), nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) FindByMobile(_ context.Context, mobile string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.Mobile == mobile {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) MarkVerified(_ context.Context, id string) error {
	return r.mutate(id, func(u *domain.User) { u.IsVerified = true })
}

func (r *stubUserRepo) UpdatePassword(_ context.Context, id, hash string) error {
	return r.mutate(id, func(u *domain.User) { u.PasswordHash = hash })
}

func (r *stubUserRepo) UpdateProfile(_ context.Context, id, first, last string) (*domain.User, error) {
	if err := r.mutate(id, func(u *domain.User) { u.FirstName, u.LastName = first, last }); err != nil {
		return nil, err
	}
	return r.FindByID(context.Background(), id)
}

func (r *stubUserRepo) SetActive(ctx context.Context, id string, active bool) (*domain.User, error) {
	if err := r.mutate(id, func(u *domain.User) { u.IsActive = active }); err != nil {
		return nil, err
	}
	if !active {
		_ = r.ledger.RevokeAllForUser(ctx, id)
	}
	return r.FindByID(ctx, id)
}

func (r *stubUserRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	if _, ok := r.byID[id]; !ok {
		r.mu.Unlock()
		return domain.ErrUserNotFound
	}
	delete(r.byID, id)
	r.mu.Unlock()
	r.ledger.deleteForUser(id)
	return nil
}

func (r *stubUserRepo) mutate(id string, fn func(*domain.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	fn(u)
	return nil
}

type stubPetRepo struct {
	mu   sync.Mutex
	pets []*domain.Pet
}

func (r *stubPetRepo) Create(_ context.Context, pet *domain.Pet) (*domain.Pet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := *pet
	p.ID = "p" + strconv.Itoa(len(r.pets)+1)
	r.pets = append(r.pets, &p)
	return &p, nil
}

func (r *stubPetRepo) CountByOwner(_ context.Context, ownerID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, p := range r.pets {
		if p.OwnerID == ownerID {
			n++
		}
	}
	return n, nil
}

type stubAdminRepo struct {
	byEmail map[string]*domain.Admin
	touched []string
}

func (r *stubAdminRepo) Create(_ context.Context, a *domain.Admin) (*domain.Admin, error) {
	if _, ok := r.byEmail[a.Email]; ok {
		return nil, domain.ErrAdminExists
	}
	c := *a
	r.byEmail[a.Email] = &c
	return &c, nil
}

func (r *stubAdminRepo) FindByID(_ context.Context, id string) (*domain.Admin, error) {
	for _, a := range r.byEmail {
		if a.ID == id {
			c := *a
			return &c, nil
		}
	}
	return nil, domain.ErrAdminNotFound
}

func (r *stubAdminRepo) FindByEmail(_ context.Context, email string) (*domain.Admin, error) {
	a, ok := r.byEmail[email]
	if !ok {
		return nil, domain.ErrAdminNotFound
	}
	c := *a
	return &c, nil
}

func (r *stubAdminRepo) TouchLastLogin(_ context.Context, id string) error {
	r.touched = append(r.touched, id)
	return nil
}

// ---------------------------------------------------------------------------
// Refresh ledger stub. Rotate is atomic under mu, like the transactional one.
// ---------------------------------------------------------------------------

type stubLedger struct {
	mu   sync.Mutex
	rows map[string]*domain.RefreshToken
}

func newStubLedger() *stubLedger {
	return &stubLedger{rows: make(map[string]*domain.RefreshToken)}
}

func (l *stubLedger) Store(_ context.Context, t *domain.RefreshToken) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	c := *t
	l.rows[t.TokenHash] = &c
	return nil
}

func (l *stubLedger) FindActive(_ context.Context, hash string) (*domain.RefreshToken, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	row, ok := l.rows[hash]
	if !ok || !row.Active(time.Now()) {
		return nil, domain.ErrTokenNotFound
	}
	c := *row
	return &c, nil
}

func (l *stubLedger) Revoke(_ context.Context, userID, hash string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if row, ok := l.rows[hash]; ok && row.UserID == userID {
		row.IsRevoked = true
	}
	return nil
}

func (l *stubLedger) RevokeAllForUser(_ context.Context, userID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, row := range l.rows {
		if row.UserID == userID {
			row.IsRevoked = true
		}
	}
	return nil
}

func (l *stubLedger) Rotate(_ context.Context, oldHash string, next *domain.RefreshToken) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	row, ok := l.rows[oldHash]
	if !ok || !row.Active(time.Now()) {
		return domain.ErrTokenNotFound
	}
	row.IsRevoked = true
	c := *next
	l.rows[next.TokenHash] = &c
	return nil
}

func (l *stubLedger) deleteForUser(userID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for h, row := range l.rows {
		if row.UserID == userID {
			delete(l.rows, h)
		}
	}
}

func (l *stubLedger) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.rows)
}

// ---------------------------------------------------------------------------
// Verification stubs
// ---------------------------------------------------------------------------

type stubCodeStore struct {
	mu        sync.Mutex
	codes     map[string]*domain.VerificationCode
	throttled map[string]bool
	saveErr   error
}

func newStubCodeStore() *stubCodeStore {
	return &stubCodeStore{
		codes:     make(map[string]*domain.VerificationCode),
		throttled: make(map[string]bool),
	}
}

func codeKey(mobile string, purpose domain.VerificationPurpose) string {
	return string(purpose) + ":" + mobile
}

func (s *stubCodeStore) Save(_ context.Context, code *domain.VerificationCode, _ time.Duration) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *code
	c.Attempts = 0
	s.codes[codeKey(code.Mobile, code.Purpose)] = &c
	return nil
}

func (s *stubCodeStore) Get(_ context.Context, mobile string, purpose domain.VerificationPurpose) (*domain.VerificationCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.codes[codeKey(mobile, purpose)]
	if !ok || time.Now().After(c.ExpiresAt) {
		return nil, domain.ErrCodeNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *stubCodeStore) IncrAttempts(_ context.Context, mobile string, purpose domain.VerificationPurpose) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.codes[codeKey(mobile, purpose)]
	if !ok {
		return 0, domain.ErrCodeNotFound
	}
	c.Attempts++
	return c.Attempts, nil
}

func (s *stubCodeStore) Delete(_ context.Context, mobile string, purpose domain.VerificationPurpose) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := codeKey(mobile, purpose)
	_, ok := s.codes[k]
	delete(s.codes, k)
	return ok, nil
}

func (s *stubCodeStore) Throttle(_ context.Context, mobile string, purpose domain.VerificationPurpose, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := codeKey(mobile, purpose)
	if s.throttled[k] {
		return false, nil
	}
	s.throttled[k] = true
	return true, nil
}

func (s *stubCodeStore) ReleaseThrottle(_ context.Context, mobile string, purpose domain.VerificationPurpose) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.throttled, codeKey(mobile, purpose))
	return nil
}

// gatedCodeStore holds every Get until n callers have read the code, so
// concurrent redemptions all pass the comparison before any of them deletes.
type gatedCodeStore struct {
	*stubCodeStore
	gate sync.WaitGroup
}

func newGatedCodeStore(store *stubCodeStore, n int) *gatedCodeStore {
	g := &gatedCodeStore{stubCodeStore: store}
	g.gate.Add(n)
	return g
}

func (g *gatedCodeStore) Get(ctx context.Context, mobile string, purpose domain.VerificationPurpose) (*domain.VerificationCode, error) {
	c, err := g.stubCodeStore.Get(ctx, mobile, purpose)
	g.gate.Done()
	g.gate.Wait()
	return c, err
}

func (s *stubCodeStore) current(mobile string, purpose domain.VerificationPurpose) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.codes[codeKey(mobile, purpose)]; ok {
		return c.Code
	}
	return ""
}

type stubNotifier struct {
	mu   sync.Mutex
	err  error
	sent []ports.SMSMessage
}

func (n *stubNotifier) Send(_ context.Context, mobile, message string) error {
	if n.err != nil {
		return n.err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, ports.SMSMessage{Mobile: mobile, Body: message})
	return nil
}

type stubQueue struct {
	mu     sync.Mutex
	queued []ports.SMSMessage
}

func (q *stubQueue) Enqueue(msg ports.SMSMessage) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.queued = append(q.queued, msg)
}

var farFuture = time.Now().Add(24 * time.Hour)
