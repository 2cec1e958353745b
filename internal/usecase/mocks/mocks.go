package mocks

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gofinance/internal/domain"
	"github.com/iho/gofinance/internal/usecase"
)

// Ledger is an in-memory store implementing UserRepository,
// TransactionRepository and TransactionManager. GetForUpdate takes a
// per-user lock held until the transaction ends, like SELECT ... FOR UPDATE.
//
// The On* hooks run before the default behaviour; a non-nil error fails the
// call.
type Ledger struct {
	mu      sync.Mutex
	users   map[string]*domain.User
	names   map[string]string
	entries map[string][]*domain.Transaction
	locks   map[string]*sync.Mutex

	OnBegin        func(ctx context.Context) error
	OnGetForUpdate func(ctx context.Context, id string) error
	OnUpdateCash   func(ctx context.Context, id string, cash decimal.Decimal) error
	OnAppend       func(ctx context.Context, entry *domain.Transaction) error
	OnCommit       func(ctx context.Context) error
	OnList         func(ctx context.Context, userID string) error
}

// NewLedger creates an empty Ledger.
func NewLedger() *Ledger {
	return &Ledger{
		users:   make(map[string]*domain.User),
		names:   make(map[string]string),
		entries: make(map[string][]*domain.Transaction),
		locks:   make(map[string]*sync.Mutex),
	}
}

// AddUser seeds a user, bypassing the repository contract.
func (l *Ledger) AddUser(id string, cash decimal.Decimal) *domain.User {
	now := time.Now().UTC()
	user := &domain.User{
		ID:          id,
		Username:    id,
		Hash:        "hashed:" + id,
		Cash:        cash,
		OpeningCash: decimal.NewNullDecimal(cash),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.users[id] = user
	l.names[user.Username] = id

	return copyUser(user)
}

// SetCash overwrites a user's committed cash balance.
func (l *Ledger) SetCash(id string, cash decimal.Decimal) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if u, ok := l.users[id]; ok {
		u.Cash = cash
	}
}

// SetOpeningCash overwrites the balance a user was registered with.
func (l *Ledger) SetOpeningCash(id string, opening decimal.NullDecimal) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if u, ok := l.users[id]; ok {
		u.OpeningCash = opening
	}
}

// Cash returns a user's committed cash balance.
func (l *Ledger) Cash(id string) decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	if u, ok := l.users[id]; ok {
		return u.Cash
	}
	return decimal.Zero
}

// Entries returns a user's committed ledger.
func (l *Ledger) Entries(userID string) []*domain.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*domain.Transaction(nil), l.entries[userID]...)
}

// Begin starts a read-write transaction.
func (l *Ledger) Begin(ctx context.Context) (usecase.Transaction, error) {
	if l.OnBegin != nil {
		if err := l.OnBegin(ctx); err != nil {
			return nil, err
		}
	}

	return &LedgerTx{
		ledger: l,
		cash:   make(map[string]decimal.Decimal),
	}, nil
}

// BeginReadOnly starts a transaction reading from a copy of the committed
// state taken now.
func (l *Ledger) BeginReadOnly(ctx context.Context) (usecase.Transaction, error) {
	if l.OnBegin != nil {
		if err := l.OnBegin(ctx); err != nil {
			return nil, err
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	snap := &ledgerSnapshot{
		cash:    make(map[string]decimal.Decimal, len(l.users)),
		entries: make(map[string][]*domain.Transaction, len(l.entries)),
	}
	for id, u := range l.users {
		snap.cash[id] = u.Cash
	}
	for id, e := range l.entries {
		snap.entries[id] = append([]*domain.Transaction(nil), e...)
	}

	return &LedgerTx{ledger: l, snapshot: snap}, nil
}

func (l *Ledger) Create(ctx context.Context, user *domain.User) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.names[user.Username]; ok {
		return domain.ErrUsernameTaken
	}
	stored := copyUser(user)
	stored.OpeningCash = decimal.NewNullDecimal(user.Cash)
	l.users[user.ID] = stored
	l.names[user.Username] = user.ID
	return nil
}

func (l *Ledger) GetByID(ctx context.Context, id string) (*domain.User, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if u, ok := l.users[id]; ok {
		return copyUser(u), nil
	}
	return nil, domain.ErrUserNotFound
}

func (l *Ledger) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if id, ok := l.names[username]; ok {
		return copyUser(l.users[id]), nil
	}
	return nil, domain.ErrUserNotFound
}

func (l *Ledger) GetCash(ctx context.Context, tx usecase.Transaction, id string) (decimal.Decimal, error) {
	ltx, err := l.txOf(tx)
	if err != nil {
		return decimal.Zero, err
	}

	if ltx.snapshot != nil {
		cash, ok := ltx.snapshot.cash[id]
		if !ok {
			return decimal.Zero, domain.ErrUserNotFound
		}
		return cash, nil
	}

	if cash, ok := ltx.cash[id]; ok {
		return cash, nil
	}

	u, err := l.GetByID(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}
	return u.Cash, nil
}

func (l *Ledger) GetOpeningCash(ctx context.Context, tx usecase.Transaction, id string) (decimal.NullDecimal, error) {
	if _, err := l.txOf(tx); err != nil {
		return decimal.NullDecimal{}, err
	}

	u, err := l.GetByID(ctx, id)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return u.OpeningCash, nil
}

func (l *Ledger) GetForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.User, error) {
	ltx, err := l.txOf(tx)
	if err != nil {
		return nil, err
	}
	if ltx.snapshot != nil {
		return nil, errors.New("mocks: GetForUpdate in read-only transaction")
	}

	if l.OnGetForUpdate != nil {
		if err := l.OnGetForUpdate(ctx, id); err != nil {
			return nil, err
		}
	}

	l.mu.Lock()
	_, exists := l.users[id]
	lock, ok := l.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[id] = lock
	}
	l.mu.Unlock()

	if !exists {
		return nil, domain.ErrUserNotFound
	}

	if !ltx.holds(id) {
		lock.Lock()
		ltx.locked = append(ltx.locked, lock)
		ltx.lockedIDs = append(ltx.lockedIDs, id)
	}

	user, err := l.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cash, ok := ltx.cash[id]; ok {
		user.Cash = cash
	}

	return user, nil
}

func (l *Ledger) UpdateCash(ctx context.Context, tx usecase.Transaction, id string, cash decimal.Decimal, updatedAt time.Time) error {
	ltx, err := l.txOf(tx)
	if err != nil {
		return err
	}

	if l.OnUpdateCash != nil {
		if err := l.OnUpdateCash(ctx, id, cash); err != nil {
			return err
		}
	}

	if cash.IsNegative() {
		return fmt.Errorf("mocks: cash check constraint violated for %s", id)
	}

	ltx.cash[id] = cash
	return nil
}

func (l *Ledger) UpdateHash(ctx context.Context, id, hash string, updatedAt time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	u, ok := l.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Hash = hash
	u.UpdatedAt = updatedAt
	return nil
}

func (l *Ledger) List(ctx context.Context, limit, offset int) ([]*domain.User, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ids := make([]string, 0, len(l.users))
	for id := range l.users {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	if offset >= len(ids) {
		return nil, nil
	}
	ids = ids[offset:]
	if len(ids) > limit {
		ids = ids[:limit]
	}

	users := make([]*domain.User, 0, len(ids))
	for _, id := range ids {
		users = append(users, copyUser(l.users[id]))
	}
	return users, nil
}

func (l *Ledger) Append(ctx context.Context, tx usecase.Transaction, entry *domain.Transaction) error {
	ltx, err := l.txOf(tx)
	if err != nil {
		return err
	}

	if l.OnAppend != nil {
		if err := l.OnAppend(ctx, entry); err != nil {
			return err
		}
	}

	e := *entry
	ltx.appended = append(ltx.appended, &e)
	return nil
}

func (l *Ledger) ListByUser(ctx context.Context, userID string) ([]*domain.Transaction, error) {
	if l.OnList != nil {
		if err := l.OnList(ctx, userID); err != nil {
			return nil, err
		}
	}
	return l.Entries(userID), nil
}

func (l *Ledger) ListByUserTx(ctx context.Context, tx usecase.Transaction, userID string) ([]*domain.Transaction, error) {
	ltx, err := l.txOf(tx)
	if err != nil {
		return nil, err
	}

	if l.OnList != nil {
		if err := l.OnList(ctx, userID); err != nil {
			return nil, err
		}
	}

	if ltx.snapshot != nil {
		return append([]*domain.Transaction(nil), ltx.snapshot.entries[userID]...), nil
	}

	entries := l.Entries(userID)
	for _, e := range ltx.appended {
		if e.UserID == userID {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

func (l *Ledger) txOf(tx usecase.Transaction) (*LedgerTx, error) {
	ltx, ok := tx.(*LedgerTx)
	if !ok || ltx.ledger != l {
		return nil, errors.New("mocks: foreign transaction")
	}
	if ltx.done {
		return nil, errors.New("mocks: transaction already closed")
	}
	return ltx, nil
}

type ledgerSnapshot struct {
	cash    map[string]decimal.Decimal
	entries map[string][]*domain.Transaction
}

// LedgerTx buffers writes until Commit.
type LedgerTx struct {
	ledger    *Ledger
	snapshot  *ledgerSnapshot
	cash      map[string]decimal.Decimal
	appended  []*domain.Transaction
	locked    []*sync.Mutex
	lockedIDs []string
	done      bool
}

func (t *LedgerTx) holds(id string) bool {
	for _, held := range t.lockedIDs {
		if held == id {
			return true
		}
	}
	return false
}

func (t *LedgerTx) Commit(ctx context.Context) error {
	if t.done {
		return errors.New("mocks: transaction already closed")
	}

	if t.ledger.OnCommit != nil {
		if err := t.ledger.OnCommit(ctx); err != nil {
			return err
		}
	}

	l := t.ledger
	l.mu.Lock()
	for id, cash := range t.cash {
		if u, ok := l.users[id]; ok {
			u.Cash = cash
		}
	}
	for _, e := range t.appended {
		l.entries[e.UserID] = append(l.entries[e.UserID], e)
	}
	l.mu.Unlock()

	t.release()
	return nil
}

func (t *LedgerTx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.release()
	return nil
}

func (t *LedgerTx) release() {
	t.done = true
	for _, lock := range t.locked {
		lock.Unlock()
	}
	t.locked = nil
	t.lockedIDs = nil
}

func copyUser(u *domain.User) *domain.User {
	c := *u
	return &c
}

// QuoteBoard is a QuoteProvider serving fixed prices.
type QuoteBoard struct {
	mu     sync.Mutex
	quotes map[string]*domain.Quote
	errs   map[string]error
	calls  int

	LookupFunc func(ctx context.Context, symbol string) (*domain.Quote, error)
}

// NewQuoteBoard creates an empty QuoteBoard.
func NewQuoteBoard() *QuoteBoard {
	return &QuoteBoard{
		quotes: make(map[string]*domain.Quote),
		errs:   make(map[string]error),
	}
}

// Set lists symbol at price.
func (b *QuoteBoard) Set(symbol, name string, price decimal.Decimal) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.quotes[symbol] = &domain.Quote{Symbol: symbol, Name: name, Price: price, FetchedAt: time.Now().UTC()}
	delete(b.errs, symbol)
}

// Fail makes lookups of symbol return err.
func (b *QuoteBoard) Fail(symbol string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.errs[symbol] = err
}

// Calls returns how many lookups were made.
func (b *QuoteBoard) Calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

func (b *QuoteBoard) Lookup(ctx context.Context, symbol string) (*domain.Quote, error) {
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()

	if b.LookupFunc != nil {
		return b.LookupFunc(ctx, symbol)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if err, ok := b.errs[symbol]; ok {
		return nil, err
	}
	if q, ok := b.quotes[symbol]; ok {
		c := *q
		return &c, nil
	}
	return nil, domain.ErrUnknownSymbol
}

// SequenceIDGenerator returns id-1, id-2, ...
type SequenceIDGenerator struct {
	mu      sync.Mutex
	counter int
}

func (g *SequenceIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter++
	return fmt.Sprintf("id-%d", g.counter)
}

// PlainHasher "hashes" by prefixing, so tests can read hashes back.
type PlainHasher struct {
	HashErr error
}

func (h PlainHasher) Hash(password string) (string, error) {
	if h.HashErr != nil {
		return "", h.HashErr
	}
	return "hashed:" + password, nil
}

func (h PlainHasher) Compare(hash, password string) error {
	if hash != "hashed:"+password {
		return errors.New("mismatch")
	}
	return nil
}

// EventRecorder is an EventPublisher capturing published events.
type EventRecorder struct {
	mu     sync.Mutex
	events []domain.TradeExecutedEvent

	Err error
}

func (r *EventRecorder) PublishTrade(ctx context.Context, event domain.TradeExecutedEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.events = append(r.events, event)
	return nil
}

// Events returns the events published so far.
func (r *EventRecorder) Events() []domain.TradeExecutedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.TradeExecutedEvent(nil), r.events...)
}

// MemoryIdempotencyStore is an in-memory IdempotencyStore.
type MemoryIdempotencyStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

// NewMemoryIdempotencyStore creates an empty store.
func NewMemoryIdempotencyStore() *MemoryIdempotencyStore {
	return &MemoryIdempotencyStore{data: make(map[string][]byte)}
}

func (m *MemoryIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.data[key]; ok {
		return true, existing, nil
	}
	if response != nil {
		m.data[key] = response
	} else {
		m.data[key] = []byte(usecase.IdempotencyProcessingMarker)
	}
	return false, nil, nil
}

func (m *MemoryIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = response
	return nil
}

func (m *MemoryIdempotencyStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// RevocationList is an in-memory SessionStore.
type RevocationList struct {
	mu      sync.Mutex
	revoked map[string]time.Duration

	// Err, when set, is returned by IsRevoked.
	Err error
}

// TTL returns the ttl a session was revoked with.
func (r *RevocationList) TTL(sessionID string) (time.Duration, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ttl, ok := r.revoked[sessionID]
	return ttl, ok
}

func (r *RevocationList) Revoke(ctx context.Context, sessionID string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.revoked == nil {
		r.revoked = make(map[string]time.Duration)
	}
	r.revoked[sessionID] = ttl
	return nil
}

func (r *RevocationList) IsRevoked(ctx context.Context, sessionID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return false, r.Err
	}
	_, ok := r.revoked[sessionID]
	return ok, nil
}
