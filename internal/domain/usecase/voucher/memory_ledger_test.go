package voucher

import (
	"context"
	"sync"

	"github.com/amirhossein-jamali/credit-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/credit-ledger/internal/domain/error"
	"github.com/amirhossein-jamali/credit-ledger/internal/domain/port/persistence"
)

// memoryLedger is an in-memory store whose row locks behave like SELECT ... FOR UPDATE
// at read committed: a lock is held until commit or rollback, and the locked row is
// read after the lock is granted.
type memoryLedger struct {
	mu       sync.Mutex
	accounts map[string]*entity.Account
	vouchers map[string]*entity.Voucher
	rowLocks map[string]*sync.Mutex
	nextID   int64
}

func newMemoryLedger() *memoryLedger {
	return &memoryLedger{
		accounts: map[string]*entity.Account{},
		vouchers: map[string]*entity.Voucher{},
		rowLocks: map[string]*sync.Mutex{},
	}
}

func (l *memoryLedger) addAccount(email string, total, used int64) *entity.Account {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextID++
	a := &entity.Account{ID: l.nextID, Email: email, TotalCredits: total, UsedCredits: used}
	l.accounts[email] = a
	return a
}

func (l *memoryLedger) addVoucher(code string, amount, uses int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextID++
	l.vouchers[code] = &entity.Voucher{ID: l.nextID, Code: code, CreditAmount: amount, RemainingUses: uses}
}

func (l *memoryLedger) account(email string) entity.Account {
	l.mu.Lock()
	defer l.mu.Unlock()
	return *l.accounts[email]
}

func (l *memoryLedger) voucher(code string) entity.Voucher {
	l.mu.Lock()
	defer l.mu.Unlock()
	return *l.vouchers[code]
}

func (l *memoryLedger) rowLock(key string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.rowLocks[key]
	if !ok {
		m = &sync.Mutex{}
		l.rowLocks[key] = m
	}
	return m
}

type memoryTxKey struct{}

type memoryTx struct {
	held    []*sync.Mutex
	pending []func()
}

func (tx *memoryTx) release() {
	for i := len(tx.held) - 1; i >= 0; i-- {
		tx.held[i].Unlock()
	}
	tx.held = nil
	tx.pending = nil
}

func txFrom(ctx context.Context) *memoryTx {
	tx, _ := ctx.Value(memoryTxKey{}).(*memoryTx)
	return tx
}

// UnitOfWork

func (l *memoryLedger) Begin(ctx context.Context) (context.Context, error) {
	return context.WithValue(ctx, memoryTxKey{}, &memoryTx{}), nil
}

func (l *memoryLedger) Commit(ctx context.Context) error {
	tx := txFrom(ctx)
	l.mu.Lock()
	for _, apply := range tx.pending {
		apply()
	}
	l.mu.Unlock()
	tx.release()
	return nil
}

func (l *memoryLedger) Rollback(ctx context.Context) error {
	txFrom(ctx).release()
	return nil
}

func (l *memoryLedger) GetAccountRepository(ctx context.Context) persistence.AccountRepository {
	return &memoryAccounts{ledger: l, tx: txFrom(ctx)}
}

func (l *memoryLedger) GetVoucherRepository(ctx context.Context) persistence.VoucherRepository {
	return &memoryVouchers{ledger: l, tx: txFrom(ctx)}
}

func (l *memoryLedger) GetUsageRecordRepository(context.Context) persistence.UsageRecordRepository {
	return nil
}

type memoryAccounts struct {
	ledger *memoryLedger
	tx     *memoryTx
}

func (r *memoryAccounts) Upsert(context.Context, *entity.Account) (*entity.Account, error) {
	panic("not used")
}

func (r *memoryAccounts) GetByEmail(_ context.Context, email string) (*entity.Account, error) {
	r.ledger.mu.Lock()
	defer r.ledger.mu.Unlock()
	a, ok := r.ledger.accounts[email]
	if !ok {
		return nil, errs.ErrAccountNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *memoryAccounts) GetByID(_ context.Context, id int64) (*entity.Account, error) {
	r.ledger.mu.Lock()
	defer r.ledger.mu.Unlock()
	for _, a := range r.ledger.accounts {
		if a.ID == id {
			cp := *a
			return &cp, nil
		}
	}
	return nil, errs.ErrAccountNotFound
}

func (r *memoryAccounts) GetByEmailForUpdate(ctx context.Context, email string) (*entity.Account, error) {
	lock := r.ledger.rowLock("account:" + email)
	lock.Lock()
	r.tx.held = append(r.tx.held, lock)
	return r.GetByEmail(ctx, email)
}

func (r *memoryAccounts) IncrementUsedCredits(_ context.Context, id int64, delta int64) error {
	r.tx.pending = append(r.tx.pending, func() {
		for _, a := range r.ledger.accounts {
			if a.ID == id {
				a.UsedCredits += delta
			}
		}
	})
	return nil
}

func (r *memoryAccounts) AddTotalCredits(_ context.Context, id int64, delta int64) error {
	r.tx.pending = append(r.tx.pending, func() {
		for _, a := range r.ledger.accounts {
			if a.ID == id {
				a.TotalCredits += delta
			}
		}
	})
	return nil
}

type memoryVouchers struct {
	ledger *memoryLedger
	tx     *memoryTx
}

func (r *memoryVouchers) Create(context.Context, *entity.Voucher) error {
	panic("not used")
}

func (r *memoryVouchers) GetByCodeForUpdate(_ context.Context, code string) (*entity.Voucher, error) {
	lock := r.ledger.rowLock("voucher:" + code)
	lock.Lock()
	r.tx.held = append(r.tx.held, lock)

	r.ledger.mu.Lock()
	defer r.ledger.mu.Unlock()
	v, ok := r.ledger.vouchers[code]
	if !ok {
		return nil, errs.ErrVoucherNotFound
	}
	cp := *v
	return &cp, nil
}

func (r *memoryVouchers) DecrementRemainingUses(_ context.Context, id int64) error {
	r.tx.pending = append(r.tx.pending, func() {
		for _, v := range r.ledger.vouchers {
			if v.ID == id {
				v.RemainingUses--
			}
		}
	})
	return nil
}

func (r *memoryVouchers) ListRecent(context.Context, int) ([]*entity.Voucher, error) {
	panic("not used")
}
