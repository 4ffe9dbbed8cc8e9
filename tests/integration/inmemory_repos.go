package integration

import (
	"context"
	"sort"
	"sync"
	"time"

	"hotspot-fulfillment/internal/core/domain"
)

// In-memory repositories mirroring the SQL semantics of the postgres
// adapters: atomic claim, conditional bind, monotonic upsert. Used to
// exercise the full pipeline without a database.

// --- In-Memory Voucher Repo ---

type inMemoryVoucherRepo struct {
	mu       sync.Mutex
	nextID   int64
	vouchers map[int64]*domain.Voucher
}

func newInMemoryVoucherRepo() *inMemoryVoucherRepo {
	return &inMemoryVoucherRepo{nextID: 1, vouchers: make(map[int64]*domain.Voucher)}
}

func (r *inMemoryVoucherRepo) Claim(ctx context.Context, packageID, resellerID int64) (*domain.Voucher, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var candidates []*domain.Voucher
	for _, v := range r.vouchers {
		if v.PackageID == packageID && v.ResellerID == resellerID && v.Status == domain.VoucherStatusActive {
			candidates = append(candidates, v)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].CreatedAt.Equal(candidates[j].CreatedAt) {
			return candidates[i].ID < candidates[j].ID
		}
		return candidates[i].CreatedAt.Before(candidates[j].CreatedAt)
	})

	v := candidates[0]
	now := time.Now().UTC()
	v.Status = domain.VoucherStatusUsed
	v.UsedAt = &now

	clone := *v
	return &clone, nil
}

func (r *inMemoryVoucherRepo) Release(ctx context.Context, voucherID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.vouchers[voucherID]
	if !ok || v.Status != domain.VoucherStatusUsed || v.CustomerPhone != nil {
		return errNotReleasable
	}
	v.Status = domain.VoucherStatusActive
	v.UsedAt = nil
	return nil
}

func (r *inMemoryVoucherRepo) BindCustomer(ctx context.Context, voucherID int64, phone string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.vouchers[voucherID]
	if !ok || v.Status != domain.VoucherStatusUsed || v.CustomerPhone != nil {
		return errNotBindable
	}
	v.CustomerPhone = &phone
	return nil
}

func (r *inMemoryVoucherRepo) GetByCode(ctx context.Context, code string) (*domain.Voucher, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.vouchers {
		if v.Code == code {
			clone := *v
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *inMemoryVoucherRepo) Insert(ctx context.Context, v *domain.Voucher) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.vouchers {
		if existing.Code == v.Code {
			return false, nil
		}
	}
	clone := *v
	clone.ID = r.nextID
	r.nextID++
	if clone.CreatedAt.IsZero() {
		clone.CreatedAt = time.Now().UTC()
	}
	r.vouchers[clone.ID] = &clone
	v.ID = clone.ID
	return true, nil
}

func (r *inMemoryVoucherRepo) CountActive(ctx context.Context, packageID, resellerID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, v := range r.vouchers {
		if v.PackageID == packageID && v.ResellerID == resellerID && v.Status == domain.VoucherStatusActive {
			n++
		}
	}
	return n, nil
}

// snapshot returns copies of all vouchers for assertions.
func (r *inMemoryVoucherRepo) snapshot() []domain.Voucher {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Voucher, 0, len(r.vouchers))
	for _, v := range r.vouchers {
		out = append(out, *v)
	}
	return out
}

// --- In-Memory Transaction Repo ---

type inMemoryTransactionRepo struct {
	mu  sync.Mutex
	txs map[string]*domain.Transaction
}

func newInMemoryTransactionRepo() *inMemoryTransactionRepo {
	return &inMemoryTransactionRepo{txs: make(map[string]*domain.Transaction)}
}

func (r *inMemoryTransactionRepo) GetByRef(ctx context.Context, ref string) (*domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx, ok := r.txs[ref]
	if !ok {
		return nil, nil
	}
	clone := *tx
	return &clone, nil
}

func (r *inMemoryTransactionRepo) Upsert(ctx context.Context, n domain.PaymentNotification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()

	tx, ok := r.txs[n.Ref]
	if !ok {
		r.txs[n.Ref] = &domain.Transaction{
			Ref:        n.Ref,
			Phone:      n.Phone,
			PackageID:  n.PackageID,
			ResellerID: n.ResellerID,
			Amount:     n.Amount,
			Status:     n.Status,
			Receipt:    n.Receipt,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		return nil
	}

	// Completed transactions are never demoted.
	if tx.Status == domain.TransactionStatusCompleted {
		return nil
	}
	tx.Status = n.Status
	tx.Phone = n.Phone
	tx.Amount = n.Amount
	if n.Receipt != nil {
		tx.Receipt = n.Receipt
	}
	tx.UpdatedAt = now
	return nil
}

func (r *inMemoryTransactionRepo) BindVoucher(ctx context.Context, ref string, voucherID int64, code string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx, ok := r.txs[ref]
	if !ok || tx.Status != domain.TransactionStatusCompleted || tx.VoucherCode != nil {
		return false, nil
	}
	tx.VoucherID = &voucherID
	tx.VoucherCode = &code
	tx.Note = nil
	tx.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (r *inMemoryTransactionRepo) SetNote(ctx context.Context, ref string, note string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if tx, ok := r.txs[ref]; ok && tx.VoucherCode == nil {
		tx.Note = &note
		tx.UpdatedAt = time.Now().UTC()
	}
	return nil
}

func (r *inMemoryTransactionRepo) ListUnfulfilled(ctx context.Context, limit int) ([]domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Transaction
	for _, tx := range r.txs {
		if tx.Status == domain.TransactionStatusCompleted && tx.VoucherCode == nil {
			out = append(out, *tx)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// --- In-Memory Delivery Repo ---

type inMemoryDeliveryRepo struct {
	mu       sync.Mutex
	attempts []domain.DeliveryAttempt
}

func newInMemoryDeliveryRepo() *inMemoryDeliveryRepo {
	return &inMemoryDeliveryRepo{}
}

func (r *inMemoryDeliveryRepo) Append(ctx context.Context, attempt *domain.DeliveryAttempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts = append(r.attempts, *attempt)
	return nil
}

func (r *inMemoryDeliveryRepo) ListByRef(ctx context.Context, ref string) ([]domain.DeliveryAttempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.DeliveryAttempt
	for _, a := range r.attempts {
		if a.TransactionRef == ref {
			out = append(out, a)
		}
	}
	return out, nil
}

// --- In-Memory Package Repo ---

type inMemoryPackageRepo struct {
	mu       sync.RWMutex
	packages map[int64]*domain.Package
}

func newInMemoryPackageRepo(pkgs ...domain.Package) *inMemoryPackageRepo {
	r := &inMemoryPackageRepo{packages: make(map[int64]*domain.Package)}
	for i := range pkgs {
		p := pkgs[i]
		r.packages[p.ID] = &p
	}
	return r
}

func (r *inMemoryPackageRepo) GetByID(ctx context.Context, id int64) (*domain.Package, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.packages[id]
	if !ok {
		return nil, nil
	}
	clone := *p
	return &clone, nil
}

// --- Recording Notifier ---

type recordingNotifier struct {
	mu    sync.Mutex
	sends []recordedSend
	fail  bool
}

type recordedSend struct {
	Phone string
	Msg   domain.VoucherMessage
}

func (n *recordingNotifier) Send(ctx context.Context, phone string, msg domain.VoucherMessage) domain.DeliveryResult {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sends = append(n.sends, recordedSend{Phone: phone, Msg: msg})
	if n.fail {
		return domain.DeliveryResult{Gateway: "fake", Error: "simulated gateway failure"}
	}
	return domain.DeliveryResult{Success: true, Gateway: "fake", ProviderMessageID: "FAKE-1"}
}

func (n *recordingNotifier) Name() string { return "fake" }

func (n *recordingNotifier) setFail(v bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.fail = v
}

func (n *recordingNotifier) sent() []recordedSend {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]recordedSend, len(n.sends))
	copy(out, n.sends)
	return out
}

type constError string

func (e constError) Error() string { return string(e) }

const (
	errNotReleasable = constError("voucher is not releasable")
	errNotBindable   = constError("voucher is not bindable")
)
