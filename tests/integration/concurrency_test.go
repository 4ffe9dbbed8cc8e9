package integration

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"hotspot-fulfillment/internal/core/domain"
	"hotspot-fulfillment/internal/core/ports"
	"hotspot-fulfillment/internal/metrics"
	"hotspot-fulfillment/internal/service"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Concurrency tests for the claim/bind pipeline. The in-memory repos
// serialize Claim and BindVoucher under a mutex, mirroring the atomicity
// the SQL adapters get from FOR UPDATE SKIP LOCKED and the conditional
// UPDATE, so the orchestration races are real even without PostgreSQL.

type concurrencyEnv struct {
	fulfillSvc  ports.FulfillmentService
	txRepo      *inMemoryTransactionRepo
	voucherRepo *inMemoryVoucherRepo
	notifier    *recordingNotifier
}

func newConcurrencyEnv(t *testing.T) *concurrencyEnv {
	t.Helper()

	txRepo := newInMemoryTransactionRepo()
	voucherRepo := newInMemoryVoucherRepo()
	pkgRepo := newInMemoryPackageRepo(
		domain.Package{ID: 1, Name: "Daily Unlimited", Duration: "24 Hours", Price: 5000},
	)
	notifier := &recordingNotifier{}

	fulfillSvc := service.NewFulfillmentService(
		txRepo, voucherRepo, newInMemoryDeliveryRepo(), pkgRepo,
		notifier, metrics.New(prometheus.NewRegistry()), zerolog.Nop(),
	)

	return &concurrencyEnv{
		fulfillSvc:  fulfillSvc,
		txRepo:      txRepo,
		voucherRepo: voucherRepo,
		notifier:    notifier,
	}
}

func (e *concurrencyEnv) seedVouchers(t *testing.T, n int) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < n; i++ {
		inserted, err := e.voucherRepo.Insert(ctx, &domain.Voucher{
			Code:       fmt.Sprintf("WIFI-%03d", i),
			PackageID:  1,
			ResellerID: 1,
			Status:     domain.VoucherStatusActive,
		})
		require.NoError(t, err)
		require.True(t, inserted)
	}
}

func (e *concurrencyEnv) seedCompletedTx(t *testing.T, ref string) {
	t.Helper()
	err := e.txRepo.Upsert(context.Background(), domain.PaymentNotification{
		Ref:        ref,
		Status:     domain.TransactionStatusCompleted,
		Phone:      "254712345678",
		PackageID:  1,
		ResellerID: 1,
		Amount:     5000,
	})
	require.NoError(t, err)
}

// TestConcurrentFulfill_PoolExhaustion fires more concurrent fulfillments
// than there are vouchers. Each voucher must go to exactly one
// transaction and the surplus must starve cleanly.
func TestConcurrentFulfill_PoolExhaustion(t *testing.T) {
	env := newConcurrencyEnv(t)

	const vouchers = 10
	const transactions = 15

	env.seedVouchers(t, vouchers)
	refs := make([]string, transactions)
	for i := range refs {
		refs[i] = fmt.Sprintf("TXN-EXHAUST-%03d", i)
		env.seedCompletedTx(t, refs[i])
	}

	results := make([]*ports.FulfillResult, transactions)
	errs := make([]error, transactions)

	var wg sync.WaitGroup
	for i := range refs {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			results[idx], errs[idx] = env.fulfillSvc.Fulfill(context.Background(), refs[idx])
		}(i)
	}
	wg.Wait()

	fulfilled := 0
	starved := 0
	codes := make(map[string]string) // code -> ref
	for i, r := range results {
		require.NoError(t, errs[i])
		require.NotNil(t, r)
		switch r.Status {
		case ports.FulfillStatusFulfilled:
			fulfilled++
			require.NotNil(t, r.Voucher)
			prev, dup := codes[r.Voucher.Code]
			assert.False(t, dup, "voucher %s bound to both %s and %s", r.Voucher.Code, prev, refs[i])
			codes[r.Voucher.Code] = refs[i]
		case ports.FulfillStatusNoVoucher:
			starved++
		default:
			t.Fatalf("unexpected status %s for %s", r.Status, refs[i])
		}
	}

	assert.Equal(t, vouchers, fulfilled, "every voucher is consumed exactly once")
	assert.Equal(t, transactions-vouchers, starved, "the surplus starves")

	remaining, err := env.voucherRepo.CountActive(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Zero(t, remaining, "no voucher left behind, none double-spent")

	// One SMS per successful fulfillment, none for starved transactions.
	assert.Len(t, env.notifier.sent(), vouchers)
}

// TestConcurrentFulfill_SameRef hammers a single transaction. At most
// one voucher may ever bind; racers that claimed and lost must return
// their voucher to the pool and re-deliver the winner's.
func TestConcurrentFulfill_SameRef(t *testing.T) {
	env := newConcurrencyEnv(t)

	// Pool exceeds the caller count so every racer can claim before the
	// bind race resolves; the losers must all release.
	const pool = 25
	const callers = 20

	env.seedVouchers(t, pool)
	env.seedCompletedTx(t, "TXN-RACE-1")

	results := make([]*ports.FulfillResult, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			results[idx], errs[idx] = env.fulfillSvc.Fulfill(context.Background(), "TXN-RACE-1")
		}(i)
	}
	wg.Wait()

	codes := make(map[string]struct{})
	for i, r := range results {
		require.NoError(t, errs[i])
		require.NotNil(t, r)
		require.Contains(t,
			[]ports.FulfillStatus{ports.FulfillStatusFulfilled, ports.FulfillStatusAlreadyFulfilled},
			r.Status)
		require.NotNil(t, r.Voucher, "every caller converges on the bound voucher")
		codes[r.Voucher.Code] = struct{}{}
	}
	assert.Len(t, codes, 1, "all callers see the same voucher")

	tx, err := env.txRepo.GetByRef(context.Background(), "TXN-RACE-1")
	require.NoError(t, err)
	require.NotNil(t, tx.VoucherCode)
	_, ok := codes[*tx.VoucherCode]
	assert.True(t, ok, "the voucher reported to callers is the one on the transaction")

	// Losers released their claims: exactly one voucher left the pool.
	remaining, err := env.voucherRepo.CountActive(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(pool-1), remaining)

	used := 0
	for _, v := range env.voucherRepo.snapshot() {
		if v.Status == domain.VoucherStatusUsed {
			used++
		}
	}
	assert.Equal(t, 1, used)
}

// TestConcurrentImport_DuplicateCodes uploads the same batch from two
// goroutines. Duplicate codes must be skipped, never doubled.
func TestConcurrentImport_DuplicateCodes(t *testing.T) {
	env := newConcurrencyEnv(t)

	batch := make([]ports.VoucherImport, 20)
	for i := range batch {
		batch[i] = ports.VoucherImport{Code: fmt.Sprintf("DUP-%03d", i)}
	}
	voucherSvc := service.NewVoucherService(env.voucherRepo, zerolog.Nop())

	var wg sync.WaitGroup
	results := make([]*ports.ImportResult, 2)
	errs := make([]error, 2)
	for g := 0; g < 2; g++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			results[idx], errs[idx] = voucherSvc.Import(context.Background(), 1, 1, batch)
		}(g)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, len(batch), results[0].Inserted+results[1].Inserted, "each code lands exactly once")

	count, err := env.voucherRepo.CountActive(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(len(batch)), count)
}
