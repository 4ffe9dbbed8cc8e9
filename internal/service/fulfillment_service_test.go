package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"hotspot-fulfillment/internal/core/domain"
	"hotspot-fulfillment/internal/core/ports"
	"hotspot-fulfillment/internal/core/ports/mocks"
	"hotspot-fulfillment/internal/metrics"
	"hotspot-fulfillment/pkg/apperror"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type fulfillmentTestDeps struct {
	svc          *FulfillmentServiceImpl
	txRepo       *mocks.MockTransactionRepository
	voucherRepo  *mocks.MockVoucherRepository
	deliveryRepo *mocks.MockDeliveryRepository
	pkgRepo      *mocks.MockPackageRepository
	notifier     *mocks.MockNotifier
	ctrl         *gomock.Controller
}

func setupFulfillmentService(t *testing.T) *fulfillmentTestDeps {
	ctrl := gomock.NewController(t)
	d := &fulfillmentTestDeps{
		txRepo:       mocks.NewMockTransactionRepository(ctrl),
		voucherRepo:  mocks.NewMockVoucherRepository(ctrl),
		deliveryRepo: mocks.NewMockDeliveryRepository(ctrl),
		pkgRepo:      mocks.NewMockPackageRepository(ctrl),
		notifier:     mocks.NewMockNotifier(ctrl),
		ctrl:         ctrl,
	}
	d.svc = NewFulfillmentService(
		d.txRepo, d.voucherRepo, d.deliveryRepo, d.pkgRepo,
		d.notifier, metrics.New(prometheus.NewRegistry()), zerolog.Nop(),
	)
	return d
}

func completedTx(ref string) *domain.Transaction {
	return &domain.Transaction{
		Ref:        ref,
		Phone:      "254712345678",
		PackageID:  3,
		ResellerID: 7,
		Amount:     5000,
		Status:     domain.TransactionStatusCompleted,
		CreatedAt:  time.Now().UTC(),
	}
}

func fulfilledTx(ref, code string) *domain.Transaction {
	tx := completedTx(ref)
	id := int64(42)
	tx.VoucherID = &id
	tx.VoucherCode = &code
	return tx
}

func activeVoucher(id int64, code string) *domain.Voucher {
	return &domain.Voucher{
		ID:         id,
		Code:       code,
		PackageID:  3,
		ResellerID: 7,
		Status:     domain.VoucherStatusUsed,
	}
}

func sentResult(gateway, msgID string) domain.DeliveryResult {
	return domain.DeliveryResult{Success: true, Gateway: gateway, ProviderMessageID: msgID}
}

// expectNotify wires the package lookup, SMS send, and audit append for
// one delivery.
func (d *fulfillmentTestDeps) expectNotify(ctx context.Context, tx *domain.Transaction, result domain.DeliveryResult) {
	d.pkgRepo.EXPECT().GetByID(ctx, tx.PackageID).
		Return(&domain.Package{ID: tx.PackageID, Name: "Daily Unlimited", Duration: "24 Hours"}, nil)
	d.notifier.EXPECT().Send(ctx, tx.Phone, gomock.Any()).Return(result)
	d.deliveryRepo.EXPECT().Append(ctx, gomock.Any()).Return(nil)
}

// ==================== Fulfill Tests ====================

func TestFulfillmentService_Fulfill_Success(t *testing.T) {
	d := setupFulfillmentService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := completedTx("WS-1001")
	voucher := activeVoucher(42, "WIFI-1234")

	d.txRepo.EXPECT().GetByRef(ctx, "WS-1001").Return(tx, nil)
	d.voucherRepo.EXPECT().Claim(ctx, int64(3), int64(7)).Return(voucher, nil)
	d.txRepo.EXPECT().BindVoucher(ctx, "WS-1001", int64(42), "WIFI-1234").Return(true, nil)
	d.voucherRepo.EXPECT().BindCustomer(ctx, int64(42), "254712345678").Return(nil)
	d.expectNotify(ctx, tx, sentResult("umeskia", "UM-1"))

	result, err := d.svc.Fulfill(ctx, "WS-1001")
	require.NoError(t, err)
	assert.Equal(t, ports.FulfillStatusFulfilled, result.Status)
	require.NotNil(t, result.Voucher)
	assert.Equal(t, "WIFI-1234", result.Voucher.Code)
	require.NotNil(t, result.Delivery)
	assert.True(t, result.Delivery.Success)
}

func TestFulfillmentService_Fulfill_RecordsFailedDelivery(t *testing.T) {
	d := setupFulfillmentService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := completedTx("WS-1002")
	voucher := activeVoucher(43, "WIFI-5678")

	d.txRepo.EXPECT().GetByRef(ctx, "WS-1002").Return(tx, nil)
	d.voucherRepo.EXPECT().Claim(ctx, int64(3), int64(7)).Return(voucher, nil)
	d.txRepo.EXPECT().BindVoucher(ctx, "WS-1002", int64(43), "WIFI-5678").Return(true, nil)
	d.voucherRepo.EXPECT().BindCustomer(ctx, int64(43), "254712345678").Return(nil)

	d.pkgRepo.EXPECT().GetByID(ctx, int64(3)).Return(&domain.Package{ID: 3, Name: "Daily"}, nil)
	d.notifier.EXPECT().Send(ctx, tx.Phone, gomock.Any()).
		Return(domain.DeliveryResult{Gateway: "umeskia", Error: "insufficient balance"})
	d.deliveryRepo.EXPECT().Append(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, attempt *domain.DeliveryAttempt) error {
			assert.Equal(t, domain.DeliveryOutcomeFailed, attempt.Outcome)
			require.NotNil(t, attempt.ErrorDetail)
			assert.Equal(t, "insufficient balance", *attempt.ErrorDetail)
			assert.Nil(t, attempt.ProviderMessageID)
			return nil
		})

	// Fulfillment still succeeds: the voucher is bound, delivery failure
	// is recorded for the operator to act on.
	result, err := d.svc.Fulfill(ctx, "WS-1002")
	require.NoError(t, err)
	assert.Equal(t, ports.FulfillStatusFulfilled, result.Status)
	require.NotNil(t, result.Delivery)
	assert.False(t, result.Delivery.Success)
}

func TestFulfillmentService_Fulfill_AlreadyFulfilled(t *testing.T) {
	d := setupFulfillmentService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := fulfilledTx("WS-1003", "WIFI-1234")
	voucher := activeVoucher(42, "WIFI-1234")

	d.txRepo.EXPECT().GetByRef(ctx, "WS-1003").Return(tx, nil)
	d.voucherRepo.EXPECT().GetByCode(ctx, "WIFI-1234").Return(voucher, nil)
	d.expectNotify(ctx, tx, sentResult("umeskia", "UM-2"))

	result, err := d.svc.Fulfill(ctx, "WS-1003")
	require.NoError(t, err)
	assert.Equal(t, ports.FulfillStatusAlreadyFulfilled, result.Status)
	require.NotNil(t, result.Voucher)
	assert.Equal(t, "WIFI-1234", result.Voucher.Code)
}

func TestFulfillmentService_Fulfill_NotYetCompleted(t *testing.T) {
	d := setupFulfillmentService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := completedTx("WS-1004")
	tx.Status = domain.TransactionStatusPending

	d.txRepo.EXPECT().GetByRef(ctx, "WS-1004").Return(tx, nil)

	result, err := d.svc.Fulfill(ctx, "WS-1004")
	require.NoError(t, err)
	assert.Equal(t, ports.FulfillStatusNotYetCompleted, result.Status)
	assert.Nil(t, result.Voucher)
	assert.Nil(t, result.Delivery)
}

func TestFulfillmentService_Fulfill_FailedTransaction(t *testing.T) {
	d := setupFulfillmentService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := completedTx("WS-1005")
	tx.Status = domain.TransactionStatusFailed

	d.txRepo.EXPECT().GetByRef(ctx, "WS-1005").Return(tx, nil)

	_, err := d.svc.Fulfill(ctx, "WS-1005")
	require.Error(t, err)
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "FUL_003", appErr.Code)
}

func TestFulfillmentService_Fulfill_UnknownTransaction(t *testing.T) {
	d := setupFulfillmentService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	d.txRepo.EXPECT().GetByRef(ctx, "NOPE").Return(nil, nil)

	_, err := d.svc.Fulfill(ctx, "NOPE")
	require.Error(t, err)
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "FUL_001", appErr.Code)
}

func TestFulfillmentService_Fulfill_PoolExhausted(t *testing.T) {
	d := setupFulfillmentService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := completedTx("WS-1006")

	d.txRepo.EXPECT().GetByRef(ctx, "WS-1006").Return(tx, nil)
	d.voucherRepo.EXPECT().Claim(ctx, int64(3), int64(7)).Return(nil, nil)
	d.txRepo.EXPECT().SetNote(ctx, "WS-1006", domain.NoteNoVoucher).Return(nil)

	result, err := d.svc.Fulfill(ctx, "WS-1006")
	require.NoError(t, err)
	assert.Equal(t, ports.FulfillStatusNoVoucher, result.Status)
	assert.Nil(t, result.Voucher)
	// No SMS and no audit row when there was nothing to deliver.
}

func TestFulfillmentService_Fulfill_LostBindRace(t *testing.T) {
	d := setupFulfillmentService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := completedTx("WS-1007")
	loser := activeVoucher(50, "WIFI-LOSER")
	winnerTx := fulfilledTx("WS-1007", "WIFI-WINNER")
	winner := activeVoucher(42, "WIFI-WINNER")

	d.txRepo.EXPECT().GetByRef(ctx, "WS-1007").Return(tx, nil)
	d.voucherRepo.EXPECT().Claim(ctx, int64(3), int64(7)).Return(loser, nil)
	d.txRepo.EXPECT().BindVoucher(ctx, "WS-1007", int64(50), "WIFI-LOSER").Return(false, nil)
	// The losing claim goes back to the pool untouched.
	d.voucherRepo.EXPECT().Release(ctx, int64(50)).Return(nil)
	d.txRepo.EXPECT().GetByRef(ctx, "WS-1007").Return(winnerTx, nil)
	d.voucherRepo.EXPECT().GetByCode(ctx, "WIFI-WINNER").Return(winner, nil)
	d.expectNotify(ctx, winnerTx, sentResult("umeskia", "UM-3"))

	result, err := d.svc.Fulfill(ctx, "WS-1007")
	require.NoError(t, err)
	assert.Equal(t, ports.FulfillStatusAlreadyFulfilled, result.Status)
	require.NotNil(t, result.Voucher)
	assert.Equal(t, "WIFI-WINNER", result.Voucher.Code)
}

func TestFulfillmentService_Fulfill_BindErrorKeepsClaim(t *testing.T) {
	d := setupFulfillmentService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := completedTx("WS-1008")
	voucher := activeVoucher(51, "WIFI-9999")

	d.txRepo.EXPECT().GetByRef(ctx, "WS-1008").Return(tx, nil)
	d.voucherRepo.EXPECT().Claim(ctx, int64(3), int64(7)).Return(voucher, nil)
	d.txRepo.EXPECT().BindVoucher(ctx, "WS-1008", int64(51), "WIFI-9999").
		Return(false, errors.New("connection reset"))
	// No Release: the bind outcome is unknown.

	_, err := d.svc.Fulfill(ctx, "WS-1008")
	require.Error(t, err)
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "SYS_001", appErr.Code)
}

func TestFulfillmentService_Fulfill_MissingVoucherRowStillDelivers(t *testing.T) {
	d := setupFulfillmentService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := fulfilledTx("WS-1009", "WIFI-GONE")

	d.txRepo.EXPECT().GetByRef(ctx, "WS-1009").Return(tx, nil)
	d.voucherRepo.EXPECT().GetByCode(ctx, "WIFI-GONE").Return(nil, nil)

	d.pkgRepo.EXPECT().GetByID(ctx, int64(3)).Return(nil, nil)
	d.notifier.EXPECT().Send(ctx, tx.Phone, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, msg domain.VoucherMessage) domain.DeliveryResult {
			// Falls back to code-only credentials and a generic package name.
			assert.Equal(t, "WIFI-GONE", msg.Code)
			assert.Equal(t, "WIFI-GONE", msg.Username)
			assert.Equal(t, "WIFI-GONE", msg.Password)
			assert.Equal(t, "Package 3", msg.PackageName)
			return sentResult("umeskia", "UM-4")
		})
	d.deliveryRepo.EXPECT().Append(ctx, gomock.Any()).Return(nil)

	result, err := d.svc.Fulfill(ctx, "WS-1009")
	require.NoError(t, err)
	assert.Equal(t, ports.FulfillStatusAlreadyFulfilled, result.Status)
}

// ==================== Resend Tests ====================

func TestFulfillmentService_Resend_Success(t *testing.T) {
	d := setupFulfillmentService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := fulfilledTx("WS-2001", "WIFI-1234")
	voucher := activeVoucher(42, "WIFI-1234")

	d.txRepo.EXPECT().GetByRef(ctx, "WS-2001").Return(tx, nil)
	d.voucherRepo.EXPECT().GetByCode(ctx, "WIFI-1234").Return(voucher, nil)
	d.expectNotify(ctx, tx, sentResult("textsms", "75085465"))

	result, err := d.svc.Resend(ctx, "WS-2001")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "textsms", result.Gateway)
}

func TestFulfillmentService_Resend_NoVoucherBound(t *testing.T) {
	d := setupFulfillmentService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	d.txRepo.EXPECT().GetByRef(ctx, "WS-2002").Return(completedTx("WS-2002"), nil)

	_, err := d.svc.Resend(ctx, "WS-2002")
	require.Error(t, err)
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "FUL_002", appErr.Code)
}

func TestFulfillmentService_Resend_UnknownTransaction(t *testing.T) {
	d := setupFulfillmentService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	d.txRepo.EXPECT().GetByRef(ctx, "NOPE").Return(nil, nil)

	_, err := d.svc.Resend(ctx, "NOPE")
	require.Error(t, err)
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "FUL_001", appErr.Code)
}

// ==================== RecordNotification Tests ====================

func TestFulfillmentService_RecordNotification(t *testing.T) {
	d := setupFulfillmentService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	receipt := "THX123ABC"
	valid := domain.PaymentNotification{
		Ref:        "WS-3001",
		Status:     domain.TransactionStatusCompleted,
		Phone:      "254712345678",
		PackageID:  3,
		ResellerID: 7,
		Amount:     5000,
		Receipt:    &receipt,
	}

	t.Run("valid notification is stored", func(t *testing.T) {
		d.txRepo.EXPECT().Upsert(ctx, valid).Return(nil)
		require.NoError(t, d.svc.RecordNotification(ctx, valid))
	})

	t.Run("missing ref is rejected", func(t *testing.T) {
		n := valid
		n.Ref = ""
		err := d.svc.RecordNotification(ctx, n)
		var appErr *apperror.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "VAL_001", appErr.Code)
	})

	t.Run("missing phone is rejected", func(t *testing.T) {
		n := valid
		n.Phone = ""
		require.Error(t, d.svc.RecordNotification(ctx, n))
	})

	t.Run("unknown status is rejected", func(t *testing.T) {
		n := valid
		n.Status = "refunded"
		require.Error(t, d.svc.RecordNotification(ctx, n))
	})
}

// ==================== Attempts Tests ====================

func TestFulfillmentService_Attempts(t *testing.T) {
	d := setupFulfillmentService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := fulfilledTx("WS-4001", "WIFI-1234")
	attempts := []domain.DeliveryAttempt{
		{TransactionRef: "WS-4001", Gateway: "umeskia", Outcome: domain.DeliveryOutcomeFailed},
		{TransactionRef: "WS-4001", Gateway: "umeskia", Outcome: domain.DeliveryOutcomeSent},
	}

	d.txRepo.EXPECT().GetByRef(ctx, "WS-4001").Return(tx, nil)
	d.deliveryRepo.EXPECT().ListByRef(ctx, "WS-4001").Return(attempts, nil)

	gotTx, gotAttempts, err := d.svc.Attempts(ctx, "WS-4001")
	require.NoError(t, err)
	assert.Equal(t, "WS-4001", gotTx.Ref)
	assert.Len(t, gotAttempts, 2)
}

func TestFulfillmentService_Attempts_UnknownTransaction(t *testing.T) {
	d := setupFulfillmentService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	d.txRepo.EXPECT().GetByRef(ctx, "NOPE").Return(nil, nil)

	_, _, err := d.svc.Attempts(ctx, "NOPE")
	require.Error(t, err)
}
