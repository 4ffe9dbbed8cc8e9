package service

import (
	"context"
	"fmt"
	"time"

	"hotspot-fulfillment/internal/core/domain"
	"hotspot-fulfillment/internal/core/ports"
	"hotspot-fulfillment/internal/metrics"
	"hotspot-fulfillment/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// FulfillmentServiceImpl implements ports.FulfillmentService. It is the
// single convergence point for every trigger: gateway callback, sweep
// pass, and manual operator action all funnel into Fulfill, so the
// claim/bind/notify sequence lives in exactly one place.
type FulfillmentServiceImpl struct {
	txRepo       ports.TransactionRepository
	voucherRepo  ports.VoucherRepository
	deliveryRepo ports.DeliveryRepository
	pkgRepo      ports.PackageRepository
	notifier     ports.Notifier
	metrics      *metrics.Metrics
	log          zerolog.Logger
}

// NewFulfillmentService creates a new FulfillmentServiceImpl.
func NewFulfillmentService(
	txRepo ports.TransactionRepository,
	voucherRepo ports.VoucherRepository,
	deliveryRepo ports.DeliveryRepository,
	pkgRepo ports.PackageRepository,
	notifier ports.Notifier,
	m *metrics.Metrics,
	log zerolog.Logger,
) *FulfillmentServiceImpl {
	return &FulfillmentServiceImpl{
		txRepo:       txRepo,
		voucherRepo:  voucherRepo,
		deliveryRepo: deliveryRepo,
		pkgRepo:      pkgRepo,
		notifier:     notifier,
		metrics:      m,
		log:          log,
	}
}

// Fulfill drives one transaction to its terminal state: claim a voucher,
// bind it, notify the customer. Invoking it again for the same reference
// re-delivers the bound voucher instead of claiming a second one.
func (s *FulfillmentServiceImpl) Fulfill(ctx context.Context, ref string) (*ports.FulfillResult, error) {
	tx, err := s.txRepo.GetByRef(ctx, ref)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("load transaction: %w", err))
	}
	if tx == nil {
		return nil, apperror.ErrUnknownTransaction(ref)
	}

	if tx.Status == domain.TransactionStatusFailed {
		return nil, apperror.ErrTransactionFailed(ref)
	}
	if !tx.IsCompleted() {
		s.metrics.Fulfillments.WithLabelValues(string(ports.FulfillStatusNotYetCompleted)).Inc()
		return &ports.FulfillResult{Status: ports.FulfillStatusNotYetCompleted}, nil
	}

	if tx.IsFulfilled() {
		return s.redeliver(ctx, tx)
	}

	voucher, err := s.voucherRepo.Claim(ctx, tx.PackageID, tx.ResellerID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("claim voucher: %w", err))
	}
	if voucher == nil {
		s.metrics.VoucherClaims.WithLabelValues("exhausted").Inc()
		s.metrics.Fulfillments.WithLabelValues(string(ports.FulfillStatusNoVoucher)).Inc()
		if err := s.txRepo.SetNote(ctx, ref, domain.NoteNoVoucher); err != nil {
			s.log.Error().Err(err).Str("ref", ref).Msg("failed to mark transaction as voucher-starved")
		}
		s.log.Warn().
			Str("ref", ref).
			Int64("package_id", tx.PackageID).
			Int64("reseller_id", tx.ResellerID).
			Msg("voucher pool exhausted")
		return &ports.FulfillResult{Status: ports.FulfillStatusNoVoucher}, nil
	}
	s.metrics.VoucherClaims.WithLabelValues("claimed").Inc()

	bound, err := s.txRepo.BindVoucher(ctx, ref, voucher.ID, voucher.Code)
	if err != nil {
		// Bind state unknown; leave the voucher claimed rather than risk
		// releasing one that is actually bound. The sweep retries the ref.
		return nil, apperror.ErrDatabaseError(fmt.Errorf("bind voucher: %w", err))
	}
	if !bound {
		// A concurrent run bound first. Our claim was never exposed to the
		// customer, so it goes back to the pool, and we re-deliver the
		// winner's voucher.
		if err := s.voucherRepo.Release(ctx, voucher.ID); err != nil {
			s.log.Error().Err(err).Int64("voucher_id", voucher.ID).Msg("failed to release voucher after lost bind race")
		} else {
			s.metrics.VoucherClaims.WithLabelValues("released").Inc()
		}

		winner, err := s.txRepo.GetByRef(ctx, ref)
		if err != nil {
			return nil, apperror.ErrDatabaseError(fmt.Errorf("reload transaction: %w", err))
		}
		if winner == nil || !winner.IsFulfilled() {
			return nil, apperror.InternalError(fmt.Errorf("transaction %s lost bind race but has no voucher bound", ref))
		}
		return s.redeliver(ctx, winner)
	}

	if err := s.voucherRepo.BindCustomer(ctx, voucher.ID, tx.Phone); err != nil {
		s.log.Error().Err(err).Int64("voucher_id", voucher.ID).Msg("failed to record customer phone on voucher")
	}

	s.log.Info().
		Str("ref", ref).
		Str("voucher_code", voucher.Code).
		Msg("voucher bound to transaction")

	delivery := s.notify(ctx, tx, voucher)
	s.metrics.Fulfillments.WithLabelValues(string(ports.FulfillStatusFulfilled)).Inc()
	return &ports.FulfillResult{
		Status:   ports.FulfillStatusFulfilled,
		Voucher:  voucher,
		Delivery: delivery,
	}, nil
}

// Resend re-delivers the voucher already bound to a transaction. State
// is never modified beyond the appended audit row.
func (s *FulfillmentServiceImpl) Resend(ctx context.Context, ref string) (*domain.DeliveryResult, error) {
	tx, err := s.txRepo.GetByRef(ctx, ref)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("load transaction: %w", err))
	}
	if tx == nil {
		return nil, apperror.ErrUnknownTransaction(ref)
	}
	if !tx.IsFulfilled() {
		return nil, apperror.ErrNoVoucherBound(ref)
	}

	voucher := s.boundVoucher(ctx, tx)
	return s.notify(ctx, tx, voucher), nil
}

// RecordNotification ingests a payment-gateway notification. Replayed
// or out-of-order notifications never demote a completed transaction.
func (s *FulfillmentServiceImpl) RecordNotification(ctx context.Context, n domain.PaymentNotification) error {
	if n.Ref == "" {
		return apperror.Validation("transaction reference is required")
	}
	if n.Phone == "" {
		return apperror.Validation("customer phone is required")
	}
	if n.PackageID <= 0 {
		return apperror.Validation("package id is required")
	}
	switch n.Status {
	case domain.TransactionStatusPending, domain.TransactionStatusCompleted, domain.TransactionStatusFailed:
	default:
		return apperror.Validation(fmt.Sprintf("unknown transaction status %q", n.Status))
	}

	if err := s.txRepo.Upsert(ctx, n); err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("record notification: %w", err))
	}

	s.log.Info().
		Str("ref", n.Ref).
		Str("status", string(n.Status)).
		Msg("payment notification recorded")
	return nil
}

// Attempts returns the transaction and its full delivery audit trail.
func (s *FulfillmentServiceImpl) Attempts(ctx context.Context, ref string) (*domain.Transaction, []domain.DeliveryAttempt, error) {
	tx, err := s.txRepo.GetByRef(ctx, ref)
	if err != nil {
		return nil, nil, apperror.ErrDatabaseError(fmt.Errorf("load transaction: %w", err))
	}
	if tx == nil {
		return nil, nil, apperror.ErrUnknownTransaction(ref)
	}

	attempts, err := s.deliveryRepo.ListByRef(ctx, ref)
	if err != nil {
		return nil, nil, apperror.ErrDatabaseError(fmt.Errorf("list delivery attempts: %w", err))
	}
	return tx, attempts, nil
}

// redeliver handles the already-fulfilled path: same voucher, fresh SMS.
func (s *FulfillmentServiceImpl) redeliver(ctx context.Context, tx *domain.Transaction) (*ports.FulfillResult, error) {
	voucher := s.boundVoucher(ctx, tx)
	delivery := s.notify(ctx, tx, voucher)
	s.metrics.Fulfillments.WithLabelValues(string(ports.FulfillStatusAlreadyFulfilled)).Inc()
	return &ports.FulfillResult{
		Status:   ports.FulfillStatusAlreadyFulfilled,
		Voucher:  voucher,
		Delivery: delivery,
	}, nil
}

// boundVoucher loads the voucher row bound to tx. When the row cannot
// be loaded the code on the transaction still lets us render a usable
// SMS, so delivery proceeds with code-only credentials.
func (s *FulfillmentServiceImpl) boundVoucher(ctx context.Context, tx *domain.Transaction) *domain.Voucher {
	voucher, err := s.voucherRepo.GetByCode(ctx, *tx.VoucherCode)
	if err != nil {
		s.log.Error().Err(err).Str("code", *tx.VoucherCode).Msg("failed to load bound voucher")
	}
	if voucher == nil {
		voucher = &domain.Voucher{Code: *tx.VoucherCode, PackageID: tx.PackageID, ResellerID: tx.ResellerID}
		if tx.VoucherID != nil {
			voucher.ID = *tx.VoucherID
		}
	}
	return voucher
}

// notify sends the voucher SMS and appends exactly one audit row,
// success or failure.
func (s *FulfillmentServiceImpl) notify(ctx context.Context, tx *domain.Transaction, voucher *domain.Voucher) *domain.DeliveryResult {
	username, password := voucher.Credentials()
	msg := domain.VoucherMessage{
		Code:     voucher.Code,
		Username: username,
		Password: password,
	}

	pkg, err := s.pkgRepo.GetByID(ctx, tx.PackageID)
	if err != nil {
		s.log.Warn().Err(err).Int64("package_id", tx.PackageID).Msg("failed to load package for SMS rendering")
	}
	if pkg != nil {
		msg.PackageName = pkg.Name
		msg.Duration = pkg.Duration
	} else {
		msg.PackageName = fmt.Sprintf("Package %d", tx.PackageID)
	}

	result := s.notifier.Send(ctx, tx.Phone, msg)

	attempt := &domain.DeliveryAttempt{
		ID:             uuid.New(),
		TransactionRef: tx.Ref,
		Gateway:        result.Gateway,
		CreatedAt:      time.Now().UTC(),
	}
	if result.Success {
		attempt.Outcome = domain.DeliveryOutcomeSent
		if result.ProviderMessageID != "" {
			id := result.ProviderMessageID
			attempt.ProviderMessageID = &id
		}
	} else {
		attempt.Outcome = domain.DeliveryOutcomeFailed
		if result.Error != "" {
			detail := result.Error
			attempt.ErrorDetail = &detail
		}
	}

	// The SMS is already on the wire; losing the audit row must not fail
	// the fulfillment.
	if err := s.deliveryRepo.Append(ctx, attempt); err != nil {
		s.log.Error().Err(err).Str("ref", tx.Ref).Msg("failed to append delivery attempt")
	}
	s.metrics.DeliveryAttempts.WithLabelValues(result.Gateway, string(attempt.Outcome)).Inc()

	if !result.Success {
		s.log.Warn().
			Str("ref", tx.Ref).
			Str("gateway", result.Gateway).
			Str("error", result.Error).
			Msg("voucher SMS delivery failed")
	}

	return &result
}
