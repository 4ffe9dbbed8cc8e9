package sweep

import (
	"context"
	"time"

	"hotspot-fulfillment/config"
	"hotspot-fulfillment/internal/core/ports"
	"hotspot-fulfillment/internal/metrics"

	"github.com/rs/zerolog"
)

// Sweeper periodically retries completed transactions that still have
// no voucher bound: pool-exhausted payments, crashed fulfillments, and
// callbacks the webhook never delivered to the service. It reuses the
// same Fulfill entry point as every other trigger, so all idempotency
// guarantees carry over.
type Sweeper struct {
	fulfillSvc ports.FulfillmentService
	txRepo     ports.TransactionRepository
	cfg        config.SweepConfig
	metrics    *metrics.Metrics
	log        zerolog.Logger
}

// NewSweeper creates a new Sweeper.
func NewSweeper(
	fulfillSvc ports.FulfillmentService,
	txRepo ports.TransactionRepository,
	cfg config.SweepConfig,
	m *metrics.Metrics,
	log zerolog.Logger,
) *Sweeper {
	return &Sweeper{
		fulfillSvc: fulfillSvc,
		txRepo:     txRepo,
		cfg:        cfg,
		metrics:    m,
		log:        log,
	}
}

// RunForever runs sweep passes on the configured interval until the
// context is cancelled. The first pass runs immediately.
func (s *Sweeper) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		s.RunOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunOnce performs a single sweep pass over at most BatchSize
// transactions. Failures on one transaction never stop the pass.
func (s *Sweeper) RunOnce(ctx context.Context) {
	runCtx := ctx
	if s.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.cfg.RunTimeout)
		defer cancel()
	}

	txs, err := s.txRepo.ListUnfulfilled(runCtx, s.cfg.BatchSize)
	if err != nil {
		s.log.Error().Err(err).Msg("sweep: listing unfulfilled transactions failed")
		return
	}
	if len(txs) == 0 {
		s.metrics.SweepRuns.Inc()
		return
	}

	s.log.Info().Int("count", len(txs)).Msg("sweep: retrying unfulfilled transactions")

	var fulfilled, starved, failed int
	for _, tx := range txs {
		if runCtx.Err() != nil {
			s.log.Warn().Msg("sweep: run timeout reached, pass truncated")
			break
		}

		result, err := s.fulfillSvc.Fulfill(runCtx, tx.Ref)
		if err != nil {
			failed++
			s.log.Error().Err(err).Str("ref", tx.Ref).Msg("sweep: fulfillment failed")
			continue
		}
		switch result.Status {
		case ports.FulfillStatusFulfilled, ports.FulfillStatusAlreadyFulfilled:
			fulfilled++
		case ports.FulfillStatusNoVoucher:
			starved++
		}
	}

	s.metrics.SweepRuns.Inc()
	s.log.Info().
		Int("fulfilled", fulfilled).
		Int("no_voucher", starved).
		Int("failed", failed).
		Msg("sweep: pass complete")
}
