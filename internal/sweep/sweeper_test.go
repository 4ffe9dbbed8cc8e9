package sweep

import (
	"context"
	"errors"
	"testing"
	"time"

	"hotspot-fulfillment/config"
	"hotspot-fulfillment/internal/core/domain"
	"hotspot-fulfillment/internal/core/ports"
	"hotspot-fulfillment/internal/core/ports/mocks"
	"hotspot-fulfillment/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"go.uber.org/mock/gomock"
)

func newTestSweeper(t *testing.T) (*Sweeper, *mocks.MockFulfillmentService, *mocks.MockTransactionRepository, *gomock.Controller) {
	ctrl := gomock.NewController(t)
	fulfillSvc := mocks.NewMockFulfillmentService(ctrl)
	txRepo := mocks.NewMockTransactionRepository(ctrl)
	s := NewSweeper(fulfillSvc, txRepo, config.SweepConfig{
		Enabled:    true,
		Interval:   time.Minute,
		BatchSize:  50,
		RunTimeout: time.Minute,
	}, metrics.New(prometheus.NewRegistry()), zerolog.Nop())
	return s, fulfillSvc, txRepo, ctrl
}

func TestSweeper_RunOnce_RetriesEachUnfulfilled(t *testing.T) {
	s, fulfillSvc, txRepo, ctrl := newTestSweeper(t)
	defer ctrl.Finish()

	txs := []domain.Transaction{
		{Ref: "WS-1", Status: domain.TransactionStatusCompleted},
		{Ref: "WS-2", Status: domain.TransactionStatusCompleted},
		{Ref: "WS-3", Status: domain.TransactionStatusCompleted},
	}
	txRepo.EXPECT().ListUnfulfilled(gomock.Any(), 50).Return(txs, nil)
	fulfillSvc.EXPECT().Fulfill(gomock.Any(), "WS-1").
		Return(&ports.FulfillResult{Status: ports.FulfillStatusFulfilled}, nil)
	fulfillSvc.EXPECT().Fulfill(gomock.Any(), "WS-2").
		Return(&ports.FulfillResult{Status: ports.FulfillStatusNoVoucher}, nil)
	fulfillSvc.EXPECT().Fulfill(gomock.Any(), "WS-3").
		Return(nil, errors.New("gateway down"))

	s.RunOnce(context.Background())
}

func TestSweeper_RunOnce_EmptyBatch(t *testing.T) {
	s, _, txRepo, ctrl := newTestSweeper(t)
	defer ctrl.Finish()

	txRepo.EXPECT().ListUnfulfilled(gomock.Any(), 50).Return(nil, nil)
	s.RunOnce(context.Background())
}

func TestSweeper_RunOnce_ListErrorSkipsPass(t *testing.T) {
	s, _, txRepo, ctrl := newTestSweeper(t)
	defer ctrl.Finish()

	txRepo.EXPECT().ListUnfulfilled(gomock.Any(), 50).Return(nil, errors.New("connection lost"))
	s.RunOnce(context.Background())
}

func TestSweeper_RunForever_StopsOnCancel(t *testing.T) {
	s, _, txRepo, ctrl := newTestSweeper(t)
	defer ctrl.Finish()

	txRepo.EXPECT().ListUnfulfilled(gomock.Any(), 50).Return(nil, nil).AnyTimes()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.RunForever(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop after context cancellation")
	}
}
