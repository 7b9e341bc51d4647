package emitter

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/amirasaad/ledger/pkg/domain/events"
	"github.com/amirasaad/ledger/pkg/eventbus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockBus struct {
	mock.Mock
}

func (m *mockBus) Emit(ctx context.Context, event events.Event) error {
	return m.Called(ctx, event).Error(0)
}

func (m *mockBus) Register(eventType events.EventType, handler eventbus.HandlerFunc) {
	m.Called(eventType, handler)
}

func TestEmit_ContinuesAfterFailure(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	first := &events.AccountStatusChanged{AccountNumber: "1"}
	second := &events.AccountStatusChanged{AccountNumber: "2"}

	bus := new(mockBus)
	bus.On("Emit", mock.Anything, first).Return(errors.New("broker down")).Once()
	bus.On("Emit", mock.Anything, second).Return(nil).Once()

	Emit(context.Background(), bus, logger, first, second)
	bus.AssertExpectations(t)
}

func TestEmit_IgnoresCallerCancellation(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	bus := new(mockBus)
	bus.On("Emit", mock.MatchedBy(func(ctx context.Context) bool { return ctx.Err() == nil }), mock.Anything).Return(nil).Once()

	Emit(ctx, bus, logger, &events.AccountOpened{AccountNumber: "1"})
	bus.AssertExpectations(t)
}

func TestEmit_NilBus(t *testing.T) {
	assert.NotPanics(t, func() {
		Emit(context.Background(), nil, slog.Default(), &events.AccountOpened{})
	})
}
