package config

import (
	"log/slog"
	"time"

	"github.com/amirasaad/ledger/pkg/eventbus"
	"github.com/amirasaad/ledger/pkg/lock"
	"github.com/amirasaad/ledger/pkg/repository"
)

// DefaultLockTimeout bounds lock waits when no ledger config is supplied.
const DefaultLockTimeout = 5 * time.Second

// Deps holds all infrastructure dependencies for building the services.
type Deps struct {
	Uow      repository.UnitOfWork
	Locker   lock.Locker
	EventBus eventbus.Bus
	Logger   *slog.Logger
	Config   *App
}

// LockTimeout returns the configured lock wait bound.
func (d Deps) LockTimeout() time.Duration {
	if d.Config == nil || d.Config.Ledger == nil || d.Config.Ledger.LockTimeout <= 0 {
		return DefaultLockTimeout
	}
	return d.Config.Ledger.LockTimeout
}
