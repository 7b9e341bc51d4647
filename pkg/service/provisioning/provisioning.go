// Package provisioning opens new ledger accounts.
package provisioning

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"regexp"
	"time"

	"github.com/amirasaad/ledger/pkg/config"
	"github.com/amirasaad/ledger/pkg/domain/account"
	"github.com/amirasaad/ledger/pkg/domain/events"
	"github.com/amirasaad/ledger/pkg/eventbus"
	"github.com/amirasaad/ledger/pkg/money"
	"github.com/amirasaad/ledger/pkg/repository"
	"github.com/amirasaad/ledger/pkg/service/internal/emitter"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	numberDigits   = 12
	maxNumberTries = 5
)

var (
	// ErrInvalidBranch is returned when the branch code is not a valid IFSC.
	ErrInvalidBranch = errors.New("invalid branch IFSC code")
	// ErrOwnerRequired is returned when no owning user is given.
	ErrOwnerRequired = errors.New("account owner is required")

	ifscPattern = regexp.MustCompile(`^[A-Z]{4}0[A-Z0-9]{6}$`)
	numberSpace = new(big.Int).Exp(big.NewInt(10), big.NewInt(numberDigits), nil)
	numberFloor = new(big.Int).Exp(big.NewInt(10), big.NewInt(numberDigits-1), nil)
)

// OpenRequest describes a new account. Zero values take the defaults of the
// account type and the configured home branch.
type OpenRequest struct {
	UserID         uuid.UUID
	Type           account.Type
	Currency       money.Code
	BranchIFSC     string
	OpeningBalance decimal.Decimal
	OverdraftLimit decimal.Decimal
	InterestRate   *decimal.Decimal
}

// NumberGenerator returns a candidate account number.
type NumberGenerator func() (string, error)

// Option configures a Service.
type Option func(*Service)

// WithNumberGenerator replaces the random 12 digit generator.
func WithNumberGenerator(g NumberGenerator) Option {
	return func(s *Service) { s.numbers = g }
}

// Service persists new accounts and announces them with an AccountOpened event.
type Service struct {
	uow           repository.UnitOfWork
	bus           eventbus.Bus
	logger        *slog.Logger
	defaultBranch string
	numbers       NumberGenerator
	now           func() time.Time
}

// NewService creates a provisioning Service.
func NewService(deps config.Deps, opts ...Option) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		uow:     deps.Uow,
		bus:     deps.EventBus,
		logger:  logger.With("service", "provisioning"),
		numbers: RandomNumber,
		now:     func() time.Time { return time.Now().UTC() },
	}
	if deps.Config != nil && deps.Config.Ledger != nil {
		s.defaultBranch = deps.Config.Ledger.DefaultBranch
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open validates req, assigns an unused account number and stores the account
// with its balance equal to the opening balance.
func (s *Service) Open(ctx context.Context, req OpenRequest) (*account.Account, error) {
	logger := s.logger.With("op", "open", "user", req.UserID, "type", req.Type)
	logger.Info("Open account started")

	acc, err := s.open(ctx, req)
	if err != nil {
		logger.Error("Open account failed", "error", err)
		return nil, fmt.Errorf("open account: %w", err)
	}
	logger.Info("Open account successful", "account", acc.Number)

	emitter.Emit(ctx, s.bus, s.logger, &events.AccountOpened{
		AccountNumber:  acc.Number,
		UserID:         acc.UserID,
		AccountType:    acc.Type.String(),
		OpeningBalance: acc.OpeningBalance,
		OccurredAt:     acc.CreatedAt,
	})
	return acc, nil
}

func (s *Service) open(ctx context.Context, req OpenRequest) (*account.Account, error) {
	if req.UserID == uuid.Nil {
		return nil, ErrOwnerRequired
	}
	if req.Type == "" {
		req.Type = account.TypeSavings
	}
	if req.Currency == "" {
		req.Currency = money.DefaultCode
	}
	if req.BranchIFSC == "" {
		req.BranchIFSC = s.defaultBranch
	}
	if !ifscPattern.MatchString(req.BranchIFSC) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBranch, req.BranchIFSC)
	}
	if req.OpeningBalance.IsNegative() {
		return nil, fmt.Errorf("%w: opening balance cannot be negative", account.ErrInvalidAmount)
	}
	opening, err := money.New(req.OpeningBalance, req.Currency)
	if err != nil {
		return nil, err
	}
	overdraft, err := money.New(req.OverdraftLimit, req.Currency)
	if err != nil {
		return nil, err
	}

	for try := 0; try < maxNumberTries; try++ {
		number, err := s.numbers()
		if err != nil {
			return nil, fmt.Errorf("generate account number: %w", err)
		}
		now := s.now()
		b := account.New().
			WithNumber(number).
			WithUserID(req.UserID).
			WithType(req.Type).
			WithCurrency(req.Currency).
			WithBalance(opening.Amount()).
			WithOverdraftLimit(overdraft.Amount()).
			WithBranch(req.BranchIFSC).
			WithCreatedAt(now).
			WithUpdatedAt(now)
		if req.InterestRate != nil {
			b.WithInterestRate(*req.InterestRate)
		}
		acc, err := b.Build()
		if err != nil {
			return nil, err
		}

		err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
			repo, err := uow.AccountRepository()
			if err != nil {
				return err
			}
			return repo.Create(ctx, acc)
		})
		if errors.Is(err, account.ErrAccountAlreadyExists) {
			s.logger.Warn("Account number collision, retrying", "account", number)
			continue
		}
		if err != nil {
			return nil, err
		}
		return acc, nil
	}
	return nil, fmt.Errorf("%w: no free number after %d tries", account.ErrAccountAlreadyExists, maxNumberTries)
}

// RandomNumber draws a uniformly random 12 digit account number without a leading zero.
func RandomNumber() (string, error) {
	n, err := rand.Int(rand.Reader, new(big.Int).Sub(numberSpace, numberFloor))
	if err != nil {
		return "", err
	}
	return n.Add(n, numberFloor).String(), nil
}
