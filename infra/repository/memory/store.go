// Package memory provides an in-process Account Store and Transaction Log.
//
// Writes made inside a unit of work are staged and validated and applied under the
// store mutex in one step, so readers never observe a partial commit.
package memory

import (
	"fmt"
	"sort"
	"sync"

	"github.com/amirasaad/ledger/pkg/domain/account"
	"github.com/google/uuid"
)

type idempotencyKey struct {
	number string
	key    string
}

// Store holds committed accounts and log records.
type Store struct {
	mu            sync.RWMutex
	accounts      map[string]*account.Account
	byUser        map[uuid.UUID][]string
	records       []*account.Transaction
	byID          map[uuid.UUID]int
	byAccount     map[string][]int
	byCorrelation map[uuid.UUID][]int
	byIdempotency map[idempotencyKey]int
	sequence      int64
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		accounts:      make(map[string]*account.Account),
		byUser:        make(map[uuid.UUID][]string),
		byID:          make(map[uuid.UUID]int),
		byAccount:     make(map[string][]int),
		byCorrelation: make(map[uuid.UUID][]int),
		byIdempotency: make(map[idempotencyKey]int),
	}
}

func (s *Store) getAccount(number string) (*account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acc, ok := s.accounts[number]
	if !ok {
		return nil, fmt.Errorf("%w: %s", account.ErrAccountNotFound, number)
	}
	return acc.Clone(), nil
}

func (s *Store) listByUser(userID uuid.UUID) []*account.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	numbers := s.byUser[userID]
	out := make([]*account.Account, 0, len(numbers))
	for _, n := range numbers {
		out = append(out, s.accounts[n].Clone())
	}
	return out
}

func (s *Store) recordsAt(idx []int) []*account.Transaction {
	out := make([]*account.Transaction, 0, len(idx))
	for _, i := range idx {
		out = append(out, s.records[i].Clone())
	}
	return out
}

func (s *Store) getRecord(id uuid.UUID) (*account.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", account.ErrTransactionNotFound, id)
	}
	return s.records[i].Clone(), nil
}

func (s *Store) listByAccount(number string) []*account.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.recordsAt(s.byAccount[number])
}

func (s *Store) listByCorrelation(id uuid.UUID) []*account.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.recordsAt(s.byCorrelation[id])
}

func (s *Store) findByIdempotencyKey(number, key string) (*account.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byIdempotency[idempotencyKey{number, key}]
	if !ok {
		return nil, account.ErrTransactionNotFound
	}
	return s.records[i].Clone(), nil
}

// commit validates the staged write set against committed state and applies it atomically.
func (s *Store) commit(w *writeSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, acc := range w.creates {
		if _, ok := s.accounts[acc.Number]; ok {
			return fmt.Errorf("%w: %s", account.ErrAccountAlreadyExists, acc.Number)
		}
	}
	for number, u := range w.updates {
		if _, created := w.creates[number]; created {
			continue
		}
		stored, ok := s.accounts[number]
		if !ok {
			return fmt.Errorf("%w: %s", account.ErrAccountNotFound, number)
		}
		if stored.Version != u.expected {
			return fmt.Errorf("%w: account %s version %d, expected %d",
				account.ErrConflict, number, stored.Version, u.expected)
		}
	}
	for _, r := range w.appends {
		if _, ok := s.byID[r.ID]; ok {
			return fmt.Errorf("%w: duplicate record %s", account.ErrConflict, r.ID)
		}
		if r.IdempotencyKey == "" {
			continue
		}
		if _, ok := s.byIdempotency[idempotencyKey{r.AccountNumber, r.IdempotencyKey}]; ok {
			return fmt.Errorf("%w: idempotency key %q already used on %s",
				account.ErrConflict, r.IdempotencyKey, r.AccountNumber)
		}
	}

	for _, number := range w.createOrder {
		acc := w.creates[number]
		s.accounts[number] = acc.Clone()
		owned := append(s.byUser[acc.UserID], number)
		sort.Strings(owned)
		s.byUser[acc.UserID] = owned
	}
	for number, u := range w.updates {
		s.accounts[number] = u.acc.Clone()
	}
	for _, r := range w.appends {
		s.sequence++
		r.Sequence = s.sequence
		stored := r.Clone()
		i := len(s.records)
		s.records = append(s.records, stored)
		s.byID[stored.ID] = i
		s.byAccount[stored.AccountNumber] = append(s.byAccount[stored.AccountNumber], i)
		s.byCorrelation[stored.CorrelationID] = append(s.byCorrelation[stored.CorrelationID], i)
		if stored.IdempotencyKey != "" {
			s.byIdempotency[idempotencyKey{stored.AccountNumber, stored.IdempotencyKey}] = i
		}
	}
	return nil
}
