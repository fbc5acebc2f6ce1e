package fakebank

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"facebank/pkg/platform/sentinel"
)

// ErrInsufficientFunds is returned by Transfer when the source balance is too low.
var ErrInsufficientFunds = errors.New("insufficient funds")

// Registration is a pending onboarding: the claim and its one-time code.
type Registration struct {
	Name      string
	Email     string
	CodeHash  string
	ExpiresAt time.Time
	Used      bool
	Verified  bool
}

// Account is an enrolled customer.
type Account struct {
	Handle  string
	Name    string
	Email   string
	PinHash []byte
	Face    string
	Balance int64 // cents
	Live    bool
}

// Transaction is one transfer between accounts.
type Transaction struct {
	ID          string
	FromAccount string
	ToAccount   string
	Amount      int64 // cents
	At          time.Time
}

// Store keeps the fake bank's state in memory.
type Store struct {
	mu            sync.RWMutex
	registrations map[string]*Registration
	accounts      map[string]*Account
	byEmail       map[string]string
	ledger        []Transaction
}

func NewStore() *Store {
	return &Store{
		registrations: make(map[string]*Registration),
		accounts:      make(map[string]*Account),
		byEmail:       make(map[string]string),
	}
}

// HashCode hashes a one-time code for storage.
func HashCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SaveRegistration replaces any pending registration for the same email.
func (s *Store) SaveRegistration(reg *Registration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *reg
	copied.Email = normalizeEmail(reg.Email)
	s.registrations[copied.Email] = &copied
}

func (s *Store) FindRegistration(email string) (*Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	reg, ok := s.registrations[normalizeEmail(email)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *reg
	return &copied, nil
}

// ConsumeCode checks code against the pending registration and marks it used and the
// email verified. A code can be consumed exactly once.
func (s *Store) ConsumeCode(email, code string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	reg, ok := s.registrations[normalizeEmail(email)]
	switch {
	case !ok:
		return sentinel.ErrNotFound
	case reg.Used:
		return sentinel.ErrAlreadyUsed
	case now.After(reg.ExpiresAt):
		return sentinel.ErrExpired
	case subtle.ConstantTimeCompare([]byte(reg.CodeHash), []byte(HashCode(code))) != 1:
		return sentinel.ErrMismatch
	}
	reg.Used = true
	reg.Verified = true
	return nil
}

func (s *Store) DeleteRegistration(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.registrations, normalizeEmail(email))
}

// DeleteExpiredRegistrations drops unverified registrations whose code expired.
func (s *Store) DeleteExpiredRegistrations(now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := 0
	for email, reg := range s.registrations {
		if !reg.Verified && now.After(reg.ExpiresAt) {
			delete(s.registrations, email)
			deleted++
		}
	}
	return deleted, nil
}

// CreateAccount stores a new account. Handles and emails are unique.
func (s *Store) CreateAccount(acc *Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	email := normalizeEmail(acc.Email)
	if _, exists := s.accounts[acc.Handle]; exists {
		return fmt.Errorf("account %s: %w", acc.Handle, sentinel.ErrAlreadyUsed)
	}
	if _, exists := s.byEmail[email]; exists {
		return fmt.Errorf("email: %w", sentinel.ErrAlreadyUsed)
	}
	copied := *acc
	copied.Email = email
	s.accounts[acc.Handle] = &copied
	s.byEmail[email] = acc.Handle
	return nil
}

func (s *Store) FindAccount(handle string) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acc, ok := s.accounts[handle]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *acc
	return &copied, nil
}

func (s *Store) FindAccountByEmail(email string) (*Account, error) {
	s.mu.RLock()
	handle, ok := s.byEmail[normalizeEmail(email)]
	s.mu.RUnlock()
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.FindAccount(handle)
}

func (s *Store) EmailRegistered(email string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byEmail[normalizeEmail(email)]
	return ok
}

func (s *Store) UpdatePinHash(handle string, hash []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[handle]
	if !ok {
		return sentinel.ErrNotFound
	}
	acc.PinHash = hash
	return nil
}

// SetLive toggles whether face checks for the account pass.
func (s *Store) SetLive(handle string, live bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[handle]
	if !ok {
		return sentinel.ErrNotFound
	}
	acc.Live = live
	return nil
}

// Transfer moves amount cents between two accounts atomically.
func (s *Store) Transfer(id, from, to string, amount int64, at time.Time) (Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	src, ok := s.accounts[from]
	if !ok {
		return Transaction{}, fmt.Errorf("source: %w", sentinel.ErrNotFound)
	}
	dst, ok := s.accounts[to]
	if !ok {
		return Transaction{}, fmt.Errorf("destination: %w", sentinel.ErrNotFound)
	}
	if src.Balance < amount {
		return Transaction{}, ErrInsufficientFunds
	}
	src.Balance -= amount
	dst.Balance += amount
	tx := Transaction{ID: id, FromAccount: from, ToAccount: to, Amount: amount, At: at}
	s.ledger = append(s.ledger, tx)
	return tx, nil
}

// Transactions returns the account's sent and received transfers, newest first.
func (s *Store) Transactions(handle string) (sent, received []Transaction) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sent, received = []Transaction{}, []Transaction{}
	for _, tx := range s.ledger {
		if tx.FromAccount == handle {
			sent = append(sent, tx)
		}
		if tx.ToAccount == handle {
			received = append(received, tx)
		}
	}
	newestFirst := func(txs []Transaction) {
		sort.SliceStable(txs, func(i, j int) bool { return txs[i].At.After(txs[j].At) })
	}
	newestFirst(sent)
	newestFirst(received)
	return sent, received
}
