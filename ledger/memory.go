package ledger

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sync"
)

// Compile-time check.
var _ Ledger = (*Memory)(nil)

// Memory is an in-process ledger for development and tests. It keeps
// wills and submitted allocations in memory and hands out random
// transaction references.
type Memory struct {
	mu          sync.Mutex
	wills       map[string]TxRef
	submissions [][]Allocation
	failNext    []error
}

// NewMemory returns an empty in-memory ledger.
func NewMemory() *Memory {
	return &Memory{wills: make(map[string]TxRef)}
}

// FailNext makes the next calls return errs, one per call, in order.
func (m *Memory) FailNext(errs ...error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = append(m.failNext, errs...)
}

// Submitted returns every accepted allocation batch, oldest first.
func (m *Memory) Submitted() [][]Allocation {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]Allocation, len(m.submissions))
	for i, s := range m.submissions {
		out[i] = append([]Allocation(nil), s...)
	}
	return out
}

// Submit implements Ledger.
func (m *Memory) Submit(_ context.Context, allocs []Allocation) (TxRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.popFailure(); err != nil {
		return "", err
	}
	if len(allocs) == 0 {
		return "", &Error{Kind: KindRejected, Message: "no allocations"}
	}
	m.submissions = append(m.submissions, append([]Allocation(nil), allocs...))
	return newTxRef(), nil
}

// HasWill implements Ledger.
func (m *Memory) HasWill(_ context.Context, owner string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.popFailure(); err != nil {
		return false, err
	}
	_, ok := m.wills[owner]
	return ok, nil
}

// WillTransaction implements Ledger.
func (m *Memory) WillTransaction(_ context.Context, owner string) (TxRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.popFailure(); err != nil {
		return "", err
	}
	tx, ok := m.wills[owner]
	if !ok {
		return "", &Error{Kind: KindNotFound, Message: "no will for " + owner}
	}
	return tx, nil
}

// CreateWill implements Ledger.
func (m *Memory) CreateWill(_ context.Context, w Will) (TxRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.popFailure(); err != nil {
		return "", err
	}
	if _, exists := m.wills[w.Owner]; exists {
		return "", &Error{Kind: KindRejected, Message: "will already exists"}
	}
	tx := newTxRef()
	m.wills[w.Owner] = tx
	return tx, nil
}

func (m *Memory) popFailure() error {
	if len(m.failNext) == 0 {
		return nil
	}
	err := m.failNext[0]
	m.failNext = m.failNext[1:]
	return err
}

func newTxRef() TxRef {
	var b [32]byte
	_, _ = rand.Read(b[:]) //nolint:errcheck // crypto/rand never fails
	return TxRef("0x" + hex.EncodeToString(b[:]))
}
