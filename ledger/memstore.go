package ledger

import (
	"fmt"
	"sync"
)

// MemoryStore is a Store that keeps the history in memory only. It backs
// tests and throwaway runs; durable backends live in the journal package.
type MemoryStore struct {
	mu    sync.Mutex
	txs   []Transaction
	index map[string]int

	// FailAppend and FailUpdate, when set, make the corresponding write
	// return that error. Tests use them to exercise the best-effort
	// durability path.
	FailAppend error
	FailUpdate error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{index: make(map[string]int)}
}

func (m *MemoryStore) Append(tx Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAppend != nil {
		return m.FailAppend
	}
	m.index[tx.OrderID] = len(m.txs)
	m.txs = append(m.txs, tx)
	return nil
}

func (m *MemoryStore) Update(tx Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailUpdate != nil {
		return m.FailUpdate
	}
	i, ok := m.index[tx.OrderID]
	if !ok {
		return fmt.Errorf("update: unknown transaction %q", tx.OrderID)
	}
	m.txs[i] = tx
	return nil
}

func (m *MemoryStore) LoadAll() ([]Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Transaction, len(m.txs))
	copy(out, m.txs)
	return out, nil
}
