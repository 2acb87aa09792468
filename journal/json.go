package journal

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/rustyeddy/stockledger/ledger"
)

// Compile-time interface check.
var _ ledger.Store = (*JSON)(nil)

// JSON stores the full transaction history as one JSON file, rewritten
// atomically (write temp, rename) on every change. Simple and human
// readable; the history here is small enough that rewriting it wholesale is
// cheaper than being clever.
type JSON struct {
	mu    sync.Mutex
	path  string
	txs   []ledger.Transaction
	index map[string]int
}

// NewJSON opens the snapshot at path, loading any existing history.
func NewJSON(path string) (*JSON, error) {
	j := &JSON{path: path, index: make(map[string]int)}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return j, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &j.txs); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	for i, tx := range j.txs {
		j.index[tx.OrderID] = i
	}
	return j, nil
}

func (j *JSON) Append(tx ledger.Transaction) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.index[tx.OrderID] = len(j.txs)
	j.txs = append(j.txs, tx)
	return j.save()
}

func (j *JSON) Update(tx ledger.Transaction) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	i, ok := j.index[tx.OrderID]
	if !ok {
		return fmt.Errorf("update: unknown transaction %q", tx.OrderID)
	}
	j.txs[i] = tx
	return j.save()
}

func (j *JSON) LoadAll() ([]ledger.Transaction, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]ledger.Transaction, len(j.txs))
	copy(out, j.txs)
	return out, nil
}

func (j *JSON) Close() error { return nil }

// save writes the snapshot to a temp file in the same directory and renames
// it over the target, so a crash mid-write never loses the previous state.
func (j *JSON) save() error {
	data, err := json.MarshalIndent(j.txs, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(j.path), ".transactions-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), j.path)
}
