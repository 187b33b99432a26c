package pin

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync"
)

// Compile-time check.
var _ Pinner = (*Memory)(nil)

// Memory is an in-process Pinner for development and tests. The CID is
// derived from the SHA-256 of the content.
type Memory struct {
	mu   sync.RWMutex
	docs map[string]Document
}

// NewMemory returns an empty in-memory pinner.
func NewMemory() *Memory {
	return &Memory{docs: make(map[string]Document)}
}

// Pin implements Pinner.
func (m *Memory) Pin(_ context.Context, doc Document) (Ref, error) {
	if len(doc.Data) == 0 {
		return Ref{}, &UploadError{Name: doc.Name, Err: errors.New("empty document")}
	}
	sum := sha256.Sum256(doc.Data)
	cid := "mem" + hex.EncodeToString(sum[:])

	m.mu.Lock()
	m.docs[cid] = Document{Name: doc.Name, ContentType: doc.ContentType, Data: append([]byte(nil), doc.Data...)}
	m.mu.Unlock()
	return Ref{CID: cid, Size: int64(len(doc.Data))}, nil
}

// Get returns the document pinned under cid.
func (m *Memory) Get(cid string) (Document, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.docs[cid]
	return d, ok
}
