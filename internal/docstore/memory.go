package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"slices"
	"sync"
)

// Memory is an in-process Store. Transactions hold the store lock for their
// whole duration, so they are trivially serializable.
type Memory struct {
	mu   sync.Mutex
	data map[string]map[string]json.RawMessage
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]map[string]json.RawMessage)}
}

// Get implements Reader.
func (m *Memory) Get(ctx context.Context, collection, id string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.get(collection, id)
}

// Query implements Reader.
func (m *Memory) Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.query(collection, filters)
}

// Set implements Writer.
func (m *Memory) Set(ctx context.Context, collection, id string, v any) error {
	var w writeSet
	if err := w.set(collection, id, v); err != nil {
		return err
	}
	return m.commit(ctx, w.ops)
}

// Update implements Writer.
func (m *Memory) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	var w writeSet
	if err := w.update(collection, id, fields); err != nil {
		return err
	}
	return m.commit(ctx, w.ops)
}

// Delete implements Writer.
func (m *Memory) Delete(ctx context.Context, collection, id string) error {
	var w writeSet
	if err := w.delete(collection, id); err != nil {
		return err
	}
	return m.commit(ctx, w.ops)
}

// Batch implements Store.
func (m *Memory) Batch() Batch {
	return &memoryBatch{m: m}
}

// RunTransaction implements Store.
func (m *Memory) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &memoryTx{m: m}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if tx.writes.err != nil {
		return tx.writes.err
	}
	return m.apply(tx.writes.ops)
}

func (m *Memory) commit(ctx context.Context, ops []writeOp) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.apply(ops)
}

func (m *Memory) get(collection, id string) (*Document, error) {
	doc, ok := m.data[collection][id]
	if !ok {
		return nil, notFound(collection, id)
	}
	return &Document{ID: id, Data: bytes.Clone(doc)}, nil
}

func (m *Memory) query(collection string, filters []Filter) ([]Document, error) {
	operands := make([]any, len(filters))
	for i, f := range filters {
		if err := f.validate(); err != nil {
			return nil, err
		}
		v, err := f.operand()
		if err != nil {
			return nil, err
		}
		operands[i] = v
	}

	docs := m.data[collection]
	ids := make([]string, 0, len(docs))
	for id := range docs {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	var out []Document
	for _, id := range ids {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(docs[id], &obj); err != nil {
			continue
		}
		matched := true
		for i, f := range filters {
			if !f.match(obj, operands[i]) {
				matched = false
				break
			}
		}
		if matched {
			out = append(out, Document{ID: id, Data: bytes.Clone(docs[id])})
		}
	}
	return out, nil
}

type docKey struct {
	collection string
	id         string
}

// apply validates every op against the current state before changing
// anything, so a failing op leaves the store untouched.
func (m *Memory) apply(ops []writeOp) error {
	staged := make(map[docKey]json.RawMessage)
	deleted := make(map[docKey]bool)

	lookup := func(k docKey) (json.RawMessage, bool) {
		if deleted[k] {
			return nil, false
		}
		if doc, ok := staged[k]; ok {
			return doc, true
		}
		doc, ok := m.data[k.collection][k.id]
		return doc, ok
	}

	for _, op := range ops {
		k := docKey{op.collection, op.id}
		switch op.kind {
		case opSet:
			staged[k] = op.data
			delete(deleted, k)
		case opUpdate:
			current, ok := lookup(k)
			if !ok {
				return notFound(op.collection, op.id)
			}
			merged, err := mergeFields(current, op.fields)
			if err != nil {
				return err
			}
			staged[k] = merged
		case opDelete:
			deleted[k] = true
			delete(staged, k)
		}
	}

	for k := range deleted {
		delete(m.data[k.collection], k.id)
	}
	for k, doc := range staged {
		if m.data[k.collection] == nil {
			m.data[k.collection] = make(map[string]json.RawMessage)
		}
		m.data[k.collection][k.id] = doc
	}
	return nil
}

type memoryBatch struct {
	m      *Memory
	writes writeSet
}

func (b *memoryBatch) Set(collection, id string, v any) { _ = b.writes.set(collection, id, v) }

func (b *memoryBatch) Update(collection, id string, fields map[string]any) {
	_ = b.writes.update(collection, id, fields)
}

func (b *memoryBatch) Delete(collection, id string) { _ = b.writes.delete(collection, id) }

func (b *memoryBatch) Commit(ctx context.Context) error {
	if b.writes.err != nil {
		return b.writes.err
	}
	return b.m.commit(ctx, b.writes.ops)
}

// memoryTx runs with the store lock already held.
type memoryTx struct {
	m      *Memory
	writes writeSet
}

func (tx *memoryTx) Get(ctx context.Context, collection, id string) (*Document, error) {
	if len(tx.writes.ops) > 0 {
		return nil, ErrReadAfterWrite
	}
	return tx.m.get(collection, id)
}

func (tx *memoryTx) Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error) {
	if len(tx.writes.ops) > 0 {
		return nil, ErrReadAfterWrite
	}
	return tx.m.query(collection, filters)
}

func (tx *memoryTx) Set(ctx context.Context, collection, id string, v any) error {
	return tx.writes.set(collection, id, v)
}

func (tx *memoryTx) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	return tx.writes.update(collection, id, fields)
}

func (tx *memoryTx) Delete(ctx context.Context, collection, id string) error {
	return tx.writes.delete(collection, id)
}
