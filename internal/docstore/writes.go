package docstore

import (
	"encoding/json"
	"errors"
	"fmt"
)

type opKind int

const (
	opSet opKind = iota
	opUpdate
	opDelete
)

type writeOp struct {
	kind       opKind
	collection string
	id         string
	data       json.RawMessage            // opSet
	fields     map[string]json.RawMessage // opUpdate
}

// writeSet buffers writes for batches and transactions. The first error
// sticks and fails the commit.
type writeSet struct {
	ops []writeOp
	err error
}

func (w *writeSet) set(collection, id string, v any) error {
	if w.err != nil {
		return w.err
	}
	if err := checkKey(collection, id); err != nil {
		w.err = err
		return err
	}
	data, err := encodeObject(v)
	if err != nil {
		w.err = fmt.Errorf("encoding %s/%s: %w", collection, id, err)
		return w.err
	}
	w.ops = append(w.ops, writeOp{kind: opSet, collection: collection, id: id, data: data})
	return nil
}

func (w *writeSet) update(collection, id string, fields map[string]any) error {
	if w.err != nil {
		return w.err
	}
	if err := checkKey(collection, id); err != nil {
		w.err = err
		return err
	}
	encoded, err := encodeFields(fields)
	if err != nil {
		w.err = fmt.Errorf("encoding update of %s/%s: %w", collection, id, err)
		return w.err
	}
	w.ops = append(w.ops, writeOp{kind: opUpdate, collection: collection, id: id, fields: encoded})
	return nil
}

func (w *writeSet) delete(collection, id string) error {
	if w.err != nil {
		return w.err
	}
	if err := checkKey(collection, id); err != nil {
		w.err = err
		return err
	}
	w.ops = append(w.ops, writeOp{kind: opDelete, collection: collection, id: id})
	return nil
}

func checkKey(collection, id string) error {
	if collection == "" || id == "" {
		return errors.New("collection and id are required")
	}
	return nil
}

// encodeObject marshals v and checks that it is a JSON object.
func encodeObject(v any) (json.RawMessage, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil || obj == nil {
		return nil, errors.New("document must encode to a JSON object")
	}
	return data, nil
}

func encodeFields(fields map[string]any) (map[string]json.RawMessage, error) {
	if len(fields) == 0 {
		return nil, errors.New("no fields to update")
	}
	out := make(map[string]json.RawMessage, len(fields))
	for name, v := range fields {
		if !fieldPattern.MatchString(name) {
			return nil, fmt.Errorf("invalid field name %q", name)
		}
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		out[name] = data
	}
	return out, nil
}

// mergeFields overwrites top-level keys of doc with fields.
func mergeFields(doc json.RawMessage, fields map[string]json.RawMessage) (json.RawMessage, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(doc, &obj); err != nil {
		return nil, fmt.Errorf("decoding stored document: %w", err)
	}
	if obj == nil {
		obj = make(map[string]json.RawMessage, len(fields))
	}
	for k, v := range fields {
		obj[k] = v
	}
	return json.Marshal(obj)
}

// normalize converts v into its JSON-decoded representation.
func normalize(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
