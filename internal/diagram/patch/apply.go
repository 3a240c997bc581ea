package patch

import (
	"encoding/json"
	"fmt"

	"github.com/erdsync/erd-sync/internal/diagram/domain"
)

// Apply runs ops in order against a decoded JSON tree (map[string]any / []any).
// Each op resolves against the state left by the previous one. The tree is
// modified in place; the returned root replaces doc.
//
// replace on an object member sets it even when absent, since stored items
// may omit fields that still hold their defaults.
func Apply(doc any, ops []Operation) (any, error) {
	for i, op := range ops {
		var err error
		doc, err = applyOne(doc, op)
		if err != nil {
			return nil, fmt.Errorf("patch %d (%s): %w", i, op, err)
		}
	}
	return doc, nil
}

func applyOne(doc any, op Operation) (any, error) {
	if !op.Op.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidOp, op.Op)
	}
	tokens, err := ParsePointer(op.Path)
	if err != nil {
		return nil, err
	}
	var value any
	if op.Op != OpRemove {
		if value, err = toJSONValue(op.Value); err != nil {
			return nil, err
		}
	}
	if len(tokens) == 0 {
		if op.Op == OpRemove {
			return nil, fmt.Errorf("%w: cannot remove the root", ErrInvalidOp)
		}
		return value, nil
	}
	return applyAt(doc, tokens, op.Op, value)
}

func applyAt(node any, tokens []string, op Op, value any) (any, error) {
	tok := tokens[0]
	if len(tokens) == 1 {
		return applyLeaf(node, tok, op, value)
	}
	switch n := node.(type) {
	case map[string]any:
		child, ok := n[tok]
		if !ok {
			return nil, fmt.Errorf("%w: member %q", ErrPathNotFound, tok)
		}
		updated, err := applyAt(child, tokens[1:], op, value)
		if err != nil {
			return nil, err
		}
		n[tok] = updated
		return n, nil
	case []any:
		idx, ok := arrayIndex(tok)
		if !ok || idx >= len(n) {
			return nil, fmt.Errorf("%w: index %q", ErrPathNotFound, tok)
		}
		updated, err := applyAt(n[idx], tokens[1:], op, value)
		if err != nil {
			return nil, err
		}
		n[idx] = updated
		return n, nil
	}
	return nil, fmt.Errorf("%w: %q has no children", ErrPathNotFound, tok)
}

func applyLeaf(node any, tok string, op Op, value any) (any, error) {
	switch n := node.(type) {
	case map[string]any:
		switch op {
		case OpAdd, OpReplace:
			n[tok] = value
		case OpRemove:
			if _, ok := n[tok]; !ok {
				return nil, fmt.Errorf("%w: member %q", ErrPathNotFound, tok)
			}
			delete(n, tok)
		}
		return n, nil
	case []any:
		if op == OpAdd && tok == "-" {
			return append(n, value), nil
		}
		idx, ok := arrayIndex(tok)
		if !ok {
			return nil, fmt.Errorf("%w: index %q", ErrInvalidPath, tok)
		}
		switch op {
		case OpAdd:
			if idx > len(n) {
				return nil, fmt.Errorf("%w: index %d past end %d", ErrPathNotFound, idx, len(n))
			}
			n = append(n, nil)
			copy(n[idx+1:], n[idx:])
			n[idx] = value
		case OpReplace:
			if idx >= len(n) {
				return nil, fmt.Errorf("%w: index %d", ErrPathNotFound, idx)
			}
			n[idx] = value
		case OpRemove:
			if idx >= len(n) {
				return nil, fmt.Errorf("%w: index %d", ErrPathNotFound, idx)
			}
			n = append(n[:idx], n[idx+1:]...)
		}
		return n, nil
	}
	return nil, fmt.Errorf("%w: %q has no children", ErrPathNotFound, tok)
}

// toJSONValue normalizes typed values (items, []float64, ...) into the generic
// JSON representation so later ops can walk into them.
func toJSONValue(v any) (any, error) {
	switch v.(type) {
	case nil, bool, string, float64:
		return v, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: value: %v", ErrInvalidOp, err)
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ApplyItems runs ops against a typed item sequence and returns the result.
// items is left untouched; on error nothing is applied.
func ApplyItems(items domain.Items, ops []Operation) (domain.Items, error) {
	out := items.Clone()
	for i, op := range ops {
		var err error
		out, err = applyItemOp(out, op)
		if err != nil {
			return nil, fmt.Errorf("patch %d (%s): %w", i, op, err)
		}
	}
	return out, nil
}

func applyItemOp(items domain.Items, op Operation) (domain.Items, error) {
	if !op.Op.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidOp, op.Op)
	}
	tokens, err := ParsePointer(op.Path)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 || tokens[0] != itemsKey {
		return nil, fmt.Errorf("%w: %q is outside /items", ErrInvalidPath, op.Path)
	}

	switch len(tokens) {
	case 1:
		if op.Op != OpReplace {
			return nil, fmt.Errorf("%w: %s on the item sequence", ErrInvalidOp, op.Op)
		}
		var next domain.Items
		if err := decodeInto(op.Value, &next); err != nil {
			return nil, err
		}
		if err := next.CheckUniqueIDs(); err != nil {
			return nil, err
		}
		return next, nil

	case 2:
		if op.Op == OpAdd && tokens[1] == "-" {
			tokens[1] = fmt.Sprint(len(items))
		}
		idx, ok := arrayIndex(tokens[1])
		if !ok {
			return nil, fmt.Errorf("%w: index %q", ErrInvalidPath, tokens[1])
		}
		switch op.Op {
		case OpAdd:
			if idx > len(items) {
				return nil, fmt.Errorf("%w: index %d past end %d", ErrPathNotFound, idx, len(items))
			}
			it, err := toItem(op.Value)
			if err != nil {
				return nil, err
			}
			if items.IndexOf(it.ItemID()) >= 0 {
				return nil, fmt.Errorf("%w: %s", domain.ErrDuplicateID, it.ItemID())
			}
			items = append(items, domain.Item{})
			copy(items[idx+1:], items[idx:])
			items[idx] = it
		case OpReplace:
			if idx >= len(items) {
				return nil, fmt.Errorf("%w: index %d", ErrPathNotFound, idx)
			}
			it, err := toItem(op.Value)
			if err != nil {
				return nil, err
			}
			if at := items.IndexOf(it.ItemID()); at >= 0 && at != idx {
				return nil, fmt.Errorf("%w: %s", domain.ErrDuplicateID, it.ItemID())
			}
			items[idx] = it
		case OpRemove:
			if idx >= len(items) {
				return nil, fmt.Errorf("%w: index %d", ErrPathNotFound, idx)
			}
			items = append(items[:idx], items[idx+1:]...)
		}
		return items, nil

	case 4:
		if tokens[2] != itemKey {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPath, op.Path)
		}
		idx, ok := arrayIndex(tokens[1])
		if !ok || idx >= len(items) {
			return nil, fmt.Errorf("%w: index %q", ErrPathNotFound, tokens[1])
		}
		if op.Op == OpRemove {
			return nil, fmt.Errorf("%w: item fields cannot be removed", ErrInvalidOp)
		}
		if err := items[idx].Set(tokens[3], op.Value); err != nil {
			return nil, err
		}
		return items, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidPath, op.Path)
}

func toItem(v any) (domain.Item, error) {
	var it domain.Item
	switch x := v.(type) {
	case domain.Item:
		it = x.Clone()
	case *domain.Item:
		if x != nil {
			it = x.Clone()
		}
	default:
		if err := decodeInto(v, &it); err != nil {
			return domain.Item{}, err
		}
	}
	if it.Shape == nil {
		return domain.Item{}, fmt.Errorf("%w: empty item", domain.ErrUnknownKind)
	}
	if it.ItemID() == "" {
		return domain.Item{}, fmt.Errorf("%w: %s item", domain.ErrMissingID, it.Kind())
	}
	return it, nil
}

// CheckElementPaths accepts only ops that address one item (/items/N) or one
// item field (/items/N/item/<field>). Whole-sequence and root writes fail
// with ErrInvalidPath.
func CheckElementPaths(ops []Operation) error {
	for i, op := range ops {
		tokens, err := ParsePointer(op.Path)
		if err != nil {
			return fmt.Errorf("patch %d (%s): %w", i, op, err)
		}
		ok := len(tokens) > 0 && tokens[0] == itemsKey
		switch {
		case !ok:
		case len(tokens) == 2:
		case len(tokens) == 4 && tokens[2] == itemKey:
		default:
			ok = false
		}
		if !ok {
			return fmt.Errorf("patch %d (%s): %w: must address /items/N or /items/N/item/<field>", i, op, ErrInvalidPath)
		}
	}
	return nil
}

func decodeInto(v any, dst any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: value: %v", ErrInvalidOp, err)
	}
	return json.Unmarshal(b, dst)
}
