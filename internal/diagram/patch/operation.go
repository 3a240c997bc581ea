package patch

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrInvalidPath  = errors.New("invalid patch path")
	ErrPathNotFound = errors.New("patch path does not resolve")
	ErrInvalidOp    = errors.New("invalid patch operation")
)

type Op string

const (
	OpAdd     Op = "add"
	OpReplace Op = "replace"
	OpRemove  Op = "remove"
)

func (o Op) Valid() bool {
	return o == OpAdd || o == OpReplace || o == OpRemove
}

// Operation is one path-addressed mutation. Value is sent for add and replace
// and omitted for remove.
type Operation struct {
	Op    Op     `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value,omitempty"`
}

func (o Operation) MarshalJSON() ([]byte, error) {
	if o.Op == OpRemove {
		return json.Marshal(struct {
			Op   Op     `json:"op"`
			Path string `json:"path"`
		}{o.Op, o.Path})
	}
	// value must survive even when it is false, 0 or "".
	return json.Marshal(struct {
		Op    Op     `json:"op"`
		Path  string `json:"path"`
		Value any    `json:"value"`
	}{o.Op, o.Path, o.Value})
}

func (o Operation) String() string {
	return fmt.Sprintf("%s %s", o.Op, o.Path)
}

const (
	itemsKey = "items"
	itemKey  = "item"
)

var pointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")
var pointerUnescaper = strings.NewReplacer("~1", "/", "~0", "~")

// Pointer joins reference tokens into a slash-delimited path.
func Pointer(tokens ...string) string {
	var b strings.Builder
	for _, t := range tokens {
		b.WriteByte('/')
		b.WriteString(pointerEscaper.Replace(t))
	}
	return b.String()
}

// ParsePointer splits a path into unescaped reference tokens. The empty path is the root.
func ParsePointer(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	if path[0] != '/' {
		return nil, fmt.Errorf("%w: %q must start with /", ErrInvalidPath, path)
	}
	raw := strings.Split(path[1:], "/")
	tokens := make([]string, len(raw))
	for i, t := range raw {
		tokens[i] = pointerUnescaper.Replace(t)
	}
	return tokens, nil
}

func itemPath(index int) string {
	return Pointer(itemsKey, strconv.Itoa(index))
}

func fieldPath(index int, field string) string {
	return Pointer(itemsKey, strconv.Itoa(index), itemKey, field)
}

// arrayIndex parses a canonical non-negative array index token.
func arrayIndex(tok string) (int, bool) {
	n, err := strconv.Atoi(tok)
	if err != nil || n < 0 || strconv.Itoa(n) != tok {
		return 0, false
	}
	return n, true
}
