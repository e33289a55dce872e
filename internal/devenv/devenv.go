// SPDX-License-Identifier: MPL-2.0

package devenv

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
)

const (
	// KindVar is a shell-local variable that is not propagated.
	KindVar Kind = "var"
	// KindExported is a variable exported to child processes.
	KindExported Kind = "exported"
	// KindArray is a bash array; its value is kept but never applied.
	KindArray Kind = "array"
)

// ErrMalformedDocument is the sentinel wrapped by DecodeError.
var ErrMalformedDocument = errors.New("malformed dev environment document")

type (
	// Kind is the "type" tag of a variable entry.
	Kind string

	// Variable is one decoded entry of the variables mapping.
	Variable struct {
		Kind Kind
		// Value is set for KindVar and KindExported.
		Value string
		// Array holds the untyped value of a KindArray entry.
		Array any
	}

	// Document is a validated dev environment.
	Document struct {
		Variables map[string]Variable
	}

	// Binding is an exported name/value pair.
	Binding struct {
		Name  string
		Value string
	}

	// DecodeError describes why a document was rejected. Variable is empty
	// when the problem is not tied to a single entry.
	DecodeError struct {
		Variable string
		Reason   string
		Cause    error
	}
)

// Error implements the error interface.
func (e *DecodeError) Error() string {
	var sb strings.Builder
	sb.WriteString(ErrMalformedDocument.Error())
	if e.Variable != "" {
		fmt.Fprintf(&sb, ": variable %q", e.Variable)
	}
	sb.WriteString(": ")
	sb.WriteString(e.Reason)
	if e.Cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Cause.Error())
	}
	return sb.String()
}

// Unwrap returns ErrMalformedDocument so errors.Is matches any DecodeError.
func (e *DecodeError) Unwrap() error { return ErrMalformedDocument }

// IsStringKind reports whether entries of this kind carry a string value.
func (k Kind) IsStringKind() bool {
	return k == KindVar || k == KindExported
}

// Validate reports whether v, a value produced by encoding/json, has the
// shape of a dev environment document. It never panics.
func Validate(v any) bool {
	_, err := check(v)
	return err == nil
}

// Decode parses data and validates it in one step.
func Decode(data []byte) (*Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, &DecodeError{Reason: "invalid JSON", Cause: err}
	}
	var extra any
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return nil, &DecodeError{Reason: "trailing data after JSON document"}
	}
	return check(raw)
}

// check validates the decoded value and builds the typed document.
func check(v any) (*Document, error) {
	top, ok := v.(map[string]any)
	if !ok {
		return nil, &DecodeError{Reason: "document is not an object"}
	}
	rawVars, ok := top["variables"]
	if !ok {
		return nil, &DecodeError{Reason: `missing "variables" field`}
	}
	vars, ok := rawVars.(map[string]any)
	if !ok {
		return nil, &DecodeError{Reason: `"variables" is not an object`}
	}

	doc := &Document{Variables: make(map[string]Variable, len(vars))}
	for name, rawEntry := range vars {
		variable, err := checkVariable(name, rawEntry)
		if err != nil {
			return nil, err
		}
		doc.Variables[name] = variable
	}
	return doc, nil
}

func checkVariable(name string, v any) (Variable, error) {
	entry, ok := v.(map[string]any)
	if !ok {
		return Variable{}, &DecodeError{Variable: name, Reason: "entry is not an object"}
	}
	for field := range entry {
		if field != "type" && field != "value" {
			return Variable{}, &DecodeError{Variable: name, Reason: fmt.Sprintf("unexpected field %q", field)}
		}
	}

	tag, ok := entry["type"].(string)
	if !ok {
		return Variable{}, &DecodeError{Variable: name, Reason: `"type" is missing or not a string`}
	}
	value, hasValue := entry["value"]
	if !hasValue {
		return Variable{}, &DecodeError{Variable: name, Reason: `missing "value" field`}
	}

	kind := Kind(tag)
	switch {
	case kind.IsStringKind():
		s, ok := value.(string)
		if !ok {
			return Variable{}, &DecodeError{Variable: name, Reason: fmt.Sprintf("%s value is not a string", kind)}
		}
		return Variable{Kind: kind, Value: s}, nil
	case kind == KindArray:
		return Variable{Kind: kind, Array: value}, nil
	default:
		return Variable{}, &DecodeError{Variable: name, Reason: fmt.Sprintf("unknown type %q", tag)}
	}
}

// Exported returns the exported bindings sorted by name.
func (d *Document) Exported() []Binding {
	bindings := make([]Binding, 0, len(d.Variables))
	for name, v := range d.Variables {
		if v.Kind != KindExported {
			continue
		}
		bindings = append(bindings, Binding{Name: name, Value: v.Value})
	}
	slices.SortFunc(bindings, func(a, b Binding) int { return strings.Compare(a.Name, b.Name) })
	return bindings
}
