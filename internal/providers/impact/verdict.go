// Package impact decides whether a proposed project has social impact. Three
// strategies share the Classifier contract: a remote Generative Language
// model, a local linear model and a keyword heuristic.
package impact

import (
	"bytes"
	"context"
	"encoding/json"
	"reflect"
	"strings"
)

// Tri is a three-valued classification outcome.
type Tri int8

const (
	Unknown Tri = iota
	True
	False
)

// TriOf maps a bool onto True or False.
func TriOf(b bool) Tri {
	if b {
		return True
	}
	return False
}

func (t Tri) String() string {
	switch t {
	case True:
		return "true"
	case False:
		return "false"
	}
	return "unknown"
}

// MarshalJSON encodes Unknown as null.
func (t Tri) MarshalJSON() ([]byte, error) {
	switch t {
	case True:
		return []byte("true"), nil
	case False:
		return []byte("false"), nil
	}
	return []byte("null"), nil
}

// UnmarshalJSON decodes null as Unknown and coerces any other value.
func (t *Tri) UnmarshalJSON(data []byte) error {
	if string(bytes.TrimSpace(data)) == "null" {
		*t = Unknown
		return nil
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*t = Coerce(v)
	return nil
}

// Coerce normalises an arbitrary classifier value into a Tri. Strings are
// True only for "true", "yes" or "1" (any case, surrounding space ignored);
// every other string is False. Everything else follows truthiness, so a nil
// value is False.
func Coerce(v any) Tri {
	switch x := v.(type) {
	case nil:
		return False
	case Tri:
		return x
	case *Tri:
		if x == nil {
			return Unknown
		}
		return *x
	case bool:
		return TriOf(x)
	case *bool:
		if x == nil {
			return False
		}
		return TriOf(*x)
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "true", "yes", "1":
			return True
		}
		return False
	case float64:
		return TriOf(x != 0)
	case float32:
		return TriOf(x != 0)
	case int:
		return TriOf(x != 0)
	case int64:
		return TriOf(x != 0)
	case int32:
		return TriOf(x != 0)
	case json.Number:
		f, err := x.Float64()
		return TriOf(err == nil && f != 0)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array:
		return TriOf(rv.Len() > 0)
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return False
		}
		return Coerce(rv.Elem().Interface())
	case reflect.Int8, reflect.Int16, reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return TriOf(!rv.IsZero())
	}
	return True
}

// Input is the project text submitted for classification.
type Input struct {
	Title       string `json:"title"`
	Area        string `json:"area"`
	Description string `json:"description"`
}

// Verdict is the full classification outcome. Result is the decision; the
// remaining fields are diagnostics for logs and client display.
type Verdict struct {
	Result   Tri             `json:"result"`
	Reason   string          `json:"reason,omitempty"`
	Text     string          `json:"text,omitempty"`
	Raw      json.RawMessage `json:"raw,omitempty"`
	Error    string          `json:"error,omitempty"`
	Provider string          `json:"provider"`
}

// Classifier never fails: transport and parse problems surface in
// Verdict.Error with Result Unknown or a fallback decision.
type Classifier interface {
	Classify(ctx context.Context, in Input) Verdict
}

const (
	ProviderGemini  = "gemini"
	ProviderModel   = "model"
	ProviderKeyword = "keyword"
)
