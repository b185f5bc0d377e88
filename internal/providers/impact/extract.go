package impact

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"regexp"
	"strings"
)

// node is a decoded JSON value that keeps object keys in document order.
// Text extraction scans the first matching field, so order matters.
type node struct {
	kind   nodeKind
	str    string
	keys   []string
	fields map[string]*node
	items  []*node
}

type nodeKind int

const (
	kindNull nodeKind = iota
	kindString
	kindOther
	kindObject
	kindArray
)

func decodeNode(data []byte) (*node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	n, err := readNode(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("trailing data after JSON value")
	}
	return n, nil
}

func readNode(dec *json.Decoder) (*node, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			n := &node{kind: kindObject, fields: map[string]*node{}}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, _ := keyTok.(string)
				child, err := readNode(dec)
				if err != nil {
					return nil, err
				}
				if _, dup := n.fields[key]; !dup {
					n.keys = append(n.keys, key)
				}
				n.fields[key] = child
			}
			_, err := dec.Token()
			return n, err
		case '[':
			n := &node{kind: kindArray}
			for dec.More() {
				child, err := readNode(dec)
				if err != nil {
					return nil, err
				}
				n.items = append(n.items, child)
			}
			_, err := dec.Token()
			return n, err
		}
		return nil, errors.New("unexpected delimiter")
	case string:
		return &node{kind: kindString, str: t}, nil
	case nil:
		return &node{kind: kindNull}, nil
	}
	return &node{kind: kindOther}, nil
}

func (n *node) get(key string) *node {
	if n == nil || n.kind != kindObject {
		return nil
	}
	return n.fields[key]
}

func (n *node) text() (string, bool) {
	if n == nil || n.kind != kindString {
		return "", false
	}
	return n.str, true
}

const maxCandidateField = 10000

// extractModelText walks the response shapes of both API generations and
// returns the model's textual answer, or "" when nothing looks like one.
func extractModelText(root *node) string {
	if root == nil {
		return ""
	}
	if root.kind == kindObject {
		if cands := root.get("candidates"); cands != nil && cands.kind == kindArray {
			for _, cand := range cands.items {
				if cand.kind != kindObject {
					continue
				}
				if s, ok := candidateText(cand); ok {
					return s
				}
			}
		}
		if out := root.get("output"); out != nil && out.kind == kindObject {
			if parts := out.get("content").get("parts"); parts != nil && parts.kind == kindArray && len(parts.items) > 0 {
				if s, ok := parts.items[0].get("text").text(); ok {
					return s
				}
			}
		}
		if choices := root.get("choices"); choices != nil && choices.kind == kindArray && len(choices.items) > 0 {
			if s, ok := choices.items[0].get("text").text(); ok {
				return s
			}
		}
	}
	if s, ok := firstString(root); ok {
		return s
	}
	return ""
}

func candidateText(cand *node) (string, bool) {
	content := cand.get("content")
	if !truthy(content) {
		content = cand.get("output")
	}
	if content != nil && content.kind == kindObject {
		if parts := content.get("parts"); parts != nil && parts.kind == kindArray {
			for _, p := range parts.items {
				if p.kind != kindObject {
					continue
				}
				if t := p.get("text"); t != nil {
					s, _ := t.text()
					return s, true
				}
			}
		}
		if s, ok := content.get("text").text(); ok {
			return s, true
		}
	}
	for _, k := range cand.keys {
		if s, ok := cand.fields[k].text(); ok && len(s) < maxCandidateField {
			return s, true
		}
	}
	return "", false
}

func truthy(n *node) bool {
	if n == nil {
		return false
	}
	switch n.kind {
	case kindNull:
		return false
	case kindString:
		return n.str != ""
	case kindObject:
		return len(n.keys) > 0
	case kindArray:
		return len(n.items) > 0
	}
	return true
}

func firstString(n *node) (string, bool) {
	if n == nil {
		return "", false
	}
	switch n.kind {
	case kindString:
		return n.str, true
	case kindObject:
		for _, k := range n.keys {
			if s, ok := firstString(n.fields[k]); ok {
				return s, true
			}
		}
	case kindArray:
		for _, item := range n.items {
			if s, ok := firstString(item); ok {
				return s, true
			}
		}
	}
	return "", false
}

var (
	jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)
	explicitPattern   = regexp.MustCompile(`"?impactful"?\s*[:=]\s*(true|false)`)
	negativePattern   = regexp.MustCompile(`not\s+impactful|no\s+impact|not\s+a\s+social`)
	positivePattern   = regexp.MustCompile(`\b(impactful project|social impact|socially impactful)\b`)
)

// trimCodeFence keeps the text between the first two ``` markers.
func trimCodeFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	parts := strings.Split(text, "```")
	if len(parts) >= 2 {
		return strings.TrimSpace(parts[1])
	}
	return text
}

// interpret turns the model's text answer into a result and optional reason.
func interpret(text string) (Tri, string) {
	candidate := text
	if m := jsonObjectPattern.FindString(text); m != "" {
		candidate = m
	}

	var parsed any
	if err := json.Unmarshal([]byte(candidate), &parsed); err != nil {
		return heuristics(text), ""
	}
	obj, ok := parsed.(map[string]any)
	if !ok {
		return Unknown, ""
	}
	val, ok := obj["impactful"]
	if !ok {
		return Unknown, ""
	}
	reason, _ := obj["reason"].(string)
	return Coerce(val), reason
}

func heuristics(text string) Tri {
	low := strings.ToLower(text)
	if m := explicitPattern.FindStringSubmatch(low); m != nil {
		return TriOf(m[1] == "true")
	}
	if negativePattern.MatchString(low) {
		return False
	}
	if positivePattern.MatchString(low) {
		return True
	}
	return Unknown
}
