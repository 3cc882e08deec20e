package soap

import (
	"bytes"
	"maps"
	"slices"
	"strings"

	"github.com/antchfx/xmlquery"
)

// bodyXPath matches the SOAP Body regardless of the prefix the SAP endpoint
// chose for the envelope namespace (soap-env:, soapenv:, SOAP-ENV: or none).
const bodyXPath = `/*[local-name()='Envelope']/*[local-name()='Body']`

// Result is the outcome of unwrapping a SOAP response.
// It is one of *Envelope, *RawText or *ParseError.
type Result interface {
	// Text returns the raw response text.
	Text() string
	isResult()
}

// Envelope is a response whose SOAP Body was found.
type Envelope struct {
	// Body maps local element names to string leaves, nested maps,
	// or []any for repeated siblings.
	Body map[string]any
	Raw  string
}

// RawText is well-formed XML without a recognizable SOAP Body.
type RawText struct {
	Raw string
}

// ParseError is a response that is not well-formed XML.
// It is never surfaced as a failure: callers fall back to Raw.
type ParseError struct {
	Err error
	Raw string
}

func (e *Envelope) Text() string   { return e.Raw }
func (r *RawText) Text() string    { return r.Raw }
func (p *ParseError) Text() string { return p.Raw }

func (*Envelope) isResult()   {}
func (*RawText) isResult()    {}
func (*ParseError) isResult() {}

// Unwrap parses a SOAP response body and extracts the content of its Body element.
func Unwrap(raw []byte) Result {
	text := string(raw)

	doc, err := xmlquery.Parse(bytes.NewReader(raw))
	if err != nil {
		return &ParseError{Err: err, Raw: text}
	}

	body, err := xmlquery.Query(doc, bodyXPath)
	if err != nil || body == nil {
		return &RawText{Raw: text}
	}

	content, ok := nodeValue(body).(map[string]any)
	if !ok {
		content = map[string]any{}
	}
	return &Envelope{Body: content, Raw: text}
}

// nodeValue converts an element into a string leaf or a map of its child elements.
func nodeValue(n *xmlquery.Node) any {
	var children map[string]any
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != xmlquery.ElementNode {
			continue
		}
		if children == nil {
			children = make(map[string]any)
		}
		v := nodeValue(c)
		switch existing := children[c.Data].(type) {
		case nil:
			children[c.Data] = v
		case []any:
			children[c.Data] = append(existing, v)
		default:
			children[c.Data] = []any{existing, v}
		}
	}
	if children != nil {
		return children
	}
	return strings.TrimSpace(n.InnerText())
}

// Find searches a Body map breadth-first and returns the shallowest value
// stored under key. Siblings are visited in key order, list items in list
// order, so the result is stable when key occurs in several branches.
func Find(m map[string]any, key string) (any, bool) {
	queue := []map[string]any{m}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if v, ok := cur[key]; ok {
			return v, true
		}
		for _, k := range slices.Sorted(maps.Keys(cur)) {
			switch child := cur[k].(type) {
			case map[string]any:
				queue = append(queue, child)
			case []any:
				for _, item := range child {
					if cm, ok := item.(map[string]any); ok {
						queue = append(queue, cm)
					}
				}
			}
		}
	}
	return nil, false
}
