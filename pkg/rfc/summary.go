package rfc

import (
	"fmt"
	"strings"

	"github.com/JinArO/sap-mcp-server/pkg/soap"
)

// Message is one entry of a BAPI return table.
type Message struct {
	Type   string `json:"type"`
	ID     string `json:"id,omitempty"`
	Number string `json:"number,omitempty"`
	Text   string `json:"message"`
}

// Summary is the business-level reading of a response for operations that opt in.
type Summary struct {
	Label    string    `json:"label"`
	Document string    `json:"document,omitempty"`
	Messages []Message `json:"messages,omitempty"`
	Failed   bool      `json:"failed"`
}

// Summarize extracts the document number and return messages from an
// unwrapped response body. A call failed when SAP returned an E or A message.
func Summarize(policy *SummaryPolicy, body map[string]any) *Summary {
	s := &Summary{Label: policy.Label}
	if s.Label == "" {
		s.Label = "Document"
	}

	if v, ok := soap.Find(body, policy.Document); ok {
		if doc, ok := v.(string); ok {
			s.Document = doc
		}
	}

	if table, ok := soap.Find(body, policy.Messages); ok {
		s.Messages = returnMessages(table)
	}

	for _, m := range s.Messages {
		if m.Type == "E" || m.Type == "A" {
			s.Failed = true
		}
	}
	return s
}

// returnMessages reads <TABLE><item>…</item></TABLE> in any of the shapes
// the unwrapper produces: one item, several items, or an empty table.
func returnMessages(table any) []Message {
	tm, ok := table.(map[string]any)
	if !ok {
		return nil
	}

	var items []any
	switch x := tm["item"].(type) {
	case map[string]any:
		items = []any{x}
	case []any:
		items = x
	}

	msgs := make([]Message, 0, len(items))
	for _, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			continue
		}
		msg := Message{
			Type:   scalarString(m["TYPE"]),
			ID:     scalarString(m["ID"]),
			Number: scalarString(m["NUMBER"]),
			Text:   scalarString(m["MESSAGE"]),
		}
		if msg.Type == "" && msg.Text == "" {
			continue
		}
		msgs = append(msgs, msg)
	}
	return msgs
}

// String renders the summary for the tool result.
func (s *Summary) String() string {
	var sb strings.Builder
	if s.Failed {
		fmt.Fprintf(&sb, "%s failed.", s.Label)
		if s.Document != "" {
			fmt.Fprintf(&sb, " Document number %s was returned.", s.Document)
		}
	} else if s.Document != "" {
		fmt.Fprintf(&sb, "%s %s created.", s.Label, s.Document)
	} else {
		fmt.Fprintf(&sb, "%s created.", s.Label)
	}
	for _, m := range s.Messages {
		fmt.Fprintf(&sb, "\n[%s] %s", m.Type, m.Text)
	}
	return sb.String()
}
