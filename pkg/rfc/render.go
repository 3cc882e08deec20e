package rfc

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/JinArO/sap-mcp-server/pkg/soap"
)

// MissingFieldError reports a required field that has neither a value nor a default.
type MissingFieldError struct {
	Operation string
	Field     string
	// Row is the 1-based table row, 0 for header fields.
	Row int
}

func (e *MissingFieldError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("missing required field %s in item %d of operation %s", e.Field, e.Row, e.Operation)
	}
	return fmt.Sprintf("missing required field %s for operation %s", e.Field, e.Operation)
}

// Render produces the RFC XML fragment for op. Business rules run on a copy
// of values, so the caller's map is never modified. The output depends only
// on its inputs: identical inputs give byte-identical XML.
func Render(op *Operation, values Values) (string, error) {
	header := values.Clone()
	for _, rule := range op.rules {
		if err := rule(header); err != nil {
			return "", fmt.Errorf("operation %s: %w", op.Key, err)
		}
	}

	r := renderer{op: op, header: header}
	root := soap.RFCPrefix + ":" + op.Root

	r.sb.WriteString("<" + root + ">")
	if err := r.fields(op.Fields, nil, 0); err != nil {
		return "", err
	}
	r.sb.WriteString("</" + root + ">")

	return r.sb.String(), nil
}

type renderer struct {
	op     *Operation
	header Values
	sb     strings.Builder
}

// fields writes fields in schema order. row is nil outside tables; index is
// the 0-based row index inside a table.
func (r *renderer) fields(fields []Field, row Values, index int) error {
	for _, f := range fields {
		switch {
		case f.Group:
			r.open(f.Name)
			if err := r.fields(f.Fields, row, index); err != nil {
				return err
			}
			r.close(f.Name)

		case f.Table != "":
			rows, err := r.header.Rows(f.Table)
			if err != nil {
				if e, ok := err.(*InvalidRowError); ok {
					e.Operation = r.op.Key
				}
				return err
			}
			if len(rows) == 0 {
				// Single-line call: the row is built from header parameters.
				rows = []Values{{}}
			}
			r.open(f.Name)
			for i, rv := range rows {
				r.open("item")
				if err := r.fields(f.Fields, rv, i); err != nil {
					return err
				}
				r.close("item")
			}
			r.close(f.Name)

		default:
			val, err := r.resolve(f, row, index)
			if err != nil {
				return err
			}
			switch {
			case val != "":
				r.open(f.Name)
				r.sb.WriteString(soap.EscapeText(val))
				r.close(f.Name)
			case f.Empty:
				r.open(f.Name)
				r.close(f.Name)
			}
		}
	}
	return nil
}

// resolve applies the value policy: fixed value, caller value, default,
// then required check. An empty result means the element is omitted.
func (r *renderer) resolve(f Field, row Values, index int) (string, error) {
	if f.Value != "" {
		return f.Value, nil
	}
	if f.Sequence > 0 {
		return padNumeric(strconv.Itoa((index+1)*f.Sequence), f.Pad), nil
	}

	var val string
	if row != nil {
		val = row.String(f.ParamKey())
		if val == "" && f.Inherit != "" {
			val = r.header.String(f.Inherit)
		}
	} else {
		val = r.header.String(f.ParamKey())
	}

	if val == "" {
		val = f.Default
	}
	if val == "" {
		if f.Required {
			e := &MissingFieldError{Operation: r.op.Key, Field: f.ParamKey()}
			if row != nil {
				e.Row = index + 1
			}
			return "", e
		}
		return "", nil
	}

	return padNumeric(val, f.Pad), nil
}

func (r *renderer) open(name string)  { r.sb.WriteString("<" + name + ">") }
func (r *renderer) close(name string) { r.sb.WriteString("</" + name + ">") }

// padNumeric left-pads an all-digit string with zeros to width.
// Non-numeric values and values already at or beyond width pass through.
func padNumeric(s string, width int) string {
	if width <= 0 || len(s) >= width || !isDigits(s) {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
