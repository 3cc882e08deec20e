// Package rfc renders SAP RFC function calls from a declarative operation catalog.
package rfc

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/JinArO/sap-mcp-server/pkg/soap"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Catalog is the immutable set of operations loaded at start-up.
type Catalog struct {
	Operations []*Operation `yaml:"operations"`

	byKey  map[string]*Operation
	byTool map[string]*Operation
}

// Operation is the static definition of one SAP function call.
type Operation struct {
	Key         string         `yaml:"key"`
	Tool        string         `yaml:"tool"`
	Description string         `yaml:"description,omitempty"`
	Endpoint    EndpointSpec   `yaml:"endpoint"`
	Root        string         `yaml:"root"`
	Rules       []string       `yaml:"rules,omitempty"`
	Script      string         `yaml:"script,omitempty"`
	Summary     *SummaryPolicy `yaml:"summary,omitempty"`
	Fields      []Field        `yaml:"fields"`

	rules []RuleFunc
}

// EndpointSpec locates the SOAP binding of an operation.
type EndpointSpec struct {
	Function string `yaml:"function"`
	Service  string `yaml:"service"`
	Binding  string `yaml:"binding"`
	Action   string `yaml:"action"`
}

// Field describes one element of the function call, in schema order.
type Field struct {
	Name        string  `yaml:"name"`
	Key         string  `yaml:"key,omitempty"`
	Description string  `yaml:"description,omitempty"`
	Type        string  `yaml:"type,omitempty"`
	Required    bool    `yaml:"required,omitempty"`
	Default     string  `yaml:"default,omitempty"`
	Value       string  `yaml:"value,omitempty"`
	Empty       bool    `yaml:"empty,omitempty"`
	Pad         int     `yaml:"pad,omitempty"`
	Inherit     string  `yaml:"inherit,omitempty"`
	Sequence    int     `yaml:"sequence,omitempty"`
	Group       bool    `yaml:"group,omitempty"`
	Table       string  `yaml:"table,omitempty"`
	Fields      []Field `yaml:"fields,omitempty"`
}

// SummaryPolicy opts an operation into promoting its BAPI return messages
// into a human-readable summary.
type SummaryPolicy struct {
	Label    string `yaml:"label"`
	Document string `yaml:"document"`
	Messages string `yaml:"messages"`
}

// ParamKey returns the caller-facing parameter name.
func (f Field) ParamKey() string {
	if f.Key != "" {
		return f.Key
	}
	return f.Name
}

// IsFixed reports whether the field never takes caller input.
func (f Field) IsFixed() bool {
	return f.Value != "" || f.Sequence > 0
}

// SOAPEndpoint converts the spec into a transport endpoint.
func (o *Operation) SOAPEndpoint() soap.Endpoint {
	return soap.Endpoint{
		Function: o.Endpoint.Function,
		Service:  o.Endpoint.Service,
		Binding:  o.Endpoint.Binding,
		Action:   o.Endpoint.Action,
	}
}

// DefaultCatalog returns the catalog compiled into the binary.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalog)
}

// LoadCatalog reads a catalog from a YAML file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog parses and validates a catalog from YAML data.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	if err := c.index(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) index() error {
	if len(c.Operations) == 0 {
		return fmt.Errorf("catalog defines no operations")
	}

	c.byKey = make(map[string]*Operation, len(c.Operations))
	c.byTool = make(map[string]*Operation, len(c.Operations))

	for i, op := range c.Operations {
		if op == nil {
			return fmt.Errorf("operation #%d is empty", i+1)
		}
		if err := op.validate(); err != nil {
			return fmt.Errorf("operation %q: %w", op.Key, err)
		}
		key := strings.ToUpper(op.Key)
		if _, dup := c.byKey[key]; dup {
			return fmt.Errorf("duplicate operation key %q", op.Key)
		}
		if _, dup := c.byTool[op.Tool]; dup {
			return fmt.Errorf("duplicate tool name %q", op.Tool)
		}
		c.byKey[key] = op
		c.byTool[op.Tool] = op
	}
	return nil
}

func (o *Operation) validate() error {
	switch {
	case o.Key == "":
		return fmt.Errorf("key is required")
	case o.Tool == "":
		return fmt.Errorf("tool is required")
	case o.Root == "":
		return fmt.Errorf("root is required")
	case o.Endpoint.Function == "" || o.Endpoint.Service == "" || o.Endpoint.Binding == "":
		return fmt.Errorf("endpoint function, service and binding are required")
	case o.Endpoint.Action == "":
		return fmt.Errorf("endpoint action is required")
	case len(o.Fields) == 0:
		return fmt.Errorf("no fields defined")
	}

	if o.Summary != nil && (o.Summary.Document == "" || o.Summary.Messages == "") {
		return fmt.Errorf("summary requires document and messages")
	}

	o.rules = o.rules[:0]
	for _, name := range o.Rules {
		fn, ok := lookupRule(name)
		if !ok {
			return fmt.Errorf("unknown rule %q", name)
		}
		o.rules = append(o.rules, fn)
	}
	if o.Script != "" {
		fn, err := scriptRule(o.Key, o.Script)
		if err != nil {
			return err
		}
		o.rules = append(o.rules, fn)
	}

	return validateFields(o.Fields, false)
}

func validateFields(fields []Field, inTable bool) error {
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if f.Name == "" {
			return fmt.Errorf("field without name")
		}
		if seen[f.Name] {
			return fmt.Errorf("duplicate field %q", f.Name)
		}
		seen[f.Name] = true

		switch {
		case f.Group && f.Table != "":
			return fmt.Errorf("field %q cannot be both group and table", f.Name)
		case f.Group || f.Table != "":
			if len(f.Fields) == 0 {
				return fmt.Errorf("field %q has no children", f.Name)
			}
			if f.Table != "" && inTable {
				return fmt.Errorf("field %q: nested tables are not supported", f.Name)
			}
			if err := validateFields(f.Fields, inTable || f.Table != ""); err != nil {
				return fmt.Errorf("%s: %w", f.Name, err)
			}
		case len(f.Fields) > 0:
			return fmt.Errorf("field %q has children but is neither group nor table", f.Name)
		case f.Sequence > 0 && !inTable:
			return fmt.Errorf("field %q: sequence is only valid inside a table", f.Name)
		case f.Inherit != "" && !inTable:
			return fmt.Errorf("field %q: inherit is only valid inside a table", f.Name)
		case f.Pad < 0:
			return fmt.Errorf("field %q: negative pad", f.Name)
		}
	}
	return nil
}

// Lookup finds an operation by key (case-insensitive).
func (c *Catalog) Lookup(key string) (*Operation, bool) {
	op, ok := c.byKey[strings.ToUpper(key)]
	return op, ok
}

// LookupTool finds an operation by its tool name.
func (c *Catalog) LookupTool(tool string) (*Operation, bool) {
	op, ok := c.byTool[tool]
	return op, ok
}
