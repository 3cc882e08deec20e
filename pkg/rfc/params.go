package rfc

// Param types exposed in tool schemas.
const (
	ParamString = "string"
	ParamNumber = "number"
	ParamArray  = "array"
)

// Param is one caller-facing parameter derived from an operation's fields.
type Param struct {
	Key         string
	Description string
	Type        string
	Required    bool
	Default     string
	// Items holds the row parameters of a table.
	Items []Param
}

// Params lists the parameters a caller may pass for op, in schema order.
// Row fields that inherit from a header parameter also surface that header
// parameter, so single-line calls need no table.
func (o *Operation) Params() []Param {
	var out []Param
	seen := make(map[string]bool)
	add := func(p Param) {
		if seen[p.Key] {
			return
		}
		seen[p.Key] = true
		out = append(out, p)
	}
	collectParams(o.Fields, add)
	return out
}

func collectParams(fields []Field, add func(Param)) {
	for _, f := range fields {
		switch {
		case f.Group:
			collectParams(f.Fields, add)
		case f.Table != "":
			table := Param{Key: f.Table, Description: f.Description, Type: ParamArray}
			for _, rf := range f.Fields {
				if rf.IsFixed() {
					continue
				}
				table.Items = append(table.Items, fieldParam(rf, false))
			}
			for _, rf := range f.Fields {
				if rf.Inherit == "" || rf.IsFixed() {
					continue
				}
				p := fieldParam(rf, false)
				p.Key = rf.Inherit
				add(p)
			}
			add(table)
		case !f.IsFixed():
			add(fieldParam(f, f.Required && f.Default == ""))
		}
	}
}

func fieldParam(f Field, required bool) Param {
	typ := f.Type
	if typ == "" {
		typ = ParamString
	}
	return Param{
		Key:         f.ParamKey(),
		Description: f.Description,
		Type:        typ,
		Required:    required,
		Default:     f.Default,
	}
}
