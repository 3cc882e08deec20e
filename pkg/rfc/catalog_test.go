package rfc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)

	want := map[string]string{
		"SO":        "create_sales_order",
		"STO":       "create_sto_po",
		"DN":        "create_outbound_delivery",
		"MAT_SALES": "maintain_sales_view",
		"MAT_WHSE":  "maintain_warehouse_view",
		"SRC":       "maintain_source_list",
		"INF":       "maintain_info_record",
		"KIT":       "check_kitting_status",
	}
	assert.Len(t, c.Operations, len(want))

	for key, tool := range want {
		op, ok := c.Lookup(key)
		require.True(t, ok, key)
		assert.Equal(t, tool, op.Tool)

		byTool, ok := c.LookupTool(tool)
		require.True(t, ok, tool)
		assert.Same(t, op, byTool)

		ep := op.SOAPEndpoint()
		assert.NotEmpty(t, ep.Function)
		assert.NotEmpty(t, ep.Action)
	}

	_, ok := c.Lookup("so")
	assert.True(t, ok, "lookup is case-insensitive")

	_, ok = c.Lookup("NOPE")
	assert.False(t, ok)
}

func TestDefaultCatalog_SalesOrderEndpoint(t *testing.T) {
	op := mustOp(t, "SO")
	ep := op.SOAPEndpoint()
	assert.Equal(t, "/sap/bc/srt/rfc/sap/zws_bapi_salesorder_create/100/zws_bapi_salesorder_create_sev/zws_bapi_salesorder_create_binding", ep.Path("100"))
	assert.Equal(t, "urn:sap-com:document:sap:rfc:functions:ZWS_BAPI_SALESORDER_CREATE:ZBAPI_SALESORDER_CREATERequest", ep.Action)
	require.NotNil(t, op.Summary)
	assert.Equal(t, "SALESDOCUMENT", op.Summary.Document)
}

func TestParseCatalog_Errors(t *testing.T) {
	const endpoint = `
    endpoint: {function: f, service: s, binding: b, action: a}
    root: R`

	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"empty", `operations: []`, "no operations"},
		{"invalid yaml", `operations: [`, "parsing catalog"},
		{"missing tool", `
operations:
  - key: A` + endpoint + `
    fields: [{name: X}]`, "tool is required"},
		{"missing action", `
operations:
  - key: A
    tool: a
    endpoint: {function: f, service: s, binding: b}
    root: R
    fields: [{name: X}]`, "action is required"},
		{"no fields", `
operations:
  - key: A
    tool: a` + endpoint, "no fields"},
		{"duplicate key", `
operations:
  - key: A
    tool: a` + endpoint + `
    fields: [{name: X}]
  - key: a
    tool: b` + endpoint + `
    fields: [{name: X}]`, "duplicate operation key"},
		{"duplicate tool", `
operations:
  - key: A
    tool: a` + endpoint + `
    fields: [{name: X}]
  - key: B
    tool: a` + endpoint + `
    fields: [{name: X}]`, "duplicate tool name"},
		{"unknown rule", `
operations:
  - key: A
    tool: a` + endpoint + `
    rules: [nope]
    fields: [{name: X}]`, "unknown rule"},
		{"duplicate field", `
operations:
  - key: A
    tool: a` + endpoint + `
    fields: [{name: X}, {name: X}]`, "duplicate field"},
		{"group and table", `
operations:
  - key: A
    tool: a` + endpoint + `
    fields: [{name: X, group: true, table: T, fields: [{name: Y}]}]`, "both group and table"},
		{"nested table", `
operations:
  - key: A
    tool: a` + endpoint + `
    fields: [{name: X, table: T, fields: [{name: Y, table: U, fields: [{name: Z}]}]}]`, "nested tables"},
		{"sequence outside table", `
operations:
  - key: A
    tool: a` + endpoint + `
    fields: [{name: X, sequence: 10}]`, "sequence is only valid"},
		{"inherit outside table", `
operations:
  - key: A
    tool: a` + endpoint + `
    fields: [{name: X, inherit: Y}]`, "inherit is only valid"},
		{"negative pad", `
operations:
  - key: A
    tool: a` + endpoint + `
    fields: [{name: X, pad: -1}]`, "negative pad"},
		{"scalar with children", `
operations:
  - key: A
    tool: a` + endpoint + `
    fields: [{name: X, fields: [{name: Y}]}]`, "neither group nor table"},
		{"summary without document", `
operations:
  - key: A
    tool: a` + endpoint + `
    summary: {label: L, messages: RETURN}
    fields: [{name: X}]`, "summary requires"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	data := []byte(`
operations:
  - key: PING
    tool: ping_sap
    endpoint: {function: zping, service: zping_svr, binding: zping_binding, action: "urn:ping"}
    root: ZPING
    fields:
      - {name: TEXT, default: hello}
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	c, err := LoadCatalog(path)
	require.NoError(t, err)

	op, ok := c.LookupTool("ping_sap")
	require.True(t, ok)

	got, err := Render(op, nil)
	require.NoError(t, err)
	assert.Equal(t, "<urn:ZPING><TEXT>hello</TEXT></urn:ZPING>", got)

	_, err = LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestOperationParams(t *testing.T) {
	so := mustOp(t, "SO")
	params := so.Params()

	byKey := make(map[string]Param, len(params))
	var keys []string
	for _, p := range params {
		byKey[p.Key] = p
		keys = append(keys, p.Key)
	}

	assert.Equal(t, []string{
		"UUID", "CUST_PO", "CUST_PO_DATE", "MATERIAL", "QTY", "PLANT", "SHIPPING_POINT", "ITEMS",
		"ORDER_TYPE", "SALES_CHANNEL", "SALES_DIVISION", "SALES_ORG", "SHIP_TO_PARTY", "SOLD_TO_PARTY",
	}, keys)

	assert.True(t, byKey["CUST_PO"].Required)
	assert.False(t, byKey["MATERIAL"].Required, "row parameters may come from ITEMS instead")
	assert.Equal(t, ParamNumber, byKey["QTY"].Type)
	assert.Equal(t, "HRCTO-MX", byKey["SHIP_TO_PARTY"].Default)

	items := byKey["ITEMS"]
	assert.Equal(t, ParamArray, items.Type)
	var itemKeys []string
	for _, p := range items.Items {
		itemKeys = append(itemKeys, p.Key)
	}
	assert.Equal(t, []string{"MATERIAL", "QTY", "PLANT", "SHIPPING_POINT", "DELIVERY_DATE"}, itemKeys)
}

func TestOperationParams_FixedFieldsHidden(t *testing.T) {
	for _, key := range []string{"INF", "SRC", "MAT_SALES", "MAT_WHSE"} {
		for _, p := range mustOp(t, key).Params() {
			switch p.Key {
			case "CURRENCY", "PRICE_UNIT", "VALID_TO", "SALES_VIEW", "WAREHOUSE_VIEW":
				t.Errorf("%s exposes fixed field %s", key, p.Key)
			}
		}
	}

	dn := mustOp(t, "DN").Params()
	var keys []string
	for _, p := range dn {
		keys = append(keys, p.Key)
	}
	assert.Equal(t, []string{"UUID", "PO_NUMBER", "ITEM_NO", "QUANTITY", "PO_ITEMS", "SHIPPING_POINT"}, keys)
}
