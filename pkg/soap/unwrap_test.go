package soap

import (
	"reflect"
	"strings"
	"testing"
)

func TestEnvelope(t *testing.T) {
	got := Envelope("<urn:ZFOO><A>1</A></urn:ZFOO>")
	want := `<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/" xmlns:urn="urn:sap-com:document:sap:rfc:functions"><soapenv:Header/><soapenv:Body><urn:ZFOO><A>1</A></urn:ZFOO></soapenv:Body></soapenv:Envelope>`
	if got != want {
		t.Errorf("Envelope =\n%v\nwant\n%v", got, want)
	}
	if strings.Contains(got, "<?xml") {
		t.Error("Envelope must not carry an XML declaration")
	}
	if strings.Contains(got, "\n") {
		t.Error("Envelope must be a single line")
	}
}

func TestEscapeText(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"plain", "plain"},
		{"A&B", "A&amp;B"},
		{"<tag>", "&lt;tag&gt;"},
		{`"quoted" 'single'`, `"quoted" 'single'`},
		{"&amp;", "&amp;amp;"},
	}

	for _, tt := range tests {
		if got := EscapeText(tt.input); got != tt.expected {
			t.Errorf("EscapeText(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

const responseTemplate = `<?xml version="1.0" encoding="utf-8"?>` +
	`<PFX:Envelope xmlns:PFX="http://schemas.xmlsoap.org/soap/envelope/">` +
	`<PFX:Header/>` +
	`<PFX:Body>` +
	`<n0:ZBAPI_SALESORDER_CREATEResponse xmlns:n0="urn:sap-com:document:sap:rfc:functions">` +
	`<RETURN><item><TYPE>S</TYPE><MESSAGE>Order saved</MESSAGE></item><item><TYPE>W</TYPE><MESSAGE>Check credit</MESSAGE></item></RETURN>` +
	`<SALESDOCUMENT>0000012345</SALESDOCUMENT>` +
	`</n0:ZBAPI_SALESORDER_CREATEResponse>` +
	`</PFX:Body>` +
	`</PFX:Envelope>`

func TestUnwrap_PrefixAgnostic(t *testing.T) {
	var bodies []map[string]any
	for _, prefix := range []string{"soapenv", "SOAP-ENV", "soap-env"} {
		raw := strings.ReplaceAll(responseTemplate, "PFX", prefix)
		env, ok := Unwrap([]byte(raw)).(*Envelope)
		if !ok {
			t.Fatalf("prefix %s: Unwrap did not return *Envelope", prefix)
		}
		if env.Raw != raw {
			t.Errorf("prefix %s: Raw not preserved", prefix)
		}
		bodies = append(bodies, env.Body)
	}

	for i := 1; i < len(bodies); i++ {
		if !reflect.DeepEqual(bodies[0], bodies[i]) {
			t.Errorf("body %d differs from body 0:\n%v\n%v", i, bodies[i], bodies[0])
		}
	}

	resp, ok := bodies[0]["ZBAPI_SALESORDER_CREATEResponse"].(map[string]any)
	if !ok {
		t.Fatalf("response element missing: %v", bodies[0])
	}
	if resp["SALESDOCUMENT"] != "0000012345" {
		t.Errorf("SALESDOCUMENT = %v", resp["SALESDOCUMENT"])
	}
	ret := resp["RETURN"].(map[string]any)
	items, ok := ret["item"].([]any)
	if !ok || len(items) != 2 {
		t.Fatalf("RETURN items = %#v, want 2 repeated items", ret["item"])
	}
	first := items[0].(map[string]any)
	if first["TYPE"] != "S" || first["MESSAGE"] != "Order saved" {
		t.Errorf("first item = %v", first)
	}
}

func TestUnwrap_NoPrefix(t *testing.T) {
	raw := `<Envelope xmlns="http://schemas.xmlsoap.org/soap/envelope/"><Body><Result>ok</Result></Body></Envelope>`
	env, ok := Unwrap([]byte(raw)).(*Envelope)
	if !ok {
		t.Fatal("Unwrap did not return *Envelope for unprefixed envelope")
	}
	if env.Body["Result"] != "ok" {
		t.Errorf("Body = %v", env.Body)
	}
}

func TestUnwrap_EmptyBody(t *testing.T) {
	raw := `<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/"><soapenv:Body/></soapenv:Envelope>`
	env, ok := Unwrap([]byte(raw)).(*Envelope)
	if !ok {
		t.Fatal("Unwrap did not return *Envelope")
	}
	if len(env.Body) != 0 {
		t.Errorf("Body = %v, want empty", env.Body)
	}
}

func TestUnwrap_NoBodyFallsBackToRaw(t *testing.T) {
	raw := `<html><body>Logon failed</body></html>`
	res := Unwrap([]byte(raw))
	if _, ok := res.(*RawText); !ok {
		t.Fatalf("Unwrap = %T, want *RawText", res)
	}
	if res.Text() != raw {
		t.Errorf("Text = %q, want raw input", res.Text())
	}
}

func TestUnwrap_MalformedFallsBackToRaw(t *testing.T) {
	raw := `<soapenv:Envelope><soapenv:Body><A></soapenv:Body>`
	res := Unwrap([]byte(raw))
	pe, ok := res.(*ParseError)
	if !ok {
		t.Fatalf("Unwrap = %T, want *ParseError", res)
	}
	if pe.Err == nil {
		t.Error("ParseError.Err should be set")
	}
	if res.Text() != raw {
		t.Errorf("Text = %q, want raw input", res.Text())
	}
}

func TestFind(t *testing.T) {
	body := map[string]any{
		"Response": map[string]any{
			"RETURN": map[string]any{
				"item": []any{
					map[string]any{"TYPE": "S"},
				},
			},
			"EV_DOC": "4500000001",
		},
	}

	if v, ok := Find(body, "EV_DOC"); !ok || v != "4500000001" {
		t.Errorf("Find(EV_DOC) = %v, %v", v, ok)
	}
	if v, ok := Find(body, "TYPE"); !ok || v != "S" {
		t.Errorf("Find(TYPE) = %v, %v", v, ok)
	}
	if _, ok := Find(body, "MISSING"); ok {
		t.Error("Find(MISSING) should report not found")
	}
}

func TestFind_Deterministic(t *testing.T) {
	body := map[string]any{
		"Response": map[string]any{
			"B": map[string]any{"DOC": "from-b"},
			"A": map[string]any{"DOC": "from-a"},
			"C": map[string]any{"X": map[string]any{"DOC": "deeper"}},
		},
	}
	for i := 0; i < 50; i++ {
		if v, _ := Find(body, "DOC"); v != "from-a" {
			t.Fatalf("run %d: Find(DOC) = %v, want from-a", i, v)
		}
	}

	body["Response"].(map[string]any)["DOC"] = "top"
	if v, _ := Find(body, "DOC"); v != "top" {
		t.Errorf("Find(DOC) = %v, want the shallowest match", v)
	}
}
