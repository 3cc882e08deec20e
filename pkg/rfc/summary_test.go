package rfc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JinArO/sap-mcp-server/pkg/soap"
)

const salesOrderCreated = `<soap-env:Envelope xmlns:soap-env="http://schemas.xmlsoap.org/soap/envelope/">
<soap-env:Header/>
<soap-env:Body>
<n0:ZBAPI_SALESORDER_CREATEResponse xmlns:n0="urn:sap-com:document:sap:rfc:functions">
<RETURN>
<item><TYPE>S</TYPE><ID>V1</ID><NUMBER>311</NUMBER><MESSAGE>Standard Order 10001234 has been saved</MESSAGE></item>
</RETURN>
<SALESDOCUMENT>10001234</SALESDOCUMENT>
</n0:ZBAPI_SALESORDER_CREATEResponse>
</soap-env:Body>
</soap-env:Envelope>`

const salesOrderFailed = `<soap-env:Envelope xmlns:soap-env="http://schemas.xmlsoap.org/soap/envelope/">
<soap-env:Body>
<n0:ZBAPI_SALESORDER_CREATEResponse xmlns:n0="urn:sap-com:document:sap:rfc:functions">
<RETURN>
<item><TYPE>E</TYPE><ID>V4</ID><NUMBER>219</NUMBER><MESSAGE>Sales document was not changed</MESSAGE></item>
<item><TYPE>E</TYPE><ID>VP</ID><NUMBER>112</NUMBER><MESSAGE>Material M1 is not defined for sales org TW01</MESSAGE></item>
</RETURN>
<SALESDOCUMENT/>
</n0:ZBAPI_SALESORDER_CREATEResponse>
</soap-env:Body>
</soap-env:Envelope>`

func summarize(t *testing.T, raw string) *Summary {
	t.Helper()
	env, ok := soap.Unwrap([]byte(raw)).(*soap.Envelope)
	require.True(t, ok)
	return Summarize(mustOp(t, "SO").Summary, env.Body)
}

func TestSummarize_Created(t *testing.T) {
	s := summarize(t, salesOrderCreated)

	assert.False(t, s.Failed)
	assert.Equal(t, "10001234", s.Document)
	require.Len(t, s.Messages, 1)
	assert.Equal(t, Message{Type: "S", ID: "V1", Number: "311", Text: "Standard Order 10001234 has been saved"}, s.Messages[0])
	assert.Equal(t, "Sales order 10001234 created.\n[S] Standard Order 10001234 has been saved", s.String())
}

func TestSummarize_Failed(t *testing.T) {
	s := summarize(t, salesOrderFailed)

	assert.True(t, s.Failed)
	assert.Empty(t, s.Document)
	require.Len(t, s.Messages, 2)
	assert.Equal(t, "VP", s.Messages[1].ID)
	assert.Equal(t, "Sales order failed.\n[E] Sales document was not changed\n[E] Material M1 is not defined for sales org TW01", s.String())
}

func TestSummarize_ErrorWithDocument(t *testing.T) {
	s := Summarize(&SummaryPolicy{Label: "Sales order", Document: "SALESDOCUMENT", Messages: "RETURN"}, map[string]any{
		"Response": map[string]any{
			"SALESDOCUMENT": "10009999",
			"RETURN": map[string]any{
				"item": map[string]any{"TYPE": "A", "MESSAGE": "Posting aborted"},
			},
		},
	})

	assert.True(t, s.Failed)
	assert.Equal(t, "Sales order failed. Document number 10009999 was returned.\n[A] Posting aborted", s.String())
}

func TestSummarize_EmptyReturnTable(t *testing.T) {
	s := Summarize(&SummaryPolicy{Document: "DOC", Messages: "RETURN"}, map[string]any{
		"DOC":    "42",
		"RETURN": "",
	})

	assert.False(t, s.Failed)
	assert.Empty(t, s.Messages)
	assert.Equal(t, "Document 42 created.", s.String())
}

func TestSummarize_NoDocumentNoErrors(t *testing.T) {
	s := Summarize(&SummaryPolicy{Label: "Sales order", Document: "SALESDOCUMENT", Messages: "RETURN"}, map[string]any{
		"RETURN": map[string]any{"item": map[string]any{"TYPE": "W", "MESSAGE": "Credit check pending"}},
	})

	assert.False(t, s.Failed)
	assert.Equal(t, "Sales order created.\n[W] Credit check pending", s.String())
}
