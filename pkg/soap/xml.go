package soap

import "strings"

// Namespaces declared on every outbound envelope.
const (
	EnvelopeNamespace = "http://schemas.xmlsoap.org/soap/envelope/"
	RFCNamespace      = "urn:sap-com:document:sap:rfc:functions"
	// RFCPrefix is the prefix bound to RFCNamespace in the envelope.
	RFCPrefix = "urn"
)

const (
	envelopeOpen  = `<soapenv:Envelope xmlns:soapenv="` + EnvelopeNamespace + `" xmlns:` + RFCPrefix + `="` + RFCNamespace + `"><soapenv:Header/><soapenv:Body>`
	envelopeClose = `</soapenv:Body></soapenv:Envelope>`
)

// Envelope wraps an RFC XML fragment as the sole child of a SOAP 1.1 Body.
// The result is a single line without an XML declaration.
func Envelope(fragment string) string {
	var sb strings.Builder
	sb.Grow(len(envelopeOpen) + len(fragment) + len(envelopeClose))
	sb.WriteString(envelopeOpen)
	sb.WriteString(fragment)
	sb.WriteString(envelopeClose)
	return sb.String()
}

var textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// EscapeText escapes the characters that are special in XML element content.
func EscapeText(s string) string {
	return textEscaper.Replace(s)
}
