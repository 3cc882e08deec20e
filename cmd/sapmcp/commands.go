package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JinArO/sap-mcp-server/pkg/rfc"
	"github.com/JinArO/sap-mcp-server/pkg/soap"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List the SAP operations and their parameters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		resolveConfig(cmd)
		catalog, err := loadCatalog()
		if err != nil {
			return err
		}
		return printCatalog(cmd.OutOrStdout(), catalog)
	},
}

var renderCmd = &cobra.Command{
	Use:   "render <operation> [KEY=VALUE ...]",
	Short: "Print the SOAP request an operation would send, without sending it",
	Example: `  sapmcp render SO CUST_PO=4500001 CUST_PO_DATE=2025-01-15 MATERIAL=M-100 QTY=2
  sapmcp render KIT SALES_ORDER=12345 UUID=42`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resolveConfig(cmd)
		catalog, err := loadCatalog()
		if err != nil {
			return err
		}
		values, err := rfc.ParseAssignments(args[1:])
		if err != nil {
			return err
		}
		return renderRequest(cmd.OutOrStdout(), catalog, args[0], values)
	},
}

func printCatalog(w io.Writer, catalog *rfc.Catalog) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tTOOL\tFUNCTION\tPARAMETERS")
	for _, op := range catalog.Operations {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", op.Key, op.Tool, op.Root, formatParams(op.Params()))
	}
	return tw.Flush()
}

// formatParams lists parameter keys; required ones are marked with "*".
func formatParams(params []rfc.Param) string {
	parts := make([]string, 0, len(params))
	for _, p := range params {
		name := p.Key
		if p.Required {
			name += "*"
		}
		if p.Type == rfc.ParamArray {
			name += "[]"
		}
		parts = append(parts, name)
	}
	return strings.Join(parts, " ")
}

func renderRequest(w io.Writer, catalog *rfc.Catalog, key string, values rfc.Values) error {
	op, ok := catalog.Lookup(key)
	if !ok {
		if op, ok = catalog.LookupTool(key); !ok {
			return fmt.Errorf("unknown operation %q", key)
		}
	}

	fragment, err := rfc.Render(op, values)
	if err != nil {
		return err
	}

	soapCfg := soap.NewConfig(cfg.BaseURL, soap.WithClient(cfg.Client))
	transport := soap.NewTransportWithClient(soapCfg, nil)
	ep := op.SOAPEndpoint()

	fmt.Fprintf(w, "POST %s\n", transport.URL(ep))
	fmt.Fprintf(w, "SOAPAction: %q\n\n", ep.Action)
	fmt.Fprintln(w, soap.Envelope(fragment))
	return nil
}
