package render

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/scopewatch/scopewatch/pkg/model"
)

type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

type Renderer interface {
	Render(w io.Writer, report model.Report) error
}

func New(f Format) Renderer {
	switch f {
	case FormatJSON:
		return &jsonRenderer{}
	default:
		return &tableRenderer{}
	}
}

type jsonRenderer struct{}

func (r *jsonRenderer) Render(w io.Writer, report model.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

type tableRenderer struct{}

func (r *tableRenderer) Render(w io.Writer, report model.Report) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "ASSET\tTYPE\tRISK\tCOMPLIANCE\tCOMPLIANT\tOPEN FINDINGS\n")
	for _, p := range report.Assets {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.1f%%\t%s\t%d\n",
			p.Asset.Name,
			p.Asset.Type,
			riskOrDash(p.Asset.RiskScore),
			p.ComplianceScore,
			yesNo(p.Compliant),
			p.OpenFindings,
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(report.Alerts) > 0 {
		fmt.Fprintf(w, "\nAlerts:\n")
		for _, a := range report.Alerts {
			fmt.Fprintf(w, "  [%s] %s\n", a.Severity, a.Title)
			if a.Description != "" {
				fmt.Fprintf(w, "      %s\n", a.Description)
			}
		}
	}
	return nil
}

func riskOrDash(score *int) string {
	if score == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *score)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
