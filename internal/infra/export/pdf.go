// Package export renders opportunity one-pagers.
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/xavierca1/clientpulse/internal/entity"
)

// PDFExporter writes an A4 summary of an opportunity. With FontPath set it
// embeds that TTF for full UTF-8; otherwise it falls back to Helvetica and
// cp1252.
type PDFExporter struct {
	FontPath string
	Now      func() time.Time
}

func NewPDFExporter(fontPath string) *PDFExporter {
	return &PDFExporter{FontPath: fontPath, Now: time.Now}
}

type page struct {
	pdf  *gofpdf.Fpdf
	font string
	tr   func(string) string
}

func (e *PDFExporter) Export(opp *entity.Opportunity, w io.Writer) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(opp.Title, true)
	pdf.SetAuthor("ClientPulse", false)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)

	p := page{pdf: pdf, font: "Helvetica", tr: pdf.UnicodeTranslatorFromDescriptor("")}
	if e.FontPath != "" {
		pdf.AddUTF8Font("DejaVu", "", e.FontPath)
		pdf.AddUTF8Font("DejaVu", "B", e.FontPath)
		p.font = "DejaVu"
		p.tr = func(s string) string { return s }
	}
	pdf.AddPage()

	pdf.SetFont(p.font, "B", 18)
	pdf.MultiCell(0, 9, p.tr(opp.Title), "", "L", false)
	pdf.SetFont(p.font, "", 11)
	presentation := entity.StatusPresentationFor(opp.DisplayStatus(false))
	pdf.CellFormat(0, 6, p.tr(fmt.Sprintf("%s  |  %s  |  score %.0f", opp.AccountName, presentation.Label, opp.Score*100)), "", 1, "L", false, 0, "")
	p.hr()

	p.sectionTitle("Score breakdown")
	b := opp.ScoreBreakdown
	p.kvLine("Impact", percent(b.Impact))
	p.kvLine("Urgency", percent(b.Urgency))
	p.kvLine("Fit", percent(b.Fit))
	p.kvLine("Access", percent(b.Access))
	p.kvLine("Feasibility", percent(b.Feasibility))
	if b.Confidence != nil {
		p.kvLine("Confidence", percent(*b.Confidence))
	}
	p.hr()

	p.paragraph("What happened", opp.WhatHappened)
	p.paragraph("Why it matters", opp.WhyItMatters)
	p.paragraph("Suggested offer", opp.SuggestedOffer)
	p.paragraph("Proof", opp.Proof)
	p.bullets("Pains", opp.Pains)
	p.bullets("Next steps", opp.NextSteps)
	p.bullets("Stakeholders", opp.StakeholderHints)

	if len(opp.EvidenceRefs) > 0 {
		p.sectionTitle("Evidence")
		for _, ref := range opp.EvidenceRefs {
			line := ref.Title
			if ref.URL != "" {
				line = strings.TrimSpace(line + " - " + ref.URL)
			}
			pdf.MultiCell(0, 6, p.tr("- "+line), "", "L", false)
		}
		pdf.Ln(2)
	}

	if d := opp.DraftOutreach; d != nil {
		p.hr()
		p.sectionTitle("Outreach draft")
		p.kvLine("To", d.Recipient)
		p.kvLine("Subject", d.Subject)
		pdf.MultiCell(0, 6, p.tr(d.Body), "", "L", false)
	}

	pdf.SetY(-15)
	pdf.SetFont(p.font, "", 8)
	pdf.CellFormat(0, 5, p.tr("Generated "+e.Now().UTC().Format("2006-01-02 15:04 UTC")+" for "+opp.ID), "", 0, "R", false, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write pdf: %w", err)
	}
	return nil
}

func percent(v float64) string {
	return fmt.Sprintf("%.0f%%", v*100)
}

func (p page) sectionTitle(s string) {
	p.pdf.SetFont(p.font, "B", 12)
	p.pdf.CellFormat(0, 7, p.tr(s), "", 1, "L", false, 0, "")
	p.pdf.SetFont(p.font, "", 11)
}

func (p page) kvLine(key, val string) {
	p.pdf.SetFont(p.font, "B", 11)
	p.pdf.CellFormat(35, 6, p.tr(key+":"), "", 0, "L", false, 0, "")
	p.pdf.SetFont(p.font, "", 11)
	p.pdf.CellFormat(0, 6, p.tr(val), "", 1, "L", false, 0, "")
}

func (p page) paragraph(title, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	p.sectionTitle(title)
	p.pdf.MultiCell(0, 6, p.tr(text), "", "L", false)
	p.pdf.Ln(2)
}

func (p page) bullets(title string, items []string) {
	if len(items) == 0 {
		return
	}
	p.sectionTitle(title)
	for _, item := range items {
		p.pdf.MultiCell(0, 6, p.tr("- "+item), "", "L", false)
	}
	p.pdf.Ln(2)
}

func (p page) hr() {
	y := p.pdf.GetY() + 1.5
	p.pdf.SetLineWidth(0.2)
	p.pdf.Line(20, y, 190, y)
	p.pdf.SetY(y + 2)
}
