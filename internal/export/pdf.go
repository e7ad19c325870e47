package export

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"

	"github.com/parleylab/parley/internal/core"
)

// PDFExporter exports negotiation results to PDF format.
type PDFExporter struct{}

// Export writes the result as PDF.
func (e *PDFExporter) Export(result *core.Result, w io.Writer) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.MultiCell(0, 10, fmt.Sprintf("Negotiation: %s", result.Scenario), "", "C", false)
	pdf.Ln(5)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, "Summary")
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 10)
	id := result.ID
	if len(id) > 8 {
		id = id[:8] + "..."
	}
	e.addMetadataRow(pdf, "ID:", id)
	e.addMetadataRow(pdf, "Status:", string(result.Status))
	e.addMetadataRow(pdf, "Rounds:", fmt.Sprintf("%d of %d", result.RoundsUsed, result.MaxRounds))
	e.addMetadataRow(pdf, "Created:", result.CreatedAt.Format("January 2, 2006 at 3:04 PM"))
	if result.AgreementReached && result.Terms != nil {
		e.addMetadataRow(pdf, "Agreement:", fmt.Sprintf("yes, at $%.2f", result.Terms.Price))
	} else {
		e.addMetadataRow(pdf, "Agreement:", "no")
	}
	pdf.Ln(5)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, "Parties")
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 10)
	e.addPartyBox(pdf, result.PartyAInfo, 200, 230, 255) // Light blue
	pdf.Ln(3)
	e.addPartyBox(pdf, result.PartyBInfo, 200, 255, 200) // Light green
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, "Transcript")
	pdf.Ln(8)

	if len(result.Turns) == 0 {
		pdf.SetFont("Arial", "I", 10)
		pdf.Cell(0, 6, "No messages recorded.")
		pdf.Ln(6)
	} else {
		for _, turn := range result.Turns {
			if pdf.GetY() > 250 {
				pdf.AddPage()
			}

			if turn.Party == core.PartyA {
				pdf.SetFillColor(200, 230, 255)
			} else {
				pdf.SetFillColor(200, 255, 200)
			}
			pdf.SetFont("Arial", "B", 10)
			header := fmt.Sprintf("Round %d - %s", turn.Round, turn.Party.DisplayName())
			if turn.PriceOffer != nil {
				header += fmt.Sprintf(" (offer: $%.2f)", *turn.PriceOffer)
			}
			pdf.CellFormat(0, 7, header, "", 1, "L", true, 0, "")

			pdf.SetFont("Arial", "", 10)
			pdf.MultiCell(0, 5, turn.Text, "", "L", false)
			pdf.Ln(3)
		}
	}

	if result.Judge != nil {
		if pdf.GetY() > 230 {
			pdf.AddPage()
		}
		pdf.SetFont("Arial", "B", 12)
		pdf.Cell(0, 8, "Judge Analysis")
		pdf.Ln(8)
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(0, 5, result.Judge.Explanation, "", "L", false)
		pdf.Ln(5)
	}

	if result.Concessions != nil {
		if pdf.GetY() > 220 {
			pdf.AddPage()
		}
		pdf.SetFont("Arial", "B", 12)
		pdf.Cell(0, 8, "Concessions")
		pdf.Ln(8)
		pdf.SetFont("Arial", "", 10)
		e.addConcessionRows(pdf, "Party A", result.Concessions.PartyA)
		e.addConcessionRows(pdf, "Party B", result.Concessions.PartyB)
		if result.Concessions.Comparison.MoreDesperate != "" {
			e.addMetadataRow(pdf, "More desperate:", result.Concessions.Comparison.MoreDesperate)
		}
		pdf.Ln(3)
	}

	if result.UtilityA != nil || result.UtilityB != nil {
		pdf.SetFont("Arial", "B", 12)
		pdf.Cell(0, 8, "Utilities")
		pdf.Ln(8)
		pdf.SetFont("Arial", "", 10)
		e.addMetadataRow(pdf, "Party A:", formatUtility(result.UtilityA))
		e.addMetadataRow(pdf, "Party B:", formatUtility(result.UtilityB))
	}

	return pdf.Output(w)
}

func (e *PDFExporter) addMetadataRow(pdf *gofpdf.Fpdf, label, value string) {
	pdf.SetFont("Arial", "B", 10)
	pdf.Cell(35, 6, label)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, value)
	pdf.Ln(6)
}

func (e *PDFExporter) addPartyBox(pdf *gofpdf.Fpdf, info core.PartyInfo, r, g, b int) {
	pdf.SetFillColor(r, g, b)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(0, 7, info.Party.DisplayName(), "", 1, "L", true, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 5, fmt.Sprintf("Role: %s    Persona: %s    Messages: %d", info.Role, info.Persona, info.MessagesSent))
	pdf.Ln(6)
}

func (e *PDFExporter) addConcessionRows(pdf *gofpdf.Fpdf, label string, pc core.PartyConcessions) {
	e.addMetadataRow(pdf, label+":", fmt.Sprintf("%d concessions, $%.2f total, pattern %s, intensity %s",
		pc.Count, pc.TotalAmount, pc.Pattern, pc.IntensityPattern))
}

// FileExtension returns the file extension for PDF.
func (e *PDFExporter) FileExtension() string {
	return "pdf"
}
