package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/parleylab/parley/internal/core"
)

// MarkdownExporter exports negotiation results to Markdown format.
type MarkdownExporter struct{}

// Export writes the result as Markdown.
func (e *MarkdownExporter) Export(result *core.Result, w io.Writer) error {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Negotiation: %s\n\n", result.Scenario))

	sb.WriteString("## Summary\n\n")
	sb.WriteString(fmt.Sprintf("- **ID:** `%s`\n", result.ID))
	sb.WriteString(fmt.Sprintf("- **Status:** %s\n", result.Status))
	sb.WriteString(fmt.Sprintf("- **Rounds:** %d of %d\n", result.RoundsUsed, result.MaxRounds))
	sb.WriteString(fmt.Sprintf("- **Created:** %s\n", result.CreatedAt.Format("January 2, 2006 at 3:04 PM")))
	if result.AgreementReached && result.Terms != nil {
		sb.WriteString(fmt.Sprintf("- **Agreement:** yes, at $%.2f\n", result.Terms.Price))
	} else {
		sb.WriteString("- **Agreement:** no\n")
	}
	sb.WriteString("\n")

	sb.WriteString("## Parties\n\n")
	for _, info := range []core.PartyInfo{result.PartyAInfo, result.PartyBInfo} {
		sb.WriteString(fmt.Sprintf("### %s\n", info.Party.DisplayName()))
		sb.WriteString(fmt.Sprintf("- **Role:** %s\n", info.Role))
		sb.WriteString(fmt.Sprintf("- **Persona:** %s\n", info.Persona))
		sb.WriteString(fmt.Sprintf("- **Messages sent:** %d\n", info.MessagesSent))
		sb.WriteString("\n")
	}

	sb.WriteString("## Transcript\n\n")
	if len(result.Turns) == 0 {
		sb.WriteString("*No messages recorded.*\n\n")
	} else {
		currentRound := 0
		for _, turn := range result.Turns {
			if turn.Round != currentRound {
				currentRound = turn.Round
				sb.WriteString(fmt.Sprintf("### Round %d\n\n", currentRound))
			}
			sb.WriteString(fmt.Sprintf("**%s:** %s\n", turn.Party.DisplayName(), turn.Text))
			if turn.PriceOffer != nil {
				sb.WriteString(fmt.Sprintf("*(offer: $%.2f)*\n", *turn.PriceOffer))
			}
			sb.WriteString("\n")
		}
	}

	if result.Judge != nil {
		sb.WriteString("## Judge Analysis\n\n")
		if result.Judge.StoppedEarly {
			sb.WriteString("Agreement confirmed before the round limit.\n\n")
		}
		sb.WriteString(result.Judge.Explanation + "\n\n")
	}

	if result.Concessions != nil {
		sb.WriteString("## Concessions\n\n")
		sb.WriteString("| | Party A | Party B |\n")
		sb.WriteString("|---|---|---|\n")
		sb.WriteString(fmt.Sprintf("| Count | %d | %d |\n", result.Concessions.PartyA.Count, result.Concessions.PartyB.Count))
		sb.WriteString(fmt.Sprintf("| Total amount | $%.2f | $%.2f |\n", result.Concessions.PartyA.TotalAmount, result.Concessions.PartyB.TotalAmount))
		sb.WriteString(fmt.Sprintf("| Pattern | %s | %s |\n", result.Concessions.PartyA.Pattern, result.Concessions.PartyB.Pattern))
		sb.WriteString(fmt.Sprintf("| Intensity pattern | %s | %s |\n", result.Concessions.PartyA.IntensityPattern, result.Concessions.PartyB.IntensityPattern))
		sb.WriteString(fmt.Sprintf("| Avg intensity | %s | %s |\n",
			formatUtility(result.Concessions.PartyA.AvgIntensity),
			formatUtility(result.Concessions.PartyB.AvgIntensity)))
		if result.Concessions.Comparison.MoreDesperate != "" {
			sb.WriteString(fmt.Sprintf("\nMore desperate party: %s\n", result.Concessions.Comparison.MoreDesperate))
		}
		sb.WriteString("\n")
	}

	if result.UtilityA != nil || result.UtilityB != nil {
		sb.WriteString("## Utilities\n\n")
		sb.WriteString(fmt.Sprintf("- **Party A:** %s\n", formatUtility(result.UtilityA)))
		sb.WriteString(fmt.Sprintf("- **Party B:** %s\n", formatUtility(result.UtilityB)))
		sb.WriteString("\n")
	}

	_, err := w.Write([]byte(sb.String()))
	return err
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return "md"
}
