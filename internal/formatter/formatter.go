// package formatter renders sync outcomes for the CLI and for Telegram
package formatter

import (
	"bytes"
	"fmt"
	"html"

	"traktsync/internal/models"
)

// SummaryHTML renders a single Telegram-ready HTML message summarizing a
// run. Titles are escaped; Telegram only allows a small tag subset.
func SummaryHTML(outcome *models.SyncOutcome) string {
	var buf bytes.Buffer

	buf.WriteString("<b>Trakt → Plex sync</b>\n")

	if len(outcome.Added) > 0 {
		buf.WriteString(fmt.Sprintf("\n<b>Added to Plex (%d)</b>\n", len(outcome.Added)))
		for _, title := range outcome.Added {
			buf.WriteString(fmt.Sprintf("• %s\n", html.EscapeString(title)))
		}
	}

	if len(outcome.Removed) > 0 {
		buf.WriteString(fmt.Sprintf("\n<b>Removed from Trakt (%d)</b>\n", len(outcome.Removed)))
		for _, title := range outcome.Removed {
			buf.WriteString(fmt.Sprintf("• %s\n", html.EscapeString(title)))
		}
	}

	if len(outcome.Skipped) > 0 {
		buf.WriteString(fmt.Sprintf("\n<i>%d item(s) left for the next run</i>\n", len(outcome.Skipped)))
	}

	return buf.String()
}

// SummaryText renders the plain-text run summary printed by the CLI.
func SummaryText(outcome *models.SyncOutcome) string {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Added: %d  Removed: %d  Skipped: %d\n", len(outcome.Added), len(outcome.Removed), len(outcome.Skipped)))

	if len(outcome.Added) > 0 {
		buf.WriteString("\nAdded to Plex:\n")
		for i, title := range outcome.Added {
			buf.WriteString(fmt.Sprintf("  %d. %s\n", i+1, title))
		}
	}

	if len(outcome.Skipped) > 0 {
		buf.WriteString("\nLeft on Trakt for next run:\n")
		for i, title := range outcome.Skipped {
			buf.WriteString(fmt.Sprintf("  %d. %s\n", i+1, title))
		}
	}

	return buf.String()
}
