package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"StockDash/internal/model"
	"StockDash/internal/recorder"
)

// maxListed caps the failed tickers printed in one message.
const maxListed = 20

// FormatRunReport formats a finished run into a Telegram message.
func FormatRunReport(rep *model.RunReport, runErr error) string {
	var b strings.Builder

	icon := "✅"
	if rep.Status != model.RunCompleted {
		icon = "⛔"
	} else if len(rep.FailedTickers()) > 0 || rep.FailedGlobals() > 0 {
		icon = "⚠️"
	}
	fmt.Fprintf(&b, "%s <b>StockDash ingest</b> | %s\n\n", icon, rep.StartedAt.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "Status: %s\n", rep.Status)
	fmt.Fprintf(&b, "Duration: %s\n", rep.FinishedAt.Sub(rep.StartedAt).Round(time.Second))
	if !rep.ResumedFrom.IsZero() {
		fmt.Fprintf(&b, "Resumed from: %s @ %d\n", passName(rep.ResumedFrom.Pass), rep.ResumedFrom.Index)
	}
	fmt.Fprintf(&b, "Tickers: %d ok / %d processed (universe %d)\n\n", rep.Succeeded(), rep.Processed(), rep.Universe)

	for i := range rep.Passes {
		p := &rep.Passes[i]
		failed := p.FailedTickers()
		fmt.Fprintf(&b, "• %s: %d ok, %d failed\n", p.Name, len(p.Tickers())-len(failed), len(failed))
	}
	if len(rep.Globals) > 0 {
		fmt.Fprintf(&b, "• globals: %d/%d ok\n", len(rep.Globals)-rep.FailedGlobals(), len(rep.Globals))
	}

	if failed := rep.FailedTickers(); len(failed) > 0 {
		b.WriteString("\n<b>Failed:</b> ")
		b.WriteString(html.EscapeString(listed(failed)))
		b.WriteString("\n")
	}
	if runErr != nil {
		fmt.Fprintf(&b, "\nError: %s\n", html.EscapeString(runErr.Error()))
	}
	return b.String()
}

// FormatStatus formats the stored checkpoint and the last recorded run.
func FormatStatus(cp model.Checkpoint, last *recorder.RunSummary, running bool) string {
	var b strings.Builder
	b.WriteString("📦 <b>Ingest status</b>\n\n")
	if running {
		b.WriteString("A run is in progress.\n")
	}
	if cp.IsZero() {
		b.WriteString("Checkpoint: none\n")
	} else {
		fmt.Fprintf(&b, "Checkpoint: %s @ %d\n", passName(cp.Pass), cp.Index)
	}
	if last == nil {
		b.WriteString("Last run: none recorded\n")
		return b.String()
	}
	fmt.Fprintf(&b, "Last run: %s (%s)\n", last.StartedAt.Format("2006-01-02 15:04"), last.Status)
	if !last.FinishedAt.IsZero() {
		fmt.Fprintf(&b, "Duration: %s\n", last.FinishedAt.Sub(last.StartedAt).Round(time.Second))
	}
	fmt.Fprintf(&b, "Tickers: %d processed, %d failed, %d global failures\n", last.Processed, last.Failed, last.FailedGlobals)
	if last.Error != "" {
		fmt.Fprintf(&b, "Error: %s\n", html.EscapeString(last.Error))
	}
	return b.String()
}

func passName(p string) string {
	if p == "" {
		return "first pass"
	}
	return p
}

func listed(items []string) string {
	if len(items) <= maxListed {
		return strings.Join(items, ", ")
	}
	return fmt.Sprintf("%s and %d more", strings.Join(items[:maxListed], ", "), len(items)-maxListed)
}
