package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/apodwall/internal/fault"
	"github.com/five82/apodwall/internal/logtail"
	"github.com/five82/apodwall/internal/state"
)

// statusRows is the fixed height of the status panel including its border.
const statusRows = 9

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	styles := m.theme.Styles()

	if m.showHelp {
		return lipgloss.JoinVertical(lipgloss.Left,
			m.renderHeader(styles),
			styles.Panel.Width(m.innerWidth()).Render(m.help.View(m.keys)),
			styles.Footer.Render("press any key to close"),
		)
	}

	sections := []string{m.renderHeader(styles), m.renderStatus(styles)}
	if m.showLogs {
		sections = append(sections, m.renderLogs(styles))
	}
	m.help.ShowAll = false
	sections = append(sections, styles.Footer.Render(m.help.View(m.keys)))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) innerWidth() int {
	w := m.width - 4
	if w < 20 {
		w = 20
	}
	return w
}

func (m Model) renderHeader(styles Styles) string {
	snap := m.snapshot
	phase := snap.Phase.String()
	badge := styles.StatusStyle(phase).Render(phase)
	if snap.Phase == state.PhaseRunning {
		badge = m.spinner.View() + " " + badge
	}
	title := styles.AccentText.Bold(true).Render("apodwall")
	line := title + "  " + badge
	if snap.IsFailing() {
		line += "  " + styles.DangerText.Render(fmt.Sprintf("%d failures in a row", snap.ConsecutiveFailures))
	}
	return styles.Header.Width(m.width).Render(line)
}

func (m Model) renderStatus(styles Styles) string {
	snap := m.snapshot
	now := m.now()
	valueWidth := m.innerWidth() - 12

	row := func(label, value string) string {
		return styles.Label.Render(label) + value
	}

	next := "-"
	if !snap.NextRun.IsZero() {
		next = fmt.Sprintf("in %s (%s)", humanizeDuration(snap.NextRun.Sub(now)), snap.NextRun.Local().Format("15:04"))
	} else if snap.Phase == state.PhaseRunning {
		next = "cycle in progress"
	}

	last := "never"
	if !snap.LastFinished.IsZero() {
		last = fmt.Sprintf("%s ago, %d cycles", humanizeDuration(now.Sub(snap.LastFinished)), snap.Cycles)
	}

	outcome := "-"
	if snap.LastOutcome != "" {
		outcome = styles.StatusStyle(snap.LastOutcome).Render(snap.LastOutcome)
	}

	errLine := styles.MutedText.Render("none")
	if snap.LastError != nil {
		style := styles.DangerText
		if snap.LastErrorKind == fault.Cancelled {
			style = styles.MutedText
		}
		errLine = style.Render(truncateMiddle(describeError(snap.LastErrorKind, snap.LastError), valueWidth))
	}

	rows := []string{
		row("Next run", styles.Text.Render(next)),
		row("Last cycle", styles.Text.Render(last)),
		row("Outcome", outcome),
		row("Title", styles.Text.Render(orDash(truncateMiddle(snap.LastTitle, valueWidth)))),
		row("Image", styles.InfoText.Render(orDash(truncateMiddle(snap.LastURL, valueWidth)))),
		row("Error", errLine),
	}
	return styles.Panel.Width(m.innerWidth()).Render(strings.Join(rows, "\n"))
}

func (m Model) renderLogs(styles Styles) string {
	limit := m.height - statusRows - 5
	if limit < 3 {
		limit = 3
	}

	var lines []string
	switch {
	case m.logErr != nil:
		lines = []string{styles.DangerText.Render(m.logErr.Error())}
	case len(m.logLines) == 0:
		lines = []string{styles.MutedText.Render("no log output yet")}
	default:
		records := m.logLines
		if len(records) > limit {
			records = records[len(records)-limit:]
		}
		for _, rec := range records {
			lines = append(lines, formatRecord(styles, rec, m.innerWidth()))
		}
	}
	return styles.Panel.Width(m.innerWidth()).Render(strings.Join(lines, "\n"))
}

// formatRecord renders one log line as "hh:mm:ss LEVEL message key=value".
func formatRecord(styles Styles, rec logtail.Record, width int) string {
	if rec.Level == "" {
		return styles.Text.Render(truncateEnd(rec.Raw, width))
	}
	var b strings.Builder
	if ts := shortTime(rec.Time); ts != "" {
		b.WriteString(styles.MutedText.Render(ts))
		b.WriteByte(' ')
	}
	b.WriteString(styles.LevelStyle(rec.Level).Render(fmt.Sprintf("%-5s", rec.Level)))
	b.WriteByte(' ')

	body := rec.Message
	for _, a := range rec.Attrs {
		if a.Key == "cycle" {
			continue
		}
		body += " " + a.Key + "=" + a.Value
	}
	b.WriteString(styles.Text.Render(truncateEnd(body, width-15)))
	return b.String()
}
