// package formatter renders scan results and analytics event logs to various formats (CSV, Markdown, JSON, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/sia/internal/shared"
)

// FrameRow is one iframe found by a scan.
type FrameRow struct {
	Index  int    `json:"index"`
	Src    string `json:"src"`
	Player bool   `json:"player"` // src matches the embed fragment
	Bound  bool   `json:"bound"`  // analytics attached
}

// ScanReport lists the frames of one page.
type ScanReport struct {
	Page   string     `json:"page"`
	Title  string     `json:"title,omitempty"`
	Frames []FrameRow `json:"frames"`
}

// Players returns the number of player frames.
func (r *ScanReport) Players() int {
	n := 0
	for _, f := range r.Frames {
		if f.Player {
			n++
		}
	}
	return n
}

// EventRow is one dispatched analytics event.
type EventRow struct {
	Seq      int           `json:"seq"`
	Elapsed  time.Duration `json:"elapsed"` // virtual time since the replay started
	Category string        `json:"category"`
	Action   string        `json:"action"`
	Label    string        `json:"label"`
}

// Format names an output format.
type Format string

const (
	FormatText     Format = "text"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
)

// ParseFormat validates a format name.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(name)); f {
	case FormatText, FormatCSV, FormatMarkdown, FormatJSON:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, name)
	}
}

// ScanToCSV converts a ScanReport to CSV format with columns: Index, Src, Player, Bound
func ScanToCSV(report *ScanReport) ([]byte, error) {
	records := make([][]string, 0, len(report.Frames))
	for _, f := range report.Frames {
		records = append(records, []string{
			strconv.Itoa(f.Index),
			f.Src,
			strconv.FormatBool(f.Player),
			strconv.FormatBool(f.Bound),
		})
	}
	return writeCSV([]string{"Index", "Src", "Player", "Bound"}, records)
}

// ScanToMarkdown converts a ScanReport to a Markdown table
func ScanToMarkdown(report *ScanReport) ([]byte, error) {
	var buf bytes.Buffer

	title := report.Title
	if title == "" {
		title = report.Page
	}
	buf.WriteString(fmt.Sprintf("# %s\n\n", title))
	buf.WriteString(fmt.Sprintf("**Frames**: %d\n", len(report.Frames)))
	buf.WriteString(fmt.Sprintf("**Players**: %d\n\n", report.Players()))

	buf.WriteString("| # | Src | Player | Bound |\n")
	buf.WriteString("|---|-----|--------|-------|\n")
	for _, f := range report.Frames {
		buf.WriteString(fmt.Sprintf("| %d | %s | %s | %s |\n", f.Index, f.Src, yesNo(f.Player), yesNo(f.Bound)))
	}

	return buf.Bytes(), nil
}

// ScanToText converts a ScanReport to plain text, styled with p when it is non-nil
func ScanToText(report *ScanReport, p *Palette) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(p.Title(fmt.Sprintf("Page: %s", report.Page)) + "\n")
	if report.Title != "" {
		buf.WriteString(fmt.Sprintf("Title: %s\n", report.Title))
	}
	buf.WriteString(fmt.Sprintf("Frames: %d, players: %d\n\n", len(report.Frames), report.Players()))

	for _, f := range report.Frames {
		mark := p.Help("-")
		switch {
		case f.Bound:
			mark = p.OK("✓")
		case f.Player:
			mark = p.Warn("!")
		}
		src := f.Src
		if src == "" {
			src = p.Help("(no src)")
		}
		buf.WriteString(fmt.Sprintf("%s %d. %s\n", mark, f.Index, src))
	}

	return buf.Bytes(), nil
}

// EventsToCSV converts events to CSV format with columns: Seq, Elapsed, Category, Action, Label
func EventsToCSV(events []EventRow) ([]byte, error) {
	records := make([][]string, 0, len(events))
	for _, ev := range events {
		records = append(records, []string{
			strconv.Itoa(ev.Seq),
			ev.Elapsed.String(),
			ev.Category,
			ev.Action,
			ev.Label,
		})
	}
	return writeCSV([]string{"Seq", "Elapsed", "Category", "Action", "Label"}, records)
}

// EventsToMarkdown converts events to a Markdown table
func EventsToMarkdown(events []EventRow) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Analytics events\n\n")
	buf.WriteString(fmt.Sprintf("**Events**: %d\n\n", len(events)))
	buf.WriteString("| # | Elapsed | Category | Action | Label |\n")
	buf.WriteString("|---|---------|----------|--------|-------|\n")
	for _, ev := range events {
		buf.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s |\n", ev.Seq, ev.Elapsed, ev.Category, ev.Action, ev.Label))
	}

	return buf.Bytes(), nil
}

// EventsToText converts events to plain text, one per line, styled with p when it is non-nil
func EventsToText(events []EventRow, p *Palette) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(p.Title(fmt.Sprintf("Events: %d", len(events))) + "\n")
	for _, ev := range events {
		action := ev.Action
		if ev.Action == "Error" {
			action = p.Err(action)
		} else {
			action = p.OK(action)
		}
		buf.WriteString(fmt.Sprintf("%3d %s %s · %s · %s\n",
			ev.Seq, p.Help(fmt.Sprintf("%8s", ev.Elapsed)), ev.Category, action, ev.Label))
	}

	return buf.Bytes(), nil
}

// ToJSON marshals v, indented when pretty is set
func ToJSON(v any, pretty bool) ([]byte, error) {
	var data []byte
	var err error
	if pretty {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// RenderScan renders a report in the given format. Text output is unstyled.
func RenderScan(report *ScanReport, format Format) ([]byte, error) {
	switch format {
	case FormatCSV:
		return ScanToCSV(report)
	case FormatMarkdown:
		return ScanToMarkdown(report)
	case FormatJSON:
		return ToJSON(report, true)
	default:
		return ScanToText(report, nil)
	}
}

// RenderEvents renders events in the given format. Text output is unstyled.
func RenderEvents(events []EventRow, format Format) ([]byte, error) {
	switch format {
	case FormatCSV:
		return EventsToCSV(events)
	case FormatMarkdown:
		return EventsToMarkdown(events)
	case FormatJSON:
		return ToJSON(events, true)
	default:
		return EventsToText(events, nil)
	}
}

// WriteFile writes rendered output to path.
func WriteFile(path string, data []byte) error {
	if path == "" {
		return fmt.Errorf("%w: output path", shared.ErrMissingArgument)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func writeCSV(headers []string, records [][]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for _, record := range records {
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
