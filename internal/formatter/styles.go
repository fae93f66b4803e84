package formatter

import (
	"github.com/charmbracelet/lipgloss"
)

// DefaultPalette colors terminal output.
var DefaultPalette = NewPalette("#7D56F4", "#04B575", "#FF0000", "#FFA500", "#626262")

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
//
// A nil *Palette renders text unchanged.
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title: NewBold(t),
		ok:    NewBold(s),
		err:   NewBold(e),
		warn:  NewStyle(w),
		help:  NewEm(h),
	}
}

// Title renders s as a heading.
func (p *Palette) Title(s string) string {
	if p == nil {
		return s
	}
	return p.title.Render(s)
}

func (p *Palette) OK(s string) string {
	if p == nil {
		return s
	}
	return p.ok.Render(s)
}

func (p *Palette) Err(s string) string {
	if p == nil {
		return s
	}
	return p.err.Render(s)
}

func (p *Palette) Warn(s string) string {
	if p == nil {
		return s
	}
	return p.warn.Render(s)
}

func (p *Palette) Help(s string) string {
	if p == nil {
		return s
	}
	return p.help.Render(s)
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}
