package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/console-conteudo/backend/internal/submission"
)

var (
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	loadingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

// terminalFeedback prints the submission lifecycle as styled lines.
type terminalFeedback struct {
	out io.Writer
}

func (f terminalFeedback) line(style lipgloss.Style, format string, args ...interface{}) {
	fmt.Fprintln(f.out, style.Render(fmt.Sprintf(format, args...)))
}

func (f terminalFeedback) ShowLoading(collection string) {
	f.line(loadingStyle, "sending to %s...", collection)
}

func (f terminalFeedback) FadeForm(collection string) {
	f.line(mutedStyle, "form %s locked", collection)
}

func (f terminalFeedback) ShowSuccess(collection string, res *submission.Response) {
	f.line(successStyle, "saved to %s with id %s", collection, res.ID)
}

func (f terminalFeedback) Hide(string) {}

func (f terminalFeedback) ShowError(collection, message string) {
	f.line(errorStyle, "could not save to %s: %s", collection, message)
}

func (f terminalFeedback) UnfadeForm(collection string) {
	f.line(mutedStyle, "form %s unlocked", collection)
}
