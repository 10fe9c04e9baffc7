package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/gurkanbulca/tasklist/internal/client"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#2e7d32")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#d16d7a")).Bold(true)
	headerStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6c757d"))
)

// termToaster prints toasts as styled lines.
type termToaster struct {
	out io.Writer
	err io.Writer
}

var _ client.Toaster = (*termToaster)(nil)

func (t *termToaster) Success(message string) {
	fmt.Fprintln(t.out, successStyle.Render("✔ "+message))
}

func (t *termToaster) Error(message string) {
	fmt.Fprintln(t.err, errorStyle.Render("✘ "+message))
}

// stdinConfirm asks a yes/no question on in.
func stdinConfirm(in io.Reader, out io.Writer) func(string) bool {
	reader := bufio.NewReader(in)
	return func(prompt string) bool {
		fmt.Fprintf(out, "%s [y/N] ", prompt)
		answer, err := reader.ReadString('\n')
		if err != nil && answer == "" {
			return false
		}
		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "y", "yes":
			return true
		default:
			return false
		}
	}
}

func printTasks(out io.Writer, tasks []client.Task, page client.Page) {
	if len(tasks) == 0 {
		fmt.Fprintln(out, mutedStyle.Render("No tasks"))
		return
	}

	fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("%-36s  %-10s  %-12s  %s", "ID", "DUE", "STATUS", "NAME")))
	for _, t := range tasks {
		line := fmt.Sprintf("%-36s  %-10s  %-12s  %s", t.ID, t.DueDate, t.Status, t.Name)
		if t.Assignee != nil && t.Assignee.Name != "" {
			line += mutedStyle.Render("  @" + t.Assignee.Name)
		}
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("page %d of %d, %d tasks", page.Page, page.LastPage, page.Total)))
}
