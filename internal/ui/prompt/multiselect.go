package prompt

import (
	"fmt"
	"os"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/sahilm/fuzzy"
)

// MultiSelectResult holds the result of a multi-selection prompt.
type MultiSelectResult struct {
	Selected  []string
	Cancelled bool
}

var (
	msCursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	msCheckedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	msFilterStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	msHelpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	msMatchedStyle  = lipgloss.NewStyle().Underline(true)
	msDisabledStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

type optionSource []string

func (s optionSource) String(i int) string { return s[i] }
func (s optionSource) Len() int            { return len(s) }

type multiSelectModel struct {
	prompt    string
	options   []string
	checked   map[int]bool
	cursor    int
	filter    string
	filtered  []fuzzy.Match
	done      bool
	cancelled bool
}

// refilter recomputes the visible rows from the filter text.
func (m *multiSelectModel) refilter() {
	if m.filter == "" {
		m.filtered = make([]fuzzy.Match, len(m.options))
		for i, opt := range m.options {
			m.filtered[i] = fuzzy.Match{Str: opt, Index: i}
		}
	} else {
		m.filtered = fuzzy.FindFrom(m.filter, optionSource(m.options))
	}
	if m.cursor >= len(m.filtered) {
		m.cursor = max(0, len(m.filtered)-1)
	}
}

func (m multiSelectModel) Init() tea.Cmd {
	return nil
}

func (m multiSelectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyPressMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "ctrl+c", "esc":
		m.cancelled = true
		m.done = true
		return m, tea.Quit
	case "enter":
		m.done = true
		return m, tea.Quit
	case "up", "ctrl+p":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "ctrl+n":
		if m.cursor < len(m.filtered)-1 {
			m.cursor++
		}
	case "tab", "space", " ":
		if m.cursor < len(m.filtered) {
			idx := m.filtered[m.cursor].Index
			m.checked[idx] = !m.checked[idx]
		}
	case "backspace":
		if len(m.filter) > 0 {
			m.filter = m.filter[:len(m.filter)-1]
			m.refilter()
		}
	default:
		if text := key.Text; len(text) == 1 && text != " " {
			m.filter += text
			m.refilter()
		}
	}
	return m, nil
}

func (m multiSelectModel) View() tea.View {
	if m.done {
		return tea.NewView("")
	}

	var b strings.Builder
	b.WriteString(m.prompt)
	if m.filter != "" {
		fmt.Fprintf(&b, "  %s", msFilterStyle.Render("/"+m.filter))
	}
	b.WriteString("\n")

	if len(m.filtered) == 0 {
		b.WriteString(msDisabledStyle.Render("  no matches"))
		b.WriteString("\n")
	}
	for row, match := range m.filtered {
		cursor := "  "
		if row == m.cursor {
			cursor = msCursorStyle.Render("> ")
		}
		check := "[ ]"
		if m.checked[match.Index] {
			check = msCheckedStyle.Render("[x]")
		}
		title := match.Str
		if len(match.MatchedIndexes) > 0 {
			title = highlight(match.Str, match.MatchedIndexes)
		}
		fmt.Fprintf(&b, "%s%s %s\n", cursor, check, title)
	}

	b.WriteString(msHelpStyle.Render("space toggle · type to filter · enter confirm · esc cancel"))
	b.WriteString("\n")
	return tea.NewView(b.String())
}

func highlight(s string, indexes []int) string {
	matched := make(map[int]bool, len(indexes))
	for _, i := range indexes {
		matched[i] = true
	}
	var b strings.Builder
	for i, r := range s {
		if matched[i] {
			b.WriteString(msMatchedStyle.Render(string(r)))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// MultiSelect shows a fuzzy-filterable checkbox list and returns the checked
// options in their original order.
func MultiSelect(prompt string, options []string) (MultiSelectResult, error) {
	if len(options) == 0 {
		return MultiSelectResult{Cancelled: true}, nil
	}

	model := multiSelectModel{
		prompt:  prompt,
		options: options,
		checked: map[int]bool{},
	}
	model.refilter()

	p := tea.NewProgram(model, tea.WithOutput(os.Stderr))
	finalModel, err := p.Run()
	if err != nil {
		return MultiSelectResult{}, err
	}
	m := finalModel.(multiSelectModel)
	if m.cancelled {
		return MultiSelectResult{Cancelled: true}, nil
	}

	var selected []string
	for i, opt := range m.options {
		if m.checked[i] {
			selected = append(selected, opt)
		}
	}
	return MultiSelectResult{Selected: selected}, nil
}
