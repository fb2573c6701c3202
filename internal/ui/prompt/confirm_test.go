package prompt

import (
	"testing"

	tea "charm.land/bubbletea/v2"
)

func keyPress(key string) tea.KeyPressMsg {
	switch key {
	case "ctrl+c":
		return tea.KeyPressMsg{Code: 'c', Mod: tea.ModCtrl}
	case "enter":
		return tea.KeyPressMsg{Code: tea.KeyEnter}
	case "esc":
		return tea.KeyPressMsg{Code: tea.KeyEscape}
	default:
		return tea.KeyPressMsg{Code: rune(key[0]), Text: key}
	}
}

func TestConfirmModel_Update(t *testing.T) {
	t.Parallel()

	tests := []struct {
		key       string
		confirmed bool
		cancelled bool
	}{
		{"y", true, false},
		{"n", false, false},
		{"enter", false, false},
		{"ctrl+c", false, true},
		{"esc", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Parallel()
			model, _ := confirmModel{prompt: "Drop?"}.Update(keyPress(tt.key))
			m := model.(confirmModel)
			if !m.done {
				t.Fatal("model not done after keypress")
			}
			if m.confirmed != tt.confirmed {
				t.Errorf("confirmed = %v, want %v", m.confirmed, tt.confirmed)
			}
			if m.cancelled != tt.cancelled {
				t.Errorf("cancelled = %v, want %v", m.cancelled, tt.cancelled)
			}
		})
	}
}

func TestMultiSelectModel_ToggleAndFilter(t *testing.T) {
	t.Parallel()

	model := multiSelectModel{
		prompt:  "pick",
		options: []string{"alpha.go", "beta.go", "gamma.md"},
		checked: map[int]bool{},
	}
	model.refilter()

	// Toggle the first row.
	next, _ := model.Update(keyPress(" "))
	m := next.(multiSelectModel)
	if !m.checked[0] {
		t.Fatal("space did not toggle the first row")
	}

	// Filter narrows the visible rows: only gamma.md contains an m.
	next, _ = m.Update(keyPress("m"))
	m = next.(multiSelectModel)
	if len(m.filtered) != 1 || m.filtered[0].Str != "gamma.md" {
		t.Errorf("filter %q kept %v", m.filter, m.filtered)
	}

	// Escape cancels.
	next, _ = m.Update(keyPress("esc"))
	m = next.(multiSelectModel)
	if !m.cancelled {
		t.Error("esc did not cancel")
	}
}
