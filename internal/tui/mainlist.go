package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"vcman/internal/sync"
)

// mainModel lists the synchronized cards. The listing comes from a
// fresh full sync run on every entry to the screen.
type mainModel struct {
	styles Styles

	entries []sync.Entry
	cursor  int
	status  string
	err     string
}

func newMainModel(styles Styles) *mainModel {
	return &mainModel{styles: styles}
}

// refresh re-runs the full sync and replaces the listing.
func (m *mainModel) refresh(session *Session) {
	m.err = ""

	result, err := session.Syncer.FullSync(session.CardsDir)
	if err != nil {
		m.entries = nil
		m.err = fmt.Sprintf("sync failed: %v", err)
		return
	}

	m.entries = result.Entries
	m.status = fmt.Sprintf("%d cards • %d new • %d updated • %d skipped",
		len(result.Entries), result.Inserted, result.Updated, result.Skipped)
	if m.cursor >= len(m.entries) {
		m.cursor = 0
	}
}

func (m *mainModel) Update(msg tea.Msg) tea.Cmd {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}

	switch key.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.entries)-1 {
			m.cursor++
		}
	case "enter":
		if len(m.entries) > 0 {
			return emit(TriggerSelectView, m.entries[m.cursor].Path)
		}
	case "n":
		return emit(TriggerCreate, nil)
	case "v":
		return emit(TriggerDBView, nil)
	case "q", "esc":
		return emit(TriggerExit, nil)
	}
	return nil
}

func (m *mainModel) View() string {
	var sb strings.Builder

	sb.WriteString(m.styles.Title.Render("Contacts"))
	sb.WriteString("\n")

	if len(m.entries) == 0 {
		sb.WriteString(m.styles.Muted.Render("No cards found."))
		sb.WriteString("\n")
	}

	for i, entry := range m.entries {
		prefix := "  "
		line := entry.FileName
		if entry.ContactName != "" {
			line = fmt.Sprintf("%-24s %s", entry.FileName, entry.ContactName)
		} else {
			line = fmt.Sprintf("%-24s %s", entry.FileName, m.styles.Muted.Render("(no name)"))
		}

		if i == m.cursor {
			prefix = m.styles.Selected.Render("> ")
			line = m.styles.Selected.Render(line)
		}
		sb.WriteString(prefix + line + "\n")
	}

	if m.status != "" {
		sb.WriteString("\n")
		sb.WriteString(m.styles.Success.Render(m.status))
		sb.WriteString("\n")
	}
	if m.err != "" {
		sb.WriteString("\n")
		sb.WriteString(m.styles.Error.Render(m.err))
		sb.WriteString("\n")
	}

	sb.WriteString(m.styles.Help.Render("enter view • n new card • v database • q quit"))
	return sb.String()
}
