package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// loginModel collects the archive credentials: the database path and
// the card directory.
type loginModel struct {
	styles Styles

	inputs []textinput.Model
	focus  int
	err    string
}

func newLoginModel(styles Styles, dbPath, cardsDir string) *loginModel {
	dbInput := textinput.New()
	dbInput.Placeholder = "path to archive database"
	dbInput.SetValue(dbPath)
	dbInput.Focus()

	dirInput := textinput.New()
	dirInput.Placeholder = "path to card directory"
	dirInput.SetValue(cardsDir)

	return &loginModel{
		styles: styles,
		inputs: []textinput.Model{dbInput, dirInput},
	}
}

func (l *loginModel) Init() tea.Cmd {
	return textinput.Blink
}

func (l *loginModel) Update(msg tea.Msg) tea.Cmd {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc":
			return emit(TriggerCancel, nil)

		case "tab", "shift+tab", "up", "down":
			l.err = ""
			if key.String() == "shift+tab" || key.String() == "up" {
				l.focus--
			} else {
				l.focus++
			}
			if l.focus < 0 {
				l.focus = len(l.inputs) - 1
			}
			if l.focus >= len(l.inputs) {
				l.focus = 0
			}
			return l.focusInputs()

		case "enter":
			if l.focus < len(l.inputs)-1 {
				l.focus++
				return l.focusInputs()
			}
			return emit(TriggerConnect, loginPayload{
				dbPath:   strings.TrimSpace(l.inputs[0].Value()),
				cardsDir: strings.TrimSpace(l.inputs[1].Value()),
			})
		}
	}

	var cmds []tea.Cmd
	for i := range l.inputs {
		var cmd tea.Cmd
		l.inputs[i], cmd = l.inputs[i].Update(msg)
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

func (l *loginModel) focusInputs() tea.Cmd {
	var cmd tea.Cmd
	for i := range l.inputs {
		if i == l.focus {
			cmd = l.inputs[i].Focus()
		} else {
			l.inputs[i].Blur()
		}
	}
	return cmd
}

func (l *loginModel) View() string {
	var sb strings.Builder

	sb.WriteString(l.styles.Title.Render("vcman - personal contacts archive"))
	sb.WriteString("\n")

	sb.WriteString(l.styles.Label.Render("Database"))
	sb.WriteString("\n")
	sb.WriteString(l.inputs[0].View())
	sb.WriteString("\n\n")

	sb.WriteString(l.styles.Label.Render("Cards directory"))
	sb.WriteString("\n")
	sb.WriteString(l.inputs[1].View())
	sb.WriteString("\n")

	if l.err != "" {
		sb.WriteString("\n")
		sb.WriteString(l.styles.Error.Render(l.err))
		sb.WriteString("\n")
	}

	sb.WriteString(l.styles.Help.Render("enter connect • tab next field • esc quit"))
	return sb.String()
}
