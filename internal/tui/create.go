package tui

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"vcman/internal/vcard"
)

// createModel collects a new card's file name and contact name.
type createModel struct {
	styles Styles

	cardsDir func() string
	inputs   []textinput.Model
	focus    int
	err      string
}

func newCreateModel(styles Styles) *createModel {
	fileInput := textinput.New()
	fileInput.Placeholder = "file name (.vcf or .vcard)"

	nameInput := textinput.New()
	nameInput.Placeholder = "contact name"

	return &createModel{
		styles: styles,
		inputs: []textinput.Model{fileInput, nameInput},
	}
}

// bind gives the screen access to the session's card directory for the
// duplicate-file check.
func (c *createModel) bind(cardsDir func() string) {
	c.cardsDir = cardsDir
}

// reset clears the form for a fresh entry.
func (c *createModel) reset() tea.Cmd {
	for i := range c.inputs {
		c.inputs[i].SetValue("")
		c.inputs[i].Blur()
	}
	c.focus = 0
	c.err = ""
	return c.inputs[0].Focus()
}

func (c *createModel) Update(msg tea.Msg) tea.Cmd {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc":
			return emit(TriggerCancel, nil)

		case "tab", "shift+tab", "up", "down":
			if key.String() == "shift+tab" || key.String() == "up" {
				c.focus--
			} else {
				c.focus++
			}
			if c.focus < 0 {
				c.focus = len(c.inputs) - 1
			}
			if c.focus >= len(c.inputs) {
				c.focus = 0
			}
			return c.focusInputs()

		case "enter":
			if c.focus < len(c.inputs)-1 {
				c.focus++
				return c.focusInputs()
			}
			return c.submit()
		}
	}

	var cmds []tea.Cmd
	for i := range c.inputs {
		var cmd tea.Cmd
		c.inputs[i], cmd = c.inputs[i].Update(msg)
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

// submit validates the form. Bad input surfaces in place; a valid form
// emits the create trigger.
func (c *createModel) submit() tea.Cmd {
	fileName := strings.TrimSpace(c.inputs[0].Value())
	contactName := strings.TrimSpace(c.inputs[1].Value())

	if fileName == "" || contactName == "" {
		c.err = "file name and contact name are required"
		return emit(TriggerCreateInvalid, nil)
	}
	if !vcard.HasCardExtension(fileName) {
		c.err = "file name must end in .vcf or .vcard"
		return emit(TriggerCreateInvalid, nil)
	}
	if strings.ContainsRune(fileName, os.PathSeparator) {
		c.err = "file name cannot contain a path"
		return emit(TriggerCreateInvalid, nil)
	}
	if c.cardsDir != nil {
		if _, err := os.Stat(filepath.Join(c.cardsDir(), fileName)); err == nil {
			c.err = "a card with that file name already exists"
			return emit(TriggerCreateInvalid, nil)
		}
	}

	return emit(TriggerCreateValid, createPayload{
		fileName:    fileName,
		contactName: contactName,
	})
}

func (c *createModel) focusInputs() tea.Cmd {
	var cmd tea.Cmd
	for i := range c.inputs {
		if i == c.focus {
			cmd = c.inputs[i].Focus()
		} else {
			c.inputs[i].Blur()
		}
	}
	return cmd
}

func (c *createModel) View() string {
	var sb strings.Builder

	sb.WriteString(c.styles.Title.Render("New card"))
	sb.WriteString("\n")

	sb.WriteString(c.styles.Label.Render("File name"))
	sb.WriteString("\n")
	sb.WriteString(c.inputs[0].View())
	sb.WriteString("\n\n")

	sb.WriteString(c.styles.Label.Render("Contact name"))
	sb.WriteString("\n")
	sb.WriteString(c.inputs[1].View())
	sb.WriteString("\n")

	if c.err != "" {
		sb.WriteString("\n")
		sb.WriteString(c.styles.Error.Render(c.err))
		sb.WriteString("\n")
	}

	sb.WriteString(c.styles.Help.Render("enter create • tab next field • esc cancel"))
	return sb.String()
}
