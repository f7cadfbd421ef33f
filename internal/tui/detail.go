package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"vcman/internal/vcard"
)

// detailModel shows one card and lets the contact name be edited.
type detailModel struct {
	styles Styles

	path           string
	fileName       string
	structuredName string
	birthday       string
	anniversary    string
	otherCount     int

	nameInput textinput.Model
	err       string
}

func newDetailModel(styles Styles) *detailModel {
	input := textinput.New()
	input.Placeholder = "contact name"

	return &detailModel{
		styles:    styles,
		nameInput: input,
	}
}

// load parses the selected card and fills the screen fields.
func (d *detailModel) load(path string) error {
	card, err := vcard.ParseFile(path)
	if err != nil {
		return err
	}

	d.path = path
	d.fileName = filepath.Base(path)
	d.err = ""

	d.nameInput.SetValue(card.FNValue())
	d.nameInput.CursorEnd()

	// The structured N components, shown under the title when present.
	d.structuredName = ""
	if n, ok := card.ExtractField("N"); ok {
		d.structuredName = strings.TrimRight(n, ", ")
	}

	d.birthday = ""
	if card.Birthday != nil {
		d.birthday = vcard.FormatTemporal(card.Birthday.Raw())
	}
	d.anniversary = ""
	if card.Anniversary != nil {
		d.anniversary = vcard.FormatTemporal(card.Anniversary.Raw())
	}
	d.otherCount = card.OtherPropertyCount()
	return nil
}

func (d *detailModel) focus() tea.Cmd {
	return d.nameInput.Focus()
}

func (d *detailModel) Update(msg tea.Msg) tea.Cmd {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc":
			return emit(TriggerBack, nil)

		case "enter":
			name := strings.TrimSpace(d.nameInput.Value())
			if name == "" {
				d.err = "contact name cannot be empty"
				return emit(TriggerSaveInvalid, nil)
			}
			return emit(TriggerSaveValid, editPayload{newName: name})
		}
	}

	var cmd tea.Cmd
	d.nameInput, cmd = d.nameInput.Update(msg)
	return cmd
}

func (d *detailModel) View() string {
	var sb strings.Builder

	sb.WriteString(d.styles.Title.Render("Card: " + d.fileName))
	sb.WriteString("\n")

	if d.structuredName != "" {
		sb.WriteString(d.styles.Subtitle.Render(d.structuredName))
		sb.WriteString("\n\n")
	}

	sb.WriteString(d.styles.Label.Render("Contact name"))
	sb.WriteString("\n")
	sb.WriteString(d.nameInput.View())
	sb.WriteString("\n\n")

	if d.birthday != "" {
		sb.WriteString(d.styles.Label.Render("Birthday: "))
		sb.WriteString(d.birthday)
		sb.WriteString("\n")
	}
	if d.anniversary != "" {
		sb.WriteString(d.styles.Label.Render("Anniversary: "))
		sb.WriteString(d.anniversary)
		sb.WriteString("\n")
	}
	sb.WriteString(d.styles.Muted.Render(fmt.Sprintf("Other properties: %d", d.otherCount)))
	sb.WriteString("\n")

	if d.err != "" {
		sb.WriteString("\n")
		sb.WriteString(d.styles.Error.Render(d.err))
		sb.WriteString("\n")
	}

	sb.WriteString(d.styles.Help.Render("enter save • esc back"))
	return sb.String()
}
