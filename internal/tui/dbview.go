package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"vcman/internal/db"
)

// query selects which read-only result set the dbview screen shows.
type query int

const (
	// queryAllContacts lists every contact with its file, by name.
	queryAllContacts query = iota
	// queryJuneBirthdays lists contacts born in June, by birthday.
	queryJuneBirthdays
)

// dbviewModel renders read-only query results from the archive.
type dbviewModel struct {
	styles Styles

	table *SimpleTable
	err   string
}

func newDBViewModel(styles Styles) *dbviewModel {
	return &dbviewModel{styles: styles}
}

// reset clears stale results when the screen is entered.
func (v *dbviewModel) reset() {
	v.table = nil
	v.err = ""
}

func (v *dbviewModel) Update(msg tea.Msg) tea.Cmd {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}

	switch key.String() {
	case "a":
		return emit(TriggerQuery, queryAllContacts)
	case "b":
		return emit(TriggerQuery, queryJuneBirthdays)
	case "esc", "q":
		return emit(TriggerBack, nil)
	}
	return nil
}

// run executes the chosen query and rebuilds the result table.
func (v *dbviewModel) run(database *db.DB, q query) {
	v.err = ""
	v.table = nil

	switch q {
	case queryAllContacts:
		listings, err := database.ListContacts()
		if err != nil {
			v.err = fmt.Sprintf("query failed: %v", err)
			return
		}
		table := NewSimpleTable("All contacts", []string{"Name", "Birthday", "File"})
		for _, l := range listings {
			table.AddRow(l.Name, l.Birthday, l.FileName)
		}
		v.table = table

	case queryJuneBirthdays:
		listings, err := database.ListContactsBornInMonth(int(time.June))
		if err != nil {
			v.err = fmt.Sprintf("query failed: %v", err)
			return
		}
		table := NewSimpleTable("Born in June", []string{"Name", "Birthday"})
		for _, l := range listings {
			table.AddRow(l.Name, l.Birthday)
		}
		v.table = table
	}
}

func (v *dbviewModel) View() string {
	var sb strings.Builder

	sb.WriteString(v.styles.Title.Render("Database"))
	sb.WriteString("\n")

	switch {
	case v.err != "":
		sb.WriteString(v.styles.Error.Render(v.err))
		sb.WriteString("\n")
	case v.table == nil:
		sb.WriteString(v.styles.Muted.Render("Pick a query."))
		sb.WriteString("\n")
	case len(v.table.Rows) == 0:
		sb.WriteString(v.styles.Muted.Render("No rows."))
		sb.WriteString("\n")
	default:
		sb.WriteString(v.table.View(v.styles))
	}

	sb.WriteString(v.styles.Help.Render("a all contacts • b june birthdays • esc back"))
	return sb.String()
}
