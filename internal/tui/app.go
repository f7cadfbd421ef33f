// Package tui implements the interactive screens for the vCard archive.
//
// Navigation is a finite state machine: screens emit triggers, the pure
// Transition function in nav.go names the next screen and the required
// effect, and the root model executes the effect. Screens never switch
// themselves.
package tui

import (
	"fmt"
	"log"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"vcman/internal/config"
	"vcman/internal/db"
	"vcman/internal/sync"
	"vcman/internal/vcard"
)

// Session is the per-run mutable state shared by the screens: the
// database connection established at login and the single-slot card
// selection. It is owned by the root model and mutated only from the
// program's event loop.
type Session struct {
	DB       *db.DB
	Syncer   sync.Syncer
	CardsDir string

	// Selected is the path of the card the detail screen is showing.
	Selected string
}

// transitionMsg carries a trigger from a screen to the root model.
type transitionMsg struct {
	trigger Trigger
	payload interface{}
}

// emit builds the command a screen returns to request a transition.
func emit(trigger Trigger, payload interface{}) tea.Cmd {
	return func() tea.Msg {
		return transitionMsg{trigger: trigger, payload: payload}
	}
}

type loginPayload struct {
	dbPath   string
	cardsDir string
}

type editPayload struct {
	newName string
}

type createPayload struct {
	fileName    string
	contactName string
}

// Model is the root bubbletea model.
type Model struct {
	styles  Styles
	logger  *log.Logger
	session *Session

	current Screen

	login  *loginModel
	main   *mainModel
	detail *detailModel
	create *createModel
	dbview *dbviewModel

	width  int
	height int
}

// New creates the root model. The login screen is prefilled from cfg.
func New(cfg *config.Config, logger *log.Logger) *Model {
	if logger == nil {
		logger = log.Default()
	}
	styles := DefaultStyles()

	m := &Model{
		styles:  styles,
		logger:  logger,
		session: &Session{},
		current: ScreenLogin,
		login:   newLoginModel(styles, cfg.DBPath, cfg.CardsDir),
		main:    newMainModel(styles),
		detail:  newDetailModel(styles),
		create:  newCreateModel(styles),
		dbview:  newDBViewModel(styles),
	}
	m.create.bind(func() string { return m.session.CardsDir })
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.login.Init()
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		// Global quit, intercepted before any screen sees the key.
		if msg.String() == "ctrl+c" {
			m.closeSession()
			return m, tea.Quit
		}

	case transitionMsg:
		return m.apply(msg.trigger, msg.payload)
	}

	return m, m.updateCurrent(msg)
}

// updateCurrent forwards a message to the active screen.
func (m *Model) updateCurrent(msg tea.Msg) tea.Cmd {
	switch m.current {
	case ScreenLogin:
		return m.login.Update(msg)
	case ScreenMain:
		return m.main.Update(msg)
	case ScreenDetail:
		return m.detail.Update(msg)
	case ScreenCreate:
		return m.create.Update(msg)
	case ScreenDBView:
		return m.dbview.Update(msg)
	}
	return nil
}

// View implements tea.Model.
func (m *Model) View() string {
	switch m.current {
	case ScreenLogin:
		return m.login.View()
	case ScreenMain:
		return m.main.View()
	case ScreenDetail:
		return m.detail.View()
	case ScreenCreate:
		return m.create.View()
	case ScreenDBView:
		return m.dbview.View()
	}
	return ""
}

// apply runs the transition table and executes the named effect. An
// effect failure surfaces as inline text on the originating screen and
// cancels the transition.
func (m *Model) apply(trigger Trigger, payload interface{}) (tea.Model, tea.Cmd) {
	next, effect, ok := Transition(m.current, trigger)
	if !ok {
		return m, nil
	}

	switch effect {
	case EffectTerminate:
		m.closeSession()
		return m, tea.Quit

	case EffectEstablishSession:
		p := payload.(loginPayload)
		if err := m.establishSession(p); err != nil {
			m.login.err = err.Error()
			return m, nil
		}

	case EffectSetSelection:
		path := payload.(string)
		if err := m.detail.load(path); err != nil {
			m.main.err = fmt.Sprintf("cannot open card: %v", err)
			return m, nil
		}
		m.session.Selected = path

	case EffectPersistEdit:
		p := payload.(editPayload)
		if err := m.persistEdit(p.newName); err != nil {
			m.detail.err = err.Error()
			return m, nil
		}

	case EffectWriteCard:
		p := payload.(createPayload)
		if err := m.writeNewCard(p); err != nil {
			m.create.err = err.Error()
			return m, nil
		}

	case EffectRunQuery:
		m.dbview.run(m.session.DB, payload.(query))
		return m, nil

	case EffectShowError:
		// The screen set its own error text before emitting the
		// trigger. It keeps its form state, so the entry work that
		// would reset it must not run.
		return m, nil
	}

	return m.enter(next)
}

// enter switches to a screen and runs its entry work.
func (m *Model) enter(next Screen) (tea.Model, tea.Cmd) {
	m.current = next

	switch next {
	case ScreenMain:
		// A full sync runs on every entry; this is how external file
		// changes become visible.
		m.main.refresh(m.session)
	case ScreenCreate:
		return m, m.create.reset()
	case ScreenDetail:
		return m, m.detail.focus()
	case ScreenDBView:
		m.dbview.reset()
	}
	return m, nil
}

// establishSession opens the database, ensures the schema and builds
// the syncer.
func (m *Model) establishSession(p loginPayload) error {
	if p.dbPath == "" || p.cardsDir == "" {
		return fmt.Errorf("both database path and cards directory are required")
	}

	database, err := db.Open(p.dbPath)
	if err != nil {
		return fmt.Errorf("cannot open database: %w", err)
	}
	if err := database.InitSchema(); err != nil {
		_ = database.Close()
		return fmt.Errorf("cannot create schema: %w", err)
	}

	m.session.DB = database
	m.session.Syncer = sync.New(database, m.logger)
	m.session.CardsDir = p.cardsDir
	m.logger.Printf("Session established: db=%s cards=%s", p.dbPath, p.cardsDir)
	return nil
}

// persistEdit rewrites the selected card with the new name, then
// updates its contact row. A disk write failure leaves the row
// untouched so store and disk cannot drift.
func (m *Model) persistEdit(newName string) error {
	path := m.session.Selected

	card, err := vcard.ParseFile(path)
	if err != nil {
		return fmt.Errorf("cannot reload card: %w", err)
	}
	if err := card.SetFN(newName); err != nil {
		return err
	}
	if err := card.WriteFile(path); err != nil {
		return fmt.Errorf("cannot write card: %w", err)
	}

	fileName := filepath.Base(path)
	if err := m.session.DB.UpdateContactNameByFileName(fileName, newName); err != nil {
		return err
	}
	m.logger.Printf("Saved card: %s (%s)", fileName, newName)
	return nil
}

// writeNewCard writes a fresh card file and reconciles it, producing
// exactly one FILE row and one CONTACT row.
func (m *Model) writeNewCard(p createPayload) error {
	path := filepath.Join(m.session.CardsDir, p.fileName)

	card := vcard.NewEmpty()
	if err := card.SetFN(p.contactName); err != nil {
		return err
	}
	if err := card.WriteFile(path); err != nil {
		return fmt.Errorf("cannot write card: %w", err)
	}

	if _, _, err := m.session.Syncer.SyncCard(path); err != nil {
		return err
	}
	m.logger.Printf("Created card: %s (%s)", p.fileName, p.contactName)
	return nil
}

// closeSession releases the database connection on the way out.
func (m *Model) closeSession() {
	if m.session.DB != nil {
		if err := m.session.DB.Close(); err != nil {
			m.logger.Printf("Error closing database: %v", err)
		}
		m.session.DB = nil
	}
}
