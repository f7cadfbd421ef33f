package tui

// Screen identifies one of the interactive screens.
type Screen int

const (
	// ScreenLogin collects the database path and card directory.
	ScreenLogin Screen = iota
	// ScreenMain lists the synchronized cards.
	ScreenMain
	// ScreenDetail shows and edits a single card.
	ScreenDetail
	// ScreenCreate collects a new card's file and contact name.
	ScreenCreate
	// ScreenDBView shows read-only query results.
	ScreenDBView
)

// String returns the screen name.
func (s Screen) String() string {
	switch s {
	case ScreenLogin:
		return "login"
	case ScreenMain:
		return "main"
	case ScreenDetail:
		return "detail"
	case ScreenCreate:
		return "create"
	case ScreenDBView:
		return "dbview"
	default:
		return "unknown"
	}
}

// Trigger is a user action that may cause a screen change.
type Trigger int

const (
	// TriggerConnect is a successful login connect.
	TriggerConnect Trigger = iota
	// TriggerCancel abandons the current screen.
	TriggerCancel
	// TriggerSelectView opens the selected card's detail screen.
	TriggerSelectView
	// TriggerCreate opens the create screen.
	TriggerCreate
	// TriggerDBView opens the query screen.
	TriggerDBView
	// TriggerExit terminates the program.
	TriggerExit
	// TriggerSaveValid saves a detail edit with a non-empty name.
	TriggerSaveValid
	// TriggerSaveInvalid is a save attempt with an empty name.
	TriggerSaveInvalid
	// TriggerCreateValid submits a well-formed new card.
	TriggerCreateValid
	// TriggerCreateInvalid is a create attempt with a bad extension or
	// duplicate file name.
	TriggerCreateInvalid
	// TriggerQuery runs a query on the dbview screen.
	TriggerQuery
	// TriggerBack returns to the main screen.
	TriggerBack
)

// Effect is the side effect a transition requires. The transition
// function only names the effect; the program loop executes it.
type Effect int

const (
	// EffectNone requires nothing.
	EffectNone Effect = iota
	// EffectEstablishSession opens the database and ensures the schema.
	EffectEstablishSession
	// EffectSetSelection records the chosen card path.
	EffectSetSelection
	// EffectPersistEdit writes the edited card and updates its contact
	// row.
	EffectPersistEdit
	// EffectWriteCard writes a new card file and reconciles it.
	EffectWriteCard
	// EffectRunQuery populates the read-only result view.
	EffectRunQuery
	// EffectShowError surfaces a validation error on the current
	// screen.
	EffectShowError
	// EffectTerminate ends the program.
	EffectTerminate
)

// Transition is the navigation table as a pure function. Given the
// current screen and a trigger it returns the next screen, the effect
// the program loop must execute, and whether the combination is valid
// at all. Invalid combinations leave the state machine untouched.
func Transition(from Screen, trigger Trigger) (Screen, Effect, bool) {
	switch from {
	case ScreenLogin:
		switch trigger {
		case TriggerConnect:
			return ScreenMain, EffectEstablishSession, true
		case TriggerCancel:
			return ScreenLogin, EffectTerminate, true
		}

	case ScreenMain:
		switch trigger {
		case TriggerSelectView:
			return ScreenDetail, EffectSetSelection, true
		case TriggerCreate:
			return ScreenCreate, EffectNone, true
		case TriggerDBView:
			return ScreenDBView, EffectNone, true
		case TriggerExit:
			return ScreenMain, EffectTerminate, true
		}

	case ScreenDetail:
		switch trigger {
		case TriggerSaveValid:
			return ScreenMain, EffectPersistEdit, true
		case TriggerSaveInvalid:
			return ScreenDetail, EffectShowError, true
		case TriggerBack:
			return ScreenMain, EffectNone, true
		}

	case ScreenCreate:
		switch trigger {
		case TriggerCreateValid:
			return ScreenMain, EffectWriteCard, true
		case TriggerCreateInvalid:
			return ScreenCreate, EffectShowError, true
		case TriggerCancel:
			return ScreenMain, EffectNone, true
		}

	case ScreenDBView:
		switch trigger {
		case TriggerQuery:
			return ScreenDBView, EffectRunQuery, true
		case TriggerBack:
			return ScreenMain, EffectNone, true
		}
	}

	return from, EffectNone, false
}
