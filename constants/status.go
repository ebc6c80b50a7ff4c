package constants

// ValidationStatus is the persisted outcome of record validation.
type ValidationStatus string

// Stable values (store these exact strings in DB).
const (
	StatusValid   ValidationStatus = "valid"
	StatusInvalid ValidationStatus = "invalid"
)

// StatusFor maps a verdict flag to its stored value.
func StatusFor(isValid bool) ValidationStatus {
	if isValid {
		return StatusValid
	}
	return StatusInvalid
}

// ActionType labels rows in the action log.
type ActionType string

const (
	ActionInsert ActionType = "insert"
	ActionUpdate ActionType = "update"
	ActionDelete ActionType = "delete"
	ActionExport ActionType = "export"
	ActionError  ActionType = "error"
)

// PersistMode selects which processed records are stored.
type PersistMode string

const (
	PersistAll   PersistMode = "all"
	PersistValid PersistMode = "valid"
	PersistNone  PersistMode = "none"
)

// ParsePersistMode returns the mode for s, or false when s is not a known mode.
func ParsePersistMode(s string) (PersistMode, bool) {
	switch PersistMode(s) {
	case PersistAll, PersistValid, PersistNone:
		return PersistMode(s), true
	}
	return "", false
}
