package workflow

// Level classifies a user-visible notification.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarning
	LevelError
)

// String returns the lowercase level name.
func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Notifier shows transient messages to the user (toasts in a UI, status
// lines in the CLI).
type Notifier interface {
	Notify(level Level, message string)
}

type discardNotifier struct{}

func (discardNotifier) Notify(Level, string) {}
