package domain

// Severity classifies a status metadata entry.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// String returns the severity as a string.
func (s Severity) String() string {
	return string(s)
}

// Status is one piece of status metadata attached to an Item by a
// pipeline stage. Component identifies the stage that attached it.
type Status struct {
	Component string
	Severity  Severity
	Message   string
}

// ErrorStatus creates an error-severity status for the given component.
func ErrorStatus(component, message string) Status {
	return Status{Component: component, Severity: SeverityError, Message: message}
}

// WarningStatus creates a warning-severity status for the given component.
func WarningStatus(component, message string) Status {
	return Status{Component: component, Severity: SeverityWarning, Message: message}
}

// InfoStatus creates an info-severity status for the given component.
func InfoStatus(component, message string) Status {
	return Status{Component: component, Severity: SeverityInfo, Message: message}
}
