package guard

// Severity grades a finding by how much operator attention it needs.
type Severity int

const (
	// Info describes routine behavior worth knowing about, such as the
	// lock a statement takes.
	Info Severity = iota
	// Warning flags statements that block, scan, or rewrite and may
	// need scheduling around traffic.
	Warning
	// Critical flags statements that destroy data.
	Critical
)

// String returns the lowercase label for the severity level.
func (s Severity) String() string {
	switch s {
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Critical:
		return "critical"
	default:
		return "unknown"
	}
}

// Color returns an ANSI color code for terminal output.
func (s Severity) Color() string {
	switch s {
	case Info:
		return "\033[36m" // cyan
	case Warning:
		return "\033[33m" // yellow
	case Critical:
		return "\033[91m" // bright red
	default:
		return "\033[0m" // reset
	}
}
