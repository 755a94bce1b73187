package domain

// Status is the outcome of the creator balance check.
type Status string

const (
	StatusPass Status = "pass"
	StatusFail Status = "fail"
)

// String returns the string representation of Status.
func (s Status) String() string {
	return string(s)
}

// IsValid checks if the status is a valid value.
func (s Status) IsValid() bool {
	return s == StatusPass || s == StatusFail
}

// Glyph returns the emoji shown at the top of an alert.
func (s Status) Glyph() string {
	if s == StatusPass {
		return "✅"
	}
	return "❌"
}
