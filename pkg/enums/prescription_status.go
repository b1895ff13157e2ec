package enums

import "fmt"

// PrescriptionStatus tracks the lifecycle of a submitted prescription.
// The only legal transitions are pending -> processed and pending -> rejected;
// both targets are terminal.
type PrescriptionStatus string

const (
	PrescriptionStatusPending   PrescriptionStatus = "pending"
	PrescriptionStatusProcessed PrescriptionStatus = "processed"
	PrescriptionStatusRejected  PrescriptionStatus = "rejected"
)

var validPrescriptionStatuses = []PrescriptionStatus{
	PrescriptionStatusPending,
	PrescriptionStatusProcessed,
	PrescriptionStatusRejected,
}

// String implements fmt.Stringer.
func (p PrescriptionStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PrescriptionStatus.
func (p PrescriptionStatus) IsValid() bool {
	for _, candidate := range validPrescriptionStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// IsTerminal reports whether further transitions are disallowed.
func (p PrescriptionStatus) IsTerminal() bool {
	return p == PrescriptionStatusProcessed || p == PrescriptionStatusRejected
}

// ParsePrescriptionStatus converts raw input into a PrescriptionStatus.
func ParsePrescriptionStatus(value string) (PrescriptionStatus, error) {
	for _, candidate := range validPrescriptionStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid prescription status %q", value)
}
