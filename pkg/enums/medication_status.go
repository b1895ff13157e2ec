package enums

import "fmt"

// MedicationStatus tracks whether a catalog item can be sold.
type MedicationStatus string

const (
	MedicationStatusActive   MedicationStatus = "active"
	MedicationStatusDisabled MedicationStatus = "disabled"
)

var validMedicationStatuses = []MedicationStatus{
	MedicationStatusActive,
	MedicationStatusDisabled,
}

// String implements fmt.Stringer.
func (m MedicationStatus) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MedicationStatus.
func (m MedicationStatus) IsValid() bool {
	for _, candidate := range validMedicationStatuses {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMedicationStatus converts raw input into a MedicationStatus.
func ParseMedicationStatus(value string) (MedicationStatus, error) {
	for _, candidate := range validMedicationStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid medication status %q", value)
}
