package enums

import "fmt"

// WorkshopStatus tracks a per-order-item production job.
type WorkshopStatus string

const (
	WorkshopStatusPending   WorkshopStatus = "pending"
	WorkshopStatusOnRequest WorkshopStatus = "on_request"
	WorkshopStatusOnProcess WorkshopStatus = "on_process"
	WorkshopStatusReady     WorkshopStatus = "ready"
	WorkshopStatusCompleted WorkshopStatus = "completed"
)

var validWorkshopStatuses = []WorkshopStatus{
	WorkshopStatusPending,
	WorkshopStatusOnRequest,
	WorkshopStatusOnProcess,
	WorkshopStatusReady,
	WorkshopStatusCompleted,
}

// String implements fmt.Stringer.
func (s WorkshopStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known WorkshopStatus.
func (s WorkshopStatus) IsValid() bool {
	for _, candidate := range validWorkshopStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseWorkshopStatus converts raw input into a WorkshopStatus.
func ParseWorkshopStatus(value string) (WorkshopStatus, error) {
	for _, candidate := range validWorkshopStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid workshop status %q", value)
}
