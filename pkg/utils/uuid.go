package utils

import (
	"strings"

	"github.com/google/uuid"
)

// ParseUUID parses a string into a UUID
func ParseUUID(s string) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimSpace(s))
}

// GenerateBillNumber returns a bill number such as "BILL-1A2B3C4D"
func GenerateBillNumber() string {
	return "BILL-" + strings.ToUpper(uuid.New().String()[:8])
}
