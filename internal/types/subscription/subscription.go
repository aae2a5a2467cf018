package subscription

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

type AssignRequest struct {
	PlanID         string `json:"planId"`
	TenantID       string `json:"tenantId"`
	ExpirationDate string `json:"expirationDate"`
}

type ExtendRequest struct {
	ExpirationDate string `json:"expirationDate"`
}

// ExpirationDateTime turns a YYYY-MM-DD date into the ISO datetime the
// vendor stores, at noon UTC so the date survives any timezone shift.
func ExpirationDateTime(date string) (string, error) {
	d, err := time.Parse(dateLayout, date)
	if err != nil {
		return "", fmt.Errorf("invalid expiration date %q, expected YYYY-MM-DD", date)
	}
	return d.Add(12 * time.Hour).UTC().Format("2006-01-02T15:04:05.000Z"), nil
}
