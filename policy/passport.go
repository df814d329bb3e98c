package policy

import (
	"time"

	"github.com/byteness/travelgate/employee"
)

// Passport status values. Stored statuses other than these pass through.
const (
	PassportValid        = "Valid"
	PassportExpired      = "Expired"
	PassportExpiringSoon = "Expiring Soon"
	PassportUnknown      = "Unknown"
)

// PassportExpiryLayout is the stored expiry date format.
const PassportExpiryLayout = "2006-01-02"

// PassportCheck is the travel readiness of an employee's passport.
type PassportCheck struct {
	Status                string `json:"passport_status"`
	Expiry                string `json:"passport_expiry"`
	ValidForInternational bool   `json:"valid_for_international_travel"`
	Nationality           string `json:"nationality"`
}

// CheckPassport derives passport status from the stored expiry date.
// A parseable expiry can only degrade the stored status, to Expired or
// Expiring Soon (within PassportWarningDays); it never upgrades it.
// Missing or malformed expiry leaves the stored status unchanged.
func (p *TravelPolicy) CheckPassport(emp *employee.Employee, now time.Time) PassportCheck {
	status := orUnknown(emp.PassportStatus)

	if emp.PassportExpiry != "" {
		if expiry, err := time.ParseInLocation(PassportExpiryLayout, emp.PassportExpiry, now.Location()); err == nil {
			switch {
			case expiry.Before(now):
				status = PassportExpired
			case expiry.Before(now.Add(time.Duration(p.PassportWarningDays) * 24 * time.Hour)):
				status = PassportExpiringSoon
			}
		}
	}

	return PassportCheck{
		Status:                status,
		Expiry:                orUnknown(emp.PassportExpiry),
		ValidForInternational: status == PassportValid,
		Nationality:           orUnknown(emp.Nationality),
	}
}

func orUnknown(s string) string {
	if s == "" {
		return PassportUnknown
	}
	return s
}
