// Package validate holds the field-level rules the booking wizard enforces.
// All checks are pure: they return a field-keyed ValidationError and never
// touch the store.
package validate

import (
	"regexp"
	"strings"

	"github.com/bdticketpro/backoffice/internal/domain"
)

const minPassportLength = 8

// Bangladeshi mobile numbers: 11 digits, 01 then an operator digit 3-9.
var mobileRegex = regexp.MustCompile(`^01[3-9]\d{8}$`)

// SanitizeMobile strips spaces and dashes so "017-1234 5678" style input
// validates the same as the bare digits.
func SanitizeMobile(mobile string) string {
	replacer := strings.NewReplacer(" ", "", "-", "")
	return replacer.Replace(strings.TrimSpace(mobile))
}

// MobileValid reports whether mobile is a valid local number after sanitizing.
func MobileValid(mobile string) bool {
	return mobileRegex.MatchString(SanitizeMobile(mobile))
}

// Passenger is the per-passenger slice of a booking draft.
type Passenger struct {
	Name     string
	Passport string
	Mobile   string
}

// PassengerFields validates one passenger. Keys are the wizard field names.
func PassengerFields(p Passenger) *domain.ValidationError {
	v := domain.NewValidationError()
	if strings.TrimSpace(p.Name) == "" {
		v.Add("passenger_name", "passenger name is required")
	}
	if passport := strings.TrimSpace(p.Passport); passport == "" {
		v.Add("passport_number", "passport number is required")
	} else if len(passport) < minPassportLength {
		v.Add("passport_number", "passport number must be at least 8 characters")
	}
	if strings.TrimSpace(p.Mobile) == "" {
		v.Add("mobile_number", "mobile number is required")
	} else if !MobileValid(p.Mobile) {
		v.Add("mobile_number", "mobile number must be a valid local number (01XXXXXXXXX)")
	}
	return v
}

// AgentFields validates the agent identification block.
func AgentFields(agentID int64, agentName string) *domain.ValidationError {
	v := domain.NewValidationError()
	if agentID <= 0 {
		v.Add("agent_id", "agent is required")
	}
	if strings.TrimSpace(agentName) == "" {
		v.Add("agent_name", "agent name is required")
	}
	return v
}

// PaymentStatusFor derives the payment state from the amount collected.
func PaymentStatusFor(paidAmount, totalAmount int64) domain.PaymentStatus {
	switch {
	case paidAmount <= 0:
		return domain.PaymentStatusPending
	case paidAmount >= totalAmount:
		return domain.PaymentStatusFull
	default:
		return domain.PaymentStatusPartial
	}
}

// PaymentFields validates the payment step.
func PaymentFields(paidAmount, totalAmount int64) *domain.ValidationError {
	v := domain.NewValidationError()
	if paidAmount < 0 {
		v.Add("paid_amount", "paid amount cannot be negative")
	}
	if paidAmount > totalAmount {
		v.Add("paid_amount", "paid amount cannot exceed the total")
	}
	return v
}
