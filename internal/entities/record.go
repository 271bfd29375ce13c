// Package entities holds the CRM records the search engine reads: leads,
// clients and the custom document definitions attached to them, plus the
// in-memory store that owns them.
package entities

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Kind distinguishes leads from clients. Both share one profile surface.
type Kind string

const (
	KindLead   Kind = "lead"
	KindClient Kind = "client"
)

// OnlineWindow is how recent a login must be for a record to count as online.
const OnlineWindow = 15 * time.Minute

// Record is a lead or a client. Every field except ID is optional.
type Record struct {
	ID                   string         `json:"id"`
	FirstName            string         `json:"firstName,omitempty"`
	LastName             string         `json:"lastName,omitempty"`
	FullName             string         `json:"fullName,omitempty"`
	Email                string         `json:"email,omitempty"`
	PhoneNumber          string         `json:"phoneNumber,omitempty"`
	SecondaryPhoneNumber string         `json:"secondaryPhoneNumber,omitempty"`
	AlternatePhoneNumber string         `json:"alternatePhoneNumber,omitempty"`
	AccountID            string         `json:"accountId,omitempty"`
	AvatarURL            string         `json:"avatarUrl,omitempty"`
	Language             string         `json:"language,omitempty"`
	CountryCode          string         `json:"countryCode,omitempty"`
	Country              string         `json:"country,omitempty"`
	City                 string         `json:"city,omitempty"`
	Status               string         `json:"status,omitempty"`
	Source               string         `json:"source,omitempty"`
	Desk                 string         `json:"desk,omitempty"`
	Agent                string         `json:"agent,omitempty"`
	Score                *float64       `json:"score,omitempty"`
	HasDeposit           bool           `json:"hasDeposit,omitempty"`
	Documents            map[string]any `json:"documents,omitempty"`
	LastLoginAt          *time.Time     `json:"lastLoginAt,omitempty"`
	CreatedAt            time.Time      `json:"createdAt"`
}

// CustomDocumentDefinition declares a searchable key of Record.Documents.
type CustomDocumentDefinition struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// DisplayName prefers the explicit full name and falls back to first and
// last name joined by a space.
func (r Record) DisplayName() string {
	if full := strings.TrimSpace(r.FullName); full != "" {
		return full
	}
	return strings.TrimSpace(strings.TrimSpace(r.FirstName) + " " + strings.TrimSpace(r.LastName))
}

// Phones returns the non-empty phone fields, primary first.
func (r Record) Phones() []string {
	phones := make([]string, 0, 3)
	for _, p := range []string{r.PhoneNumber, r.SecondaryPhoneNumber, r.AlternatePhoneNumber} {
		if strings.TrimSpace(p) != "" {
			phones = append(phones, p)
		}
	}
	return phones
}

// IsOnline reports whether the record logged in within OnlineWindow of now.
func (r Record) IsOnline(now time.Time) bool {
	if r.LastLoginAt == nil {
		return false
	}
	return now.Sub(*r.LastLoginAt) < OnlineWindow
}

// Attribute returns a filterable attribute by its catalog key.
func (r Record) Attribute(key string) (any, bool) {
	switch key {
	case "id":
		return r.ID, true
	case "firstName":
		return r.FirstName, true
	case "lastName":
		return r.LastName, true
	case "fullName":
		return r.DisplayName(), true
	case "email":
		return r.Email, true
	case "phoneNumber":
		return r.PhoneNumber, true
	case "accountId":
		return r.AccountID, true
	case "language":
		return r.Language, true
	case "countryCode":
		return r.CountryCode, true
	case "country":
		return r.Country, true
	case "city":
		return r.City, true
	case "status":
		return r.Status, true
	case "source":
		return r.Source, true
	case "desk":
		return r.Desk, true
	case "agent":
		return r.Agent, true
	case "score":
		if r.Score == nil {
			return nil, true
		}
		return *r.Score, true
	case "hasDeposit":
		return r.HasDeposit, true
	case "createdAt":
		return r.CreatedAt, true
	case "lastLoginAt":
		if r.LastLoginAt == nil {
			return nil, true
		}
		return *r.LastLoginAt, true
	}
	return nil, false
}

// DocumentString renders a documents scalar for matching. It reports false
// for absent values: nil and the empty string.
func DocumentString(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return val, val != ""
	case bool:
		return strconv.FormatBool(val), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32), true
	case int:
		return strconv.Itoa(val), true
	case int64:
		return strconv.FormatInt(val, 10), true
	case json.Number:
		return val.String(), val.String() != ""
	default:
		return "", false
	}
}
