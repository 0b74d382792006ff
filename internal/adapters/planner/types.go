package planner

import (
	"encoding/json"
	"strings"
)

// Category selects one of the three time-off endpoints
type Category string

const (
	CategoryLeave    Category = "leave"
	CategoryRostered Category = "rostered-off"
	CategoryHolidays Category = "holidays"
)

// Valid reports whether c is one of the known categories
func (c Category) Valid() bool {
	switch c {
	case CategoryLeave, CategoryRostered, CategoryHolidays:
		return true
	}
	return false
}

// Person is a planner person record
type Person struct {
	ID         int64  `json:"id"`
	FirstName  string `json:"firstName,omitempty"`
	LastName   string `json:"lastName,omitempty"`
	Name       string `json:"name,omitempty"`
	Email      string `json:"email,omitempty"`
	RoleID     int64  `json:"roleId,omitempty"`
	TeamID     int64  `json:"teamId,omitempty"`
	IsArchived bool   `json:"isArchived,omitempty"`
}

// PersonInput is the create/update payload for a person
type PersonInput struct {
	FirstName      string `json:"firstName,omitempty"`
	LastName       string `json:"lastName,omitempty"`
	Email          string `json:"email,omitempty"`
	RoleID         int64  `json:"roleId,omitempty"`
	TeamID         int64  `json:"teamId,omitempty"`
	EmploymentType string `json:"employmentType,omitempty"`
	StartsAt       string `json:"startsAt,omitempty"`
}

// Role is a planner role
type Role struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Contract is a planner employment contract
type Contract struct {
	ID             int64   `json:"id"`
	PersonID       int64   `json:"personId"`
	StartDate      string  `json:"startDate,omitempty"`
	EndDate        string  `json:"endDate,omitempty"`
	CostPerHour    float64 `json:"costPerHour,omitempty"`
	RoleID         int64   `json:"roleId,omitempty"`
	EmploymentType string  `json:"employmentType,omitempty"`
}

// ActiveOn reports whether the contract covers the given YYYY-MM-DD date.
// Open-ended bounds count as covering
func (ct Contract) ActiveOn(date string) bool {
	if ct.StartDate != "" && date < ct.StartDate[:min(10, len(ct.StartDate))] {
		return false
	}
	if ct.EndDate != "" && date > ct.EndDate[:min(10, len(ct.EndDate))] {
		return false
	}
	return true
}

// Timeoff is a planner time-off entry. Leave entries carry StartDate/EndDate,
// rostered-off and holiday entries carry a single Date
type Timeoff struct {
	ID             int64  `json:"id,omitempty"`
	PersonID       int64  `json:"personId,omitempty"`
	StartDate      string `json:"startDate,omitempty"`
	EndDate        string `json:"endDate,omitempty"`
	Date           string `json:"date,omitempty"`
	Note           string `json:"note,omitempty"`
	ExternalRef    string `json:"externalRefId,omitempty"`
	HolidayGroupID int64  `json:"holidayGroupId,omitempty"`
}

// Start returns the entry's first covered day
func (t Timeoff) Start() string {
	if t.Date != "" {
		return t.Date
	}
	return t.StartDate
}

// End returns the entry's last covered day
func (t Timeoff) End() string {
	if t.Date != "" {
		return t.Date
	}
	if t.EndDate != "" {
		return t.EndDate
	}
	return t.StartDate
}

// Overlaps reports whether the inclusive day ranges intersect
func (t Timeoff) Overlaps(start, end string) bool {
	s, e := t.Start(), t.End()
	if s == "" {
		return false
	}
	if end == "" {
		end = start
	}
	return s <= end && e >= start
}

// envelope is the paged list shape: {"values": [...], "nextCursor": "..."}
type envelope struct {
	Values     []json.RawMessage `json:"values"`
	NextCursor string            `json:"nextCursor"`
}

func normEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
