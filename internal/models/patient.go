package models

import "time"

// Habits hold a patient's daily rhythm; the timezone drives all calendar-day
// arithmetic in schedule expansion, the rest is display metadata.
type Habits struct {
	Timezone  string `db:"timezone" json:"tz"`
	Wake      string `db:"wake" json:"wake"`
	Breakfast string `db:"breakfast" json:"breakfast"`
	Lunch     string `db:"lunch" json:"lunch"`
	Dinner    string `db:"dinner" json:"dinner"`
	Sleep     string `db:"sleep" json:"sleep"`
}

// Patient owns medications, doses and sharing records.
type Patient struct {
	ID        int64     `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Name      string    `db:"name" json:"name"`
	Birthdate *string   `db:"birthdate" json:"birthdate,omitempty"`
	Sex       string    `db:"sex" json:"sex"`
	Habits    Habits    `db:"habits" json:"habits"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Location resolves the patient's timezone, defaulting to UTC.
func (p Patient) Location() *time.Location {
	if p.Habits.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(p.Habits.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// AccessLevel enumerates what a share grants.
type AccessLevel string

const (
	AccessRead  AccessLevel = "read"
	AccessWrite AccessLevel = "write"
)

// Share grants another user access to a patient's records.
type Share struct {
	ID        int64       `db:"id" json:"id"`
	PatientID int64       `db:"patient_id" json:"patient_id"`
	UserID    string      `db:"user_id" json:"user_id"`
	Level     AccessLevel `db:"level" json:"level"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
}

// Pagination carries standard list metadata.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
