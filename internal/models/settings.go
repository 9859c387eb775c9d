package models

import "time"

// SettingsID is the fixed primary key of the single settings row.
const SettingsID = 1

// Settings is the singleton preference record.
type Settings struct {
	ID           int
	Size         int
	LastModified time.Time
}
