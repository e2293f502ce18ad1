// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is an actor known to the economy. ID is the external actor id.
type User struct {
	ID              string
	DisplayName     string
	Balance         int64
	StartingBalance int64
	LastRewardAt    *time.Time
	Wins            int64
	Losses          int64
	WorkCount       int64
	Banned          bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Clone returns a deep copy so cached values can be handed out safely.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.LastRewardAt != nil {
		t := *u.LastRewardAt
		c.LastRewardAt = &t
	}
	return &c
}
