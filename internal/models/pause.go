package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Pause is a work-pause interval. Duration is derived in seconds when the
// pause ends; fractional values are kept. Nothing at the data layer
// prevents two active pauses for the same user.
type Pause struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	User      primitive.ObjectID `bson:"user" json:"user"`
	StartTime time.Time          `bson:"startTime" json:"startTime"`
	EndTime   *time.Time         `bson:"endTime,omitempty" json:"endTime,omitempty"`
	Duration  float64            `bson:"duration,omitempty" json:"duration,omitempty"`
	IsPaused  bool               `bson:"isPaused" json:"isPaused"`
}

// ActivePause pairs a running pause with its user projection for the
// active-pauses listing.
type ActivePause struct {
	Pause *Pause `json:"pause"`
	User  *User  `json:"user,omitempty"`
}

// PauseDaySummary aggregates a user's pauses for one day.
type PauseDaySummary struct {
	NbrPauses      int     `json:"nbrPauses"`
	TotalPauseTime float64 `json:"totalPauseTime"`
}
