package domain

import (
	"strings"

	"github.com/google/uuid"
)

const (
	DefaultStudyBlockMinutes = 60
	DefaultBreakMinutes      = 15
	DefaultTravelMinutes     = 10
)

type Preferences struct {
	UserID            uuid.UUID `json:"-"`
	StudyBlockMinutes int       `json:"study_block_minutes"`
	BreakMinutes      int       `json:"break_minutes"`
	TravelMinutes     int       `json:"travel_minutes"`
}

func DefaultPreferences(userID uuid.UUID) Preferences {
	return Preferences{
		UserID:            userID,
		StudyBlockMinutes: DefaultStudyBlockMinutes,
		BreakMinutes:      DefaultBreakMinutes,
		TravelMinutes:     DefaultTravelMinutes,
	}
}

// WithDefaults fills unset durations.
func (p Preferences) WithDefaults() Preferences {
	if p.StudyBlockMinutes <= 0 {
		p.StudyBlockMinutes = DefaultStudyBlockMinutes
	}
	if p.BreakMinutes <= 0 {
		p.BreakMinutes = DefaultBreakMinutes
	}
	if p.TravelMinutes <= 0 {
		p.TravelMinutes = DefaultTravelMinutes
	}
	return p
}

type Wellness string

const (
	WellnessStressed Wellness = "stressed"
	WellnessGood     Wellness = "good"
	WellnessNormal   Wellness = "normal"
)

// WellnessFromSentiment maps the latest check-in sentiment to the signal the generator expects.
func WellnessFromSentiment(sentiment string) Wellness {
	switch strings.ToLower(strings.TrimSpace(sentiment)) {
	case "stressed", "overwhelmed":
		return WellnessStressed
	case "positive":
		return WellnessGood
	default:
		return WellnessNormal
	}
}
