package models

import (
	"fmt"
	"time"
)

// Mystery is one of the four sets of rosary mysteries
type Mystery string

const (
	MysteryJoyful    Mystery = "joyful"
	MysterySorrowful Mystery = "sorrowful"
	MysteryGlorious  Mystery = "glorious"
	MysteryLuminous  Mystery = "luminous"
)

// MysteryForWeekday returns the customary mysteries for a day of the week.
func MysteryForWeekday(w time.Weekday) Mystery {
	switch w {
	case time.Monday, time.Saturday:
		return MysteryJoyful
	case time.Tuesday, time.Friday:
		return MysterySorrowful
	case time.Thursday:
		return MysteryLuminous
	default:
		return MysteryGlorious
	}
}

// FiftyFourDayPhase splits the 54-day novena into its two halves
type FiftyFourDayPhase string

const (
	PhasePetition     FiftyFourDayPhase = "petition"
	PhaseThanksgiving FiftyFourDayPhase = "thanksgiving"
)

// FiftyFourDayLength is the total number of days in the 54-day novena.
const FiftyFourDayLength = 54

var fiftyFourDayCycle = [...]Mystery{MysteryJoyful, MysterySorrowful, MysteryGlorious}

// FiftyFourDaySchedule returns the phase and mystery prayed on a given day.
// Days 1-27 are petition, 28-54 thanksgiving; mysteries rotate
// joyful, sorrowful, glorious.
func FiftyFourDaySchedule(day int) (FiftyFourDayPhase, Mystery, error) {
	if day < 1 || day > FiftyFourDayLength {
		return "", "", fmt.Errorf("day %d outside 1-%d", day, FiftyFourDayLength)
	}
	phase := PhasePetition
	if day > FiftyFourDayLength/2 {
		phase = PhaseThanksgiving
	}
	return phase, fiftyFourDayCycle[(day-1)%len(fiftyFourDayCycle)], nil
}
