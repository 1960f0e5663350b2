package service

import (
	"time"
)

// MinimumPlayerAge is the youngest age allowed to play for money
const MinimumPlayerAge = 18

// AgeOn returns the number of whole years between dateOfBirth and now
func AgeOn(dateOfBirth, now time.Time) int {
	dob := dateOfBirth.UTC()
	now = now.UTC()

	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	return age
}
