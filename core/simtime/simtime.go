package simtime

import "fmt"

// TimeOfDay is a coarse classification of the simulated clock used to select
// behaviour probabilities.
type TimeOfDay int

const (
	Default TimeOfDay = iota
	RushHour
	LunchTime
	NightTime
	DawnTime
)

func (t TimeOfDay) String() string {
	switch t {
	case RushHour:
		return "rush_hour"
	case LunchTime:
		return "lunch_time"
	case NightTime:
		return "night_time"
	case DawnTime:
		return "dawn_time"
	case Default:
		return "default"
	}
	panic(fmt.Sprintf("simtime: unknown time of day %d", int(t)))
}

type hourRange struct {
	start float64
	end   float64
	label TimeOfDay
}

// Classification windows, in fractional hours.
var ranges = []hourRange{
	{7.5, 9, RushHour},
	{17, 19, RushHour},
	{12, 14, LunchTime},
	{21, 23.99, NightTime},
	{0, 6, DawnTime},
}

// Classify maps a simulation step onto a TimeOfDay given the number of steps
// that make up one simulated day.
func Classify(step, stepsPerDay int) TimeOfDay {
	for _, r := range ranges {
		if isBetweenHours(r.start, r.end, step, stepsPerDay) {
			return r.label
		}
	}
	return Default
}

func isBetweenHours(start, end float64, step, stepsPerDay int) bool {
	s := float64(step % stepsPerDay)
	return s >= float64(stepsPerDay)*start/24 && s <= float64(stepsPerDay)*end/24
}

// Clock renders a step as a day number and wall-clock label.
func Clock(step, stepsPerDay int) string {
	day := step / stepsPerDay
	step = step % stepsPerDay
	stepsPerHour := stepsPerDay / 24
	hours := step / stepsPerHour
	minutes := (step % stepsPerHour) * 60 / stepsPerHour
	return fmt.Sprintf("Day %d    -    %02d : %02d h", day+1, hours, minutes)
}
