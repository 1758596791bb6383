package service

import (
	"sort"

	"github.com/noah-isme/sma-scheduler-api/internal/dto"
	"github.com/noah-isme/sma-scheduler-api/internal/models"
)

// Unfilled reasons reported by the candidate pipeline.
const (
	reasonNoCoursePeriods    = "no course periods available for this course"
	reasonNoMatch            = "no course periods match preferences or availability"
	reasonFull               = "course period is full"
	reasonGender             = "gender restriction"
	reasonTeacherUnavailable = "teacher unavailable"
)

type candidate struct {
	period models.CoursePeriod
	slots  []models.TimetableSlot // timetable rows only, empty when the course period has none
}

// filterStage narrows the candidate list. Soft stages keep the previous list when nothing matches.
type filterStage struct {
	name   string
	hard   bool
	reason string
	keep   func(candidate) bool
}

type stageInput struct {
	request      models.ScheduleRequest
	options      dto.SchedulerOptions
	student      *models.StudentProfile
	availability map[string][]models.TeacherAvailability
}

func buildStages(in stageInput) []filterStage {
	var stages []filterStage
	req := in.request
	strict := in.options.StrictPreferences

	if req.WithTeacherID != nil {
		teacher := *req.WithTeacherID
		stages = append(stages, filterStage{name: "with_teacher_id", hard: strict, reason: "preferred teacher not available",
			keep: func(c candidate) bool { return c.period.TeacherID == teacher }})
	}
	if req.NotTeacherID != nil {
		teacher := *req.NotTeacherID
		stages = append(stages, filterStage{name: "not_teacher_id", hard: strict, reason: "only the excluded teacher is available",
			keep: func(c candidate) bool { return c.period.TeacherID != teacher }})
	}
	if req.WithPeriodID != nil {
		period := *req.WithPeriodID
		stages = append(stages, filterStage{name: "with_period_id", hard: strict, reason: "preferred period not available",
			keep: func(c candidate) bool { return meetsInPeriod(c, period) }})
	}
	if req.NotPeriodID != nil {
		period := *req.NotPeriodID
		stages = append(stages, filterStage{name: "not_period_id", hard: strict, reason: "only the excluded period is available",
			keep: func(c candidate) bool { return !meetsInPeriod(c, period) }})
	}
	if in.options.RespectRoomCapacity {
		stages = append(stages, filterStage{name: "capacity", hard: true, reason: reasonFull,
			keep: func(c candidate) bool { return !c.period.Full() }})
	}
	if in.options.RespectGenderRestrictions {
		gender := ""
		if in.student != nil {
			gender = in.student.Gender
		}
		stages = append(stages, filterStage{name: "gender", hard: true, reason: reasonGender,
			keep: func(c candidate) bool { return genderEligible(c.period.GenderRestriction, gender) }})
	}
	if in.options.RespectTeacherAvailability {
		stages = append(stages, filterStage{name: "teacher_availability", hard: true, reason: reasonTeacherUnavailable,
			keep: func(c candidate) bool { return teacherAvailable(c.slots, in.availability[c.period.TeacherID]) }})
	}
	return stages
}

// applyStages runs the stages in order. It returns the surviving candidates, or nil and the reason of
// the hard stage that emptied the list.
func applyStages(candidates []candidate, stages []filterStage) ([]candidate, string) {
	current := candidates
	for _, stage := range stages {
		narrowed := make([]candidate, 0, len(current))
		for _, c := range current {
			if stage.keep(c) {
				narrowed = append(narrowed, c)
			}
		}
		if len(narrowed) == 0 {
			if stage.hard {
				return nil, stage.reason
			}
			continue
		}
		current = narrowed
	}
	return current, ""
}

// rankCandidates orders by remaining seats, unlimited first. Ties keep their input order.
func rankCandidates(candidates []candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		ri, li := candidates[i].period.RemainingSeats()
		rj, lj := candidates[j].period.RemainingSeats()
		if li != lj {
			return !li
		}
		return ri > rj
	})
}

func meetsInPeriod(c candidate, periodID string) bool {
	if c.period.PeriodID != nil && *c.period.PeriodID == periodID {
		return true
	}
	for _, slot := range c.slots {
		if slot.PeriodID == periodID {
			return true
		}
	}
	return false
}

func genderEligible(restriction, gender string) bool {
	if restriction == "" || restriction == models.GenderRestrictionNone {
		return true
	}
	return gender == restriction
}

// teacherAvailable fails a candidate when any of its slots hits an UNAVAILABLE record. Slots that
// meet every day are blocked by an unavailable record on any day of the same period.
func teacherAvailable(slots []models.TimetableSlot, records []models.TeacherAvailability) bool {
	for _, slot := range slots {
		for _, record := range records {
			if record.Status != models.AvailabilityUnavailable || record.PeriodID != slot.PeriodID {
				continue
			}
			if slot.DayOfWeek == models.EveryDay || record.DayOfWeek == slot.DayOfWeek {
				return false
			}
		}
	}
	return true
}
