package resolver

import "github.com/sekolah-digital/ops-api/internal/models"

// FallbackGraceMinutes applies when neither a student override nor a class
// default is available. Resolution must always complete for every visible
// date, so the resolver fails closed instead of erroring. Set once at
// startup from configuration.
var FallbackGraceMinutes = 15

// EffectiveGrace returns the grace window in minutes for a student: the
// per-student override when set (zero included), otherwise the class
// standard, otherwise FallbackGraceMinutes.
//
// An "extended" grace is just a larger override value; there is no separate
// code path for it.
func EffectiveGrace(student models.Student, cfg *models.ClassConfig) int {
	if student.GracePeriodMinutes != nil && *student.GracePeriodMinutes >= 0 {
		return *student.GracePeriodMinutes
	}
	if cfg != nil && cfg.StandardGraceMinutes >= 0 {
		return cfg.StandardGraceMinutes
	}
	return FallbackGraceMinutes
}
