package grading

import "strings"

// Roles recognised by the access policy.
const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

// NormalizeRole lowercases and trims a role claim.
func NormalizeRole(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}

// CanGrade reports whether the actor may grade work on a definition owned by ownerID.
// Admins may grade anything; teachers only their own assignments and quizzes.
func CanGrade(role string, actorID, ownerID uint) bool {
	switch NormalizeRole(role) {
	case RoleAdmin:
		return true
	case RoleTeacher:
		return actorID != 0 && actorID == ownerID
	default:
		return false
	}
}

// CanSubmit reports whether the role may create submissions or attempts.
func CanSubmit(role string) bool {
	return NormalizeRole(role) == RoleStudent
}

// CanViewSubmission reports whether the actor may read one student's work.
func CanViewSubmission(role string, actorID, studentID, ownerID uint) bool {
	if NormalizeRole(role) == RoleStudent {
		return actorID != 0 && actorID == studentID
	}
	return CanGrade(role, actorID, ownerID)
}

// CanViewStats reports whether the actor may read cohort statistics.
func CanViewStats(role string, actorID, ownerID uint) bool {
	return CanGrade(role, actorID, ownerID)
}
