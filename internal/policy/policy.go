// Package policy decides whether an actor may perform an action on a
// resource. Decisions are pure: they depend only on the actor claims and
// the resource snapshot passed in.
package policy

import (
	"fmt"

	"github.com/therealutkarshpriyadarshi/coursehub/pkg/models"
)

// Action names an operation guarded by the policy
type Action string

const (
	ActionCreateCourse              Action = "course:create"
	ActionUpdateCourse              Action = "course:update"
	ActionDeleteCourse              Action = "course:delete"
	ActionEnroll                    Action = "enrollment:create"
	ActionUpdateProgress            Action = "enrollment:update_progress"
	ActionUnenroll                  Action = "enrollment:delete"
	ActionReadOwnEnrollments        Action = "enrollment:read_own"
	ActionReadInstructorEnrollments Action = "enrollment:read_instructor"
	ActionCreatePaymentIntent       Action = "payment:create_intent"
)

// Resource is the snapshot an action applies to. Only the field relevant
// to the action needs to be set.
type Resource struct {
	Course     *models.Course
	Enrollment *models.Enrollment
}

// Can reports whether actor may perform action on res
func Can(actor models.Actor, action Action, res Resource) bool {
	if actor.ID == "" || !actor.Role.Valid() {
		return false
	}

	switch action {
	case ActionCreateCourse:
		return actor.Is(models.RoleInstructor) || actor.Is(models.RoleAdmin)

	case ActionUpdateCourse, ActionDeleteCourse:
		if res.Course == nil {
			return false
		}
		return actor.Is(models.RoleAdmin) || actor.ID == res.Course.InstructorID

	case ActionEnroll, ActionCreatePaymentIntent:
		return actor.Is(models.RoleStudent)

	case ActionUpdateProgress, ActionUnenroll:
		if res.Enrollment == nil {
			return false
		}
		return actor.Is(models.RoleAdmin) || actor.ID == res.Enrollment.UserID

	case ActionReadOwnEnrollments:
		return true

	case ActionReadInstructorEnrollments:
		return actor.Is(models.RoleInstructor) || actor.Is(models.RoleAdmin)
	}

	return false
}

// Authorize returns an error wrapping models.ErrPermissionDenied when the
// actor may not perform the action
func Authorize(actor models.Actor, action Action, res Resource) error {
	if Can(actor, action, res) {
		return nil
	}
	return fmt.Errorf("%w: %s not allowed for %s", models.ErrPermissionDenied, action, roleOrAnonymous(actor))
}

func roleOrAnonymous(actor models.Actor) string {
	if actor.Role == "" {
		return "anonymous"
	}
	return string(actor.Role)
}
