// Package policy decides what an actor may see and change. Every function
// is pure: it looks only at the actor and the task it is given.
package policy

import (
	"github.com/adanyl0v/go-task-assign/internal/filter"
	"github.com/adanyl0v/go-task-assign/internal/models"
)

// CanRead reports whether the actor may see the task.
func CanRead(actor models.Actor, task *models.Task) bool {
	if actor.IsAdmin() {
		return true
	}
	return actor.ID != "" && (actor.ID == task.AssignedTo || actor.ID == task.CreatedBy)
}

// CanUpdate reports whether the actor may update the task at all.
// UpdateScopeFor narrows down which fields.
func CanUpdate(actor models.Actor, task *models.Task) bool {
	return CanRead(actor, task)
}

// CanDelete reports whether the actor may delete the task or one of its
// attachments. The assignee alone cannot.
func CanDelete(actor models.Actor, task *models.Task) bool {
	if actor.IsAdmin() {
		return true
	}
	return actor.ID != "" && actor.ID == task.CreatedBy
}

type UpdateScope int

const (
	ScopeNone UpdateScope = iota
	// ScopeStatusOnly lets the actor change the status and attach files.
	ScopeStatusOnly
	ScopeFull
)

// UpdateScopeFor returns which part of the task the actor may change.
// Admins and the creator may change every editable field, an assignee who
// did not create the task only its status and attachments.
func UpdateScopeFor(actor models.Actor, task *models.Task) UpdateScope {
	switch {
	case actor.IsAdmin(), actor.ID != "" && actor.ID == task.CreatedBy:
		return ScopeFull
	case actor.ID != "" && actor.ID == task.AssignedTo:
		return ScopeStatusOnly
	default:
		return ScopeNone
	}
}

// ScopeFilter narrows raw to the tasks the actor may see. Admin filters
// are returned unchanged.
func ScopeFilter(actor models.Actor, raw filter.Expr) filter.Expr {
	if actor.IsAdmin() {
		return raw
	}
	return filter.Conjoin(raw, filter.Or{
		filter.Eq(filter.FieldAssignedTo, actor.ID),
		filter.Eq(filter.FieldCreatedBy, actor.ID),
	})
}
