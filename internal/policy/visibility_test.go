package policy

import (
	"testing"

	"github.com/adanyl0v/go-task-assign/internal/filter"
	"github.com/adanyl0v/go-task-assign/internal/models"
)

var (
	creator  = models.Actor{ID: "u1", Role: models.RoleUser}
	assignee = models.Actor{ID: "u2", Role: models.RoleUser}
	stranger = models.Actor{ID: "u3", Role: models.RoleUser}
	admin    = models.Actor{ID: "a1", Role: models.RoleAdmin}
	nobody   = models.Actor{Role: models.RoleUser}
)

func testTask() *models.Task {
	return &models.Task{ID: "t1", AssignedTo: "u2", CreatedBy: "u1"}
}

func TestPermissions(t *testing.T) {
	tests := []struct {
		name      string
		actor     models.Actor
		canRead   bool
		canUpdate bool
		canDelete bool
		scope     UpdateScope
	}{
		{"creator", creator, true, true, true, ScopeFull},
		{"assignee", assignee, true, true, false, ScopeStatusOnly},
		{"stranger", stranger, false, false, false, ScopeNone},
		{"admin", admin, true, true, true, ScopeFull},
		{"empty id", nobody, false, false, false, ScopeNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := testTask()
			if got := CanRead(tt.actor, task); got != tt.canRead {
				t.Fatalf("CanRead = %v, want %v", got, tt.canRead)
			}
			if got := CanUpdate(tt.actor, task); got != tt.canUpdate {
				t.Fatalf("CanUpdate = %v, want %v", got, tt.canUpdate)
			}
			if got := CanDelete(tt.actor, task); got != tt.canDelete {
				t.Fatalf("CanDelete = %v, want %v", got, tt.canDelete)
			}
			if got := UpdateScopeFor(tt.actor, task); got != tt.scope {
				t.Fatalf("UpdateScopeFor = %v, want %v", got, tt.scope)
			}
		})
	}
}

func TestCreatorWhoIsAlsoAssigneeHasFullScope(t *testing.T) {
	task := &models.Task{AssignedTo: "u1", CreatedBy: "u1"}
	if got := UpdateScopeFor(creator, task); got != ScopeFull {
		t.Fatalf("UpdateScopeFor = %v, want ScopeFull", got)
	}
}

func TestScopeFilter_AdminUnchanged(t *testing.T) {
	raw := filter.Eq(filter.FieldStatus, "pending")
	if got := ScopeFilter(admin, raw); got != filter.Expr(raw) {
		t.Fatalf("expected admin filter unchanged, got %+v", got)
	}
	if got := ScopeFilter(admin, nil); got != nil {
		t.Fatalf("expected nil admin filter, got %+v", got)
	}
}

func TestScopeFilter_UserIsNarrowed(t *testing.T) {
	raw := filter.Eq(filter.FieldStatus, "pending")
	scoped := ScopeFilter(creator, raw)

	and, ok := scoped.(filter.And)
	if !ok || len(and) != 2 {
		t.Fatalf("expected And of raw and ownership, got %+v", scoped)
	}
	or, ok := and[1].(filter.Or)
	if !ok || len(or) != 2 {
		t.Fatalf("expected ownership Or, got %+v", and[1])
	}

	visible := map[filter.Field]any{
		filter.FieldStatus:     "pending",
		filter.FieldAssignedTo: "u9",
		filter.FieldCreatedBy:  "u1",
	}
	hidden := map[filter.Field]any{
		filter.FieldStatus:     "pending",
		filter.FieldAssignedTo: "u9",
		filter.FieldCreatedBy:  "u8",
	}
	if !filter.Match(scoped, func(f filter.Field) any { return visible[f] }) {
		t.Fatal("expected creator's task to match")
	}
	if filter.Match(scoped, func(f filter.Field) any { return hidden[f] }) {
		t.Fatal("expected foreign task not to match")
	}
}

func TestScopeFilter_NilRawStillScoped(t *testing.T) {
	if _, ok := ScopeFilter(assignee, nil).(filter.Or); !ok {
		t.Fatal("expected bare ownership Or for empty raw filter")
	}
}
