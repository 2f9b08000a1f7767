package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-task-assign/internal/models"
	"github.com/adanyl0v/go-task-assign/internal/repository"
)

func newUserQueryService() UserQueryService {
	users := repository.NewMemoryUserDirectory()
	for i := 1; i <= 5; i++ {
		users.Add(models.UserRef{
			ID:    fmt.Sprintf("u%d", i),
			Name:  fmt.Sprintf("User %d", i),
			Email: fmt.Sprintf("u%d@example.com", i),
		})
	}
	return NewUserQueryService(zerolog.Nop(), users, PageLimits{DefaultLimit: 2})
}

func TestListUsers_AdminOnly(t *testing.T) {
	s := newUserQueryService()

	_, err := s.ListUsers(context.Background(), u1, 1, 10)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("ListUsers as user: got %v, want ErrForbidden", err)
	}
}

func TestListUsers_Pagination(t *testing.T) {
	s := newUserQueryService()

	tests := []struct {
		page     int
		wantIDs  []string
		wantNext *PageRef
		wantPrev *PageRef
	}{
		{page: 0, wantIDs: []string{"u1", "u2"}, wantNext: &PageRef{Page: 2, Limit: 2}},
		{page: 2, wantIDs: []string{"u3", "u4"}, wantNext: &PageRef{Page: 3, Limit: 2}, wantPrev: &PageRef{Page: 1, Limit: 2}},
		{page: 3, wantIDs: []string{"u5"}, wantPrev: &PageRef{Page: 2, Limit: 2}},
		{page: 9, wantIDs: []string{}, wantPrev: &PageRef{Page: 8, Limit: 2}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("page %d", tt.page), func(t *testing.T) {
			page, err := s.ListUsers(context.Background(), admin, tt.page, 0)
			if err != nil {
				t.Fatalf("ListUsers: %v", err)
			}
			if page.Total != 5 || page.Count != len(tt.wantIDs) {
				t.Fatalf("got count %d of %d, want %d of 5", page.Count, page.Total, len(tt.wantIDs))
			}
			for i, u := range page.Items {
				if u.ID != tt.wantIDs[i] {
					t.Fatalf("item %d = %q, want %q", i, u.ID, tt.wantIDs[i])
				}
			}
			assertPageRef(t, "next", page.Pagination.Next, tt.wantNext)
			assertPageRef(t, "prev", page.Pagination.Prev, tt.wantPrev)
		})
	}
}

func TestGetUser(t *testing.T) {
	s := newUserQueryService()
	ctx := context.Background()

	tests := []struct {
		name    string
		actor   models.Actor
		id      string
		wantErr error
	}{
		{name: "admin reads user", actor: admin, id: "u3"},
		{name: "unknown id", actor: admin, id: "ghost", wantErr: ErrUserNotFound},
		{name: "user may not read", actor: u3, id: "u3", wantErr: ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := s.GetUser(ctx, tt.actor, tt.id)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("got %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("GetUser: %v", err)
			}
			if u.ID != "u3" || u.Email != "u3@example.com" {
				t.Fatalf("got %+v", *u)
			}
		})
	}
}
