package models

import "time"

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	default:
		return false
	}
}

type Task struct {
	ID          string
	Title       string
	Description string
	Status      Status
	Deadline    time.Time
	AssignedTo  string
	CreatedBy   string
	Attachments []Attachment
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// FindAttachment returns the index of the attachment with the given id
// or -1 if the task has no such attachment.
func (t *Task) FindAttachment(attachmentID string) int {
	for i := range t.Attachments {
		if t.Attachments[i].ID == attachmentID {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the task, so callers may hand it out
// without sharing the attachment slice.
func (t *Task) Clone() *Task {
	c := *t
	if t.Attachments != nil {
		c.Attachments = make([]Attachment, len(t.Attachments))
		copy(c.Attachments, t.Attachments)
	}
	return &c
}

type Attachment struct {
	ID         string
	Filename   string
	StorageKey string
	UploadedAt time.Time
}
