package validate

import (
	"time"

	"github.com/google/uuid"
	"github.com/tendant/nexus-crm/pkg/domain"
)

// TaskInput is the request body for creating or updating a task.
type TaskInput struct {
	Title    *string `json:"title"`
	ClientID *string `json:"client_id"`
	DueDate  *string `json:"due_date"`
	Priority *string `json:"priority"`
	Status   *string `json:"status"`
}

type taskRules struct {
	Title    string `json:"title" validate:"required,max=200"`
	Priority string `json:"priority" validate:"oneof=low medium high"`
	Status   string `json:"status" validate:"oneof=open done"`
}

// TaskCreate validates a new task. Priority defaults to medium and status
// to open.
func TaskCreate(in TaskInput) (*domain.Task, error) {
	c := &collector{}
	r := taskRules{
		Title:    trimmed(in.Title),
		Priority: trimmed(in.Priority),
		Status:   trimmed(in.Status),
	}
	if r.Priority == "" {
		r.Priority = string(domain.PriorityMedium)
	}
	if r.Status == "" {
		r.Status = string(domain.TaskStatusOpen)
	}
	clientID := optionalClientID(c, trimmed(in.ClientID))
	due := optionalDate(c, "due_date", trimmed(in.DueDate))

	c.check(r)
	if err := c.err(); err != nil {
		return nil, err
	}
	return &domain.Task{
		ClientID: clientID,
		Title:    r.Title,
		DueDate:  due,
		Priority: domain.Priority(r.Priority),
		Status:   domain.TaskStatus(r.Status),
	}, nil
}

// TaskUpdate validates the fields present in a partial update.
func TaskUpdate(in TaskInput) (domain.TaskPatch, error) {
	c := &collector{}
	r := taskRules{
		Title:    trimmed(in.Title),
		Priority: trimmed(in.Priority),
		Status:   trimmed(in.Status),
	}
	present := []string{}
	if in.Title != nil {
		present = append(present, "Title")
	}
	if in.Priority != nil {
		present = append(present, "Priority")
	}
	if in.Status != nil {
		present = append(present, "Status")
	}

	var p domain.TaskPatch
	if in.ClientID != nil {
		id := optionalClientID(c, trimmed(in.ClientID))
		if id == nil {
			id = new(uuid.UUID)
		}
		p.ClientID = id
	}
	if in.DueDate != nil {
		t := optionalDate(c, "due_date", trimmed(in.DueDate))
		if t == nil {
			t = new(time.Time)
		}
		p.DueDate = t
	}

	c.check(r, present...)
	if err := c.err(); err != nil {
		return domain.TaskPatch{}, err
	}

	if in.Title != nil {
		p.Title = &r.Title
	}
	if in.Priority != nil {
		priority := domain.Priority(r.Priority)
		p.Priority = &priority
	}
	if in.Status != nil {
		status := domain.TaskStatus(r.Status)
		p.Status = &status
	}
	return p, nil
}
