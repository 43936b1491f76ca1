package types

import "time"

// Todo is a single task owned by exactly one user. The id is serialised as
// "_id" to keep the document-store wire shape existing clients consume.
type Todo struct {
	ID        string    `json:"_id" example:"665f1c2a9b1e4a0d8c3b7f22"`
	Text      string    `json:"text" example:"buy milk"`
	Completed bool      `json:"completed" example:"false"`
	UserID    string    `json:"userId" example:"665f1c2a9b1e4a0d8c3b7f21"`
	CreatedAt time.Time `json:"createdAt"`
}

// UpdateTodoParams describes a partial update. Nil fields are left untouched.
type UpdateTodoParams struct {
	ID        string
	Text      *string
	Completed *bool
}

// IsEmpty reports whether the update would change nothing.
func (p UpdateTodoParams) IsEmpty() bool {
	return p.Text == nil && p.Completed == nil
}

// Apply returns a copy of t with the supplied fields changed.
func (p UpdateTodoParams) Apply(t Todo) Todo {
	if p.Text != nil {
		t.Text = *p.Text
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	return t
}
