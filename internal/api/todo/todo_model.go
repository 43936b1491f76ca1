package todo

type CreateTodoRequest struct {
	Text string `json:"text" example:"buy milk"`
}

// UpdateTodoRequest is a partial update; absent fields are left unchanged.
type UpdateTodoRequest struct {
	ID        string  `json:"id" example:"665f1c2a9b1e4a0d8c3b7f22"`
	Text      *string `json:"text,omitempty" example:"buy oat milk"`
	Completed *bool   `json:"completed,omitempty" example:"true"`
}
