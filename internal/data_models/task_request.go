package dto

// Pointer fields tell "absent" from "zero"; validators inspect the raw JSON to
// tell an explicit null from an absent key.
type CreateTaskRequest struct {
	Title          string   `json:"title"`
	Description    *string  `json:"description"`
	AssignedTo     *string  `json:"assignedTo"`
	Priority       *string  `json:"priority"`
	Category       *string  `json:"category"`
	Status         *string  `json:"status"`
	EstimatedHours *float64 `json:"estimatedHours"`
	StartDate      *string  `json:"startDate"`
	DueDate        *string  `json:"dueDate"`
	Tags           []string `json:"tags"`
}

type UpdateTaskRequest struct {
	Title          *string  `json:"title"`
	Description    *string  `json:"description"`
	AssignedTo     *string  `json:"assignedTo"`
	Priority       *string  `json:"priority"`
	Category       *string  `json:"category"`
	Status         *string  `json:"status"`
	EstimatedHours *float64 `json:"estimatedHours"`
	ActualHours    *float64 `json:"actualHours"`
	StartDate      *string  `json:"startDate"`
	DueDate        *string  `json:"dueDate"`
	Tags           []string `json:"tags"`
}
