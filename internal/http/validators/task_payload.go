package validators

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"task-tracker.com/task-tracker/internal/constants"
	dto "task-tracker.com/task-tracker/internal/data_models"
	apperrors "task-tracker.com/task-tracker/internal/errors"
	model "task-tracker.com/task-tracker/internal/models"
	"task-tracker.com/task-tracker/internal/services"
)

const dateLayout = "2006-01-02"

var updateFields = []string{
	"title", "description", "assignedTo", "priority", "category", "status",
	"estimatedHours", "actualHours", "startDate", "dueDate", "tags",
}

// DecodeTaskPayload decodes body into req and also returns the raw top-level
// fields, so callers can tell an explicit null from an absent key.
func DecodeTaskPayload(body []byte, req interface{}) (map[string]json.RawMessage, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil || raw == nil {
		return nil, apperrors.Validation("", "invalid JSON payload")
	}
	if err := json.Unmarshal(body, req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return nil, apperrors.Validation(typeErr.Field, "invalid value")
		}
		return nil, apperrors.Validation("", "invalid JSON payload")
	}
	return raw, nil
}

func BuildCreateTaskInput(
	req dto.CreateTaskRequest,
	raw map[string]json.RawMessage,
	createdBy string,
) (services.CreateTaskInput, error) {
	in := services.CreateTaskInput{
		Title:          req.Title,
		Description:    req.Description,
		AssignedTo:     req.AssignedTo,
		CreatedBy:      createdBy,
		EstimatedHours: req.EstimatedHours,
		Tags:           req.Tags,
	}

	if hasJSONField(raw, "priority") && req.Priority == nil {
		return services.CreateTaskInput{}, apperrors.Validation("priority", "invalid priority level")
	}
	if req.Priority != nil {
		p, err := constants.ParsePriority(*req.Priority)
		if err != nil {
			return services.CreateTaskInput{}, apperrors.Validation("priority", "invalid priority level")
		}
		in.Priority = p
	}

	if hasJSONField(raw, "status") && req.Status == nil {
		return services.CreateTaskInput{}, apperrors.Validation("status", "invalid status")
	}
	if req.Status != nil {
		s, err := constants.ParseTaskStatus(*req.Status)
		if err != nil {
			return services.CreateTaskInput{}, apperrors.Validation("status", "invalid status")
		}
		in.Status = s
	}

	if req.Category != nil {
		in.Category = *req.Category
	}

	var err error
	if in.StartDate, err = parseDate("startDate", req.StartDate); err != nil {
		return services.CreateTaskInput{}, err
	}
	if in.DueDate, err = parseDate("dueDate", req.DueDate); err != nil {
		return services.CreateTaskInput{}, err
	}

	return in, nil
}

// BuildUpdateTaskInput maps a partial update. Keys that are absent are left
// alone; null clears nullable fields and is rejected for the rest.
func BuildUpdateTaskInput(req dto.UpdateTaskRequest, raw map[string]json.RawMessage) (services.UpdateTaskInput, error) {
	if !hasAnyField(raw, updateFields) {
		return services.UpdateTaskInput{}, apperrors.Validation("", "no valid fields to update")
	}

	for _, field := range []string{"title", "priority", "category", "status", "estimatedHours", "actualHours"} {
		if hasJSONField(raw, field) && isJSONNull(raw[field]) {
			return services.UpdateTaskInput{}, apperrors.Validation(field, "must not be null")
		}
	}

	in := services.UpdateTaskInput{
		Title:          req.Title,
		Description:    req.Description,
		DescriptionSet: hasJSONField(raw, "description"),
		AssignedTo:     req.AssignedTo,
		AssignedToSet:  hasJSONField(raw, "assignedTo"),
		Category:       req.Category,
		EstimatedHours: req.EstimatedHours,
		ActualHours:    req.ActualHours,
		StartDateSet:   hasJSONField(raw, "startDate"),
		DueDateSet:     hasJSONField(raw, "dueDate"),
		Tags:           req.Tags,
		TagsSet:        hasJSONField(raw, "tags"),
	}

	if req.Priority != nil {
		p, err := constants.ParsePriority(*req.Priority)
		if err != nil {
			return services.UpdateTaskInput{}, apperrors.Validation("priority", "invalid priority level")
		}
		in.Priority = &p
	}

	if req.Status != nil {
		s, err := constants.ParseTaskStatus(*req.Status)
		if err != nil {
			return services.UpdateTaskInput{}, apperrors.Validation("status", "invalid status")
		}
		in.Status = &s
	}

	var err error
	if in.StartDate, err = parseDate("startDate", req.StartDate); err != nil {
		return services.UpdateTaskInput{}, err
	}
	if in.DueDate, err = parseDate("dueDate", req.DueDate); err != nil {
		return services.UpdateTaskInput{}, err
	}

	return in, nil
}

// BuildTaskFilter reads listTasks query parameters.
func BuildTaskFilter(query func(string) string) (model.TaskFilter, error) {
	filter := model.TaskFilter{
		AssignedTo: strings.TrimSpace(query("assignedTo")),
		CreatedBy:  strings.TrimSpace(query("createdBy")),
		Category:   strings.TrimSpace(query("category")),
	}

	if v := query("status"); v != "" {
		s, err := constants.ParseTaskStatus(v)
		if err != nil {
			return model.TaskFilter{}, apperrors.Validation("status", "invalid status")
		}
		filter.Status = s
	}
	if v := query("priority"); v != "" {
		p, err := constants.ParsePriority(v)
		if err != nil {
			return model.TaskFilter{}, apperrors.Validation("priority", "invalid priority level")
		}
		filter.Priority = p
	}

	var err error
	if filter.Limit, err = parseCount("limit", query("limit")); err != nil {
		return model.TaskFilter{}, err
	}
	if filter.Offset, err = parseCount("offset", query("offset")); err != nil {
		return model.TaskFilter{}, err
	}

	return filter, nil
}

// parseDate accepts a calendar date or an RFC 3339 timestamp.
func parseDate(field string, value *string) (*time.Time, error) {
	if value == nil {
		return nil, nil
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return nil, nil
	}

	for _, layout := range []string{dateLayout, time.RFC3339Nano} {
		if t, err := time.Parse(layout, v); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, apperrors.Validation(field, "invalid date, expected YYYY-MM-DD or RFC 3339")
}

func parseCount(field, value string) (int, error) {
	if value == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0, apperrors.Validation(field, field+" must be a non-negative integer")
	}
	return n, nil
}

func hasAnyField(raw map[string]json.RawMessage, fields []string) bool {
	for _, f := range fields {
		if hasJSONField(raw, f) {
			return true
		}
	}
	return false
}

func hasJSONField(raw map[string]json.RawMessage, field string) bool {
	_, ok := raw[field]
	return ok
}

func isJSONNull(value json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(value), []byte("null"))
}
