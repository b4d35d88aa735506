package services

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"task-tracker.com/task-tracker/internal/constants"
	apperrors "task-tracker.com/task-tracker/internal/errors"
)

type CreateTaskInput struct {
	Title          string
	Description    *string
	AssignedTo     *string
	CreatedBy      string
	Priority       constants.Priority
	Category       string
	Status         constants.TaskStatus
	EstimatedHours *float64
	StartDate      *time.Time
	DueDate        *time.Time
	Tags           []string
}

// UpdateTaskInput is a partial update. A field is applied only when its Set
// flag is true; a nil value with the flag set clears a nullable column.
type UpdateTaskInput struct {
	Title          *string
	Description    *string
	DescriptionSet bool
	AssignedTo     *string
	AssignedToSet  bool
	Priority       *constants.Priority
	Category       *string
	Status         *constants.TaskStatus
	EstimatedHours *float64
	ActualHours    *float64
	StartDate      *time.Time
	StartDateSet   bool
	DueDate        *time.Time
	DueDateSet     bool
	Tags           []string
	TagsSet        bool
}

func (in UpdateTaskInput) empty() bool {
	return in.Title == nil &&
		!in.DescriptionSet &&
		!in.AssignedToSet &&
		in.Priority == nil &&
		in.Category == nil &&
		in.Status == nil &&
		in.EstimatedHours == nil &&
		in.ActualHours == nil &&
		!in.StartDateSet &&
		!in.DueDateSet &&
		!in.TagsSet
}

func normalizeTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", apperrors.Validation("title", "task title is required")
	}
	if utf8.RuneCountInString(title) > constants.MaxTitleLength {
		return "", apperrors.Validation("title",
			fmt.Sprintf("task title too long (max %d characters)", constants.MaxTitleLength))
	}
	return title, nil
}

func normalizeCategory(category string) (string, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return constants.DefaultCategory, nil
	}
	if utf8.RuneCountInString(category) > constants.MaxCategoryLength {
		return "", apperrors.Validation("category",
			fmt.Sprintf("category too long (max %d characters)", constants.MaxCategoryLength))
	}
	return category, nil
}

func validatePriority(p constants.Priority) error {
	if !p.Valid() {
		return apperrors.Validation("priority", "invalid priority level")
	}
	return nil
}

func validateStatus(s constants.TaskStatus) error {
	if !s.Valid() {
		return apperrors.Validation("status", "invalid status")
	}
	return nil
}

func validateEstimatedHours(h float64) error {
	if h <= 0 || h > constants.MaxHours {
		return apperrors.Validation("estimatedHours",
			fmt.Sprintf("estimated hours must be greater than 0 and at most %g", constants.MaxHours))
	}
	return nil
}

func validateActualHours(h float64) error {
	if h < 0 || h > constants.MaxHours {
		return apperrors.Validation("actualHours",
			fmt.Sprintf("actual hours must be between 0 and %g", constants.MaxHours))
	}
	return nil
}

func validateDates(start, due *time.Time) error {
	if start != nil && due != nil && due.Before(*start) {
		return apperrors.Validation("dueDate", "due date cannot be before start date")
	}
	return nil
}

// normalizeTags trims, drops empties and removes duplicates, keeping the
// first occurrence order.
func normalizeTags(tags []string) ([]string, error) {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if utf8.RuneCountInString(tag) > constants.MaxTagLength {
			return nil, apperrors.Validation("tags",
				fmt.Sprintf("tag %q too long (max %d characters)", tag, constants.MaxTagLength))
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out, nil
}

func normalizeUserRef(id *string) *string {
	if id == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*id)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func utcDate(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC().Truncate(time.Microsecond)
	return &v
}

// validate checks every supplied field on its own. The date order check
// needs the stored values and runs later.
func (in *UpdateTaskInput) validate() error {
	if in.empty() {
		return apperrors.Validation("", "no valid fields to update")
	}

	if in.Title != nil {
		title, err := normalizeTitle(*in.Title)
		if err != nil {
			return err
		}
		in.Title = &title
	}
	if in.Priority != nil {
		if err := validatePriority(*in.Priority); err != nil {
			return err
		}
	}
	if in.Category != nil {
		category, err := normalizeCategory(*in.Category)
		if err != nil {
			return err
		}
		in.Category = &category
	}
	if in.Status != nil {
		if err := validateStatus(*in.Status); err != nil {
			return err
		}
	}
	if in.EstimatedHours != nil {
		if err := validateEstimatedHours(*in.EstimatedHours); err != nil {
			return err
		}
	}
	if in.ActualHours != nil {
		if err := validateActualHours(*in.ActualHours); err != nil {
			return err
		}
	}
	if in.TagsSet {
		tags, err := normalizeTags(in.Tags)
		if err != nil {
			return err
		}
		in.Tags = tags
	}

	in.AssignedTo = normalizeUserRef(in.AssignedTo)
	in.StartDate = utcDate(in.StartDate)
	in.DueDate = utcDate(in.DueDate)
	return nil
}
