package constants

const (
	DefaultCategory       = "general"
	DefaultEstimatedHours = 1.0

	MaxTitleLength    = 255
	MaxTagLength      = 50
	MaxCategoryLength = 50
	MaxHours          = 1000.0
)
