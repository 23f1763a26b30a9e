package domain

import "fmt"

// ModelErrorKind classifies model portfolio failures.
type ModelErrorKind string

const (
	// ModelErrorInvalidWeights means weights do not sum to 1.0 within
	// tolerance.
	ModelErrorInvalidWeights ModelErrorKind = "INVALID_WEIGHTS"
	// ModelErrorInvalidStructure means the model violates its variant's
	// structural rules.
	ModelErrorInvalidStructure ModelErrorKind = "INVALID_MODEL_STRUCTURE"
	// ModelErrorSleeveCreation means sleeve construction from the model
	// failed.
	ModelErrorSleeveCreation ModelErrorKind = "SLEEVE_CREATION_ERROR"
)

// ModelPortfolioError reports a model-specific failure.
type ModelPortfolioError struct {
	Kind    ModelErrorKind
	Message string
	Err     error
}

func (e *ModelPortfolioError) Error() string {
	return fmt.Sprintf("model portfolio error: %s - %s", e.Kind, e.Message)
}

func (e *ModelPortfolioError) Unwrap() error {
	return e.Err
}

// NewModelError builds a ModelPortfolioError with a formatted message.
func NewModelError(kind ModelErrorKind, format string, args ...any) *ModelPortfolioError {
	return &ModelPortfolioError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// ValidationError reports an empty or otherwise invalid simple field.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Message
}

// NewValidationError builds a ValidationError with a formatted message.
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// InvalidParameterError reports an out-of-range numeric argument.
type InvalidParameterError struct {
	Parameter string
	Message   string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid parameter: %s - %s", e.Parameter, e.Message)
}

// NewInvalidParameter builds an InvalidParameterError with a formatted
// message.
func NewInvalidParameter(parameter, format string, args ...any) *InvalidParameterError {
	return &InvalidParameterError{Parameter: parameter, Message: fmt.Sprintf(format, args...)}
}

// NotFoundError reports a missing entity reference.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

// NewNotFound builds a NotFoundError.
func NewNotFound(entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}
