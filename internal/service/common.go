package service

import (
	"context"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-assessment-api/internal/grading"
	"github.com/noah-isme/gema-assessment-api/internal/observability"
	"github.com/noah-isme/gema-assessment-api/internal/repository"
)

const tracerPrefix = "github.com/noah-isme/gema-assessment-api/internal/service/"

// NewValidator returns a validator that reports request fields by their JSON names.
func NewValidator() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return validate
}

// validatePayload runs struct validation and converts the first failure into the taxonomy.
func validatePayload(validate *validator.Validate, payload interface{}) error {
	if validate == nil {
		return nil
	}
	err := validate.Struct(payload)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if errors.As(err, &fieldErrors) && len(fieldErrors) > 0 {
		fieldErr := fieldErrors[0]
		field := fieldErr.Namespace()
		if idx := strings.Index(field, "."); idx >= 0 {
			field = field[idx+1:]
		}
		return grading.FieldError(field, "%s failed %s validation", field, fieldErr.Tag())
	}
	return grading.FieldError("", "%s", err.Error())
}

// translateStoreError maps repository failures onto the grading taxonomy.
func translateStoreError(err error, entity string) error {
	switch {
	case err == nil:
		return nil
	case grading.KindOf(err) != "":
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return grading.NewError(grading.KindNotFound, "%s not found", entity)
	case errors.Is(err, repository.ErrVersionConflict):
		return grading.NewError(grading.KindConflict, "%s was changed by another request, reload and retry", entity)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return grading.NewError(grading.KindConflict, "%s already exists", entity)
	default:
		return err
	}
}

func isStoreConflict(err error) bool {
	return errors.Is(err, repository.ErrVersionConflict) || errors.Is(err, gorm.ErrDuplicatedKey)
}

// retryOnConflict re-runs a read-modify-write until it stops losing races. A client that
// pinned a version gets exactly one try.
func retryOnConflict(ctx context.Context, retries int, clientVersion *int, entity string, fn func() error) error {
	attempts := 1
	if clientVersion == nil && retries > 0 {
		attempts += retries
	}

	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); !isStoreConflict(err) {
			return err
		}
		observability.GradingConflicts().WithLabelValues(entity).Inc()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
	}
	return err
}

func checkClientVersion(clientVersion *int, current int, entity string) error {
	if clientVersion != nil && *clientVersion != current {
		return grading.NewError(grading.KindConflict, "%s is at version %d, not %d", entity, current, *clientVersion)
	}
	return nil
}

func outcomeLabel(err error) string {
	if err == nil {
		return "ok"
	}
	if kind := grading.KindOf(err); kind != "" {
		return string(kind)
	}
	return "error"
}

func recordOutcome(operation string, err error) {
	observability.GradingOperations().WithLabelValues(operation, outcomeLabel(err)).Inc()
}

func failSpan(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, outcomeLabel(err))
}
