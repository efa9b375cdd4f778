package httpapi

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/AntonStoeckl/library-lending-go/lending/ledger"
	"github.com/AntonStoeckl/library-lending-go/lending/shared/core"
)

type credentialsRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type addBookRequest struct {
	Title  string `json:"title" validate:"required,max=500"`
	Author string `json:"author" validate:"required,max=300"`
}

type updateBookRequest struct {
	Title  *string `json:"title" validate:"omitempty,max=500"`
	Author *string `json:"author" validate:"omitempty,max=300"`
}

type transactionsQuery struct {
	UserID string `query:"userId"`
	BookID string `query:"bookId"`
	Type   string `query:"type" validate:"omitempty,oneof=borrow return"`
	From   string `query:"from"`
	Until  string `query:"until"`
	Order  string `query:"order" validate:"omitempty,oneof=oldest newest"`
	Limit  int    `query:"limit" validate:"min=0"`
	Offset int    `query:"offset" validate:"min=0"`
}

// parseBody decodes and validates a JSON body. Any failure is InvalidArgument.
func (s server) parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return core.NewInvalidArgument("request body is not valid JSON")
	}

	return s.validateStruct(out)
}

func (s server) validateStruct(v any) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return core.NewInvalidArgument(err.Error())
	}

	reasons := make([]string, 0, len(validationErrs))
	for _, fieldErr := range validationErrs {
		reasons = append(reasons, describe(fieldErr))
	}

	return core.NewInvalidArgument(strings.Join(reasons, "; "))
}

func describe(fieldErr validator.FieldError) string {
	field := strings.ToLower(fieldErr.Field()[:1]) + fieldErr.Field()[1:]

	switch fieldErr.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s must have at least %s characters", field, fieldErr.Param())
	case "max":
		return fmt.Sprintf("%s must have at most %s characters", field, fieldErr.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fieldErr.Param())
	default:
		return field + " is not valid"
	}
}

// toFilter converts the query parameters. Times are RFC 3339.
func (q transactionsQuery) toFilter() (ledger.TransactionFilter, error) {
	from, err := parseTime("from", q.From)
	if err != nil {
		return ledger.TransactionFilter{}, err
	}

	until, err := parseTime("until", q.Until)
	if err != nil {
		return ledger.TransactionFilter{}, err
	}

	return ledger.TransactionFilter{
		UserID: q.UserID,
		BookID: q.BookID,
		Type:   q.Type,
		From:   from,
		Until:  until,
		Order:  q.Order,
		Limit:  q.Limit,
		Offset: q.Offset,
	}, nil
}

func parseTime(name string, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}

	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, core.NewInvalidArgument(name + " must be an RFC 3339 timestamp")
	}

	return t, nil
}
