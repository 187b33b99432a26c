package api

import (
	"errors"
	"log/slog"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/venu630/bequest"
	"github.com/venu630/bequest/ledger"
	"github.com/venu630/bequest/validate"
	"github.com/venu630/bequest/workflow"
)

// errorHandler renders every error returned by a handler.
func (a *API) errorHandler(c *fiber.Ctx, err error) error {
	status, body := classify(err)
	if status >= fiber.StatusInternalServerError {
		a.logger.ErrorContext(c.UserContext(), "request failed",
			slog.String("path", c.Path()),
			slog.Int("status", status),
			slog.String("error", err.Error()),
		)
	}
	return c.Status(status).JSON(body)
}

// classify maps an error to its HTTP status and body.
func classify(err error) (int, ErrorResponse) {
	body := ErrorResponse{Error: err.Error()}

	var (
		fiberErr *fiber.Error
		vErr     *workflow.ValidationError
		recErr   *workflow.ReconciliationError
		reqErr   *requestError
	)
	switch {
	case errors.As(err, &fiberErr):
		body.Error = fiberErr.Message
		return fiberErr.Code, body

	case errors.As(err, &reqErr):
		body.FieldErrors = reqErr.fields
		return fiber.StatusBadRequest, body

	case errors.As(err, &vErr):
		body.FieldErrors = vErr.Fields
		return fiber.StatusUnprocessableEntity, body

	case errors.As(err, &recErr):
		body.ActualTotal = recErr.ActualTotal.String()
		return fiber.StatusUnprocessableEntity, body

	case errors.Is(err, bequest.ErrConfig),
		errors.Is(err, bequest.ErrInvalidEvent):
		return fiber.StatusUnprocessableEntity, body

	case errors.Is(err, bequest.ErrAtBoundary):
		body.Exit = true
		return fiber.StatusConflict, body

	case errors.Is(err, bequest.ErrWorkflowClosed),
		errors.Is(err, bequest.ErrInvalidState):
		return fiber.StatusConflict, body

	case errors.Is(err, bequest.ErrSessionNotFound),
		errors.Is(err, bequest.ErrSubmissionNotFound),
		errors.Is(err, bequest.ErrDefinitionNotFound):
		return fiber.StatusNotFound, body

	case errors.Is(err, bequest.ErrLedger):
		body.Kind = string(ledger.KindOf(err))
		return fiber.StatusBadGateway, body

	case errors.Is(err, bequest.ErrUpload),
		errors.Is(err, bequest.ErrDelivery):
		return fiber.StatusBadGateway, body

	case errors.Is(err, bequest.ErrCollaboratorAbsent):
		return fiber.StatusServiceUnavailable, body

	default:
		body.Error = "internal server error"
		return fiber.StatusInternalServerError, body
	}
}

// requestError reports a malformed request body or parameter.
type requestError struct {
	msg    string
	fields validate.Errors
}

func (e *requestError) Error() string { return e.msg }

func badRequest(msg string) error { return &requestError{msg: msg} }

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "query", "form"} {
			name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return f.Name
	})
	return v
}

// check validates req and converts failures into a requestError.
func (a *API) check(req any) error {
	err := a.validate.Struct(req)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return badRequest(err.Error())
	}
	fields := validate.Errors{}
	for _, fe := range ves {
		fields[fe.Field()] = fieldMessage(fe)
	}
	return &requestError{msg: "invalid request", fields: fields}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required."
	case "email":
		return "Invalid email format."
	case "eth_addr":
		return "Invalid wallet address."
	default:
		return fe.Field() + " failed " + fe.Tag() + " check."
	}
}

// parse decodes the JSON body into req and validates it.
func (a *API) parse(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return badRequest("invalid request body: " + err.Error())
	}
	return a.check(req)
}
