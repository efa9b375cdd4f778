package httpapi

import (
	"context"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/AntonStoeckl/library-lending-go/lending/shared/core"
	"github.com/AntonStoeckl/library-lending-go/lending/shared/shell"
)

const (
	headerRequestID = "X-Request-ID"
	bearerPrefix    = "Bearer "
	localsUser      = "user"
	localsRequestID = "request_id"

	MetricHTTPRequestDuration = "http_request_duration_seconds"
	MetricHTTPRequests        = "http_requests_total"

	logMsgRequest    = "http request"
	logAttrMethod    = "method"
	logAttrPath      = "path"
	logAttrRoute     = "route"
	logAttrStatus    = "status"
	logAttrRequestID = "request_id"
)

// requestContext assigns the request ID and puts it into the user context as correlation ID,
// together with the request deadline.
func (s server) requestContext(c *fiber.Ctx) error {
	requestID := strings.TrimSpace(c.Get(headerRequestID))
	if requestID == "" {
		requestID = shell.NewID().String()
	}

	c.Set(headerRequestID, requestID)
	c.Locals(localsRequestID, requestID)

	ctx, cancel := context.WithTimeout(shell.WithCorrelationID(c.UserContext(), requestID), s.RequestTimeout)
	defer cancel()
	c.SetUserContext(ctx)

	return c.Next()
}

// logRequests writes one log line and one duration sample per request. Errors are rendered here
// so the final status code is known.
func (s server) logRequests(c *fiber.Ctx) error {
	start := time.Now()

	if chainErr := c.Next(); chainErr != nil {
		if err := c.App().ErrorHandler(c, chainErr); err != nil {
			_ = c.SendStatus(fiber.StatusInternalServerError)
		}
	}

	duration := time.Since(start)
	status := c.Response().StatusCode()
	route := c.Route().Path

	if s.Metrics != nil {
		labels := map[string]string{
			logAttrMethod: c.Method(),
			logAttrRoute:  route,
			logAttrStatus: strconv.Itoa(status),
		}
		s.Metrics.RecordDuration(MetricHTTPRequestDuration, duration, labels)
		s.Metrics.IncrementCounter(MetricHTTPRequests, labels)
	}

	if s.Logger != nil {
		s.Logger.Info(
			logMsgRequest,
			logAttrMethod, c.Method(),
			logAttrPath, c.Path(),
			logAttrStatus, status,
			shell.LogAttrDurationMS, shell.ToMilliseconds(duration),
			logAttrRequestID, c.Locals(localsRequestID),
		)
	}

	return nil
}

// authenticate resolves the bearer credential into the acting user.
func (s server) authenticate(c *fiber.Ctx) error {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return core.ErrMissingCredential
	}

	if !strings.HasPrefix(header, bearerPrefix) {
		return core.ErrInvalidCredential
	}

	user, err := s.Tokens.Verify(strings.TrimPrefix(header, bearerPrefix))
	if err != nil {
		return err
	}

	c.Locals(localsUser, user)

	return c.Next()
}

func requireRole(roles ...core.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !slices.Contains(roles, currentUser(c).Role) {
			return core.ErrForbidden
		}

		return c.Next()
	}
}

func currentUser(c *fiber.Ctx) core.User {
	user, _ := c.Locals(localsUser).(core.User)
	return user
}
