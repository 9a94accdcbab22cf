package observability

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

// UnmatchedRoute labels requests that no route handled.
const UnmatchedRoute = "unmatched"

const unmatchedKey = "observability.unmatched"

// MarkUnmatched flags the request as having no matching route so metrics
// never carry its raw path.
func MarkUnmatched(c *fiber.Ctx) {
	c.Locals(unmatchedKey, true)
}

// RouteLabel returns the route template that served the request, copied out
// of the request buffers. Requests without a route share one label.
func RouteLabel(c *fiber.Ctx) string {
	if unmatched, _ := c.Locals(unmatchedKey).(bool); unmatched {
		return UnmatchedRoute
	}
	r := c.Route()
	if r == nil || len(r.Handlers) == 0 || r.Path == "" {
		return UnmatchedRoute
	}
	return utils.CopyString(r.Path)
}

// MethodLabel returns a copy of the request method.
func MethodLabel(c *fiber.Ctx) string {
	return utils.CopyString(c.Method())
}
