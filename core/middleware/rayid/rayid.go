package rayid

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// HeaderName is the header the ray ID is read from and echoed back on.
const HeaderName = "X-Ray-ID"

// New returns a middleware that tags every request with a unique ray ID.
// An ID supplied by the caller is kept so traces can span services. The ID
// is stored in c.Locals("ray_id") and set on the response header.
func New() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(HeaderName)
		if id == "" {
			id = uuid.NewString()
		}
		c.Locals("ray_id", id)
		c.Set(HeaderName, id)
		return c.Next()
	}
}
