// Package header sets the informational response headers the pearl front
// end attaches to every answered /generate request.
package header

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/pearl/pkg/pipeline"
)

const (
	// RequestIDHeader carries the pipeline request ID, which is also the
	// transcript record ID.
	RequestIDHeader = "X-Pearl-Request-Id"

	// WebContextHeader reports whether a search fact informed the answer.
	WebContextHeader = "X-Pearl-Web-Context"

	// FactCategoryHeader names the category of the search fact, when one
	// was fetched.
	FactCategoryHeader = "X-Pearl-Fact-Category"
)

// Handler manages response headers for the front end.
type Handler struct{}

// NewHandler creates a new header Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// SetResultHeaders describes a pipeline result on the client response.
func (h *Handler) SetResultHeaders(c *fiber.Ctx, res *pipeline.Result) {
	if res == nil {
		return
	}

	c.Set(RequestIDHeader, res.ID)
	c.Set(WebContextHeader, strconv.FormatBool(res.HasWebContext()))
	if res.Fact != nil {
		c.Set(FactCategoryHeader, string(res.Fact.Category))
	}
}
