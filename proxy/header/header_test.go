package header

import (
	"net/http"
	"net/http/httptest"

	"github.com/gofiber/fiber/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/pearl/pkg/pipeline"
	"github.com/papercomputeco/pearl/pkg/search"
)

var _ = Describe("SetResultHeaders", func() {
	var (
		app *fiber.App
		hh  *Handler
	)

	BeforeEach(func() {
		app = fiber.New()
		hh = NewHandler()
	})

	AfterEach(func() {
		app.Shutdown()
	})

	serve := func(res *pipeline.Result) *http.Response {
		app.Get("/test", func(c *fiber.Ctx) error {
			hh.SetResultHeaders(c, res)
			return c.SendStatus(fiber.StatusOK)
		})

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/test", nil))
		Expect(err).NotTo(HaveOccurred())
		return resp
	}

	It("sets the request ID and web context flag", func() {
		resp := serve(&pipeline.Result{ID: "req-1"})
		Expect(resp.Header.Get(RequestIDHeader)).To(Equal("req-1"))
		Expect(resp.Header.Get(WebContextHeader)).To(Equal("false"))
		Expect(resp.Header.Get(FactCategoryHeader)).To(BeEmpty())
	})

	It("names the fact category when a fact was fetched", func() {
		resp := serve(&pipeline.Result{
			ID:   "req-2",
			Fact: &search.Fact{Category: search.CategoryPrice, Text: "1"},
		})
		Expect(resp.Header.Get(WebContextHeader)).To(Equal("true"))
		Expect(resp.Header.Get(FactCategoryHeader)).To(Equal("PRICE"))
	})

	It("does nothing for a nil result", func() {
		resp := serve(nil)
		Expect(resp.Header.Get(RequestIDHeader)).To(BeEmpty())
	})
})
