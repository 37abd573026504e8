package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/papercomputeco/pearl/pkg/conversation"
	"github.com/papercomputeco/pearl/pkg/llm"
	"github.com/papercomputeco/pearl/pkg/metrics"
	"github.com/papercomputeco/pearl/pkg/pipeline"
	"github.com/papercomputeco/pearl/pkg/prompt"
	"github.com/papercomputeco/pearl/pkg/search"
	"github.com/papercomputeco/pearl/pkg/storage/inmemory"
	testutils "github.com/papercomputeco/pearl/pkg/utils/test"
)

var _ = Describe("Server", func() {
	var (
		ctx    context.Context
		server *Server
		store  *conversation.Store
		driver *inmemory.Driver
		m      *metrics.Metrics
	)

	do := func(method, target string) (*http.Response, []byte) {
		req := httptest.NewRequest(method, target, nil)
		resp, err := server.app.Test(req, int((5 * time.Second).Milliseconds()))
		ExpectWithOffset(1, err).NotTo(HaveOccurred())

		body, err := io.ReadAll(resp.Body)
		ExpectWithOffset(1, err).NotTo(HaveOccurred())
		return resp, body
	}

	BeforeEach(func() {
		ctx = context.Background()
		logger, _ := zap.NewDevelopment()
		m = metrics.New()
		store = conversation.NewStore(conversation.Config{Capacity: 6, Metrics: m})
		driver = inmemory.NewDriver()

		pipe, err := pipeline.New(pipeline.Config{
			Decider:   search.NewDecider(search.Config{}),
			Store:     store,
			Assembler: prompt.NewAssembler("dolphin-mistral", llm.GenerationParams{}),
			Generator: testutils.NewMockGenerator("sure"),
			Metrics:   m,
		})
		Expect(err).NotTo(HaveOccurred())

		server, err = NewServer(Config{ListenAddr: ":0"}, pipe, driver, m, logger)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("NewServer", func() {
		It("requires a pipeline", func() {
			_, err := NewServer(Config{}, nil, driver, m, zap.NewNop())
			Expect(err).To(MatchError(ContainSubstring("pipeline is required")))
		})

		It("requires a storage driver", func() {
			_, err := NewServer(Config{}, &pipeline.Pipeline{}, nil, m, zap.NewNop())
			Expect(err).To(MatchError(ContainSubstring("storage driver is required")))
		})
	})

	Describe("GET /ping", func() {
		It("returns pong", func() {
			resp, body := do(http.MethodGet, "/ping")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(string(body)).To(Equal(`"pong"`))
		})
	})

	Describe("/conversation", func() {
		BeforeEach(func() {
			store.Append(ctx, llm.NewUserTurn("hello"))
			store.Append(ctx, llm.NewAssistantTurn("what do you want"))
		})

		It("returns the current window", func() {
			resp, body := do(http.MethodGet, "/conversation")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var got ConversationResponse
			Expect(json.Unmarshal(body, &got)).To(Succeed())
			Expect(got.Capacity).To(Equal(6))
			Expect(got.Length).To(Equal(2))
			Expect(got.Turns).To(Equal([]llm.Turn{
				llm.NewUserTurn("hello"),
				llm.NewAssistantTurn("what do you want"),
			}))
		})

		It("clears the window on DELETE", func() {
			resp, body := do(http.MethodDelete, "/conversation")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(string(body)).To(MatchJSON(`{"cleared": 2}`))
			Expect(store.Len()).To(Equal(0))

			_, body = do(http.MethodGet, "/conversation")
			var got ConversationResponse
			Expect(json.Unmarshal(body, &got)).To(Succeed())
			Expect(got.Length).To(Equal(0))
			Expect(got.Turns).To(BeEmpty())
		})
	})

	Describe("/transcript", func() {
		var ids []string

		BeforeEach(func() {
			ids = nil
			base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
			for i, p := range []string{"first", "second", "third"} {
				rec := testutils.NewTestRecord(p, base.Add(time.Duration(i)*time.Minute))
				_, err := driver.Put(ctx, rec)
				Expect(err).NotTo(HaveOccurred())
				ids = append(ids, rec.ID)
			}
		})

		It("lists records newest first", func() {
			resp, body := do(http.MethodGet, "/transcript")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var got TranscriptResponse
			Expect(json.Unmarshal(body, &got)).To(Succeed())
			Expect(got.Count).To(Equal(3))
			Expect(got.Records[0].Prompt).To(Equal("third"))
			Expect(got.Records[2].Prompt).To(Equal("first"))
		})

		It("honors the limit query parameter", func() {
			_, body := do(http.MethodGet, "/transcript?limit=2")

			var got TranscriptResponse
			Expect(json.Unmarshal(body, &got)).To(Succeed())
			Expect(got.Count).To(Equal(2))
			Expect(got.Records[0].Prompt).To(Equal("third"))
			Expect(got.Records[1].Prompt).To(Equal("second"))
		})

		It("rejects a negative limit", func() {
			resp, _ := do(http.MethodGet, "/transcript?limit=-1")
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("gets a single record", func() {
			resp, body := do(http.MethodGet, "/transcript/"+ids[1])
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(string(body)).To(ContainSubstring(`"prompt":"second"`))
		})

		It("returns 404 for unknown records", func() {
			resp, body := do(http.MethodGet, "/transcript/missing")
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
			Expect(string(body)).To(ContainSubstring("record not found"))
		})
	})

	Describe("GET /metrics", func() {
		It("serves the prometheus registry", func() {
			m.ObserveSearchFact("ANSWER_BOX")

			resp, body := do(http.MethodGet, "/metrics")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(string(body)).To(ContainSubstring("search_facts_total"))
		})
	})

	Describe("/mcp", func() {
		It("is mounted", func() {
			req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}`))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Accept", "application/json, text/event-stream")

			resp, err := server.app.Test(req, int((5 * time.Second).Milliseconds()))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).NotTo(Equal(http.StatusNotFound))
		})
	})
})
