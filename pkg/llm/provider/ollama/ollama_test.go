package ollama_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/pearl/pkg/llm"
	"github.com/papercomputeco/pearl/pkg/llm/provider/ollama"
)

var _ = Describe("Ollama Client", func() {
	var (
		server   *httptest.Server
		received map[string]any
		handler  http.HandlerFunc
		ctx      context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		received = nil
		handler = func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(body, &received)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"model": "dolphin-mistral",
				"response": "hello there",
				"done": true,
				"context": [1, 2, 3],
				"prompt_eval_count": 10,
				"eval_count": 4
			}`))
		}
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handler(w, r)
		}))
	})

	AfterEach(func() {
		server.Close()
	})

	request := func() llm.GenerationRequest {
		return llm.GenerationRequest{
			Model:  "dolphin-mistral",
			Prompt: "say hi",
			Params: llm.GenerationParams{
				Temperature:   0.7,
				TopP:          0.9,
				TopK:          40,
				RepeatPenalty: 1.1,
				MaxTokens:     200,
			},
			Stop: []string{"###", "User:"},
		}
	}

	It("returns 'ollama' as its name", func() {
		Expect(ollama.New(server.URL, time.Second).Name()).To(Equal("ollama"))
	})

	It("posts a non-streaming generate request", func() {
		c := ollama.New(server.URL, time.Second)
		_, err := c.Generate(ctx, request())
		Expect(err).NotTo(HaveOccurred())

		Expect(received["model"]).To(Equal("dolphin-mistral"))
		Expect(received["prompt"]).To(Equal("say hi"))
		Expect(received["stream"]).To(BeFalse())

		opts, ok := received["options"].(map[string]any)
		Expect(ok).To(BeTrue())
		Expect(opts["temperature"]).To(BeNumerically("~", 0.7, 0.001))
		Expect(opts["top_p"]).To(BeNumerically("~", 0.9, 0.001))
		Expect(opts["top_k"]).To(BeNumerically("==", 40))
		Expect(opts["num_predict"]).To(BeNumerically("==", 200))
		Expect(opts["repeat_penalty"]).To(BeNumerically("~", 1.1, 0.001))
		Expect(opts["stop"]).To(ConsistOf("###", "User:"))
		Expect(received).NotTo(HaveKey("context"))
	})

	It("round-trips the continuation context verbatim", func() {
		c := ollama.New(server.URL, time.Second)
		req := request()
		req.Context = []int{7, 8, 9}

		resp, err := c.Generate(ctx, req)
		Expect(err).NotTo(HaveOccurred())
		Expect(received["context"]).To(HaveLen(3))
		Expect(resp.Context).To(Equal([]int{1, 2, 3}))
	})

	It("maps the response text and usage", func() {
		c := ollama.New(server.URL, time.Second)
		resp, err := c.Generate(ctx, request())
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.Text).To(Equal("hello there"))
		Expect(resp.Model).To(Equal("dolphin-mistral"))
		Expect(resp.Done).To(BeTrue())
		Expect(resp.Usage).NotTo(BeNil())
		Expect(resp.Usage.TotalTokens).To(Equal(14))
	})

	It("returns a TransportError for non-2xx statuses", func() {
		handler = func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte("model not loaded"))
		}

		c := ollama.New(server.URL, time.Second)
		_, err := c.Generate(ctx, request())
		Expect(err).To(HaveOccurred())

		var terr *ollama.TransportError
		Expect(errors.As(err, &terr)).To(BeTrue())
		Expect(terr.StatusCode).To(Equal(http.StatusInternalServerError))
		Expect(err.Error()).To(ContainSubstring("model not loaded"))
	})

	It("returns a TransportError when the backend is unreachable", func() {
		url := server.URL
		server.Close()

		c := ollama.New(url, time.Second)
		_, err := c.Generate(ctx, request())

		var terr *ollama.TransportError
		Expect(errors.As(err, &terr)).To(BeTrue())
		Expect(terr.StatusCode).To(BeZero())
	})

	It("returns a plain error for undecodable bodies", func() {
		handler = func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("not json"))
		}

		c := ollama.New(server.URL, time.Second)
		_, err := c.Generate(ctx, request())
		Expect(err).To(HaveOccurred())

		var terr *ollama.TransportError
		Expect(errors.As(err, &terr)).To(BeFalse())
	})
})
