package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/pearl/pkg/conversation"
	"github.com/papercomputeco/pearl/pkg/llm"
	"github.com/papercomputeco/pearl/pkg/llm/provider/ollama"
	"github.com/papercomputeco/pearl/pkg/pipeline"
	"github.com/papercomputeco/pearl/pkg/prompt"
	"github.com/papercomputeco/pearl/pkg/sanitize"
	"github.com/papercomputeco/pearl/pkg/search"
)

// fakeGenerator records requests and replies with reply(prompt) or err.
type fakeGenerator struct {
	mu       sync.Mutex
	requests []llm.GenerationRequest
	reply    func(req llm.GenerationRequest) string
	err      error
}

func (f *fakeGenerator) Name() string { return "fake" }

func (f *fakeGenerator) Generate(_ context.Context, req llm.GenerationRequest) (*llm.GenerationResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &llm.GenerationResponse{Model: req.Model, Text: f.reply(req), Done: true}, nil
}

func (f *fakeGenerator) last() llm.GenerationRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

type fakeSearcher struct {
	payload []byte
	err     error
}

func (f *fakeSearcher) Search(context.Context, string, int) ([]byte, error) {
	return f.payload, f.err
}

// questionOf extracts the query section of an assembled prompt.
func questionOf(p string) string {
	_, after, _ := strings.Cut(p, prompt.QuestionTag+"\n")
	q, _, _ := strings.Cut(after, "\n\n"+prompt.AnswerTag)
	return q
}

var _ = Describe("Pipeline", func() {
	var (
		ctx       context.Context
		generator *fakeGenerator
		searcher  *fakeSearcher
		store     *conversation.Store
		p         *pipeline.Pipeline
	)

	build := func(capacity int) {
		store = conversation.NewStore(conversation.Config{Capacity: capacity})

		var err error
		p, err = pipeline.New(pipeline.Config{
			Decider:   search.NewDecider(search.Config{Searcher: searcher}),
			Store:     store,
			Assembler: prompt.NewAssembler("dolphin-mistral", llm.GenerationParams{Temperature: 0.7}),
			Persona:   prompt.NewPersonaHolder(prompt.Persona{Name: "Test", Instructions: "Be brief."}),
			Generator: generator,
			Sanitizer: sanitize.New(sanitize.WithPicker(sanitize.FirstPicker)),
		})
		Expect(err).NotTo(HaveOccurred())
	}

	BeforeEach(func() {
		ctx = context.Background()
		generator = &fakeGenerator{
			reply: func(req llm.GenerationRequest) string {
				return "echo " + questionOf(req.Prompt)
			},
		}
		searcher = &fakeSearcher{payload: []byte(`{}`)}
		build(10)
	})

	It("requires its collaborators", func() {
		_, err := pipeline.New(pipeline.Config{})
		Expect(err).To(HaveOccurred())
	})

	Describe("a successful request", func() {
		It("passes through every state in order", func() {
			res, err := p.Handle(ctx, "tell me a joke")
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Trace).To(Equal(pipeline.SuccessTrace()))
			Expect(res.Response).To(Equal("echo tell me a joke."))
			Expect(res.Model).To(Equal("dolphin-mistral"))
			Expect(res.ID).NotTo(BeEmpty())
		})

		It("stores the exchange after sanitizing", func() {
			res, err := p.Handle(ctx, "tell me a joke")
			Expect(err).NotTo(HaveOccurred())
			Expect(store.Turns()).To(Equal([]llm.Turn{
				llm.NewUserTurn("tell me a joke"),
				llm.NewAssistantTurn("echo tell me a joke."),
			}))
			Expect(res.ContextLength).To(Equal(2))
		})

		It("skips search for queries without triggers", func() {
			res, err := p.Handle(ctx, "tell me a joke")
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Fact).To(BeNil())
			Expect(res.HasWebContext()).To(BeFalse())
			Expect(generator.last().Prompt).NotTo(ContainSubstring(prompt.SearchTag))
		})
	})

	Describe("end to end bitcoin price", func() {
		BeforeEach(func() {
			searcher.payload = []byte(`{"answerBox":{"title":"1 Bitcoin =","answer":"84,531.40 United States Dollar"}}`)
			generator.reply = func(req llm.GenerationRequest) string {
				_, after, _ := strings.Cut(req.Prompt, prompt.SearchTag+"\n")
				fact, _, _ := strings.Cut(after, "\n")
				return fact
			}
		})

		It("returns the price fact byte-identical", func() {
			res, err := p.Handle(ctx, "price of bitcoin")
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Fact).To(Equal(&search.Fact{
				Category: search.CategoryPrice,
				Text:     "84,531.40 United States Dollar",
			}))
			Expect(res.HasWebContext()).To(BeTrue())
			Expect(res.Response).To(ContainSubstring("84,531.40 United States Dollar"))
			Expect(res.Response).To(Equal("84,531.40 United States Dollar."))
		})
	})

	Describe("search failures", func() {
		It("still answers, with an error fact in the prompt", func() {
			searcher.err = errors.New("dial tcp: connection refused")
			res, err := p.Handle(ctx, "weather in Oslo")
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Fact.Category).To(Equal(search.CategoryError))
			Expect(res.HasWebContext()).To(BeFalse())
			Expect(generator.last().Prompt).To(ContainSubstring(search.ErrorText))
		})
	})

	Describe("conversation context", func() {
		BeforeEach(func() {
			_, err := p.Handle(ctx, "my name is Ada")
			Expect(err).NotTo(HaveOccurred())
		})

		It("is injected for referential queries", func() {
			_, err := p.Handle(ctx, "what did I say earlier?")
			Expect(err).NotTo(HaveOccurred())
			Expect(generator.last().Prompt).To(ContainSubstring(prompt.ContextTag + "\nUser: my name is Ada\n⁂\nAssistant: echo my name is Ada."))
		})

		It("is omitted otherwise", func() {
			_, err := p.Handle(ctx, "what is the capital of France")
			Expect(err).NotTo(HaveOccurred())
			Expect(generator.last().Prompt).NotTo(ContainSubstring(prompt.ContextTag))
		})
	})

	Describe("failures", func() {
		It("rejects an empty prompt without touching the store", func() {
			res, err := p.Handle(ctx, "   ")

			var validation *pipeline.ValidationError
			Expect(errors.As(err, &validation)).To(BeTrue())
			Expect(validation.Error()).To(Equal("No prompt provided"))
			Expect(res.Trace).To(Equal([]pipeline.State{pipeline.StateReceived, pipeline.StateFailed}))
			Expect(store.Len()).To(BeZero())
		})

		It("maps transport failures to an upstream error and leaves the store unchanged", func() {
			_, err := p.Handle(ctx, "hello")
			Expect(err).NotTo(HaveOccurred())
			before := store.Turns()

			generator.err = &ollama.TransportError{Err: errors.New("connection refused")}
			res, err := p.Handle(ctx, "hello again")

			var upstream *pipeline.UpstreamError
			Expect(errors.As(err, &upstream)).To(BeTrue())
			var transport *ollama.TransportError
			Expect(errors.As(err, &transport)).To(BeTrue())

			Expect(res.Trace).To(Equal([]pipeline.State{
				pipeline.StateReceived,
				pipeline.StateSearched,
				pipeline.StateContextBuilt,
				pipeline.StatePromptBuilt,
				pipeline.StateFailed,
			}))
			Expect(store.Turns()).To(Equal(before))
		})

		It("maps any other generation failure to an internal error", func() {
			generator.err = errors.New("decode ollama response: unexpected EOF")
			_, err := p.Handle(ctx, "hello")

			var internal *pipeline.InternalError
			Expect(errors.As(err, &internal)).To(BeTrue())
			Expect(store.Len()).To(BeZero())
		})
	})

	Describe("window bounds", func() {
		It("never exceeds capacity across many requests", func() {
			build(3)
			for i := range 10 {
				_, err := p.Handle(ctx, fmt.Sprintf("question %d", i))
				Expect(err).NotTo(HaveOccurred())
				Expect(store.Len()).To(BeNumerically("<=", 3))
			}
			Expect(store.Turns()[0].Content).To(HavePrefix("Summary: "))
		})
	})

	Describe("concurrent requests", func() {
		It("never interleaves turns from different requests", func() {
			build(100)

			var wg sync.WaitGroup
			for i := range 10 {
				wg.Add(1)
				go func() {
					defer GinkgoRecover()
					defer wg.Done()
					_, err := p.Handle(ctx, fmt.Sprintf("question %d", i))
					Expect(err).NotTo(HaveOccurred())
				}()
			}
			wg.Wait()

			turns := store.Turns()
			Expect(turns).To(HaveLen(20))
			for i := 0; i < len(turns); i += 2 {
				Expect(turns[i].Role).To(Equal(llm.RoleUser))
				Expect(turns[i+1]).To(Equal(llm.NewAssistantTurn("echo " + turns[i].Content + ".")))
			}
		})
	})
})
