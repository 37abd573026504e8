package search_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/pearl/pkg/search"
)

type fakeSearcher struct {
	payload []byte
	err     error
	queries []string
	nums    []int
}

func (f *fakeSearcher) Search(_ context.Context, query string, num int) ([]byte, error) {
	f.queries = append(f.queries, query)
	f.nums = append(f.nums, num)
	return f.payload, f.err
}

var _ = Describe("Decider", func() {
	var (
		searcher *fakeSearcher
		decider  *search.Decider
		ctx      context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		searcher = &fakeSearcher{
			payload: []byte(`{"answerBox":{"title":"1 bitcoin =","answer":"67,123.45 United States Dollar"}}`),
		}
		decider = search.NewDecider(search.Config{Searcher: searcher})
	})

	Describe("ShouldSearch", func() {
		DescribeTable("trigger detection",
			func(query string, want string, triggered bool) {
				got, ok := decider.ShouldSearch(query)
				Expect(ok).To(Equal(triggered))
				Expect(got).To(Equal(want))
			},
			Entry("directive prefix is stripped", "search: rust 1.80 release notes", "rust 1.80 release notes", true),
			Entry("directive prefix is case-insensitive", "SEARCH:  who won", "who won", true),
			Entry("trigger term", "What's the bitcoin price?", "What's the bitcoin price?", true),
			Entry("trigger term is case-insensitive", "Any NEWS today", "Any NEWS today", true),
			Entry("plain chit-chat", "tell me a joke", "", false),
			Entry("plural trigger term", "latest stock prices", "latest stock prices", true),
			Entry("multi-word trigger term", "usd exchange rate today", "usd exchange rate today", true),
			Entry("term inside another word: neural", "explain neural networks", "", false),
			Entry("term inside another word: Europe", "tell me about Europe", "", false),
			Entry("term inside another word: costume", "what costume should I wear", "", false),
			Entry("term inside another word: newsletter", "write me a newsletter intro", "", false),
			Entry("term inside another word: amateur", "I'm an amateur painter", "", false),
		)

		It("honors custom trigger terms", func() {
			d := search.NewDecider(search.Config{TriggerTerms: []string{"Flight"}, Searcher: searcher})
			_, ok := d.ShouldSearch("flight status")
			Expect(ok).To(BeTrue())
			_, ok = d.ShouldSearch("bitcoin")
			Expect(ok).To(BeFalse())
		})
	})

	Describe("Decide", func() {
		It("does not call the searcher for untriggered queries", func() {
			_, ok := decider.Decide(ctx, "hello there")
			Expect(ok).To(BeFalse())
			Expect(searcher.queries).To(BeEmpty())
		})

		It("reduces a triggered lookup into a fact", func() {
			fact, ok := decider.Decide(ctx, "bitcoin price")
			Expect(ok).To(BeTrue())
			Expect(fact).To(Equal(search.Fact{
				Category: search.CategoryPrice,
				Text:     "67,123.45 United States Dollar",
			}))
			Expect(searcher.nums).To(Equal([]int{3}))
		})

		It("sends the stripped query", func() {
			_, _ = decider.Decide(ctx, "search: golang generics")
			Expect(searcher.queries).To(Equal([]string{"golang generics"}))
		})

		It("turns searcher failures into an error fact", func() {
			searcher.err = errors.New("connection refused")
			fact, ok := decider.Decide(ctx, "weather in Paris")
			Expect(ok).To(BeTrue())
			Expect(fact.Category).To(Equal(search.CategoryError))
			Expect(fact.Text).To(Equal(search.ErrorText))
		})

		It("turns unparseable payloads into an error fact", func() {
			searcher.payload = []byte("not json")
			fact, ok := decider.Decide(ctx, "weather in Paris")
			Expect(ok).To(BeTrue())
			Expect(fact.Category).To(Equal(search.CategoryError))
		})

		It("is disabled without a searcher", func() {
			d := search.NewDecider(search.Config{})
			Expect(d.Enabled()).To(BeFalse())
			_, ok := d.Decide(ctx, "bitcoin price")
			Expect(ok).To(BeFalse())
		})
	})
})
