package sanitize_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/pearl/pkg/sanitize"
)

var _ = Describe("Sanitizer", func() {
	var s *sanitize.Sanitizer

	BeforeEach(func() {
		s = sanitize.New(sanitize.WithPicker(sanitize.FirstPicker))
	})

	Describe("fallbacks", func() {
		It("answers empty output with a fallback", func() {
			Expect(s.Clean("")).To(Equal("I don't know."))
			Expect(s.Clean("  \n\t")).To(Equal("I don't know."))
		})

		It("answers output that is nothing but markers with a fallback", func() {
			Expect(s.Clean("### Answer:")).To(Equal("I don't know."))
			Expect(s.Clean("###\n⁂")).To(Equal("I don't know."))
		})

		It("only ever picks from the fixed set with the default picker", func() {
			r := sanitize.New()
			for range 20 {
				Expect(sanitize.Fallbacks()).To(ContainElement(r.Clean("")))
			}
		})
	})

	DescribeTable("Clean",
		func(raw, want string) {
			Expect(s.Clean(raw)).To(Equal(want))
		},
		Entry("keeps numeric facts byte-identical apart from the closing period",
			"84,531.40 United States Dollar", "84,531.40 United States Dollar."),
		Entry("keeps terminal punctuation",
			"Really?", "Really?"),
		Entry("strips wrapping quotes",
			`"Hello there"`, "Hello there."),
		Entry("keeps quotes that are not a single wrapping pair",
			`"He said "hi" to me"`, `"He said "hi" to me".`),
		Entry("truncates echoed instructions",
			"Sure, I can help.\nYour traits:\n- Direct", "Sure, I can help."),
		Entry("removes a leading role label",
			"Pearl: Paris is the capital", "Paris is the capital."),
		Entry("removes a leading section header",
			"### Answer: Paris", "Paris."),
		Entry("removes labels after line breaks without joining lines",
			"First line\nAssistant: second line", "First line\nsecond line."),
		Entry("removes a fake follow-up exchange and everything after it",
			"Paris is the capital.\nQuestion: What about Germany?\nAnswer: Berlin.\nAnything else?",
			"Paris is the capital."),
		Entry("removes an inline tagged fake exchange",
			"Paris. ### User: and Germany? ### Assistant: Berlin\nAnything else?",
			"Paris.\nAnything else?"),
		Entry("keeps a capitalised Question: inside a sentence",
			"That is the Big Question: is it worth it? I say yes.",
			"That is the Big Question: is it worth it? I say yes."),
		Entry("keeps a capitalised User: inside a sentence",
			"Log in with the default account. User: admin, password: admin. Then restart.",
			"Log in with the default account. User: admin, password: admin. Then restart."),
		Entry("removes a dangling fake follow-up",
			"Sure thing.\nUser: and what about you?", "Sure thing."),
		Entry("strips markdown emphasis",
			"**Bold** claim and *italic* word", "Bold claim and italic word."),
		Entry("strips headings",
			"## Summary\nIt works", "Summary\nIt works."),
		Entry("keeps lists together",
			"Here are options:\n\n- one\n\n- two\n\nDone",
			"Here are options:\n- one\n- two\n\nDone."),
		Entry("drops empty paragraphs",
			"one\n\n\n\n\ntwo", "one\n\ntwo."),
	)

	DescribeTable("is idempotent",
		func(raw string) {
			once := s.Clean(raw)
			Expect(s.Clean(once)).To(Equal(once))
		},
		Entry("plain", "hello world"),
		Entry("quoted", `"hello world"`),
		Entry("nested quote styles", `"“hello”"`),
		Entry("labels", "Answer: Pearl: hi\nAssistant: there"),
		Entry("heading hiding a label", "# Answer: 42"),
		Entry("self dialogue", "ok\nQuestion: a\nAnswer: b\nQuestion: c"),
		Entry("markdown", "**a** and __b__ and `c`"),
		Entry("lists", "Steps:\n\n1. one\n\n2. two"),
		Entry("leakage", "fine. Your traits: blah"),
		Entry("empty", ""),
	)
})
