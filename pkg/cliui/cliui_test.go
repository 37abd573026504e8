package cliui_test

import (
	"bytes"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/pearl/pkg/cliui"
)

var _ = Describe("cliui", func() {
	Describe("Mark", func() {
		It("picks the mark from the error", func() {
			Expect(cliui.Mark(nil)).To(Equal(cliui.SuccessMark))
			Expect(cliui.Mark(errors.New("boom"))).To(Equal(cliui.FailMark))
		})
	})

	Describe("FormatDuration", func() {
		It("uses milliseconds under a second", func() {
			Expect(cliui.FormatDuration(42 * time.Millisecond)).To(Equal("42ms"))
		})

		It("uses seconds above", func() {
			Expect(cliui.FormatDuration(3200 * time.Millisecond)).To(Equal("3.2s"))
		})
	})

	Describe("Step", func() {
		It("returns the function's error and prints the message", func() {
			var buf bytes.Buffer
			boom := errors.New("boom")

			err := cliui.Step(&buf, "thinking", func() error { return boom })
			Expect(err).To(MatchError(boom))
			Expect(buf.String()).To(ContainSubstring("thinking"))
		})
	})

	Describe("RenderMarkdown", func() {
		It("keeps the text", func() {
			out, err := cliui.RenderMarkdown("Bitcoin is **expensive**.")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("expensive"))
		})
	})
})
