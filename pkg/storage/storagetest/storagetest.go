// Package storagetest holds the shared ginkgo behaviors every
// storage.Driver must satisfy.
package storagetest

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/pearl/pkg/storage"
	testutils "github.com/papercomputeco/pearl/pkg/utils/test"
)

// DriverBehaves registers specs against the driver returned by newDriver.
// newDriver is called once per spec.
func DriverBehaves(newDriver func() storage.Driver) {
	var (
		driver storage.Driver
		ctx    context.Context
		base   time.Time
	)

	BeforeEach(func() {
		ctx = context.Background()
		base = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		driver = nil
		driver = newDriver()
	})

	AfterEach(func() {
		if driver != nil {
			Expect(driver.Close()).To(Succeed())
		}
	})

	Describe("Put", func() {
		It("inserts a new record", func() {
			inserted, err := driver.Put(ctx, testutils.NewTestRecord("hello", base))
			Expect(err).NotTo(HaveOccurred())
			Expect(inserted).To(BeTrue())
		})

		It("ignores a duplicate ID", func() {
			rec := testutils.NewTestRecord("hello", base)
			_, err := driver.Put(ctx, rec)
			Expect(err).NotTo(HaveOccurred())

			inserted, err := driver.Put(ctx, rec)
			Expect(err).NotTo(HaveOccurred())
			Expect(inserted).To(BeFalse())
		})

		It("rejects nil records", func() {
			_, err := driver.Put(ctx, nil)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Get", func() {
		It("round trips every field", func() {
			rec := testutils.NewTestRecord("price of bitcoin", base)
			rec.FactCategory = "PRICE"
			rec.HasWebContext = true
			_, err := driver.Put(ctx, rec)
			Expect(err).NotTo(HaveOccurred())

			got, err := driver.Get(ctx, rec.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.ID).To(Equal(rec.ID))
			Expect(got.Prompt).To(Equal(rec.Prompt))
			Expect(got.Response).To(Equal(rec.Response))
			Expect(got.Model).To(Equal(rec.Model))
			Expect(got.FactCategory).To(Equal("PRICE"))
			Expect(got.HasWebContext).To(BeTrue())
			Expect(got.ContextLength).To(Equal(rec.ContextLength))
			Expect(got.DurationMs).To(Equal(rec.DurationMs))
			Expect(got.StartedAt.Equal(rec.StartedAt)).To(BeTrue())
		})

		It("returns ErrNotFound for unknown IDs", func() {
			_, err := driver.Get(ctx, "missing")
			Expect(err).To(MatchError(storage.ErrNotFound{ID: "missing"}))
		})
	})

	Describe("List", func() {
		BeforeEach(func() {
			for i, prompt := range []string{"first", "second", "third"} {
				_, err := driver.Put(ctx, testutils.NewTestRecord(prompt, base.Add(time.Duration(i)*time.Minute)))
				Expect(err).NotTo(HaveOccurred())
			}
		})

		It("returns records newest first", func() {
			recs, err := driver.List(ctx, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(recs).To(HaveLen(3))
			Expect(recs[0].Prompt).To(Equal("third"))
			Expect(recs[2].Prompt).To(Equal("first"))
		})

		It("honors the limit", func() {
			recs, err := driver.List(ctx, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(recs).To(HaveLen(2))
			Expect(recs[0].Prompt).To(Equal("third"))
		})
	})
}
