package prompt_test

import (
	"context"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/pearl/pkg/prompt"
)

var _ = Describe("Persona", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	writePersona := func(name, body string) string {
		path := filepath.Join(dir, name)
		Expect(os.WriteFile(path, []byte(body), 0o600)).To(Succeed())
		return path
	}

	It("has a built-in default", func() {
		p := prompt.DefaultPersona()
		Expect(p.Name).To(Equal("Pearl"))
		Expect(p.Instructions).To(ContainSubstring("consciousness stuck in a computer"))
	})

	Describe("LoadPersona", func() {
		It("reads name and instructions", func() {
			path := writePersona("persona.toml", "name = \"Opal\"\ninstructions = \"\"\"\nBe kind.\n\"\"\"\n")
			p, err := prompt.LoadPersona(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(p).To(Equal(prompt.Persona{Name: "Opal", Instructions: "Be kind."}))
		})

		It("defaults the name", func() {
			path := writePersona("persona.toml", "instructions = \"Be kind.\"\n")
			p, err := prompt.LoadPersona(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Name).To(Equal(prompt.DefaultPersonaName))
		})

		It("rejects empty instructions", func() {
			path := writePersona("persona.toml", "name = \"Opal\"\n")
			_, err := prompt.LoadPersona(path)
			Expect(err).To(MatchError(prompt.ErrEmptyPersona))
		})

		It("rejects invalid TOML", func() {
			path := writePersona("persona.toml", "name = \n")
			_, err := prompt.LoadPersona(path)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Watcher", func() {
		It("reloads the persona when the file changes", func() {
			path := writePersona("persona.toml", "instructions = \"first\"\n")
			holder := prompt.NewPersonaHolder(prompt.DefaultPersona())

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			done := make(chan error, 1)
			go func() { done <- prompt.NewWatcher(path, holder, nil).Run(ctx) }()

			Eventually(func() string {
				writePersona("persona.toml", "instructions = \"second\"\n")
				return holder.Load().Instructions
			}, 5*time.Second, 100*time.Millisecond).Should(Equal("second"))

			cancel()
			Eventually(done).Should(Receive(BeNil()))
		})

		It("keeps the previous persona when the file is broken", func() {
			path := writePersona("persona.toml", "instructions = \"first\"\n")
			holder := prompt.NewPersonaHolder(prompt.Persona{Name: "Keep", Instructions: "keep me"})

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			go func() { _ = prompt.NewWatcher(path, holder, nil).Run(ctx) }()

			writePersona("persona.toml", "instructions = \n")
			Consistently(func() string {
				return holder.Load().Instructions
			}, 300*time.Millisecond, 50*time.Millisecond).Should(Equal("keep me"))
		})
	})
})
