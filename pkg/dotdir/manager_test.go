package dotdir_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/pearl/pkg/dotdir"
)

var _ = Describe("dotdir", func() {
	var tmpDir string
	var m *dotdir.Manager

	// chdir moves into dir for the rest of the test.
	chdir := func(dir string) {
		origDir, err := os.Getwd()
		Expect(err).NotTo(HaveOccurred())
		Expect(os.Chdir(dir)).To(Succeed())
		DeferCleanup(func() { _ = os.Chdir(origDir) })
	}

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "dotdir-test-*")
		Expect(err).NotTo(HaveOccurred())

		// Resolve symlinks so paths match filepath.Abs results
		// (e.g. on macOS /var -> /private/var).
		tmpDir, err = filepath.EvalSymlinks(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		m = dotdir.NewManager()
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	Describe("Target", func() {
		It("creates the override directory if it doesn't exist", func() {
			dir := filepath.Join(tmpDir, "newdir")
			result, err := m.Target(dir)
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(dir))

			info, err := os.Stat(dir)
			Expect(err).NotTo(HaveOccurred())
			Expect(info.IsDir()).To(BeTrue())
		})

		It("returns the override dir even when a local .pearl dir exists", func() {
			Expect(os.Mkdir(filepath.Join(tmpDir, ".pearl"), 0o755)).To(Succeed())
			chdir(tmpDir)

			overrideDir := filepath.Join(tmpDir, "override")
			result, err := m.Target(overrideDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(overrideDir))
		})

		It("returns the local .pearl dir when it exists and no override is provided", func() {
			local := filepath.Join(tmpDir, ".pearl")
			Expect(os.Mkdir(local, 0o755)).To(Succeed())
			chdir(tmpDir)

			result, err := m.Target("")
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(local))
		})

		It("falls back to creating ~/.pearl", func() {
			emptyDir := filepath.Join(tmpDir, "empty")
			Expect(os.Mkdir(emptyDir, 0o755)).To(Succeed())
			chdir(emptyDir)

			home := filepath.Join(tmpDir, "home")
			GinkgoT().Setenv("HOME", home)

			result, err := m.Target("")
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(filepath.Join(home, ".pearl")))
			Expect(filepath.Join(home, ".pearl")).To(BeADirectory())
		})
	})

	Describe("InitLocal", func() {
		It("creates ./.pearl once", func() {
			chdir(tmpDir)

			dir, created, err := m.InitLocal()
			Expect(err).NotTo(HaveOccurred())
			Expect(created).To(BeTrue())
			Expect(dir).To(Equal(filepath.Join(tmpDir, ".pearl")))
			Expect(dir).To(BeADirectory())

			_, created, err = m.InitLocal()
			Expect(err).NotTo(HaveOccurred())
			Expect(created).To(BeFalse())
		})
	})

	Describe("PersonaPath", func() {
		It("returns empty when no persona file exists", func() {
			path, err := m.PersonaPath(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(path).To(BeEmpty())
		})

		It("returns the persona file when present", func() {
			want := filepath.Join(tmpDir, dotdir.PersonaFile)
			Expect(os.WriteFile(want, []byte(`instructions = "be brief"`), 0o600)).To(Succeed())

			path, err := m.PersonaPath(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(path).To(Equal(want))
		})

		It("rejects a directory in place of the file", func() {
			Expect(os.Mkdir(filepath.Join(tmpDir, dotdir.PersonaFile), 0o755)).To(Succeed())

			_, err := m.PersonaPath(tmpDir)
			Expect(err).To(MatchError(ContainSubstring("is a directory")))
		})
	})
})
