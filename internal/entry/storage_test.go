package entry

import (
	"path/filepath"

	ginkgo "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = ginkgo.Describe("LocalStorage", func() {
	var (
		tmpDir  string
		storage Storage
	)

	ginkgo.BeforeEach(func() {
		tmpDir = ginkgo.GinkgoT().TempDir()
		var err error
		storage, err = NewLocalStorage(tmpDir)
		Expect(err).NotTo(HaveOccurred())
	})

	ginkgo.It("round-trips a file", func() {
		saved, err := storage.Save("test.jpg", []byte("content"))
		Expect(err).NotTo(HaveOccurred())
		Expect(saved).To(Equal("test.jpg"))

		data, err := storage.Get("test.jpg")
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal("content"))
	})

	ginkgo.It("deletes a file", func() {
		_, err := storage.Save("test.jpg", []byte("content"))
		Expect(err).NotTo(HaveOccurred())

		Expect(storage.Delete("test.jpg")).To(Succeed())
		Expect(filepath.Join(tmpDir, "test.jpg")).NotTo(BeAnExistingFile())
	})

	ginkgo.It("errors when getting a missing file", func() {
		_, err := storage.Get("nonexistent.jpg")
		Expect(err).To(MatchError(ContainSubstring("reading file")))
	})

	ginkgo.It("creates the base directory if needed", func() {
		nested := filepath.Join(ginkgo.GinkgoT().TempDir(), "previews")
		_, err := NewLocalStorage(nested)
		Expect(err).NotTo(HaveOccurred())
		Expect(nested).To(BeADirectory())
	})
})

var _ = ginkgo.Describe("Preview", func() {
	var (
		tmpDir  string
		preview *Preview
	)

	ginkgo.BeforeEach(func() {
		tmpDir = ginkgo.GinkgoT().TempDir()
		storage, err := NewLocalStorage(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		preview = NewPreview(storage)
	})

	ginkgo.When("no preview is held", func() {
		ginkgo.It("Current returns an empty path", func() {
			path, data, err := preview.Current()
			Expect(err).NotTo(HaveOccurred())
			Expect(path).To(BeEmpty())
			Expect(data).To(BeNil())
		})

		ginkgo.It("Release is a no-op", func() {
			Expect(preview.Release()).To(Succeed())
		})
	})

	ginkgo.Describe("Replace", func() {
		ginkgo.It("stores the new preview", func() {
			_, err := preview.Replace("one.jpg", []byte("first"))
			Expect(err).NotTo(HaveOccurred())

			path, data, err := preview.Current()
			Expect(err).NotTo(HaveOccurred())
			Expect(path).To(Equal("one.jpg"))
			Expect(string(data)).To(Equal("first"))
		})

		ginkgo.It("deletes the superseded file", func() {
			_, err := preview.Replace("one.jpg", []byte("first"))
			Expect(err).NotTo(HaveOccurred())
			_, err = preview.Replace("two.jpg", []byte("second"))
			Expect(err).NotTo(HaveOccurred())

			Expect(filepath.Join(tmpDir, "one.jpg")).NotTo(BeAnExistingFile())
			Expect(filepath.Join(tmpDir, "two.jpg")).To(BeAnExistingFile())
		})
	})

	ginkgo.Describe("Release", func() {
		ginkgo.It("deletes the held file exactly once", func() {
			_, err := preview.Replace("one.jpg", []byte("first"))
			Expect(err).NotTo(HaveOccurred())

			Expect(preview.Release()).To(Succeed())
			Expect(filepath.Join(tmpDir, "one.jpg")).NotTo(BeAnExistingFile())

			// A second release has nothing left to delete.
			Expect(preview.Release()).To(Succeed())
		})
	})
})
