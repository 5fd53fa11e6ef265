package entry

import (
	ginkgo "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = ginkgo.Describe("ValidateWebhookURL", func() {
	ginkgo.It("accepts an https URL", func() {
		Expect(ValidateWebhookURL("https://x.com/hook")).To(BeTrue())
	})

	ginkgo.It("accepts an http URL", func() {
		Expect(ValidateWebhookURL("http://localhost:5678/webhook/receipts")).To(BeTrue())
	})

	ginkgo.It("rejects an empty string", func() {
		Expect(ValidateWebhookURL("")).To(BeFalse())
	})

	ginkgo.It("rejects other schemes", func() {
		Expect(ValidateWebhookURL("ftp://x")).To(BeFalse())
		Expect(ValidateWebhookURL("file:///etc/passwd")).To(BeFalse())
	})

	ginkgo.It("rejects relative URLs", func() {
		Expect(ValidateWebhookURL("/hook")).To(BeFalse())
		Expect(ValidateWebhookURL("x.com/hook")).To(BeFalse())
	})

	ginkgo.It("rejects a scheme without a host", func() {
		Expect(ValidateWebhookURL("https://")).To(BeFalse())
	})
})

var _ = ginkgo.Describe("ValidateTheme", func() {
	ginkgo.It("accepts the known themes", func() {
		Expect(ValidateTheme(ThemeDark)).To(BeTrue())
		Expect(ValidateTheme(ThemeLight)).To(BeTrue())
	})

	ginkgo.It("rejects anything else", func() {
		Expect(ValidateTheme("")).To(BeFalse())
		Expect(ValidateTheme("solarized")).To(BeFalse())
	})
})
