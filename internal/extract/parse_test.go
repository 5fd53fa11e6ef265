package extract

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("parseFieldsJSON", func() {
	var (
		input  string
		fields *Fields
		err    error
	)

	JustBeforeEach(func() {
		fields, err = parseFieldsJSON(input)
	})

	When("parsing valid JSON", func() {
		BeforeEach(func() {
			input = `{"vendor": "ACME GmbH", "invoiceNumber": "INV-1", "invoiceDate": "2024-03-01", "totalAmount": "19.99"}`
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should parse all fields", func() {
			Expect(fields.Vendor).To(Equal("ACME GmbH"))
			Expect(fields.InvoiceNumber).To(Equal("INV-1"))
			Expect(fields.InvoiceDate).To(Equal("2024-03-01"))
			Expect(fields.TotalAmount).To(Equal("19.99"))
		})
	})

	When("the JSON is wrapped in markdown code blocks", func() {
		BeforeEach(func() {
			input = "```json\n{\"vendor\": \"ACME\", \"totalAmount\": \"10.50\"}\n```"
		})

		It("strips the fences and parses", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(fields.Vendor).To(Equal("ACME"))
		})
	})

	When("the JSON is surrounded by prose", func() {
		BeforeEach(func() {
			input = `Here is the extracted data: {"vendor": "ACME"} Let me know if you need more.`
		})

		It("cuts out the object", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(fields.Vendor).To(Equal("ACME"))
		})
	})

	When("the date uses a German rendering", func() {
		BeforeEach(func() {
			input = `{"vendor": "ACME", "invoiceDate": "01.03.2024"}`
		})

		It("normalizes it to ISO", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(fields.InvoiceDate).To(Equal("2024-03-01"))
		})
	})

	When("the date is unrecognizable", func() {
		BeforeEach(func() {
			input = `{"vendor": "ACME", "invoiceDate": "sometime in March"}`
		})

		It("leaves the date empty", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(fields.InvoiceDate).To(BeEmpty())
		})
	})

	When("the amount is a number", func() {
		BeforeEach(func() {
			input = `{"vendor": "ACME", "totalAmount": 42.75}`
		})

		It("coerces it into a string", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(fields.TotalAmount).To(Equal("42.75"))
		})
	})

	When("the amount is missing", func() {
		BeforeEach(func() {
			input = `{"vendor": "ACME"}`
		})

		It("defaults it to zero", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(fields.TotalAmount).To(Equal("0"))
		})
	})

	When("there is no JSON object at all", func() {
		BeforeEach(func() {
			input = "I could not read the receipt."
		})

		It("returns an error", func() {
			Expect(err).To(MatchError(ContainSubstring("no JSON object")))
		})
	})

	When("the object is malformed", func() {
		BeforeEach(func() {
			input = `{"vendor": }`
		})

		It("returns an error", func() {
			Expect(err).To(HaveOccurred())
		})
	})
})
