package extraction

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
)

var _ = Describe("ExtractTotal", func() {
	var (
		text  string
		total string
	)

	JustBeforeEach(func() {
		total = ExtractTotal(text)
	})

	When("the text has a total achats label", func() {
		BeforeEach(func() {
			text = "TOTAL achats 14.699 TND"
		})

		It("should return the labelled amount", func() {
			Expect(total).To(Equal("14.699 TND"))
		})
	})

	When("the text has several totals", func() {
		BeforeEach(func() {
			text = "sub total 9.500\ntotal achats 25.000 TND"
		})

		It("should pick the largest", func() {
			Expect(total).To(Equal("25.000 TND"))
		})
	})

	When("the text has a montant à payer label", func() {
		BeforeEach(func() {
			text = "Montant à payer : 42,500 EUR"
		})

		It("should use the comma as a decimal point and keep the currency", func() {
			Expect(total).To(Equal("42.500 EUR"))
		})
	})

	When("the text has a garbled total label", func() {
		BeforeEach(func() {
			text = "t 0 t a l 18,250 USD"
		})

		It("should still find the amount", func() {
			Expect(total).To(Equal("18.250 USD"))
		})
	})

	When("the total has no currency", func() {
		BeforeEach(func() {
			text = "Total 5"
		})

		It("should default to TND", func() {
			Expect(total).To(Equal("5.000 TND"))
		})
	})

	When("the amount has thousands and decimal separators", func() {
		BeforeEach(func() {
			text = "1.234.567 USD"
		})

		It("should drop the thousands separator", func() {
			Expect(total).To(Equal("1234.567 TND"))
		})
	})

	When("the amount has more than three decimals", func() {
		BeforeEach(func() {
			text = "total 12.3456"
		})

		It("should round to three decimals", func() {
			Expect(total).To(Equal("12.346 TND"))
		})
	})

	When("every labelled amount is at most 1", func() {
		BeforeEach(func() {
			text = "total 0.5"
		})

		It("should fall back to the largest number", func() {
			Expect(total).To(Equal("0.500 TND"))
		})
	})

	When("only unlabelled numbers are present", func() {
		BeforeEach(func() {
			text = "ticket 42 EUR"
		})

		It("should fall back to the largest number with the detected currency", func() {
			Expect(total).To(Equal("42.000 EUR"))
		})
	})

	When("the text has no digits", func() {
		BeforeEach(func() {
			text = "no digits here, only TOTAL and TND"
		})

		It("should report not found", func() {
			Expect(total).To(Equal(NotFound))
		})
	})

	When("a fallback number cannot be converted", func() {
		BeforeEach(func() {
			text = "ref 12\n3"
		})

		It("should report an error", func() {
			Expect(total).To(Equal(Failed))
		})
	})

	It("should always format three decimals", func() {
		for _, in := range []string{"Total 7", "Total 7.5", "Total 7.25", "Total 7.125", "Total 7.0625"} {
			out := ExtractTotal(in)
			value := strings.Fields(out)[0]
			Expect(value[strings.Index(value, ".")+1:]).To(HaveLen(3), in)
		}
	})
})

var _ = Describe("ExtractCurrency", func() {
	DescribeTable("detecting the currency",
		func(text, expected string) {
			Expect(ExtractCurrency(text)).To(Equal(expected))
		},
		Entry("TND", "TOTAL achats 14.699 TND", "TND"),
		Entry("lower case", "total 3 usd", "USD"),
		Entry("first one wins", "12 EUR or 40 USD", "EUR"),
		Entry("default", "total 12", "TND"),
	)
})

var _ = Describe("cleanAmount", func() {
	DescribeTable("repairing separators",
		func(in, expected string) {
			Expect(cleanAmount(in)).To(Equal(expected))
		},
		Entry("spaces", "1 234", "1234"),
		Entry("comma decimal", "12,500", "12.500"),
		Entry("thousands with two decimals", "1.234.56", "1234.56"),
		Entry("thousands with three decimals", "1.234.567", "1234.567"),
		Entry("ambiguous trailing group", "1.2.3456", "1.2.3456"),
	)

	It("should leave an amount that cannot be parsed unparsed", func() {
		_, err := parseAmount(cleanAmount("1.2.3456"))
		Expect(err).To(HaveOccurred())
	})

	It("should parse a cleaned amount", func() {
		value, err := parseAmount(cleanAmount("1.234,50 "))
		Expect(err).NotTo(HaveOccurred())
		Expect(value.Equal(decimal.RequireFromString("1234.5"))).To(BeTrue())
	})
})
