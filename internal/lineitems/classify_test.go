package lineitems

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func lineOf(texts ...string) Line {
	tokens := make([]Token, len(texts))
	for i, t := range texts {
		tokens[i] = Token{Text: t, X: float64(i) * 10, Y: 100, Confidence: 0.9}
	}
	return Line{Tokens: tokens, Y: 100}
}

var _ = Describe("Classify", func() {
	DescribeTable("labels lines",
		func(texts []string, expected Class) {
			Expect(Classify(lineOf(texts...), DefaultOptions())).To(Equal(expected))
		},
		Entry("item line", []string{"MILK", "2.50"}, CandidateLine),
		Entry("tax line", []string{"SALES", "TAX", "1.20"}, SkipLine),
		Entry("subtotal line", []string{"SUBTOTAL", "12.00"}, SkipLine),
		Entry("keyword spanning tokens", []string{"THANK", "YOU"}, SkipLine),
		Entry("keyword inside a word", []string{"VISAGE", "CREAM"}, SkipLine),
		Entry("card brand in mixed case", []string{"MasterCard"}, SkipLine),
		Entry("empty line", []string{}, CandidateLine),
	)

	When("the skip list is customised", func() {
		It("should use the configured keywords", func() {
			opts := DefaultOptions()
			opts.SkipKeywords = []string{"bottle deposit"}
			Expect(Classify(lineOf("BOTTLE", "DEPOSIT", "0.10"), opts)).To(Equal(SkipLine))
			Expect(Classify(lineOf("TOTAL", "9.99"), opts)).To(Equal(CandidateLine))
		})
	})
})

var _ = Describe("DetectPrice", func() {
	var (
		line  Line
		price Price
		found bool
	)

	JustBeforeEach(func() {
		price, found = DetectPrice(line)
	})

	When("the price follows the name", func() {
		BeforeEach(func() {
			line = lineOf("ORGANIC", "EGGS", "4.99")
		})

		It("should find the price", func() {
			Expect(found).To(BeTrue())
			Expect(price.Value.String()).To(Equal("4.99"))
		})

		It("should return the name tokens as prefix", func() {
			Expect(joinTokens(price.Prefix)).To(Equal("ORGANIC EGGS"))
		})
	})

	When("the price has a dollar sign", func() {
		BeforeEach(func() {
			line = lineOf("SOAP", "$3.49")
		})

		It("should strip the sign", func() {
			Expect(found).To(BeTrue())
			Expect(price.Value.String()).To(Equal("3.49"))
		})
	})

	When("the line holds two prices", func() {
		BeforeEach(func() {
			line = lineOf("2", "@", "1.25", "2.50")
		})

		It("should take the first", func() {
			Expect(price.Value.String()).To(Equal("1.25"))
			Expect(joinTokens(price.Prefix)).To(Equal("2 @"))
		})
	})

	When("the line is a bare price", func() {
		BeforeEach(func() {
			line = lineOf("4.99")
		})

		It("should return an empty prefix", func() {
			Expect(found).To(BeTrue())
			Expect(price.Prefix).To(BeEmpty())
		})
	})

	DescribeTable("rejects malformed amounts",
		func(text string) {
			_, ok := DetectPrice(lineOf("ITEM", text))
			Expect(ok).To(BeFalse())
		},
		Entry("one decimal", "2.5"),
		Entry("three decimals", "2.505"),
		Entry("no decimals", "250"),
		Entry("comma separator", "2,50"),
		Entry("trailing letter", "2.50A"),
		Entry("negative", "-2.50"),
	)
})
