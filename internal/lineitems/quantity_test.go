package lineitems

import (
	"github.com/shopspring/decimal"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ParseQuantity", func() {
	DescribeTable("splits names",
		func(name, total, expectedName, expectedCount, expectedUnit string) {
			q := ParseQuantity(name, decimal.RequireFromString(total))
			Expect(q.Name).To(Equal(expectedName))
			Expect(q.Count.String()).To(Equal(expectedCount))
			Expect(q.UnitPrice.String()).To(Equal(expectedUnit))
		},
		Entry("plain name", "MILK", "2.50", "MILK", "1", "2.5"),
		Entry("count with x", "3 x BANANA", "1.50", "BANANA", "3", "0.5"),
		Entry("upper case X without spaces", "2X COFFEE", "5.00", "COFFEE", "2", "2.5"),
		Entry("count without separator", "4 LIMES", "2.00", "LIMES", "4", "0.5"),
		Entry("fractional count", "1.5 LB APPLES", "3.00", "LB APPLES", "1.5", "2"),
		Entry("unit price rounded to cents", "3 x SODA", "1.00", "SODA", "3", "0.33"),
		Entry("zero count keeps the name", "0 x FOO", "1.00", "0 x FOO", "1", "1"),
		Entry("drifting count keeps the name", "7UP", "1.00", "7UP", "1", "1"),
		Entry("rounding drift beyond a cent keeps the name", "7 x LEMON", "1.00", "7 x LEMON", "1", "1"),
	)

	It("should keep count times unit price within a cent of the total", func() {
		for _, name := range []string{"2 A", "3 B", "6 C", "9 D", "12 E", "25 F"} {
			for _, total := range []string{"1.00", "2.99", "10.00", "47.13"} {
				t := decimal.RequireFromString(total)
				q := ParseQuantity(name, t)
				Expect(q.Count.Mul(q.UnitPrice).Sub(t).Abs().LessThanOrEqual(cent)).To(BeTrue(), "%s @ %s", name, total)
			}
		}
	})
})
