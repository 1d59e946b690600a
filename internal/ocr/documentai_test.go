package ocr

import (
	"cloud.google.com/go/documentai/apiv1/documentaipb"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func anchorLayout(start, end int64) *documentaipb.Document_Page_Layout {
	return &documentaipb.Document_Page_Layout{
		TextAnchor: &documentaipb.Document_TextAnchor{
			TextSegments: []*documentaipb.Document_TextAnchor_TextSegment{
				{StartIndex: start, EndIndex: end},
			},
		},
	}
}

func docToken(start, end int64, poly *documentaipb.BoundingPoly, confidence float32) *documentaipb.Document_Page_Token {
	layout := anchorLayout(start, end)
	layout.BoundingPoly = poly
	layout.Confidence = confidence
	return &documentaipb.Document_Page_Token{
		Layout: layout,
		DetectedBreak: &documentaipb.Document_Page_Token_DetectedBreak{
			Type: documentaipb.Document_Page_Token_DetectedBreak_SPACE,
		},
	}
}

var _ = Describe("FromDocumentAI", func() {
	var (
		doc    *documentaipb.Document
		result *Annotation
	)

	JustBeforeEach(func() {
		result = FromDocumentAI(doc)
	})

	When("the document is nil", func() {
		BeforeEach(func() {
			doc = nil
		})

		It("should return an empty annotation", func() {
			Expect(result.Pages).To(BeEmpty())
		})
	})

	When("the page has blocks and paragraphs", func() {
		BeforeEach(func() {
			// "MILK 2.50\nEGGS 4.99\n"
			//  0    5    10   15
			doc = &documentaipb.Document{
				Text: "MILK 2.50\nEGGS 4.99\n",
				Pages: []*documentaipb.Document_Page{{
					Dimension: &documentaipb.Document_Page_Dimension{Width: 1000, Height: 2000},
					Blocks: []*documentaipb.Document_Page_Block{
						{Layout: anchorLayout(0, 10)},
						{Layout: anchorLayout(10, 20)},
					},
					Paragraphs: []*documentaipb.Document_Page_Paragraph{
						{Layout: anchorLayout(0, 10)},
						{Layout: anchorLayout(10, 20)},
					},
					Tokens: []*documentaipb.Document_Page_Token{
						docToken(0, 5, &documentaipb.BoundingPoly{Vertices: []*documentaipb.Vertex{
							{X: 0, Y: 100}, {X: 40, Y: 100}, {X: 40, Y: 120}, {X: 0, Y: 120},
						}}, 0.95),
						docToken(5, 10, &documentaipb.BoundingPoly{Vertices: []*documentaipb.Vertex{
							{X: 200, Y: 100}, {X: 240, Y: 100}, {X: 240, Y: 120}, {X: 200, Y: 120},
						}}, 0.9),
						docToken(10, 15, &documentaipb.BoundingPoly{NormalizedVertices: []*documentaipb.NormalizedVertex{
							{X: 0, Y: 0.1}, {X: 0.04, Y: 0.1}, {X: 0.04, Y: 0.11}, {X: 0, Y: 0.11},
						}}, 0.8),
						docToken(15, 20, nil, 0.7),
					},
				}},
			}
		})

		It("should keep the document text", func() {
			Expect(result.Text).To(Equal("MILK 2.50\nEGGS 4.99\n"))
		})

		It("should rebuild blocks and paragraphs from text anchors", func() {
			Expect(result.Pages).To(HaveLen(1))
			Expect(result.Pages[0].Blocks).To(HaveLen(2))
			Expect(result.Pages[0].Blocks[0].Paragraphs).To(HaveLen(1))
			Expect(result.Pages[0].Blocks[0].Paragraphs[0].Words).To(HaveLen(2))
			Expect(result.Pages[0].Blocks[1].Paragraphs[0].Words).To(HaveLen(2))
		})

		It("should trim break whitespace from token text", func() {
			words := result.Pages[0].Blocks[0].Paragraphs[0].Words
			Expect(words[0].Text).To(Equal("MILK"))
			Expect(words[1].Text).To(Equal("2.50"))
		})

		It("should use pixel vertices when present", func() {
			x, y, ok := result.Pages[0].Blocks[0].Paragraphs[0].Words[0].Centroid()
			Expect(ok).To(BeTrue())
			Expect(x).To(Equal(20.0))
			Expect(y).To(Equal(110.0))
		})

		It("should scale normalized vertices by the page dimension", func() {
			x, y, ok := result.Pages[0].Blocks[1].Paragraphs[0].Words[0].Centroid()
			Expect(ok).To(BeTrue())
			Expect(x).To(BeNumerically("~", 20.0, 1e-3))
			Expect(y).To(BeNumerically("~", 210.0, 1e-3))
		})

		It("should leave tokens without a polygon without geometry", func() {
			_, _, ok := result.Pages[0].Blocks[1].Paragraphs[0].Words[1].Centroid()
			Expect(ok).To(BeFalse())
		})
	})

	When("the page has no blocks", func() {
		BeforeEach(func() {
			doc = &documentaipb.Document{
				Text: "TEA ",
				Pages: []*documentaipb.Document_Page{{
					Paragraphs: []*documentaipb.Document_Page_Paragraph{{Layout: anchorLayout(0, 4)}},
					Tokens:     []*documentaipb.Document_Page_Token{docToken(0, 4, nil, 0.5)},
				}},
			}
		})

		It("should wrap the paragraphs in a single block", func() {
			Expect(result.Pages[0].Blocks).To(HaveLen(1))
			Expect(result.Pages[0].Blocks[0].Paragraphs[0].Words[0].Text).To(Equal("TEA"))
		})
	})

	When("the text has multibyte characters", func() {
		BeforeEach(func() {
			doc = &documentaipb.Document{
				Text: "CAFÉ 3.50 ",
				Pages: []*documentaipb.Document_Page{{
					Paragraphs: []*documentaipb.Document_Page_Paragraph{{Layout: anchorLayout(0, 10)}},
					Tokens: []*documentaipb.Document_Page_Token{
						docToken(0, 5, nil, 0.9),
						docToken(5, 10, nil, 0.9),
					},
				}},
			}
		})

		It("should index anchors by code point", func() {
			words := result.Pages[0].Blocks[0].Paragraphs[0].Words
			Expect(words).To(HaveLen(2))
			Expect(words[0].Text).To(Equal("CAFÉ"))
			Expect(words[1].Text).To(Equal("3.50"))
		})
	})
})

var _ = Describe("textFromAnchor", func() {
	runes := []rune("ÜBER 1.00 MILK")

	DescribeTable("resolves segments",
		func(segments [][2]int64, expected string) {
			anchor := &documentaipb.Document_TextAnchor{}
			for _, seg := range segments {
				anchor.TextSegments = append(anchor.TextSegments, &documentaipb.Document_TextAnchor_TextSegment{
					StartIndex: seg[0],
					EndIndex:   seg[1],
				})
			}
			Expect(textFromAnchor(anchor, runes)).To(Equal(expected))
		},
		Entry("single segment", [][2]int64{{0, 4}}, "ÜBER"),
		Entry("joined segments", [][2]int64{{0, 4}, {10, 14}}, "ÜBERMILK"),
		Entry("end clamped to the text", [][2]int64{{10, 99}}, "MILK"),
		Entry("inverted segment is empty", [][2]int64{{8, 4}}, ""),
		Entry("no segments", [][2]int64{}, ""),
	)
})
