package ocr

import (
	"cloud.google.com/go/vision/v2/apiv1/visionpb"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func visionWordOf(x, y int32, confidence float32, symbols ...string) *visionpb.Word {
	w := &visionpb.Word{
		Confidence: confidence,
		BoundingBox: &visionpb.BoundingPoly{Vertices: []*visionpb.Vertex{
			{X: x, Y: y}, {X: x + 10, Y: y}, {X: x + 10, Y: y + 10}, {X: x, Y: y + 10},
		}},
	}
	for _, s := range symbols {
		w.Symbols = append(w.Symbols, &visionpb.Symbol{Text: s})
	}
	return w
}

var _ = Describe("FromVision", func() {
	var (
		input  *visionpb.TextAnnotation
		result *Annotation
	)

	JustBeforeEach(func() {
		result = FromVision(input)
	})

	When("the annotation is nil", func() {
		BeforeEach(func() {
			input = nil
		})

		It("should return an empty annotation", func() {
			Expect(result).NotTo(BeNil())
			Expect(result.Pages).To(BeEmpty())
		})
	})

	When("the annotation has words", func() {
		BeforeEach(func() {
			input = &visionpb.TextAnnotation{
				Text: "MILK 2.50\n",
				Pages: []*visionpb.Page{{
					Blocks: []*visionpb.Block{{
						Paragraphs: []*visionpb.Paragraph{{
							Words: []*visionpb.Word{
								visionWordOf(0, 100, 0.98, "M", "I", "L", "K"),
								visionWordOf(200, 100, 0.91, "2", ".", "5", "0"),
							},
						}},
					}},
				}},
			}
		})

		It("should keep the full text", func() {
			Expect(result.Text).To(Equal("MILK 2.50\n"))
		})

		It("should join symbols into word text", func() {
			words := result.Pages[0].Blocks[0].Paragraphs[0].Words
			Expect(words).To(HaveLen(2))
			Expect(words[0].Text).To(Equal("MILK"))
			Expect(words[1].Text).To(Equal("2.50"))
		})

		It("should carry geometry and confidence", func() {
			w := result.Pages[0].Blocks[0].Paragraphs[0].Words[0]
			x, y, ok := w.Centroid()
			Expect(ok).To(BeTrue())
			Expect(x).To(Equal(5.0))
			Expect(y).To(Equal(105.0))
			Expect(w.Confidence).To(BeNumerically("~", 0.98, 1e-6))
		})
	})
})

var _ = Describe("ParseVisionJSON", func() {
	var (
		data   []byte
		result *Annotation
		err    error
	)

	JustBeforeEach(func() {
		result, err = ParseVisionJSON(data)
	})

	When("the input is a text annotation", func() {
		BeforeEach(func() {
			data = []byte(`{
				"text": "EGGS",
				"pages": [{"blocks": [{"paragraphs": [{"words": [{
					"boundingBox": {"vertices": [{"x": 0, "y": 0}, {"x": 10, "y": 0}, {"x": 10, "y": 10}, {"x": 0, "y": 10}]},
					"symbols": [{"text": "E"}, {"text": "G"}, {"text": "G"}, {"text": "S"}],
					"confidence": 0.9
				}]}]}]}]
			}`)
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should decode the words", func() {
			Expect(result.WordCount()).To(Equal(1))
			Expect(result.Pages[0].Blocks[0].Paragraphs[0].Words[0].Text).To(Equal("EGGS"))
		})
	})

	When("the input is an annotate image response", func() {
		BeforeEach(func() {
			data = []byte(`{
				"textAnnotations": [{"description": "EGGS"}],
				"fullTextAnnotation": {
					"text": "EGGS",
					"pages": [{"blocks": [{"paragraphs": [{"words": [{
						"boundingBox": {"vertices": [{"x": 0, "y": 0}]},
						"symbols": [{"text": "EGGS"}]
					}]}]}]}]
				}
			}`)
		})

		It("should decode the full text annotation", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Text).To(Equal("EGGS"))
			Expect(result.WordCount()).To(Equal(1))
		})
	})

	When("the input is a batch response envelope", func() {
		BeforeEach(func() {
			data = []byte(`{"responses": [{
				"fullTextAnnotation": {
					"text": "BREAD 2.99",
					"pages": [{"blocks": [{"paragraphs": [{"words": [
						{"symbols": [{"text": "BREAD"}]},
						{"symbols": [{"text": "2.99"}]}
					]}]}]}]
				}
			}]}`)
		})

		It("should decode the first response", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Text).To(Equal("BREAD 2.99"))
			Expect(result.WordCount()).To(Equal(2))
		})
	})

	When("the batch response carries an error status", func() {
		BeforeEach(func() {
			data = []byte(`{"responses": [{"error": {"code": 3, "message": "bad image data"}}]}`)
		})

		It("returns the error", func() {
			Expect(err).To(MatchError(ContainSubstring("bad image data")))
		})
	})

	When("the response carries an error status", func() {
		BeforeEach(func() {
			data = []byte(`{"error": {"code": 7, "message": "permission denied"}}`)
		})

		It("returns the error", func() {
			Expect(err).To(MatchError(ContainSubstring("permission denied")))
		})
	})

	When("the input is not JSON", func() {
		BeforeEach(func() {
			data = []byte(`not json`)
		})

		It("returns the error", func() {
			Expect(err).To(MatchError(ContainSubstring("decoding text annotation")))
		})
	})
})
