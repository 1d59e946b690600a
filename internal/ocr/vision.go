package ocr

import (
	"context"
	"fmt"
	"strings"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/api/option"
	"google.golang.org/protobuf/encoding/protojson"
)

// Vision implements the Recognizer interface using Google Cloud Vision
// document text detection
type Vision struct {
	client *vision.ImageAnnotatorClient
}

// NewVision creates a new Vision recognizer. When credentialsPath is empty
// application default credentials are used.
func NewVision(ctx context.Context, credentialsPath string) (*Vision, error) {
	var opts []option.ClientOption
	if credentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsPath))
	}

	client, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating vision client: %w", err)
	}

	return &Vision{client: client}, nil
}

// Recognize sends the image to the Vision API and converts the full text annotation
func (v *Vision) Recognize(ctx context.Context, imageData []byte, contentType string) (*Annotation, error) {
	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image: &visionpb.Image{Content: imageData},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION},
				},
			},
		},
	}

	resp, err := v.client.BatchAnnotateImages(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("annotating image: %w", err)
	}
	if len(resp.GetResponses()) == 0 {
		return nil, fmt.Errorf("no response from vision api")
	}

	return fromVisionResponse(resp.GetResponses()[0])
}

// Close closes the Vision client
func (v *Vision) Close() error {
	return v.client.Close()
}

func fromVisionResponse(resp *visionpb.AnnotateImageResponse) (*Annotation, error) {
	if msg := resp.GetError().GetMessage(); msg != "" {
		return nil, fmt.Errorf("vision api error: %s", msg)
	}
	return FromVision(resp.GetFullTextAnnotation()), nil
}

// ParseVisionJSON decodes a protojson encoded Vision response. A bare
// TextAnnotation, a single AnnotateImageResponse and the batch
// {"responses": [...]} envelope are accepted. Only the first response of a
// batch is used.
func ParseVisionJSON(data []byte) (*Annotation, error) {
	lenient := protojson.UnmarshalOptions{DiscardUnknown: true}

	var batch visionpb.BatchAnnotateImagesResponse
	if err := lenient.Unmarshal(data, &batch); err == nil && len(batch.GetResponses()) > 0 {
		return fromVisionResponse(batch.GetResponses()[0])
	}

	var resp visionpb.AnnotateImageResponse
	if err := lenient.Unmarshal(data, &resp); err == nil &&
		(resp.GetFullTextAnnotation() != nil || resp.GetError() != nil) {
		return fromVisionResponse(&resp)
	}

	var text visionpb.TextAnnotation
	if err := protojson.Unmarshal(data, &text); err != nil {
		return nil, fmt.Errorf("decoding text annotation: %w", err)
	}
	return FromVision(&text), nil
}

// FromVision converts a Vision TextAnnotation into an Annotation.
// Word text is the concatenation of the word's symbols.
func FromVision(ta *visionpb.TextAnnotation) *Annotation {
	a := &Annotation{}
	if ta == nil {
		return a
	}
	a.Text = ta.GetText()

	for _, page := range ta.GetPages() {
		var p Page
		for _, block := range page.GetBlocks() {
			var b Block
			for _, paragraph := range block.GetParagraphs() {
				var para Paragraph
				for _, word := range paragraph.GetWords() {
					para.Words = append(para.Words, visionWord(word))
				}
				b.Paragraphs = append(b.Paragraphs, para)
			}
			p.Blocks = append(p.Blocks, b)
		}
		a.Pages = append(a.Pages, p)
	}

	return a
}

func visionWord(word *visionpb.Word) Word {
	var text strings.Builder
	for _, symbol := range word.GetSymbols() {
		text.WriteString(symbol.GetText())
	}

	vertices := word.GetBoundingBox().GetVertices()
	w := Word{
		Text:       text.String(),
		Confidence: float64(word.GetConfidence()),
		Vertices:   make([]Vertex, 0, len(vertices)),
	}
	for _, v := range vertices {
		w.Vertices = append(w.Vertices, Vertex{X: float64(v.GetX()), Y: float64(v.GetY())})
	}
	return w
}
