package ocr

import (
	"context"
	"fmt"
	"strings"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"google.golang.org/api/option"
)

// DocumentAIConfig identifies a Document AI OCR processor
type DocumentAIConfig struct {
	ProjectID       string `yaml:"project_id"`
	Location        string `yaml:"location"`
	ProcessorID     string `yaml:"processor_id"`
	CredentialsPath string `yaml:"credentials_path"`
}

// processorName builds the resource name of the processor
func (c DocumentAIConfig) processorName() string {
	return fmt.Sprintf("projects/%s/locations/%s/processors/%s", c.ProjectID, c.Location, c.ProcessorID)
}

// DocumentAI implements the Recognizer interface using a Google Document AI OCR processor
type DocumentAI struct {
	client *documentai.DocumentProcessorClient
	name   string
}

// NewDocumentAI creates a new Document AI recognizer
func NewDocumentAI(ctx context.Context, cfg DocumentAIConfig) (*DocumentAI, error) {
	if cfg.ProjectID == "" || cfg.Location == "" || cfg.ProcessorID == "" {
		return nil, fmt.Errorf("document ai project, location and processor are required")
	}

	opts := []option.ClientOption{
		option.WithEndpoint(fmt.Sprintf("%s-documentai.googleapis.com:443", cfg.Location)),
	}
	if cfg.CredentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsPath))
	}

	client, err := documentai.NewDocumentProcessorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating document ai client: %w", err)
	}

	return &DocumentAI{client: client, name: cfg.processorName()}, nil
}

// Recognize processes the image with Document AI and converts the result
func (d *DocumentAI) Recognize(ctx context.Context, imageData []byte, contentType string) (*Annotation, error) {
	if contentType == "" {
		contentType = "image/png"
	}

	req := &documentaipb.ProcessRequest{
		Name: d.name,
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  imageData,
				MimeType: contentType,
			},
		},
		SkipHumanReview: true,
	}

	resp, err := d.client.ProcessDocument(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("processing document: %w", err)
	}

	return FromDocumentAI(resp.GetDocument()), nil
}

// Close closes the Document AI client
func (d *DocumentAI) Close() error {
	return d.client.Close()
}

// FromDocumentAI converts a Document AI document into an Annotation.
// Document AI keeps blocks, paragraphs and tokens as flat per-page lists, so
// the hierarchy is rebuilt from text anchor containment.
func FromDocumentAI(doc *documentaipb.Document) *Annotation {
	a := &Annotation{}
	if doc == nil {
		return a
	}
	a.Text = doc.GetText()
	// Anchor indices count code points
	runes := []rune(a.Text)

	for _, page := range doc.GetPages() {
		tokens := page.GetTokens()
		paragraphs := page.GetParagraphs()

		var p Page
		blocks := page.GetBlocks()
		if len(blocks) == 0 {
			// Treat the whole page as one block
			b := Block{}
			for _, paragraph := range paragraphs {
				b.Paragraphs = append(b.Paragraphs, documentAIParagraph(paragraph.GetLayout(), tokens, page, runes))
			}
			p.Blocks = append(p.Blocks, b)
		}
		for _, block := range blocks {
			b := Block{}
			for _, paragraph := range paragraphs {
				if !anchorWithin(paragraph.GetLayout(), block.GetLayout()) {
					continue
				}
				b.Paragraphs = append(b.Paragraphs, documentAIParagraph(paragraph.GetLayout(), tokens, page, runes))
			}
			p.Blocks = append(p.Blocks, b)
		}

		a.Pages = append(a.Pages, p)
	}

	return a
}

func documentAIParagraph(layout *documentaipb.Document_Page_Layout, tokens []*documentaipb.Document_Page_Token, page *documentaipb.Document_Page, runes []rune) Paragraph {
	var para Paragraph
	for _, token := range tokens {
		if !anchorWithin(token.GetLayout(), layout) {
			continue
		}
		para.Words = append(para.Words, documentAIWord(token, page, runes))
	}
	return para
}

func documentAIWord(token *documentaipb.Document_Page_Token, page *documentaipb.Document_Page, runes []rune) Word {
	layout := token.GetLayout()
	txt := textFromAnchor(layout.GetTextAnchor(), runes)
	if token.GetDetectedBreak().GetType() != documentaipb.Document_Page_Token_DetectedBreak_TYPE_UNSPECIFIED {
		txt = strings.TrimRight(txt, " \t\r\n")
	}

	w := Word{
		Text:       txt,
		Confidence: float64(layout.GetConfidence()),
	}

	poly := layout.GetBoundingPoly()
	if vertices := poly.GetVertices(); len(vertices) > 0 {
		for _, v := range vertices {
			w.Vertices = append(w.Vertices, Vertex{X: float64(v.GetX()), Y: float64(v.GetY())})
		}
		return w
	}

	// Normalized vertices are in [0,1] and need the page dimension
	width := float64(page.GetDimension().GetWidth())
	height := float64(page.GetDimension().GetHeight())
	for _, v := range poly.GetNormalizedVertices() {
		w.Vertices = append(w.Vertices, Vertex{X: float64(v.GetX()) * width, Y: float64(v.GetY()) * height})
	}
	return w
}

// anchorWithin reports whether the child's first text segment lies inside the parent's
func anchorWithin(child, parent *documentaipb.Document_Page_Layout) bool {
	childSegs := child.GetTextAnchor().GetTextSegments()
	parentSegs := parent.GetTextAnchor().GetTextSegments()
	if len(childSegs) == 0 || len(parentSegs) == 0 {
		return false
	}
	return childSegs[0].GetStartIndex() >= parentSegs[0].GetStartIndex() &&
		childSegs[0].GetEndIndex() <= parentSegs[0].GetEndIndex()
}

// textFromAnchor resolves a text anchor against the decoded document text
func textFromAnchor(anchor *documentaipb.Document_TextAnchor, runes []rune) string {
	var out strings.Builder
	for _, seg := range anchor.GetTextSegments() {
		start := max(int(seg.GetStartIndex()), 0)
		end := min(int(seg.GetEndIndex()), len(runes))
		if start > end {
			start = end
		}
		out.WriteString(string(runes[start:end]))
	}
	return out.String()
}
