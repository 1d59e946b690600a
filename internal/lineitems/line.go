package lineitems

import (
	"math"
	"sort"
	"strings"

	"github.com/zombor/fiscflow-ocr/internal/ocr"
)

// Token is a recognized word reduced to its centroid
type Token struct {
	Text       string
	X          float64
	Y          float64
	Confidence float64
}

// Line is a row of tokens ordered left to right.
// Index is the line's position in the sequence produced by ClusterLines.
type Line struct {
	Index  int
	Tokens []Token
	Y      float64
}

// Text joins the line's token texts with single spaces
func (l Line) Text() string {
	return joinTokens(l.Tokens)
}

func joinTokens(tokens []Token) string {
	parts := make([]string, len(tokens))
	for i, t := range tokens {
		parts[i] = t.Text
	}
	return strings.Join(parts, " ")
}

// ClusterLines groups the words of every paragraph into lines by vertical
// proximity. Lines are appended in page/block/paragraph traversal order and
// are not re-sorted across paragraphs.
func ClusterLines(a *ocr.Annotation, opts Options) []Line {
	if a == nil {
		return nil
	}

	var lines []Line
	for _, page := range a.Pages {
		for _, block := range page.Blocks {
			for _, paragraph := range block.Paragraphs {
				for _, row := range groupRows(paragraphTokens(paragraph), opts.LineMergeDistance) {
					row.Index = len(lines)
					lines = append(lines, row)
				}
			}
		}
	}
	return lines
}

func paragraphTokens(p ocr.Paragraph) []Token {
	tokens := make([]Token, 0, len(p.Words))
	for _, w := range p.Words {
		x, y, ok := w.Centroid()
		if !ok {
			continue
		}
		tokens = append(tokens, Token{Text: w.Text, X: x, Y: y, Confidence: w.Confidence})
	}
	return tokens
}

// groupRows walks tokens top to bottom. A token joins the current row while
// it is within distance of the row's first token; otherwise a new row starts.
func groupRows(tokens []Token, distance float64) []Line {
	if len(tokens) == 0 {
		return nil
	}
	sort.SliceStable(tokens, func(i, j int) bool {
		return tokens[i].Y < tokens[j].Y
	})

	var rows []Line
	current := []Token{}
	refY := tokens[0].Y

	closeRow := func() {
		if len(current) == 0 {
			return
		}
		sort.SliceStable(current, func(i, j int) bool {
			return current[i].X < current[j].X
		})
		rows = append(rows, Line{Tokens: current, Y: refY})
	}

	for _, t := range tokens {
		if math.Abs(t.Y-refY) < distance {
			current = append(current, t)
			continue
		}
		closeRow()
		current = []Token{t}
		refY = t.Y
	}
	closeRow()

	return rows
}
