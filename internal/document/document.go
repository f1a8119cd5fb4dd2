package document

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DefaultTitle is the document title used when none is configured.
const DefaultTitle = "Sales results"

// skeleton is the page the fragment is placed into.
const skeleton = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title></title>
<style>
body { font-family: sans-serif; margin: 1.5cm; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #999; padding: 4px 8px; text-align: left; }
</style>
</head>
<body></body></html>`

// Printer renders a complete HTML document to PDF.
type Printer interface {
	PrintPDF(ctx context.Context, html string) ([]byte, error)
}

// Renderer writes HTML fragments as PDF files.
type Renderer struct {
	printer Printer
	title   string
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithTitle sets the document title.
func WithTitle(title string) Option {
	return func(r *Renderer) {
		r.title = title
	}
}

// NewRenderer creates a Renderer that prints through p.
func NewRenderer(p Printer, opts ...Option) *Renderer {
	r := &Renderer{printer: p, title: DefaultTitle}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// HTMLToPDF wraps fragment into a complete document, prints it and writes
// the PDF to outPath, replacing any existing file. The parent directory is
// created if needed.
func (r *Renderer) HTMLToPDF(ctx context.Context, fragment, outPath string) error {
	doc, err := Wrap(fragment, r.title)
	if err != nil {
		return err
	}

	pdf, err := r.printer.PrintPDF(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to print document: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(outPath, pdf, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", outPath, err)
	}
	return nil
}

// Wrap parses fragment as body content and returns a complete HTML document
// containing it. Malformed markup is repaired the way a browser would.
func Wrap(fragment, title string) (string, error) {
	doc, err := html.Parse(strings.NewReader(skeleton))
	if err != nil {
		return "", fmt.Errorf("failed to parse document skeleton: %w", err)
	}

	body := findElement(doc, atom.Body)
	titleNode := findElement(doc, atom.Title)
	if body == nil || titleNode == nil {
		return "", errors.New("document skeleton has no body or title")
	}
	titleNode.AppendChild(&html.Node{Type: html.TextNode, Data: title})

	nodes, err := html.ParseFragment(strings.NewReader(fragment), &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
	if err != nil {
		return "", fmt.Errorf("failed to parse fragment: %w", err)
	}
	for _, n := range nodes {
		body.AppendChild(n)
	}

	var sb strings.Builder
	if err := html.Render(&sb, doc); err != nil {
		return "", fmt.Errorf("failed to render document: %w", err)
	}
	return sb.String(), nil
}

// findElement returns the first element with the given atom in document order.
func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}
