// Package document provides template document providers and the DOCX style manifest.
package document

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Veraticus/textami/internal/common"
	"github.com/Veraticus/textami/internal/model"
	"github.com/Veraticus/textami/internal/service"
)

const mainPart = "word/document.xml"

// paragraph is one body paragraph with its style ID.
type paragraph struct {
	Style string
	Text  string
}

// table is the shape of one body table.
type table struct {
	Rows int
	Cols int
}

// body is the walked content of word/document.xml.
type body struct {
	Paragraphs []paragraph
	Tables     []table
}

// DocxProvider reads Word documents from a blob store.
type DocxProvider struct {
	store service.BlobStore
}

var _ service.DocumentProvider = (*DocxProvider)(nil)

// NewDocxProvider creates a DocxProvider.
func NewDocxProvider(store service.BlobStore) *DocxProvider {
	return &DocxProvider{store: store}
}

// GetContent returns the non-empty paragraphs of the document in reading order.
func (p *DocxProvider) GetContent(ctx context.Context, locator string) (model.DocumentContent, error) {
	data, err := p.store.Get(ctx, locator)
	if err != nil {
		return model.DocumentContent{}, fetchError(locator, err)
	}
	content, err := ParseDocx(data)
	if err != nil {
		return model.DocumentContent{}, err
	}
	content.Locator = locator
	return content, nil
}

// ParseDocx extracts text from a DOCX container.
func ParseDocx(data []byte) (model.DocumentContent, error) {
	zr, err := openContainer(data)
	if err != nil {
		return model.DocumentContent{}, err
	}
	b, err := readBody(zr)
	if err != nil {
		return model.DocumentContent{}, err
	}

	paragraphs := make([]string, 0, len(b.Paragraphs))
	for _, p := range b.Paragraphs {
		if strings.TrimSpace(p.Text) != "" {
			paragraphs = append(paragraphs, p.Text)
		}
	}
	return model.DocumentContent{
		Format:     "docx",
		Text:       strings.Join(paragraphs, "\n"),
		Paragraphs: paragraphs,
	}, nil
}

func openContainer(data []byte) (*zip.Reader, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: not a DOCX container: %w", common.ErrMalformedContainer, err)
	}
	if findPart(zr, mainPart) == nil {
		return nil, fmt.Errorf("%w: %s not found in archive", common.ErrMalformedContainer, mainPart)
	}
	return zr, nil
}

func findPart(zr *zip.Reader, name string) *zip.File {
	for _, f := range zr.File {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// readPart returns the bytes of a part, or nil when the part does not exist.
func readPart(zr *zip.Reader, name string) ([]byte, error) {
	f := findPart(zr, name)
	if f == nil {
		return nil, nil
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", common.ErrMalformedContainer, name, err)
	}
	defer func() { _ = rc.Close() }()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", common.ErrMalformedContainer, name, err)
	}
	return data, nil
}

// readBody walks word/document.xml. Only text inside w:t runs is kept; tabs and
// breaks become whitespace.
func readBody(zr *zip.Reader) (body, error) {
	data, err := readPart(zr, mainPart)
	if err != nil {
		return body{}, err
	}

	var (
		b       body
		current strings.Builder
		style   string
		depth   int // open w:p elements
		inText  bool
		tables  []*table
		cells   []int
	)

	decoder := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return body{}, fmt.Errorf("%w: %s: %w", common.ErrMalformedContainer, mainPart, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				if depth == 0 {
					current.Reset()
					style = ""
				}
				depth++
			case "pStyle":
				if depth > 0 {
					style = attr(t, "val")
				}
			case "t":
				inText = depth > 0
			case "tab":
				if depth > 0 {
					current.WriteByte('\t')
				}
			case "br", "cr":
				if depth > 0 {
					current.WriteByte('\n')
				}
			case "tbl":
				tables = append(tables, &table{})
				cells = append(cells, 0)
			case "tr":
				if n := len(tables); n > 0 {
					tables[n-1].Rows++
					cells[n-1] = 0
				}
			case "tc":
				if n := len(cells); n > 0 {
					cells[n-1]++
					if cells[n-1] > tables[n-1].Cols {
						tables[n-1].Cols = cells[n-1]
					}
				}
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if depth == 0 {
					continue
				}
				depth--
				if depth == 0 {
					b.Paragraphs = append(b.Paragraphs, paragraph{Style: style, Text: current.String()})
				}
			case "tbl":
				if n := len(tables); n > 0 {
					b.Tables = append(b.Tables, *tables[n-1])
					tables = tables[:n-1]
					cells = cells[:n-1]
				}
			}
		}
	}
	return b, nil
}

func attr(el xml.StartElement, local string) string {
	for _, a := range el.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

func fetchError(locator string, err error) error {
	if errors.Is(err, common.ErrNotFound) {
		return fmt.Errorf("%w: document %s: %w", common.ErrInvalidInput, locator, err)
	}
	return fmt.Errorf("%w: failed to fetch document %s: %w", common.ErrUpstreamUnavailable, locator, err)
}
