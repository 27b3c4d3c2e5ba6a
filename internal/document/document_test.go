package document

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/docs/v1"
	"google.golang.org/api/option"

	"github.com/Veraticus/textami/internal/common"
	"github.com/Veraticus/textami/internal/model"
)

const wordNS = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`

type memStore map[string][]byte

func (m memStore) Put(_ context.Context, name string, data []byte) (string, error) {
	m[name] = data
	return name, nil
}

func (m memStore) Get(_ context.Context, locator string) ([]byte, error) {
	data, ok := m[locator]
	if !ok {
		return nil, common.ErrNotFound
	}
	return data, nil
}

func buildDocx(t *testing.T, parts map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range parts {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func documentXML(body string) string {
	return `<?xml version="1.0" encoding="UTF-8"?><w:document ` + wordNS + `><w:body>` + body + `</w:body></w:document>`
}

const sampleBody = `<w:p><w:pPr><w:pStyle w:val="Title"/></w:pPr><w:r><w:t>Contracte de serveis</w:t></w:r></w:p>` +
	`<w:p><w:r><w:t xml:space="preserve">Benvolgut {{nom</w:t></w:r><w:r><w:t>_client}},</w:t></w:r></w:p>` +
	`<w:p/>` +
	`<w:p><w:r><w:t>Import:</w:t><w:tab/><w:t>IMPORT_TOTAL</w:t></w:r></w:p>` +
	`<w:tbl><w:tr><w:tc><w:p><w:r><w:t>Data</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>[data]</w:t></w:r></w:p></w:tc></w:tr>` +
	`<w:tr><w:tc><w:p><w:r><w:t>Lloc</w:t></w:r></w:p></w:tc></w:tr></w:tbl>`

func TestParseDocx(t *testing.T) {
	data := buildDocx(t, map[string]string{mainPart: documentXML(sampleBody)})

	content, err := ParseDocx(data)
	require.NoError(t, err)

	assert.Equal(t, "docx", content.Format)
	assert.Equal(t, []string{
		"Contracte de serveis",
		"Benvolgut {{nom_client}},",
		"Import:\tIMPORT_TOTAL",
		"Data",
		"[data]",
		"Lloc",
	}, content.Paragraphs)
	assert.Contains(t, content.Text, "{{nom_client}}")
}

func TestParseDocxMalformed(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "not a zip", data: []byte("just some text")},
		{name: "zip without main part", data: buildDocx(t, map[string]string{"word/styles.xml": "<w:styles/>"})},
		{name: "broken xml", data: buildDocx(t, map[string]string{mainPart: "<w:document><w:body><w:p>"})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDocx(tt.data)
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrMalformedContainer)
			assert.ErrorIs(t, err, common.ErrInvalidInput)
		})
	}
}

func TestDocxProviderGetContent(t *testing.T) {
	store := memStore{"plantilla.docx": buildDocx(t, map[string]string{mainPart: documentXML(sampleBody)})}
	p := NewDocxProvider(store)

	content, err := p.GetContent(context.Background(), "plantilla.docx")
	require.NoError(t, err)
	assert.Equal(t, "plantilla.docx", content.Locator)
	assert.Len(t, content.Paragraphs, 6)

	_, err = p.GetContent(context.Background(), "missing.docx")
	assert.ErrorIs(t, err, common.ErrInvalidInput)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

const sampleStyles = `<?xml version="1.0" encoding="UTF-8"?><w:styles ` + wordNS + `>` +
	`<w:style w:type="paragraph" w:styleId="Normal"><w:name w:val="Normal"/></w:style>` +
	`<w:style w:type="paragraph" w:styleId="Title"><w:name w:val="Title"/><w:basedOn w:val="Normal"/></w:style>` +
	`<w:style w:type="paragraph" w:styleId="BodyText"><w:name w:val="Body Text"/></w:style>` +
	`<w:style w:type="paragraph" w:styleId="ListBullet"><w:name w:val="List Bullet"/></w:style>` +
	`<w:style w:type="paragraph" w:styleId="Firma"><w:name w:val="Signatura"/></w:style>` +
	`<w:style w:type="paragraph" w:styleId="Clausula"><w:name w:val="Clausula"/><w:basedOn w:val="Title"/></w:style>` +
	`<w:style w:type="table" w:styleId="Taula"><w:name w:val="Taula Simple"/></w:style>` +
	`<w:style w:type="character" w:styleId="Strong"><w:name w:val="Strong"/></w:style>` +
	`</w:styles>`

const sampleNumbering = `<w:numbering ` + wordNS + `><w:num w:numId="1"><w:abstractNumId w:val="0"/></w:num>` +
	`<w:num w:numId="2"><w:abstractNumId w:val="1"/></w:num></w:numbering>`

func TestAnalyzeStyles(t *testing.T) {
	body := `<w:p><w:pPr><w:pStyle w:val="Title"/></w:pPr><w:r><w:t>Títol &amp; més</w:t></w:r></w:p>` +
		`<w:p><w:pPr><w:pStyle w:val="Clausula"/></w:pPr><w:r><w:t>Primera</w:t></w:r></w:p>` +
		`<w:p><w:pPr><w:pStyle w:val="Firma"/></w:pPr><w:r><w:t>Signat</w:t></w:r></w:p>` +
		`<w:tbl><w:tr><w:tc><w:p/></w:tc><w:tc><w:p/></w:tc></w:tr></w:tbl>`
	data := buildDocx(t, map[string]string{
		mainPart:      documentXML(body),
		stylesPart:    sampleStyles,
		numberingPart: sampleNumbering,
	})
	now := time.Date(2025, 10, 16, 9, 0, 0, 0, time.UTC)

	report, err := AnalyzeStyles(data, "/tmp/plantilles/contracte.docx", now)
	require.NoError(t, err)
	m := report.Manifest

	assert.Equal(t, "1.0", m.Version)
	assert.Equal(t, "contracte.docx", m.Source)
	assert.Equal(t, now, m.GeneratedAt)
	assert.Equal(t, "Title", m.Styles[ElementH1])
	assert.Equal(t, "Normal", m.Styles[ElementParagraph])
	assert.Equal(t, "Body Text", m.Styles[ElementBodyText])
	assert.Equal(t, "List Bullet", m.Styles[ElementBulleted])
	assert.Equal(t, "Taula Simple", m.Styles[ElementTable])
	assert.Equal(t, "Heading 2", m.Styles[ElementH2], "essential mapping is guaranteed")
	assert.Equal(t, map[string]string{"Signatura": ElementParagraph, "Clausula": ElementParagraph}, m.Fallbacks)
	assert.Len(t, m.Warnings, 2)
	assert.Equal(t, Vocabulary, m.Vocabulary)

	assert.Equal(t, ManifestStatistics{
		TotalStyles:          8,
		MappedStyles:         5,
		FallbackStyles:       2,
		NumberingDefinitions: 2,
		Paragraphs:           5,
		Tables:               1,
	}, m.Statistics)

	assert.Equal(t, "h1", report.ElementFor("Title"))
	assert.Equal(t, "p", report.ElementFor("Firma"))
	assert.Equal(t, "p", report.ElementFor("Unknown"))

	preview := report.Preview()
	assert.Contains(t, preview, "<h1>Títol &amp; més</h1>")
	assert.Contains(t, preview, "<p>Signat</p>")
	assert.Contains(t, preview, "[Table 1x2]")
}

func TestAnalyzeStylesWithoutStylePart(t *testing.T) {
	data := buildDocx(t, map[string]string{mainPart: documentXML(sampleBody)})

	report, err := AnalyzeStyles(data, "bare.docx", time.Now())
	require.NoError(t, err)

	m := report.Manifest
	assert.Len(t, m.Styles, 4)
	assert.Equal(t, "Table Grid", m.Styles[ElementTable])
	assert.Zero(t, m.Statistics.TotalStyles)
	assert.Zero(t, m.Statistics.NumberingDefinitions)
	require.Len(t, m.Warnings, 1)
	assert.Contains(t, m.Warnings[0], "styles.xml")
}

func TestStyleElement(t *testing.T) {
	tests := []struct {
		name      string
		styleType string
		want      string
	}{
		{"Heading 1", "paragraph", ElementH1},
		{"Title", "paragraph", ElementH1},
		{"Subtitle", "paragraph", ElementH2},
		{"heading 3", "paragraph", ElementH3},
		{"Body Text", "paragraph", ElementBodyText},
		{"Body", "paragraph", ElementParagraph},
		{"Normal Indent", "paragraph", ElementParagraph},
		{"List Bullet 2", "paragraph", ElementBulleted},
		{"List Number", "paragraph", ElementNumbered},
		{"Grid", "table", ElementTable},
		{"Intense Quote", "paragraph", ElementBlockquote},
		{"Block Text", "paragraph", ElementBlockquote},
		{"Signatura", "paragraph", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StyleElement(tt.name, tt.styleType), tt.name)
	}
}

func TestTextProvider(t *testing.T) {
	store := memStore{
		"carta.txt":  []byte("Hola {{nom}},\r\n\r\n\r\nUs escrivim per\nIMPORT_TOTAL.\n"),
		"carta.html": []byte(`<html><head><style>p{}</style><script>var x = "{{no}}";</script></head><body><h1>Carta</h1><p>Hola &laquo;nom&raquo;,<br>adéu</p><ul><li>[data]</li></ul></body></html>`),
		"bad.txt":    {0xff, 0xfe, 0xfd},
	}
	p := NewTextProvider(store)

	content, err := p.GetContent(context.Background(), "carta.txt")
	require.NoError(t, err)
	assert.Equal(t, "text", content.Format)
	assert.Equal(t, []string{"Hola {{nom}},", "Us escrivim per\nIMPORT_TOTAL."}, content.Paragraphs)

	content, err = p.GetContent(context.Background(), "carta.html")
	require.NoError(t, err)
	assert.Equal(t, "html", content.Format)
	assert.Equal(t, []string{"Carta", "Hola «nom»,", "adéu", "[data]"}, content.Paragraphs)

	_, err = p.GetContent(context.Background(), "bad.txt")
	assert.ErrorIs(t, err, common.ErrMalformedContainer)
}

func TestGoogleDocsProvider(t *testing.T) {
	doc := &docs.Document{
		DocumentId: "doc123",
		Body: &docs.Body{Content: []*docs.StructuralElement{
			{SectionBreak: &docs.SectionBreak{}},
			{Paragraph: &docs.Paragraph{Elements: []*docs.ParagraphElement{
				{TextRun: &docs.TextRun{Content: "Benvolgut "}},
				{TextRun: &docs.TextRun{Content: "{{nom}}\n"}},
			}}},
			{Table: &docs.Table{TableRows: []*docs.TableRow{{TableCells: []*docs.TableCell{
				{Content: []*docs.StructuralElement{{Paragraph: &docs.Paragraph{Elements: []*docs.ParagraphElement{
					{TextRun: &docs.TextRun{Content: "IMPORT_TOTAL\n"}},
				}}}}},
			}}}}},
			{Paragraph: &docs.Paragraph{Elements: []*docs.ParagraphElement{{TextRun: &docs.TextRun{Content: "\n"}}}}},
		}},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/documents/doc123") {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"code":404,"message":"Requested entity was not found."}}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(doc)
	}))
	defer srv.Close()

	svc, err := docs.NewService(context.Background(), option.WithHTTPClient(srv.Client()), option.WithEndpoint(srv.URL+"/"))
	require.NoError(t, err)
	p := NewGoogleDocsProvider(svc)

	content, err := p.GetContent(context.Background(), "doc123")
	require.NoError(t, err)
	assert.Equal(t, []string{"Benvolgut {{nom}}", "IMPORT_TOTAL"}, content.Paragraphs)
	assert.Equal(t, "gdoc", content.Format)

	_, err = p.GetContent(context.Background(), "missing")
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = p.GetContent(context.Background(), " ")
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

type stubProvider struct{ format string }

func (s stubProvider) GetContent(_ context.Context, locator string) (model.DocumentContent, error) {
	return model.DocumentContent{Locator: locator, Format: s.format}, nil
}

func TestRouter(t *testing.T) {
	r := NewRouter(stubProvider{"docx"}, stubProvider{"text"}, stubProvider{"gdoc"})

	tests := []struct {
		locator    string
		wantFormat string
		wantLoc    string
	}{
		{"a/Plantilla.DOCX", "docx", "a/Plantilla.DOCX"},
		{"carta.md", "text", "carta.md"},
		{"carta.html", "text", "carta.html"},
		{"gdocs:1AbC", "gdoc", "1AbC"},
	}
	for _, tt := range tests {
		content, err := r.GetContent(context.Background(), tt.locator)
		require.NoError(t, err, tt.locator)
		assert.Equal(t, tt.wantFormat, content.Format)
		assert.Equal(t, tt.wantLoc, content.Locator)
	}

	_, err := r.GetContent(context.Background(), "dades.pdf")
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	noGoogle := NewRouter(stubProvider{"docx"}, stubProvider{"text"}, nil)
	_, err = noGoogle.GetContent(context.Background(), "gdocs:1AbC")
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}
