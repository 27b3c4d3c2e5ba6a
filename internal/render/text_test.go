package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/textami/internal/common"
)

func TestTextRendererPrepare(t *testing.T) {
	r := NewTextRenderer(false)

	got, err := r.Prepare([]byte("Hola {{nom}}, total {{import}} ({{import_iva}})"), map[string]string{
		"{{nom}}":        "{Nom}",
		"{{import}}":     "{Import}",
		"{{import_iva}}": "{Import IVA}",
	})
	require.NoError(t, err)
	assert.Equal(t, "Hola {Nom}, total {Import} ({Import IVA})", string(got))
}

func TestTextRendererPrepareRespectsIdentifierBoundaries(t *testing.T) {
	r := NewTextRenderer(false)
	rewrites := map[string]string{
		"NOM_CLIENT": "{Nom}",
		"IMPORT":     "{Import}",
	}

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "longer caps words are untouched",
			in:   "NOM_CLIENT i NOM_CLIENT_SECUNDARI. IMPORT total: IMPORTANT.",
			want: "{Nom} i NOM_CLIENT_SECUNDARI. {Import} total: IMPORTANT.",
		},
		{name: "punctuation is a boundary", in: "(IMPORT), IMPORT.", want: "({Import}), {Import}."},
		{name: "accented letter is not a boundary", in: "ÀIMPORT IMPORTÀ", want: "ÀIMPORT IMPORTÀ"},
		{name: "digits are not a boundary", in: "IMPORT2 2IMPORT", want: "IMPORT2 2IMPORT"},
		{name: "start and end of text", in: "IMPORT", want: "{Import}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.in == tt.want {
				_, err := r.Prepare([]byte(tt.in), rewrites)
				assert.ErrorIs(t, err, common.ErrInvalidInput)
				return
			}
			got, err := r.Prepare([]byte(tt.in), rewrites)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestTextRendererPrepareBracketedTokensIgnoreNeighbours(t *testing.T) {
	got, err := NewTextRenderer(false).Prepare([]byte("Ref{{nom}}x"), map[string]string{"{{nom}}": "{Nom}"})
	require.NoError(t, err)
	assert.Equal(t, "Ref{Nom}x", string(got))
}

func TestTextRendererPrepareErrors(t *testing.T) {
	r := NewTextRenderer(false)

	_, err := r.Prepare([]byte("Hola {{nom}}"), nil)
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = r.Prepare([]byte("Hola {{nom}}"), map[string]string{"{{other}}": "{Other}"})
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = r.Prepare([]byte("   "), map[string]string{"{{nom}}": "{Nom}"})
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = r.Prepare([]byte{0xff, 0xfe, 0x00}, map[string]string{"{{nom}}": "{Nom}"})
	assert.ErrorIs(t, err, common.ErrMalformedContainer)
}

func TestTextRendererRenderPlain(t *testing.T) {
	r := NewTextRenderer(false)
	template := []byte(`Benvolgut {Nom}, {~~Bio} {%Logo} {Títol:style="font-weight:bold"} {{literal}} {Missing}`)

	got, err := r.Render(template, map[string]any{
		"Nom":     "Anna & Co",
		"Bio":     "<p>Hola <b>món</b></p>",
		"Logo":    "logo.png",
		"Títol":   "Directora",
		"literal": "should not appear",
	})
	require.NoError(t, err)
	assert.Equal(t, "Benvolgut Anna & Co, Hola món logo.png Directora {{literal}} {Missing}", string(got))
}

func TestTextRendererRenderHTML(t *testing.T) {
	r := NewTextRenderer(true)
	template := []byte(`<p>{Nom}</p>{~~Bio}{%Logo}{Títol:style="font-weight:bold"}`)

	got, err := r.Render(template, map[string]any{
		"Nom":   "<Anna>",
		"Bio":   `<b>ok</b><script>alert(1)</script>`,
		"Logo":  "https://example.com/logo.png",
		"Títol": "Directora",
	})
	require.NoError(t, err)

	out := string(got)
	assert.Contains(t, out, "<p>&lt;Anna&gt;</p>")
	assert.Contains(t, out, "<b>ok</b>")
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, `<img src="https://example.com/logo.png" alt="Logo">`)
	assert.Contains(t, out, `<span style="font-weight:bold">Directora</span>`)
}

func TestTextRendererInvalidImage(t *testing.T) {
	r := NewTextRenderer(true)
	_, err := r.Render([]byte("{%Logo}"), map[string]any{"Logo": `javascript:alert(1)`})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Logo")
}

func TestStringify(t *testing.T) {
	assert.Equal(t, "", Stringify(nil))
	assert.Equal(t, "true", Stringify(true))
	assert.Equal(t, "1250.5", Stringify(1250.5))
	assert.Equal(t, "42", Stringify(42))
	assert.Equal(t, "x", Stringify("x"))
}
