package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderSubstitutesVariables(t *testing.T) {
	out, err := Render(Template{
		Subject: "Invoice {{invoice_number}} from {{sender_name}}",
		HTML:    "<p>Hi {{client_name}},</p>",
		Text:    "Hi {{client_name}},",
	}, map[string]string{
		"invoice_number": "INV-0001",
		"sender_name":    "Jordan",
		"client_name":    "Acme",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Invoice INV-0001 from Jordan", out.Subject)
	assert.Equal(t, "<p>Hi Acme,</p>", out.HTML)
	assert.Equal(t, "Hi Acme,", out.Text)
}

func TestRenderNoPlaceholdersUnchanged(t *testing.T) {
	out, err := Render(Template{Subject: "Hello", HTML: "<b>Hi</b>", Text: "Hi"}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "Hello", out.Subject)
	assert.Equal(t, "<b>Hi</b>", out.HTML)
	assert.Equal(t, "Hi", out.Text)
}

func TestRenderUnknownVariableStaysLiteral(t *testing.T) {
	out, err := Render(Template{Subject: "Hi {{whoami}}"}, map[string]string{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Hi {{whoami}}", out.Subject)
}

func TestConditionalBlocks(t *testing.T) {
	tmpl := Template{Text: "{{#if custom_message}}{{custom_message}}\n{{/if}}Thanks."}

	out, err := Render(tmpl, map[string]string{"custom_message": "See attached."},
		map[string]bool{"custom_message": true})
	require.NoError(t, err)
	assert.Equal(t, "See attached.\nThanks.", out.Text)

	out, err = Render(tmpl, nil, map[string]bool{"custom_message": false})
	require.NoError(t, err)
	assert.Equal(t, "Thanks.", out.Text)

	// Absent flag behaves like false.
	out, err = Render(Template{Text: "{{#if x}}A{{/if}}"}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "", out.Text)

	out, err = Render(Template{Text: "{{#if x}}A{{/if}}"}, nil, map[string]bool{"x": true})
	require.NoError(t, err)
	assert.Equal(t, "A", out.Text)
}

func TestMalformedBlocks(t *testing.T) {
	_, err := Render(Template{Text: "{{#if a}}A"}, nil, nil)
	assert.ErrorIs(t, err, ErrUnclosedBlock)

	_, err = Render(Template{Text: "{{#if a}}{{#if b}}X{{/if}}{{/if}}"}, nil, nil)
	assert.ErrorIs(t, err, ErrNestedBlock)

	_, err = Render(Template{Text: "A{{/if}}"}, nil, nil)
	assert.ErrorIs(t, err, ErrDanglingEnd)
}

func TestLoneBracesAreLiteral(t *testing.T) {
	out, err := Render(Template{Text: "set {{ and move on"}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "set {{ and move on", out.Text)
}
