package templates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderVerificationHTML(t *testing.T) {
	html, err := RenderVerificationHTML(VerificationEmailData{RecipientName: "<ada>", Code: "4821", Action: "password reset"})
	require.NoError(t, err)
	assert.Contains(t, html, `<div class="code">4821</div>`)
	assert.Contains(t, html, "complete your password reset")
	assert.Contains(t, html, "Hi &lt;ada&gt;,")

	html, err = RenderVerificationHTML(VerificationEmailData{Code: "1"})
	require.NoError(t, err)
	assert.Contains(t, html, "Hello,")
}
