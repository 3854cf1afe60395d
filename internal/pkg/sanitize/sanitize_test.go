package sanitize_test

import (
	"testing"

	"chamanexus/internal/pkg/sanitize"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	assert.Equal(t, "", sanitize.Text(""))
	assert.Equal(t, "Wanjiku Kamau", sanitize.Text("  Wanjiku Kamau "))
	assert.Equal(t, "Tom & Jerry", sanitize.Text("Tom & Jerry"))
	assert.Equal(t, "a < b", sanitize.Text("a < b"))
	assert.Equal(t, "Hello", sanitize.Text("<b>Hello</b><script>alert('x')</script>"))
	assert.Equal(t, "Click", sanitize.Text(`<a href="javascript:alert(1)">Click</a>`))
}

func TestTextEncodedMarkup(t *testing.T) {
	for _, in := range []string{
		"&lt;script&gt;alert(1)&lt;/script&gt;",
		"&amp;lt;img src=x onerror=alert(1)&amp;gt;",
		"Mama &lt;b&gt;Njeri&lt;/b&gt;",
	} {
		out := sanitize.Text(in)
		assert.NotContains(t, out, "<", in)
		assert.Equal(t, out, sanitize.Text(out), in)
	}

	assert.Equal(t, "Mama Njeri", sanitize.Text("Mama &lt;b&gt;Njeri&lt;/b&gt;"))
}
