package pagetext

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestText_BlocksBecomeLines(t *testing.T) {
	in := `<html><head><title>Case</title></head><body>
  <h1>Authorization   Status</h1>
  <table><tr><td>PA-14091005229</td><td>Approved</td></tr></table>
  <script>var s = "hidden";</script>
  <p>Last   updated
     today</p>
</body></html>`

	out, err := Text(in, 0)
	require.NoError(t, err)

	assert.Equal(t, "Authorization Status\nPA-14091005229 Approved\nLast updated today", out)
}

func TestText_IncludesInputValues(t *testing.T) {
	out, err := Text(`<body><form><label>ID <input value="PA-1"></label></form></body>`, 0)
	require.NoError(t, err)

	assert.Contains(t, out, "ID PA-1")
}

func TestText_Truncates(t *testing.T) {
	out, err := Text("<body><p>"+strings.Repeat("a", 100)+"</p></body>", 10)
	require.NoError(t, err)

	assert.Equal(t, strings.Repeat("a", 10)+"\n[truncated]", out)
}
