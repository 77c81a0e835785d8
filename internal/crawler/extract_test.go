package crawler

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const samplePage = `<html>
<head>
  <title>  Our Team </title>
  <link rel="canonical" href="/team">
  <script>var tracking = true;</script>
</head>
<body>
  <nav><a href="/">Home</a></nav>
  <div class="cookie">We use cookies.</div>
  <div id="ads">Buy things!</div>
  <p>Jane Smith leads the research group.</p>
  <a href="/about">About</a>
  <a href="/about#history">History</a>
  <a href="mailto:team@example.com">Mail us</a>
  <a href="https://other.example.net/external">Elsewhere</a>
  <footer>Copyright 2025</footer>
</body>
</html>`

func TestParseDocument(t *testing.T) {
	doc, err := ParseDocument([]byte(samplePage), "https://example.com/team/index.html")
	require.NoError(t, err)

	require.Equal(t, "Our Team", doc.Title)
	require.Equal(t, "https://example.com/team", doc.Canonical)

	require.Contains(t, doc.Text, "Jane Smith leads the research group.")
	require.NotContains(t, doc.Text, "tracking")
	require.NotContains(t, doc.Text, "cookies")
	require.NotContains(t, doc.Text, "Buy things")
	require.NotContains(t, doc.Text, "Copyright")

	// Fragment variant collapses onto the same link; pseudo-links dropped;
	// off-host links kept here (the engine filters them).
	require.Equal(t, []string{
		"https://example.com",
		"https://example.com/about",
		"https://other.example.net/external",
	}, doc.Links)
}

func TestParseDocumentEmptyBody(t *testing.T) {
	doc, err := ParseDocument([]byte("<html><body></body></html>"), "https://example.com")
	require.NoError(t, err)
	require.Empty(t, doc.Title)
	require.Empty(t, doc.Text)
	require.Empty(t, doc.Links)
}
