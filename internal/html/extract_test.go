package html

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextPrefersArticle(t *testing.T) {
	doc := `<html><head><title>Swamp</title><style>p{}</style></head>
<body>
  <nav><a href="/">Home</a></nav>
  <article>
    <h1>Ogres</h1>
    <p>Ogres are like   onions.
       They have layers.</p>
    <script>alert("no")</script>
    <p>Onions have <b>layers</b> too.</p>
  </article>
  <footer>Copyright</footer>
</body></html>`

	text, err := Text(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, "Ogres\n\nOgres are like onions.\nThey have layers.\n\nOnions have layers too.", text)
}

func TestTextFallsBackToBody(t *testing.T) {
	doc := `<body><header>Menu</header><div>First</div><div>Second <i>part</i></div></body>`

	text, err := Text(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, "First\n\nSecond part", text)
}
