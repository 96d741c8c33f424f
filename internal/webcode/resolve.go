package webcode

import (
	"fmt"
	"html"
	"strings"
)

// placeholderLimit bounds how much raw response text the absolute-fallback
// document renders.
const placeholderLimit = 2000

const wrapScriptHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Generated App</title>
    <script src="https://cdn.tailwindcss.com"></script>
</head>
<body class="bg-gray-100 min-h-screen">
    <div id="app" class="container mx-auto p-4">
        <script>%s</script>
    </div>
</body>
</html>`

const placeholderHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Generated App</title>
    <script src="https://cdn.tailwindcss.com"></script>
</head>
<body class="bg-gray-100 min-h-screen flex items-center justify-center">
    <div class="bg-white p-8 rounded-lg shadow-lg max-w-2xl">
        <h1 class="text-2xl font-bold mb-4">Generated Content</h1>
        <pre class="bg-gray-100 p-4 rounded overflow-auto text-sm">%s</pre>
    </div>
</body>
</html>`

// FileMap is an insertion-ordered mapping of filename to content. Re-setting
// an existing name replaces the content but keeps the original position.
type FileMap struct {
	names   []string
	content map[string]string
}

func NewFileMap() *FileMap {
	return &FileMap{content: make(map[string]string)}
}

func (m *FileMap) Set(name, content string) {
	if _, exists := m.content[name]; !exists {
		m.names = append(m.names, name)
	}
	m.content[name] = content
}

func (m *FileMap) Get(name string) (string, bool) {
	c, ok := m.content[name]
	return c, ok
}

func (m *FileMap) Has(name string) bool {
	_, ok := m.content[name]
	return ok
}

func (m *FileMap) Len() int {
	return len(m.names)
}

// Names returns the filenames in insertion order.
func (m *FileMap) Names() []string {
	out := make([]string, len(m.names))
	copy(out, m.names)
	return out
}

// matcher is one strategy in the resolver fallback chain. Each strategy only
// fills names still missing from the mapping; the chain order is the
// contract.
type matcher interface {
	apply(blocks []Block, raw string, out *FileMap)
}

// filenameMatcher copies every explicitly filename-labeled block. A later
// block with the same filename replaces the earlier content.
type filenameMatcher struct{}

func (filenameMatcher) apply(blocks []Block, _ string, out *FileMap) {
	for _, b := range blocks {
		if b.IsFilename() {
			out.Set(b.Label, b.Body)
		}
	}
}

// langTagMatcher assigns the first block carrying one of the given language
// tags to target, unless any of the occupied names is already mapped.
type langTagMatcher struct {
	tags     []string
	target   string
	occupied []string
}

func (m langTagMatcher) apply(blocks []Block, _ string, out *FileMap) {
	for _, name := range m.occupied {
		if out.Has(name) {
			return
		}
	}
	for _, b := range blocks {
		for _, tag := range m.tags {
			if b.LangTag() == tag {
				out.Set(m.target, b.Body)
				return
			}
		}
	}
}

// firstBlockMatcher takes the first fenced block of any label as fallback
// HTML when no index.html was found. Markup-looking content is used
// verbatim; anything else is wrapped into a document that runs it as an
// inline script, so even a script-only response produces a loadable page.
type firstBlockMatcher struct{}

func (firstBlockMatcher) apply(blocks []Block, _ string, out *FileMap) {
	if out.Has("index.html") || len(blocks) == 0 {
		return
	}
	content := blocks[0].Body
	if looksLikeMarkup(content) {
		out.Set("index.html", content)
		return
	}
	out.Set("index.html", fmt.Sprintf(wrapScriptHTML, content))
}

// rawHTMLMatcher slices an HTML document straight out of the raw response
// when the model emitted one without any fencing.
type rawHTMLMatcher struct{}

func (rawHTMLMatcher) apply(_ []Block, raw string, out *FileMap) {
	if out.Has("index.html") {
		return
	}
	start := strings.Index(raw, "<!DOCTYPE")
	if start == -1 {
		start = strings.Index(raw, "<html")
	}
	if start == -1 {
		return
	}
	out.Set("index.html", strings.TrimSpace(raw[start:]))
}

// placeholderMatcher is the absolute fallback: a document rendering the
// start of the raw response as preformatted text.
type placeholderMatcher struct{}

func (placeholderMatcher) apply(_ []Block, raw string, out *FileMap) {
	if out.Has("index.html") {
		return
	}
	excerpt := raw
	if len(excerpt) > placeholderLimit {
		excerpt = excerpt[:placeholderLimit]
	}
	out.Set("index.html", fmt.Sprintf(placeholderHTML, html.EscapeString(excerpt)))
}

func looksLikeMarkup(content string) bool {
	return strings.HasPrefix(content, "<!DOCTYPE") ||
		strings.HasPrefix(content, "<html") ||
		strings.Contains(content, "<")
}

// chain is the resolver fallback chain, evaluated in order. New file-kind
// matchers slot in without touching existing ones.
var chain = []matcher{
	filenameMatcher{},
	langTagMatcher{tags: []string{"html", "htm"}, target: "index.html", occupied: []string{"index.html"}},
	langTagMatcher{tags: []string{"css"}, target: "styles.css", occupied: []string{"styles.css", "style.css"}},
	langTagMatcher{tags: []string{"js", "javascript"}, target: "script.js", occupied: []string{"script.js", "app.js"}},
	firstBlockMatcher{},
	rawHTMLMatcher{},
	placeholderMatcher{},
}

// Resolve maps a raw model response to a final filename-to-content mapping.
// It never fails and the result always contains an "index.html" entry:
// every input, including the empty string, yields a loadable page.
func Resolve(response string) *FileMap {
	blocks := Extract(response)
	out := NewFileMap()
	for _, m := range chain {
		m.apply(blocks, response, out)
	}
	return out
}
