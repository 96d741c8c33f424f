// Package webcode turns unstructured LLM output into a consistent set of
// named web files. The extractor finds fenced code blocks; the resolver maps
// them onto filenames through an ordered chain of matcher strategies that
// always yields an index.html for any input.
package webcode

import (
	"regexp"
	"strings"
)

// fencePattern matches one triple-fenced block: an optional label on the
// fence line (filename or bare language tag), then the body up to the
// closing fence. The newline after the label is optional so a block whose
// body butts directly against the closing fence still extracts.
var fencePattern = regexp.MustCompile("(?s)```([^\\s`]*)[ \t]*\r?\n?(.*?)```")

// filenameLabel matches labels that are explicit filenames with one of the
// supported extensions.
var filenameLabel = regexp.MustCompile(`(?i)^\S+\.(html|css|js|json)$`)

// Block is one fenced block extracted from a model response. Label is either
// an explicit filename ("index.html"), a bare language tag ("js"), or empty
// for an unlabeled fence. Body is trimmed of leading and trailing whitespace.
type Block struct {
	Label string
	Body  string
}

// IsFilename reports whether the block's label is an explicit filename.
func (b Block) IsFilename() bool {
	return filenameLabel.MatchString(b.Label)
}

// LangTag returns the label lowercased for language-tag comparison.
func (b Block) LangTag() string {
	return strings.ToLower(b.Label)
}

// Extract returns all fenced blocks in response, in order of occurrence.
// Multiple blocks may carry the same label; the resolver decides precedence.
func Extract(response string) []Block {
	matches := fencePattern.FindAllStringSubmatch(response, -1)
	blocks := make([]Block, 0, len(matches))
	for _, m := range matches {
		blocks = append(blocks, Block{
			Label: strings.TrimSpace(m[1]),
			Body:  strings.TrimSpace(m[2]),
		})
	}
	return blocks
}

// ExtractCode pulls a single code block out of a model response for the
// given language. It prefers a block tagged with that language, falls back
// to the first block of any label, and finally to the whole response when
// the model ignored the fencing instructions entirely.
func ExtractCode(response, language string) string {
	blocks := Extract(response)
	want := strings.ToLower(language)
	for _, b := range blocks {
		if b.LangTag() == want {
			return b.Body
		}
	}
	if len(blocks) > 0 {
		return blocks[0].Body
	}
	return strings.TrimSpace(response)
}

// Prose returns the explanation text surrounding the fenced blocks: the raw
// response with every fenced block removed and blank runs collapsed.
func Prose(response string) string {
	text := fencePattern.ReplaceAllString(response, "")
	lines := strings.Split(text, "\n")
	var out []string
	blank := true
	for _, line := range lines {
		trimmed := strings.TrimRight(line, " \t")
		if strings.TrimSpace(trimmed) == "" {
			if !blank {
				out = append(out, "")
			}
			blank = true
			continue
		}
		out = append(out, trimmed)
		blank = false
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
