package snlp

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// DocumentKind identifies which of the four workflow slots a document
// belongs to, inferred from its filename suffix.
type DocumentKind string

const (
	KindCore            DocumentKind = "core"
	KindSuccessCriteria DocumentKind = "success_criteria"
	KindFeatures        DocumentKind = "features"
	KindStyles          DocumentKind = "styles"
	KindUnknown         DocumentKind = ""
)

// DefaultNarrativeKey is the reserved bucket for narrative lines that
// appear before any declaration.
const DefaultNarrativeKey = "_default"

// Document is the immutable result of parsing one SNLP file.
type Document struct {
	Kind         DocumentKind
	Declarations map[string]Value
	Narratives   map[string][]string
	Raw          string
}

// MalformedInputError indicates the input itself was unreadable (I/O
// failure, invalid encoding). Content-level anomalies never produce it.
type MalformedInputError struct {
	Source string
	Err    error
}

func (e *MalformedInputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed input %s: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("malformed input %s", e.Source)
}

func (e *MalformedInputError) Unwrap() error {
	return e.Err
}

// Declaration lines: sigil, identifier, optional colon, optional quoted
// inline value. Anything @-prefixed that does not match is skipped with a
// warning rather than failing the document.
var declRe = regexp.MustCompile(`^@([A-Za-z_][A-Za-z0-9_]*)\s*:?\s*(?:"(.*)")?\s*$`)

// KindForFile maps a filename to its document kind by suffix.
func KindForFile(name string) DocumentKind {
	switch filepath.Ext(filepath.Base(name)) {
	case ".core":
		return KindCore
	case ".sc":
		return KindSuccessCriteria
	case ".features":
		return KindFeatures
	case ".styles":
		return KindStyles
	}
	return KindUnknown
}

// ParseFile reads and parses one SNLP document. Read failures surface as
// MalformedInputError; parse anomalies inside the content do not.
func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &MalformedInputError{Source: path, Err: err}
	}
	doc, err := Parse(string(data))
	if err != nil {
		return nil, &MalformedInputError{Source: path, Err: err}
	}
	doc.Kind = KindForFile(path)
	return doc, nil
}

// Parse converts raw SNLP text into a Document in a single line-oriented
// pass. It never fails on content: unparsable declaration lines are
// skipped, orphaned lines dropped, and declaration blocks that do not
// parse as structured data degrade to raw text. The only error is
// structurally unreadable input (invalid UTF-8).
func Parse(text string) (*Document, error) {
	if !utf8.ValidString(text) {
		return nil, &MalformedInputError{Source: "document", Err: fmt.Errorf("input is not valid UTF-8")}
	}

	doc := &Document{
		Declarations: make(map[string]Value),
		Narratives:   make(map[string][]string),
		Raw:          text,
	}

	p := &docParser{doc: doc}
	for i, line := range strings.Split(text, "\n") {
		p.feed(i+1, line)
	}
	p.flush()

	return doc, nil
}

// docParser holds the in-progress state of a single parse.
type docParser struct {
	doc *Document

	blockName  string // declaration currently capturing block lines, "" if none
	blockLines []string

	narrativeMode bool
	narrativeKey  string

	lastDecl string // most recently named declaration, for narrative binding
}

func (p *docParser) feed(lineno int, line string) {
	trimmed := strings.TrimSpace(line)

	// Blank lines and full-line comments never reach any declaration block.
	if trimmed == "" || strings.HasPrefix(trimmed, "//") {
		return
	}

	if strings.HasPrefix(trimmed, "@") {
		p.startDeclaration(lineno, trimmed)
		return
	}

	if strings.HasPrefix(trimmed, ">") {
		p.startNarrative(trimmed)
		return
	}

	switch {
	case p.narrativeMode:
		p.doc.Narratives[p.narrativeKey] = append(p.doc.Narratives[p.narrativeKey], trimmed)
	case p.blockName != "":
		// Keep the original indentation; it is significant for the
		// structured parse attempt at flush time.
		p.blockLines = append(p.blockLines, line)
	default:
		log.Printf("snlp: ignoring orphaned line %d: %q", lineno, trimmed)
	}
}

func (p *docParser) startDeclaration(lineno int, trimmed string) {
	p.flush()
	p.narrativeMode = false

	m := declRe.FindStringSubmatchIndex(trimmed)
	if m == nil {
		log.Printf("snlp: skipping unparsable declaration on line %d: %q", lineno, trimmed)
		return
	}

	name := trimmed[m[2]:m[3]]
	p.lastDecl = name

	// Inline quoted value and block capture are mutually exclusive.
	if m[4] >= 0 {
		p.doc.Declarations[name] = NewScalar(trimmed[m[4]:m[5]])
		return
	}
	p.blockName = name
	p.blockLines = nil
}

func (p *docParser) startNarrative(trimmed string) {
	p.narrativeMode = true
	p.narrativeKey = p.lastDecl
	if p.narrativeKey == "" {
		p.narrativeKey = DefaultNarrativeKey
	}

	rest := strings.TrimSpace(strings.TrimPrefix(trimmed, ">"))
	rest = strings.Trim(rest, `"`)
	if rest != "" {
		p.doc.Narratives[p.narrativeKey] = append(p.doc.Narratives[p.narrativeKey], rest)
	}
}

// flush resolves an open declaration block: structured parse first, raw
// text fallback. Last write wins for repeated names.
func (p *docParser) flush() {
	if p.blockName == "" {
		return
	}
	p.doc.Declarations[p.blockName] = parseBlock(p.blockLines)
	p.blockName = ""
	p.blockLines = nil
}

// parseBlock attempts to read block lines as a YAML mapping or sequence.
// Anything else, including parse errors and bare scalars, is kept as raw
// text so that loosely authored documents still load.
func parseBlock(lines []string) Value {
	text := strings.Join(lines, "\n")

	var root yaml.Node
	if err := yaml.Unmarshal([]byte(text), &root); err != nil {
		return NewRaw(text)
	}
	if len(root.Content) == 0 {
		return NewRaw(text)
	}

	body := root.Content[0]
	if body.Kind != yaml.MappingNode && body.Kind != yaml.SequenceNode {
		return NewRaw(text)
	}

	var decoded any
	if err := body.Decode(&decoded); err != nil {
		return NewRaw(text)
	}
	return Value{Kind: StructuredValue, Structured: decoded, node: body}
}
