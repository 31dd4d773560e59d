package page

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/aymerick/douceur/parser"
	"github.com/gorilla/css/scanner"
	"golang.org/x/net/html"
)

// Element is a live element of a Document. Attribute reads always reflect
// the current node, so membership tests based on attributes stay correct
// when the page moves or re-inserts nodes.
type Element struct {
	sel *goquery.Selection
}

// Node returns the underlying html node.
func (e *Element) Node() *html.Node { return e.sel.Get(0) }

// Tag returns the element's tag name.
func (e *Element) Tag() string { return goquery.NodeName(e.sel) }

func (e *Element) Attr(name string) (string, bool) { return e.sel.Attr(name) }

func (e *Element) HasAttr(name string) bool {
	_, ok := e.sel.Attr(name)
	return ok
}

func (e *Element) SetAttr(name, value string) { e.sel.SetAttr(name, value) }

func (e *Element) RemoveAttr(name string) { e.sel.RemoveAttr(name) }

// Display returns the effective inline display value, "" when unset.
func (e *Element) Display() string {
	style, _ := e.sel.Attr("style")
	value := ""
	for _, d := range splitStyle(style) {
		if d.property != "display" {
			continue
		}
		decls, err := parser.ParseDeclarations(d.text)
		if err != nil || len(decls) == 0 {
			continue
		}
		value = decls[0].Value
	}
	return value
}

// SetDisplay overrides the inline display property. Display declarations
// already in the style are dropped and the override is put in front; the
// rest of the style text is kept byte for byte.
func (e *Element) SetDisplay(value string) {
	style, _ := e.sel.Attr("style")
	e.sel.SetAttr("style", "display: "+value+";"+withoutDisplay(style))
}

// ClearDisplay removes every inline display declaration and nothing else.
// An element left with an empty style loses the attribute.
func (e *Element) ClearDisplay() {
	style, ok := e.sel.Attr("style")
	if !ok {
		return
	}
	rest := withoutDisplay(style)
	if rest == "" {
		e.sel.RemoveAttr("style")
		return
	}
	e.sel.SetAttr("style", rest)
}

// styleDecl is one ';'-terminated run of an inline style, verbatim.
// property is set only when the run starts with "name:".
type styleDecl struct {
	text     string
	property string
}

var newlines = strings.NewReplacer("\r\n", "\n", "\r", "\n", "\f", "\n", "\x00", "\ufffd")

// splitStyle cuts style at top-level semicolons. Strings, comments and
// url() values are single tokens, so semicolons inside them do not split.
// After a scan error (unclosed string or comment) the remainder is one
// opaque run.
func splitStyle(style string) []styleDecl {
	input := newlines.Replace(style)
	sc := scanner.New(input)

	var out []styleDecl
	var b strings.Builder
	var name, property string
	state := 0 // 0: before name, 1: after name, 2: in value
	flush := func() {
		if b.Len() > 0 {
			out = append(out, styleDecl{text: b.String(), property: property})
		}
		b.Reset()
		name, property, state = "", "", 0
	}

	pos := 0
	for {
		tok := sc.Next()
		if tok.Type == scanner.TokenEOF {
			break
		}
		if tok.Type == scanner.TokenError {
			b.WriteString(input[pos:])
			property = ""
			break
		}
		pos += len(tok.Value)
		b.WriteString(tok.Value)

		switch {
		case tok.Type == scanner.TokenS || tok.Type == scanner.TokenComment:
		case tok.Type == scanner.TokenChar && tok.Value == ";":
			flush()
		case state == 0:
			state = 2
			if tok.Type == scanner.TokenIdent {
				name = strings.ToLower(tok.Value)
				state = 1
			}
		case state == 1:
			if tok.Type == scanner.TokenChar && tok.Value == ":" {
				property = name
			}
			state = 2
		}
	}
	flush()
	return out
}

func withoutDisplay(style string) string {
	var b strings.Builder
	for _, d := range splitStyle(style) {
		if d.property != "display" {
			b.WriteString(d.text)
		}
	}
	return b.String()
}
