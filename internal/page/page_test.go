package page

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `<!DOCTYPE html>
<html><head><title>Sample</title></head>
<body>
<main id="content"><p>Hello</p></main>
<aside class="sidebar">links</aside>
<div id="feed"><div class="ad-slot">buy</div></div>
<section><span aria-label="Suggested for you">s</span></section>
</body></html>`

func parse(t *testing.T, s string) *Document {
	t.Helper()
	doc, err := ParseString(s)
	require.NoError(t, err)
	return doc
}

func TestQuery(t *testing.T) {
	doc := parse(t, sample)

	els, err := doc.Query(`[class*="ad-"]`)
	require.NoError(t, err)
	require.Len(t, els, 1)
	assert.Equal(t, "div", els[0].Tag())

	els, err = doc.Query(`section:has([aria-label*="Suggested"])`)
	require.NoError(t, err)
	assert.Len(t, els, 1)

	els, err = doc.Query("aside, main")
	require.NoError(t, err)
	assert.Len(t, els, 2)
}

func TestQueryMalformedSelector(t *testing.T) {
	doc := parse(t, sample)
	for _, sel := range []string{"[class*=", "div:unknown-pseudo", ">>>"} {
		_, err := doc.Query(sel)
		assert.Error(t, err, sel)
	}
}

func TestDisplayOverride(t *testing.T) {
	doc := parse(t, `<html><body><div id="a">x</div><div id="b" style="color: red">y</div></body></html>`)

	a := mustOne(t, doc, "#a")
	assert.Equal(t, "", a.Display())
	a.SetDisplay("none")
	assert.Equal(t, "none", a.Display())
	a.ClearDisplay()
	assert.Equal(t, "", a.Display())
	assert.False(t, a.HasAttr("style"))

	b := mustOne(t, doc, "#b")
	b.SetDisplay("none")
	assert.Equal(t, "none", b.Display())
	b.ClearDisplay()
	style, ok := b.Attr("style")
	require.True(t, ok)
	assert.Contains(t, style, "color: red")
	assert.NotContains(t, style, "display")
}

func TestSetDisplayReplacesExisting(t *testing.T) {
	doc := parse(t, `<html><body><div id="a" style="display: block; margin: 0">x</div></body></html>`)
	a := mustOne(t, doc, "#a")
	a.SetDisplay("none")
	style, _ := a.Attr("style")
	assert.Equal(t, 1, strings.Count(style, "display"))
	assert.Equal(t, "none", a.Display())
}

func TestDisplayKeepsStyleText(t *testing.T) {
	doc := parse(t, `<html><body><div id="a" style="/* keep */ color:red;;background: url('x;y')">x</div></body></html>`)
	a := mustOne(t, doc, "#a")

	a.SetDisplay("none")
	style, _ := a.Attr("style")
	assert.Equal(t, "display: none;/* keep */ color:red;;background: url('x;y')", style)
	assert.Equal(t, "none", a.Display())

	a.ClearDisplay()
	style, _ = a.Attr("style")
	assert.Equal(t, "/* keep */ color:red;;background: url('x;y')", style)
}

func TestSplitStyle(t *testing.T) {
	decls := splitStyle(`DISPLAY: block; a: "b;c"; display; /* x */ display :none`)
	var props []string
	for _, d := range decls {
		props = append(props, d.property)
	}
	assert.Equal(t, []string{"display", "a", "", "display"}, props)
	assert.Equal(t, ` /* x */ display :none`, decls[3].text)

	decls = splitStyle(`color: red; content: "open`)
	require.Len(t, decls, 2)
	assert.Equal(t, ` content: "open`, decls[1].text)
	assert.Equal(t, "", decls[1].property)
}

func TestAttributes(t *testing.T) {
	doc := parse(t, sample)
	el := mustOne(t, doc, "main")
	assert.False(t, el.HasAttr("data-x"))
	el.SetAttr("data-x", "true")
	v, ok := el.Attr("data-x")
	assert.True(t, ok)
	assert.Equal(t, "true", v)
	el.RemoveAttr("data-x")
	assert.False(t, el.HasAttr("data-x"))
}

func TestAppendNotifiesObservers(t *testing.T) {
	doc := parse(t, sample)
	var batches [][]Mutation
	stop := doc.Observe(func(b []Mutation) { batches = append(batches, b) })

	n, err := doc.Append("#feed", `<div class="ad-banner">new</div><p>more</p>`)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, batches, 1)
	assert.Equal(t, Mutation{Kind: ChildAdded, Target: "div", Nodes: 2}, batches[0][0])

	els, _ := doc.Query(".ad-banner")
	assert.Len(t, els, 1)

	stop()
	_, err = doc.Append("#feed", `<p>quiet</p>`)
	require.NoError(t, err)
	assert.Len(t, batches, 1)
}

func TestAppendNoMatch(t *testing.T) {
	doc := parse(t, sample)
	_, err := doc.Append("#missing", "<p>x</p>")
	assert.Error(t, err)
}

func TestRemoveNotifiesObservers(t *testing.T) {
	doc := parse(t, sample)
	var got []Mutation
	doc.Observe(func(b []Mutation) { got = append(got, b...) })

	n, err := doc.Remove("aside")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, got, 1)
	assert.Equal(t, ChildRemoved, got[0].Kind)
	assert.Equal(t, "body", got[0].Target)

	els, _ := doc.Query("aside")
	assert.Empty(t, els)
}

func TestHeadChangesAreNotObserved(t *testing.T) {
	doc := parse(t, sample)
	calls := 0
	doc.Observe(func([]Mutation) { calls++ })

	_, err := doc.Append("head", `<meta name="x" content="y">`)
	require.NoError(t, err)
	doc.SetHeadStyle("s1", "body{}")
	doc.RemoveHeadStyle("s1")
	assert.Zero(t, calls)
}

func TestHeadStyleLifecycle(t *testing.T) {
	doc := parse(t, sample)

	_, ok := doc.HeadStyle("reading")
	assert.False(t, ok)

	doc.SetHeadStyle("reading", "body { color: #333; }")
	css, ok := doc.HeadStyle("reading")
	require.True(t, ok)
	assert.Equal(t, "body { color: #333; }", css)

	doc.SetHeadStyle("reading", "p { margin: 0; }")
	css, _ = doc.HeadStyle("reading")
	assert.Equal(t, "p { margin: 0; }", css)
	els, _ := doc.Query("style#reading")
	assert.Len(t, els, 1)

	out, err := doc.HTML()
	require.NoError(t, err)
	assert.Contains(t, out, `<style id="reading">p { margin: 0; }</style>`)

	assert.True(t, doc.RemoveHeadStyle("reading"))
	assert.False(t, doc.RemoveHeadStyle("reading"))
	_, ok = doc.HeadStyle("reading")
	assert.False(t, ok)
}

func mustOne(t *testing.T, doc *Document, sel string) *Element {
	t.Helper()
	els, err := doc.Query(sel)
	require.NoError(t, err)
	require.Len(t, els, 1, sel)
	return els[0]
}
