// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package pollui

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// markdownParserInstance is initialized once and reused. The parser
// configuration never changes and the goldmark Parser is safe to
// share; parsing creates per-call state via Parse(reader).
var (
	markdownParserInstance goldmark.Markdown
	markdownParserOnce     sync.Once
)

func getMarkdownParser() goldmark.Markdown {
	markdownParserOnce.Do(func() {
		markdownParserInstance = goldmark.New(
			goldmark.WithExtensions(extension.GFM),
		)
	})
	return markdownParserInstance
}

// renderMarkdown parses a poll description and renders it as styled
// terminal output. Soft line breaks (single newlines within
// paragraphs) become spaces so hard-wrapped source text reflows at
// any pane width. Code blocks, lists, and tables keep their
// structure.
func renderMarkdown(input string, theme Theme, width int) string {
	if input == "" {
		return ""
	}
	source := []byte(input)
	reader := text.NewReader(source)
	document := getMarkdownParser().Parser().Parse(reader)

	// Force the ANSI256 color profile: this output is always for a
	// bubbletea TUI, and auto-detection would strip all color in
	// environments without a TTY. SetColorProfile is needed on top
	// of WithProfile because lipgloss re-detects from the
	// environment unless an explicit profile is set.
	lipRenderer := lipgloss.NewRenderer(os.Stderr, termenv.WithProfile(termenv.ANSI256))
	lipRenderer.SetColorProfile(termenv.ANSI256)

	renderer := &markdownRenderer{
		source:      source,
		theme:       theme,
		width:       width,
		lipRenderer: lipRenderer,
	}
	ast.Walk(document, renderer.walk)

	return strings.TrimRight(renderer.output.String(), "\n")
}

// markdownRenderer walks a goldmark AST and produces styled terminal
// text. It uses a direct ast.Walk rather than goldmark's renderer
// interface: terminal rendering needs accumulate-then-wrap semantics,
// where a paragraph's inline content collects in a buffer and gets
// word-wrapped as a unit when the paragraph closes.
type markdownRenderer struct {
	source []byte
	theme  Theme
	width  int

	// Final rendered output.
	output strings.Builder

	// Inline accumulator: styled text fragments within the current
	// paragraph or heading, flushed with word-wrap when the block
	// closes.
	inline strings.Builder

	// Prefix stack for nested block containers (blockquotes, list
	// continuations).
	prefixStack     []prefixLevel
	linePrefix      string
	linePrefixWidth int

	// Pending bullet: replaces linePrefix for the very next emitted
	// line, then clears.
	pendingBullet string

	// Inline style counters, incremented on entering emphasis nodes
	// and decremented on leaving. Counters rather than booleans so
	// nested emphasis unwinds correctly.
	boldCount          int
	italicCount        int
	strikethroughCount int

	listStack []listState

	// lipgloss renderer with the forced color profile.
	lipRenderer *lipgloss.Renderer

	// Trailing newlines at the end of output, for blank line
	// management.
	trailingNewlines int
}

type prefixLevel struct {
	text  string
	width int
}

type listState struct {
	ordered bool
	counter int
	tight   bool
}

func (renderer *markdownRenderer) newStyle() lipgloss.Style {
	return renderer.lipRenderer.NewStyle()
}

// currentWidth returns the available content width after the nesting
// prefixes, clamped to a minimum of 10.
func (renderer *markdownRenderer) currentWidth() int {
	width := renderer.width - renderer.linePrefixWidth
	if width < 10 {
		width = 10
	}
	return width
}

func (renderer *markdownRenderer) pushPrefix(prefixText string, visibleWidth int) {
	renderer.prefixStack = append(renderer.prefixStack, prefixLevel{
		text:  prefixText,
		width: visibleWidth,
	})
	renderer.linePrefix += prefixText
	renderer.linePrefixWidth += visibleWidth
}

func (renderer *markdownRenderer) popPrefix() {
	if len(renderer.prefixStack) == 0 {
		return
	}
	top := renderer.prefixStack[len(renderer.prefixStack)-1]
	renderer.prefixStack = renderer.prefixStack[:len(renderer.prefixStack)-1]
	renderer.linePrefix = renderer.linePrefix[:len(renderer.linePrefix)-len(top.text)]
	renderer.linePrefixWidth -= top.width
}

func (renderer *markdownRenderer) inTightList() bool {
	if len(renderer.listStack) == 0 {
		return false
	}
	return renderer.listStack[len(renderer.listStack)-1].tight
}

// writeOutput appends text to the output buffer, tracking trailing
// newlines for blank line management.
func (renderer *markdownRenderer) writeOutput(s string) {
	if s == "" {
		return
	}
	renderer.output.WriteString(s)

	newTrailing := 0
	entirelyNewlines := true
	for index := len(s) - 1; index >= 0; index-- {
		if s[index] == '\n' {
			newTrailing++
		} else {
			entirelyNewlines = false
			break
		}
	}

	// A string of pure newlines extends the trailing count; any
	// other character resets it.
	if entirelyNewlines {
		renderer.trailingNewlines += newTrailing
	} else {
		renderer.trailingNewlines = newTrailing
	}
}

func (renderer *markdownRenderer) ensureNewline() {
	if renderer.trailingNewlines < 1 {
		renderer.writeOutput("\n")
	}
}

func (renderer *markdownRenderer) ensureBlankLine() {
	for renderer.trailingNewlines < 2 {
		renderer.writeOutput("\n")
	}
}

// consumeLinePrefix returns the prefix for the next emitted line: the
// pending bullet if one is queued, the accumulated line prefix
// otherwise.
func (renderer *markdownRenderer) consumeLinePrefix() string {
	if renderer.pendingBullet != "" {
		bullet := renderer.pendingBullet
		renderer.pendingBullet = ""
		return bullet
	}
	return renderer.linePrefix
}

// applyPrefixes prepends the line prefix to every line of content.
// The first line consumes the pending bullet when one is queued.
func (renderer *markdownRenderer) applyPrefixes(content string) string {
	lines := strings.Split(content, "\n")
	var result strings.Builder
	for index, line := range lines {
		if index == 0 {
			result.WriteString(renderer.consumeLinePrefix())
		} else {
			result.WriteString(renderer.linePrefix)
		}
		result.WriteString(line)
		if index < len(lines)-1 {
			result.WriteString("\n")
		}
	}
	return result.String()
}

// flushInline word-wraps the accumulated inline content to the
// current width, applies line prefixes, and returns the result.
// Resets the inline buffer.
func (renderer *markdownRenderer) flushInline() string {
	content := renderer.inline.String()
	renderer.inline.Reset()
	if content == "" {
		return ""
	}

	content = ansi.Wrap(content, renderer.currentWidth(), " ,.;-+|")
	return renderer.applyPrefixes(content)
}

// styledText applies the current inline style counters to a text
// fragment.
func (renderer *markdownRenderer) styledText(content string) string {
	style := renderer.newStyle().Foreground(renderer.theme.NormalText)
	if renderer.boldCount > 0 {
		style = style.Bold(true)
	}
	if renderer.italicCount > 0 {
		style = style.Italic(true)
	}
	if renderer.strikethroughCount > 0 {
		style = style.Strikethrough(true)
	}
	return style.Render(content)
}

// highlightCode syntax-highlights code with Chroma. Unknown languages
// and Chroma errors fall back to dim plain text.
func (renderer *markdownRenderer) highlightCode(code, language string) string {
	if language == "" {
		return renderer.newStyle().Foreground(renderer.theme.FaintText).Render(code)
	}
	var buffer strings.Builder
	err := quick.Highlight(&buffer, code, language, "terminal256", "monokai")
	if err != nil {
		return renderer.newStyle().Foreground(renderer.theme.FaintText).Render(code)
	}
	return buffer.String()
}

func (renderer *markdownRenderer) walk(node ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node.Kind() {

	// Block nodes.
	case ast.KindDocument:

	case ast.KindParagraph, ast.KindTextBlock:
		if entering {
			renderer.inline.Reset()
		} else {
			flushed := renderer.flushInline()
			if flushed != "" {
				renderer.writeOutput(flushed)
				renderer.ensureNewline()
				if !renderer.inTightList() {
					renderer.ensureBlankLine()
				}
			}
		}

	case ast.KindHeading:
		if entering {
			renderer.inline.Reset()
		} else {
			renderer.leaveHeading(node.(*ast.Heading))
		}

	case ast.KindFencedCodeBlock:
		if entering {
			renderer.renderFencedCodeBlock(node.(*ast.FencedCodeBlock))
			return ast.WalkSkipChildren, nil
		}

	case ast.KindCodeBlock:
		if entering {
			renderer.renderCodeBlock(node.(*ast.CodeBlock))
			return ast.WalkSkipChildren, nil
		}

	case ast.KindBlockquote:
		if entering {
			renderer.pushPrefix("│ ", 2)
		} else {
			renderer.popPrefix()
			renderer.ensureBlankLine()
		}

	case ast.KindList:
		if entering {
			renderer.enterList(node.(*ast.List))
		} else {
			renderer.leaveList()
		}

	case ast.KindListItem:
		if entering {
			renderer.enterListItem()
		} else {
			renderer.leaveListItem()
		}

	case ast.KindThematicBreak:
		if entering {
			renderer.renderThematicBreak()
		}

	case ast.KindHTMLBlock:
		if entering {
			return ast.WalkSkipChildren, nil
		}

	case extast.KindTable:
		if entering {
			renderer.renderTable(node.(*extast.Table))
			return ast.WalkSkipChildren, nil
		}

	// Inline nodes.
	case ast.KindText:
		if entering {
			renderer.handleText(node.(*ast.Text))
		}

	case ast.KindString:
		if entering {
			renderer.inline.WriteString(renderer.styledText(string(node.(*ast.String).Value)))
		}

	case ast.KindCodeSpan:
		if entering {
			renderer.renderCodeSpan(node)
			return ast.WalkSkipChildren, nil
		}

	case ast.KindEmphasis:
		emphasis := node.(*ast.Emphasis)
		delta := 1
		if !entering {
			delta = -1
		}
		if emphasis.Level >= 2 {
			renderer.boldCount += delta
		} else {
			renderer.italicCount += delta
		}

	case extast.KindStrikethrough:
		if entering {
			renderer.strikethroughCount++
		} else {
			renderer.strikethroughCount--
		}

	case ast.KindLink:
		if entering {
			renderer.renderLink(node.(*ast.Link))
			return ast.WalkSkipChildren, nil
		}

	case ast.KindAutoLink:
		if entering {
			renderer.renderAutoLink(node.(*ast.AutoLink))
			return ast.WalkSkipChildren, nil
		}

	case ast.KindRawHTML:
		if entering {
			return ast.WalkSkipChildren, nil
		}
	}

	return ast.WalkContinue, nil
}

func (renderer *markdownRenderer) handleText(node *ast.Text) {
	segment := node.Segment
	renderer.inline.WriteString(renderer.styledText(string(segment.Value(renderer.source))))

	if node.SoftLineBreak() {
		// Soft line breaks become spaces so hard-wrapped source
		// reflows at the pane width.
		renderer.inline.WriteString(" ")
	}
	if node.HardLineBreak() {
		renderer.inline.WriteString("\n")
	}
}

func (renderer *markdownRenderer) leaveHeading(heading *ast.Heading) {
	// Strip inline styling: the heading carries its own style in
	// place of the NormalText that styledText applied.
	content := ansi.Strip(renderer.inline.String())
	renderer.inline.Reset()
	if content == "" {
		return
	}

	style := renderer.newStyle().Bold(true)
	if heading.Level <= 2 {
		style = style.Foreground(renderer.theme.HeaderForeground)
	} else {
		style = style.Foreground(renderer.theme.NormalText)
	}

	wrapped := ansi.Wrap(style.Render(content), renderer.currentWidth(), " ,.;-+|")
	flushed := renderer.applyPrefixes(wrapped)
	renderer.ensureBlankLine()
	renderer.writeOutput(flushed)
	renderer.ensureNewline()
	renderer.ensureBlankLine()
}

func (renderer *markdownRenderer) renderFencedCodeBlock(node *ast.FencedCodeBlock) {
	language := string(node.Language(renderer.source))
	renderer.writeCodeLines(renderer.collectLines(node), language)
}

func (renderer *markdownRenderer) renderCodeBlock(node *ast.CodeBlock) {
	renderer.writeCodeLines(renderer.collectLines(node), "")
}

// collectLines joins the raw source segments of a code block node.
func (renderer *markdownRenderer) collectLines(node ast.Node) string {
	var code strings.Builder
	lines := node.Lines()
	for index := 0; index < lines.Len(); index++ {
		segment := lines.At(index)
		code.Write(segment.Value(renderer.source))
	}
	return code.String()
}

func (renderer *markdownRenderer) writeCodeLines(code, language string) {
	highlighted := renderer.highlightCode(strings.TrimRight(code, "\n"), language)
	renderer.ensureBlankLine()
	for _, line := range strings.Split(highlighted, "\n") {
		renderer.writeOutput(renderer.consumeLinePrefix() + "  " + line)
		renderer.ensureNewline()
	}
	renderer.ensureBlankLine()
}

func (renderer *markdownRenderer) enterList(list *ast.List) {
	startNumber := 0
	if list.IsOrdered() {
		startNumber = list.Start
	}
	renderer.listStack = append(renderer.listStack, listState{
		ordered: list.IsOrdered(),
		counter: startNumber,
		tight:   list.IsTight,
	})
}

func (renderer *markdownRenderer) leaveList() {
	if len(renderer.listStack) > 0 {
		renderer.listStack = renderer.listStack[:len(renderer.listStack)-1]
	}
	if !renderer.inTightList() {
		renderer.ensureBlankLine()
	}
}

func (renderer *markdownRenderer) enterListItem() {
	if len(renderer.listStack) == 0 {
		return
	}
	top := &renderer.listStack[len(renderer.listStack)-1]

	var bullet string
	if top.ordered {
		bullet = fmt.Sprintf("%d. ", top.counter)
		top.counter++
	} else {
		bullet = "- "
	}

	bulletWidth := len(bullet) // ASCII-only, so byte length == visual width.
	continuation := strings.Repeat(" ", bulletWidth)

	// The pending bullet includes the current linePrefix so it
	// replaces the entire prefix for the item's first line.
	renderer.pendingBullet = renderer.linePrefix + bullet
	renderer.pushPrefix(continuation, bulletWidth)
}

func (renderer *markdownRenderer) leaveListItem() {
	renderer.popPrefix()
	if !renderer.inTightList() {
		renderer.ensureBlankLine()
	} else {
		renderer.ensureNewline()
	}
}

func (renderer *markdownRenderer) renderThematicBreak() {
	rule := strings.Repeat("─", renderer.currentWidth())
	ruleStyle := renderer.newStyle().Foreground(renderer.theme.BorderColor)
	renderer.ensureBlankLine()
	renderer.writeOutput(renderer.applyPrefixes(ruleStyle.Render(rule)))
	renderer.ensureNewline()
	renderer.ensureBlankLine()
}

func (renderer *markdownRenderer) renderCodeSpan(node ast.Node) {
	var code strings.Builder
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		switch typed := child.(type) {
		case *ast.Text:
			code.Write(typed.Segment.Value(renderer.source))
		case *ast.String:
			code.Write(typed.Value)
		}
	}
	codeStyle := renderer.newStyle().Foreground(renderer.theme.FaintText)
	renderer.inline.WriteString(codeStyle.Render(code.String()))
}

func (renderer *markdownRenderer) renderLink(node *ast.Link) {
	displayText := renderer.renderInlineContent(node)
	renderer.inline.WriteString(displayText)

	url := string(node.Destination)
	if url != "" {
		urlStyle := renderer.newStyle().Foreground(renderer.theme.LinkForeground)
		renderer.inline.WriteString(" " + urlStyle.Render("("+url+")"))
	}
}

func (renderer *markdownRenderer) renderAutoLink(node *ast.AutoLink) {
	url := string(node.URL(renderer.source))
	urlStyle := renderer.newStyle().Foreground(renderer.theme.LinkForeground)
	renderer.inline.WriteString(urlStyle.Render(url))
}

// renderInlineContent walks a node's children and returns their
// accumulated inline rendering. The caller's inline buffer and style
// counters are saved and restored around the walk.
func (renderer *markdownRenderer) renderInlineContent(node ast.Node) string {
	saved := renderer.inline.String()
	renderer.inline.Reset()

	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		ast.Walk(child, renderer.walk)
	}

	content := renderer.inline.String()
	renderer.inline.Reset()
	renderer.inline.WriteString(saved)
	return content
}

// tableCellWidthCap bounds a single column so one long cell cannot
// push the rest of the table off the pane.
const tableCellWidthCap = 30

// renderTable renders a GFM table as padded plain-text columns with a
// bold header row and a rule beneath it. Column widths follow the
// widest cell, capped.
func (renderer *markdownRenderer) renderTable(table *extast.Table) {
	var rows [][]string
	headerRows := 0

	for section := table.FirstChild(); section != nil; section = section.NextSibling() {
		switch section.Kind() {
		case extast.KindTableHeader:
			rows = append(rows, renderer.collectTableRow(section))
			headerRows = len(rows)
		case extast.KindTableRow:
			rows = append(rows, renderer.collectTableRow(section))
		}
	}
	if len(rows) == 0 {
		return
	}

	// Column widths: widest cell per column, capped.
	var widths []int
	for _, row := range rows {
		for column, cell := range row {
			width := lipgloss.Width(cell)
			if width > tableCellWidthCap {
				width = tableCellWidthCap
			}
			if column >= len(widths) {
				widths = append(widths, width)
			} else if width > widths[column] {
				widths[column] = width
			}
		}
	}

	headerStyle := renderer.newStyle().Bold(true).Foreground(renderer.theme.HeaderForeground)
	cellStyle := renderer.newStyle().Foreground(renderer.theme.NormalText)
	ruleStyle := renderer.newStyle().Foreground(renderer.theme.BorderColor)

	renderer.ensureBlankLine()
	for rowIndex, row := range rows {
		style := cellStyle
		if rowIndex < headerRows {
			style = headerStyle
		}

		var line strings.Builder
		for column, cell := range row {
			if column > 0 {
				line.WriteString("  ")
			}
			truncated := ansi.Truncate(cell, widths[column], "…")
			padding := widths[column] - lipgloss.Width(truncated)
			line.WriteString(style.Render(truncated))
			line.WriteString(strings.Repeat(" ", padding))
		}
		renderer.writeOutput(renderer.consumeLinePrefix() + line.String())
		renderer.ensureNewline()

		if rowIndex == headerRows-1 {
			total := 0
			for column, width := range widths {
				if column > 0 {
					total += 2
				}
				total += width
			}
			renderer.writeOutput(renderer.consumeLinePrefix() + ruleStyle.Render(strings.Repeat("─", total)))
			renderer.ensureNewline()
		}
	}
	renderer.ensureBlankLine()
}

// collectTableRow returns the plain-text content of each cell in a
// header or row node.
func (renderer *markdownRenderer) collectTableRow(row ast.Node) []string {
	var cells []string
	for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
		cells = append(cells, ansi.Strip(renderer.renderInlineContent(cell)))
	}
	return cells
}
