package converter

// DOCX reader.
//
// DOCX files are ZIP archives containing OOXML. The main document lives at
// word/document.xml. We stream-parse that XML, tracking paragraph/run/table
// context, and emit document blocks.

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const docxMainPart = "word/document.xml"

func parseDOCX(data []byte) (*document, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open docx: %w", err)
	}

	f := findZipEntry(zr, docxMainPart)
	if f == nil {
		return nil, fmt.Errorf("%s not found", docxMainPart)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", docxMainPart, err)
	}
	defer rc.Close()

	return parseDocumentXML(rc)
}

func findZipEntry(zr *zip.Reader, name string) *zip.File {
	for _, f := range zr.File {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Streaming XML parser
// ---------------------------------------------------------------------------

type docxParser struct {
	doc document

	// element name stack for context queries
	stack []string

	// paragraph state
	inPara    bool
	paraStyle string
	isList    bool
	listLevel int
	spans     []span

	// run state
	inRun   bool
	runBold bool
	runItal bool
	runText strings.Builder

	// table state
	inTable  bool
	rows     [][]string
	currRow  []string
	inCell   bool
	cellText strings.Builder
}

func (p *docxParser) push(name string) { p.stack = append(p.stack, name) }
func (p *docxParser) pop() {
	if len(p.stack) > 0 {
		p.stack = p.stack[:len(p.stack)-1]
	}
}
func (p *docxParser) inCtx(name string) bool {
	for _, s := range p.stack {
		if s == name {
			return true
		}
	}
	return false
}

func parseDocumentXML(r io.Reader) (*document, error) {
	dec := xml.NewDecoder(r)
	p := &docxParser{}

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			p.push(t.Name.Local)
			p.handleStart(t)
		case xml.EndElement:
			p.handleEnd(t.Name.Local)
			p.pop()
		case xml.CharData:
			p.handleText(string(t))
		}
	}

	return &p.doc, nil
}

func (p *docxParser) handleStart(t xml.StartElement) {
	switch t.Name.Local {

	// --- table ---
	case "tbl":
		p.inTable = true
		p.rows = nil
	case "tr":
		p.currRow = nil
	case "tc":
		p.inCell = true
		p.cellText.Reset()

	// --- paragraph ---
	case "p":
		p.inPara = true
		p.paraStyle = ""
		p.isList = false
		p.listLevel = 0
		p.spans = nil
	case "pStyle":
		if p.inPara && p.inCtx("pPr") {
			p.paraStyle = attrVal(t, "val")
		}
	case "numPr":
		if p.inPara {
			p.isList = true
		}
	case "ilvl":
		if p.inPara && p.inCtx("numPr") {
			if lvl, err := strconv.Atoi(attrVal(t, "val")); err == nil && lvl > 0 {
				p.listLevel = lvl
			}
		}

	// --- run ---
	case "r":
		if p.inPara {
			p.inRun = true
			p.runBold = false
			p.runItal = false
			p.runText.Reset()
		}
	case "b":
		if p.inRun && p.inCtx("rPr") && attrVal(t, "val") != "0" {
			p.runBold = true
		}
	case "i":
		if p.inRun && p.inCtx("rPr") && attrVal(t, "val") != "0" {
			p.runItal = true
		}
	case "br":
		if p.inRun {
			p.runText.WriteByte('\n')
		}
	case "tab":
		if p.inRun && p.inCtx("r") {
			p.runText.WriteByte('\t')
		}
	}
}

func (p *docxParser) handleEnd(local string) {
	switch local {

	case "r":
		if p.inRun {
			// Cell text was already written directly to cellText.
			if !p.inCell && p.runText.Len() > 0 {
				p.spans = append(p.spans, span{text: p.runText.String(), bold: p.runBold, italic: p.runItal})
			}
			p.inRun = false
		}

	case "p":
		if p.inPara {
			if !p.inCell {
				p.endParagraph()
			} else {
				p.cellText.WriteByte(' ')
			}
			p.inPara = false
		}

	case "tc":
		if p.inTable {
			p.currRow = append(p.currRow, strings.TrimSpace(p.cellText.String()))
			p.inCell = false
			p.cellText.Reset()
		}

	case "tr":
		if p.inTable {
			p.rows = append(p.rows, p.currRow)
			p.currRow = nil
		}

	case "tbl":
		if p.inTable {
			if len(p.rows) > 0 {
				p.doc.add(block{kind: tableBlock, rows: p.rows})
			}
			p.inTable = false
			p.rows = nil
		}
	}
}

func (p *docxParser) endParagraph() {
	b := block{kind: paragraphBlock, spans: p.spans}
	if strings.TrimSpace(b.plainText()) == "" {
		return
	}
	if lvl := headingLevel(p.paraStyle); lvl > 0 {
		b.kind, b.level = headingBlock, lvl
	} else if p.isList {
		b.kind, b.level = listItemBlock, p.listLevel
	}
	p.doc.add(b)
}

func (p *docxParser) handleText(text string) {
	switch {
	case p.inCell:
		if p.inCtx("t") {
			p.cellText.WriteString(text)
		}
	case p.inRun:
		if p.inCtx("t") {
			p.runText.WriteString(text)
		}
	}
}

// headingLevel maps paragraph styles Heading1..Heading6 and Title to a
// heading level, 0 for anything else.
func headingLevel(style string) int {
	if style == "Title" {
		return 1
	}
	if n, ok := strings.CutPrefix(style, "Heading"); ok {
		if lvl, err := strconv.Atoi(n); err == nil && lvl >= 1 && lvl <= 6 {
			return lvl
		}
	}
	return 0
}

func attrVal(t xml.StartElement, localName string) string {
	for _, a := range t.Attr {
		if a.Name.Local == localName {
			return a.Value
		}
	}
	return ""
}
