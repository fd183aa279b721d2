package converter

// pptx.go — PPTX reader built on a streaming OOXML parser.
//
// PPTX files are ZIP archives. Slides live at ppt/slides/slideN.xml.
// We sort slides numerically, then stream-parse each with a state machine
// that handles shapes (text bodies, paragraphs, runs) and tables.
//
// Key XML namespaces used in PPTX slides:
//   p: — presentationml (sp, txBody at shape level)
//   a: — drawingml     (p, r, t, tbl, tr, tc, rPr, pPr)
//
// Because we compare t.Name.Local (strips namespace prefix), both namespaces
// work correctly without explicit namespace registration.

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// pptxSlideRE matches the canonical slide paths inside a PPTX ZIP archive,
// capturing the slide number for numeric sort.
var pptxSlideRE = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// parsePPTX returns one group of blocks per non-empty slide, separated by
// rule blocks. Slide titles become level-2 headings.
func parsePPTX(data []byte) (*document, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pptx: %w", err)
	}

	type slideEntry struct {
		num  int
		file *zip.File
	}

	var entries []slideEntry
	for _, f := range zr.File {
		m := pptxSlideRE.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		entries = append(entries, slideEntry{n, f})
	}

	if len(entries) == 0 {
		return nil, errors.New("no slides found")
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].num < entries[j].num })

	doc := &document{}
	for _, e := range entries {
		rc, openErr := e.file.Open()
		if openErr != nil {
			return nil, fmt.Errorf("open slide %d: %w", e.num, openErr)
		}
		blocks, parseErr := parseSlideXML(rc)
		_ = rc.Close()
		if parseErr != nil {
			return nil, fmt.Errorf("parse slide %d: %w", e.num, parseErr)
		}
		if len(blocks) == 0 {
			continue
		}
		if len(doc.blocks) > 0 {
			doc.add(block{kind: ruleBlock})
		}
		doc.blocks = append(doc.blocks, blocks...)
	}

	return doc, nil
}

// ---------------------------------------------------------------------------
// Streaming XML state machine
// ---------------------------------------------------------------------------

type pptxParser struct {
	stack []string

	// shape-level state
	inShape  bool
	isTitle  bool
	inTxBody bool

	// paragraph-level state
	inPara    bool
	paraLevel int // from <a:pPr lvl="N"/>
	spans     []span

	// run-level state
	inRun   bool
	runBold bool
	runItal bool
	runText strings.Builder

	// table-level state
	inTable  bool
	rows     [][]string
	currRow  []string
	inCell   bool
	cellText strings.Builder

	// collected slide output (titles first, then body)
	titles []block
	body   []block
}

func (p *pptxParser) push(name string) { p.stack = append(p.stack, name) }
func (p *pptxParser) pop() {
	if len(p.stack) > 0 {
		p.stack = p.stack[:len(p.stack)-1]
	}
}
func (p *pptxParser) inCtx(name string) bool {
	for _, s := range p.stack {
		if s == name {
			return true
		}
	}
	return false
}

func parseSlideXML(r io.Reader) ([]block, error) {
	dec := xml.NewDecoder(r)
	p := &pptxParser{}

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse slide xml: %w", err)
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

	return append(p.titles, p.body...), nil
}

func (p *pptxParser) handleStart(t xml.StartElement) {
	switch t.Name.Local {
	case "sp":
		p.inShape = true
		p.isTitle = false
	case "ph":
		p.handlePlaceholderStart(t)
	case "txBody":
		if p.inShape {
			p.inTxBody = true
		}
	case "tbl", "tr", "tc":
		p.handleTableStart(t)
	case "p":
		if p.inTxBody || p.inCell {
			p.inPara = true
			p.paraLevel = 0
			p.spans = nil
		}
	case "pPr":
		if p.inPara {
			if lvl, err := strconv.Atoi(attrVal(t, "lvl")); err == nil && lvl > 0 {
				p.paraLevel = lvl
			}
		}
	case "r":
		if p.inPara {
			p.inRun = true
			p.runBold = false
			p.runItal = false
			p.runText.Reset()
		}
	case "rPr":
		if p.inRun {
			p.runBold = attrVal(t, "b") == "1"
			p.runItal = attrVal(t, "i") == "1"
		}
	case "br":
		if p.inPara {
			p.spans = append(p.spans, span{text: "\n"})
		}
	}
}

func (p *pptxParser) handlePlaceholderStart(t xml.StartElement) {
	if p.inShape && p.inCtx("nvPr") {
		typ := attrVal(t, "type")
		if typ == "title" || typ == "ctrTitle" {
			p.isTitle = true
		}
	}
}

func (p *pptxParser) handleTableStart(t xml.StartElement) {
	switch t.Name.Local {
	case "tbl":
		p.inTable = true
		p.rows = nil
	case "tr":
		p.currRow = nil
	case "tc":
		if p.inTable {
			p.inCell = true
			p.cellText.Reset()
		}
	}
}

func (p *pptxParser) handleEnd(local string) {
	switch local {
	case "r":
		p.endRun()
	case "p":
		p.endPara()
	case "tc":
		if p.inTable {
			p.currRow = append(p.currRow, strings.TrimSpace(p.cellText.String()))
			p.inCell = false
		}
	case "tr":
		if p.inTable {
			p.rows = append(p.rows, p.currRow)
			p.currRow = nil
		}
	case "tbl":
		if p.inTable {
			if len(p.rows) > 0 {
				p.body = append(p.body, block{kind: tableBlock, rows: p.rows})
			}
			p.inTable = false
		}
	case "txBody":
		p.inTxBody = false
		p.inPara = false // safety reset for malformed XML
	case "sp":
		p.inShape = false
		p.isTitle = false
	}
}

func (p *pptxParser) endRun() {
	if !p.inRun {
		return
	}
	if p.inCell {
		p.cellText.WriteString(p.runText.String())
	} else if p.runText.Len() > 0 {
		p.spans = append(p.spans, span{text: p.runText.String(), bold: p.runBold, italic: p.runItal})
	}
	p.inRun = false
}

func (p *pptxParser) endPara() {
	if !p.inPara {
		return
	}
	// Table cell paragraphs are handled entirely via cellText.
	if p.inCell {
		p.cellText.WriteByte(' ')
	} else if b := (block{kind: paragraphBlock, spans: p.spans}); strings.TrimSpace(b.plainText()) != "" {
		switch {
		case p.isTitle:
			b.kind, b.level = headingBlock, 2
			p.titles = append(p.titles, b)
		case p.inTxBody:
			if p.paraLevel > 0 {
				b.kind, b.level = listItemBlock, p.paraLevel-1
			}
			p.body = append(p.body, b)
		}
	}
	p.inPara = false
	p.spans = nil
}

func (p *pptxParser) handleText(text string) {
	if !p.inCtx("t") {
		return
	}
	if p.inRun {
		p.runText.WriteString(text)
	} else if p.inCell {
		p.cellText.WriteString(text)
	}
}
