package converter

// spreadsheet.go — XLSX and CSV to and from the shared table model.
// XLSX reading and writing use excelize; only the first sheet is read.

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// outputSheet names the single sheet of every generated workbook.
const outputSheet = "Sheet1"

type tableDecoder func(in UploadedFile) (table, error)

type tableEncoder func(t table, title string) ([]byte, error)

// tableTo composes a decoder and an encoder into a convertFn.
func tableTo(dec tableDecoder, enc tableEncoder) convertFn {
	return func(ctx context.Context, in UploadedFile, _ Settings) (result, error) {
		t, err := dec(in)
		if err != nil {
			return result{}, err
		}
		if err := ctx.Err(); err != nil {
			return result{}, err
		}
		if t.header == nil {
			return result{}, malformed(in.Name, errors.New("no rows found"))
		}
		data, err := enc(t, in.Name)
		if err != nil {
			return result{}, err
		}
		return result{data: data}, nil
	}
}

// decodeSpreadsheet reads CSV or the first sheet of an XLSX workbook.
func decodeSpreadsheet(in UploadedFile) (table, error) {
	if isCSV(in) {
		return decodeCSV(in)
	}
	return decodeXLSX(in)
}

func isCSV(in UploadedFile) bool {
	switch in.subtype() {
	case "csv":
		return true
	}
	return strings.EqualFold(filepath.Ext(in.Name), ".csv")
}

func decodeCSV(in UploadedFile) (table, error) {
	data := bytes.TrimPrefix(in.Data, []byte("\xef\xbb\xbf"))
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var rows [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return table{}, malformed(in.Name, err)
		}
		rows = append(rows, rec)
	}
	return newTable(rows), nil
}

func decodeXLSX(in UploadedFile) (table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(in.Data))
	if err != nil {
		return table{}, malformed(in.Name, err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return table{}, malformed(in.Name, errors.New("workbook has no sheets"))
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return table{}, malformed(in.Name, fmt.Errorf("read sheet %q: %w", sheets[0], err))
	}
	return newTable(rows), nil
}

func encodeCSV(t table, _ string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(t.all()); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	return buf.Bytes(), nil
}

// encodeXLSX writes the table to a single-sheet workbook. Numeric-looking
// data cells are stored as numbers so formulas work on them.
func encodeXLSX(t table, _ string) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	for i, row := range t.all() {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = xlsxCellValue(v, i == 0)
		}
		axis, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(outputSheet, axis, &cells); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func xlsxCellValue(v string, header bool) interface{} {
	if header {
		return v
	}
	// Only canonical numbers, so "007" and "1e3" stay text.
	if n, err := strconv.ParseFloat(v, 64); err == nil && strconv.FormatFloat(n, 'f', -1, 64) == v {
		return n
	}
	return v
}

func encodeHTMLTable(t table, title string) ([]byte, error) {
	return htmlPage(title, renderHTMLTable(t.all())), nil
}

func encodeMarkdownTable(t table, _ string) ([]byte, error) {
	return []byte(renderMarkdownTable(t.all())), nil
}
