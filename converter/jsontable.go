package converter

// jsontable.go — JSON array-of-objects to and from the table model.
// Key order matters for the header, so objects are read token by token
// instead of into maps.

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

var errNotObjectArray = errors.New("JSON input must be an array of objects")

// decodeJSONTable builds a table whose header is the union of object keys
// in first-seen order. String values are kept raw; anything else becomes
// its compact JSON text. Missing keys read as "".
func decodeJSONTable(in UploadedFile) (table, error) {
	dec := json.NewDecoder(bytes.NewReader(bytes.TrimPrefix(in.Data, []byte("\xef\xbb\xbf"))))
	dec.UseNumber()

	if tok, err := dec.Token(); err != nil {
		return table{}, malformed(in.Name, err)
	} else if d, ok := tok.(json.Delim); !ok || d != '[' {
		return table{}, malformed(in.Name, errNotObjectArray)
	}

	var (
		header  []string
		index   = map[string]int{}
		records []map[string]string
	)
	for dec.More() {
		rec, keys, err := decodeObject(dec)
		if err != nil {
			return table{}, malformed(in.Name, err)
		}
		for _, k := range keys {
			if _, seen := index[k]; !seen {
				index[k] = len(header)
				header = append(header, k)
			}
		}
		records = append(records, rec)
	}
	if _, err := dec.Token(); err != nil {
		return table{}, malformed(in.Name, err)
	}
	if len(header) == 0 {
		return table{}, malformed(in.Name, errors.New("no object keys found"))
	}

	t := table{header: header}
	for _, rec := range records {
		row := make([]string, len(header))
		for k, v := range rec {
			row[index[k]] = v
		}
		t.rows = append(t.rows, row)
	}
	return t, nil
}

// decodeObject reads one JSON object, returning its values as text and its
// keys in document order.
func decodeObject(dec *json.Decoder) (map[string]string, []string, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, errNotObjectArray
	}
	rec := map[string]string{}
	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("unexpected object key %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, nil, fmt.Errorf("value of %q: %w", key, err)
		}
		if _, dup := rec[key]; !dup {
			keys = append(keys, key)
		}
		rec[key] = jsonCellText(raw)
	}
	if _, err := dec.Token(); err != nil {
		return nil, nil, err
	}
	return rec, keys, nil
}

func jsonCellText(raw json.RawMessage) string {
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return "null"
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

// encodeJSONTable writes an array of objects keyed by header, in header
// order. Every value is a string. Blank or repeated header names get a
// positional name so no column is lost.
func encodeJSONTable(t table, _ string) ([]byte, error) {
	keys := uniqueKeys(t.header)

	var buf bytes.Buffer
	buf.WriteString("[")
	for i, row := range t.rows {
		if i > 0 {
			buf.WriteString(",")
		}
		buf.WriteString("\n  {")
		for j, k := range keys {
			if j > 0 {
				buf.WriteString(", ")
			}
			kb, _ := json.Marshal(k)
			vb, _ := json.Marshal(row[j])
			buf.Write(kb)
			buf.WriteString(": ")
			buf.Write(vb)
		}
		buf.WriteString("}")
	}
	if len(t.rows) > 0 {
		buf.WriteString("\n")
	}
	buf.WriteString("]\n")
	return buf.Bytes(), nil
}

func uniqueKeys(header []string) []string {
	keys := make([]string, len(header))
	seen := map[string]bool{}
	for i, h := range header {
		k := h
		if k == "" || seen[k] {
			k = "column_" + strconv.Itoa(i+1)
		}
		seen[k] = true
		keys[i] = k
	}
	return keys
}
