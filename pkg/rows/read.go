package rows

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Format names accepted by [Read] and [ReadFile].
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// Dataset is the whole table handed to the core: all rows plus the column
// names in discovery order.
type Dataset struct {
	Columns []string
	Rows    []Row
}

// Len returns the number of rows.
func (d Dataset) Len() int { return len(d.Rows) }

// HasColumn reports whether name is one of the discovered columns.
func (d Dataset) HasColumn(name string) bool {
	for _, c := range d.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// ReadFile reads a dataset from path. The format is inferred from the file
// extension (.csv, .tsv, .json); unknown extensions are sniffed from the
// first non-space byte.
func ReadFile(path string) (Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return Dataset{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ReadCSV(f, ',')
	case ".tsv":
		return ReadCSV(f, '\t')
	case ".json":
		return ReadJSON(f)
	}
	return Read(f, "")
}

// Read decodes a dataset from r in the given format. An empty format sniffs
// the input: a leading '[' selects JSON, anything else CSV.
func Read(r io.Reader, format string) (Dataset, error) {
	switch format {
	case FormatCSV:
		return ReadCSV(r, ',')
	case FormatJSON:
		return ReadJSON(r)
	case "":
	default:
		return Dataset{}, fmt.Errorf("unsupported row format %q", format)
	}

	br := bufio.NewReader(r)
	for {
		b, err := br.ReadByte()
		if err == io.EOF {
			return Dataset{}, nil
		}
		if err != nil {
			return Dataset{}, err
		}
		if b == ' ' || b == '\t' || b == '\r' || b == '\n' {
			continue
		}
		if err := br.UnreadByte(); err != nil {
			return Dataset{}, err
		}
		if b == '[' {
			return ReadJSON(br)
		}
		return ReadCSV(br, ',')
	}
}

// ReadCSV decodes a delimited table whose first record is the header.
// Cells are kept as text; blank cells become empty values. Blank header
// names are replaced by "__EMPTY", "__EMPTY_1", and so on, and duplicate
// names get a "_1", "_2" suffix, matching common spreadsheet exporters.
func ReadCSV(r io.Reader, comma rune) (Dataset, error) {
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = false

	header, err := cr.Read()
	if err == io.EOF {
		return Dataset{}, nil
	}
	if err != nil {
		return Dataset{}, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	columns := uniqueHeader(header)

	var out []Row
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Dataset{}, fmt.Errorf("read line %d: %w", line, err)
		}
		if blankRecord(rec) {
			continue
		}
		row := make(Row, len(columns))
		for i, col := range columns {
			if i >= len(rec) || strings.TrimSpace(rec[i]) == "" {
				row[col] = Empty()
				continue
			}
			row[col] = String(rec[i])
		}
		out = append(out, row)
	}

	return Dataset{Columns: columns, Rows: out}, nil
}

// ReadJSON decodes an array of flat objects. Strings become text cells,
// numbers become numeric cells, null becomes empty, booleans become the text
// "true"/"false". Nested arrays and objects are kept as their JSON text.
// Columns are listed in first-seen key order across all objects.
func ReadJSON(r io.Reader) (Dataset, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	tok, err := dec.Token()
	if err == io.EOF {
		return Dataset{}, nil
	}
	if err != nil {
		return Dataset{}, fmt.Errorf("decode: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return Dataset{}, fmt.Errorf("decode: expected array of objects")
	}

	var (
		columns []string
		seen    = map[string]bool{}
		out     []Row
	)
	for i := 0; dec.More(); i++ {
		keys, obj, err := decodeObject(dec)
		if err != nil {
			return Dataset{}, fmt.Errorf("decode row %d: %w", i, err)
		}
		row := make(Row, len(obj))
		for _, k := range keys {
			if !seen[k] {
				seen[k] = true
				columns = append(columns, k)
			}
			row[k] = jsonValue(obj[k])
		}
		out = append(out, row)
	}
	if _, err := dec.Token(); err != nil {
		return Dataset{}, fmt.Errorf("decode: %w", err)
	}
	return Dataset{Columns: columns, Rows: out}, nil
}

// decodeObject reads one JSON object keeping its key order.
func decodeObject(dec *json.Decoder) ([]string, map[string]json.RawMessage, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, fmt.Errorf("expected object")
	}
	var keys []string
	obj := map[string]json.RawMessage{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("expected object key")
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, nil, err
		}
		if _, dup := obj[key]; !dup {
			keys = append(keys, key)
		}
		obj[key] = raw
	}
	if _, err := dec.Token(); err != nil {
		return nil, nil, err
	}
	return keys, obj, nil
}

func jsonValue(raw json.RawMessage) Value {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return Empty()
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return Empty()
		}
		if strings.TrimSpace(s) == "" {
			return Empty()
		}
		return String(s)
	case 't', 'f':
		return String(string(raw))
	case '{', '[':
		return String(string(raw))
	default:
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return Empty()
		}
		f, err := n.Float64()
		if err != nil {
			return String(n.String())
		}
		return Number(f)
	}
}

func uniqueHeader(header []string) []string {
	out := make([]string, len(header))
	used := make(map[string]int, len(header))
	empty := 0
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			name = "__EMPTY"
			if empty > 0 {
				name = fmt.Sprintf("__EMPTY_%d", empty)
			}
			empty++
		}
		if n, ok := used[name]; ok {
			used[name] = n + 1
			name = fmt.Sprintf("%s_%d", name, n+1)
		}
		if _, ok := used[name]; !ok {
			used[name] = 0
		}
		out[i] = name
	}
	return out
}

func blankRecord(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// DistinctText returns the sorted distinct non-empty trimmed values of
// column across rows.
func DistinctText(rs []Row, column string) []string {
	if column == "" {
		return nil
	}
	seen := make(map[string]struct{})
	for _, r := range rs {
		if v := r.Text(column); v != "" {
			seen[v] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
