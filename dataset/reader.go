// Package dataset reads the historical student table used for training.
package dataset

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"edupredict/ml"
)

const DefaultTargetColumn = "Target"

var ErrMissingColumns = errors.New("dataset is missing required columns")

type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingColumns, strings.Join(e.Columns, ", "))
}

func (e *MissingColumnsError) Unwrap() error { return ErrMissingColumns }

type Options struct {
	TargetColumn string
	// Delimiter of 0 picks ',' or ';' from the header line.
	Delimiter rune
	// Encoding is a WHATWG label such as "utf-8", "latin1" or "windows-1252".
	Encoding string
}

// Table holds the projected dataset: feature rows in ml.FeatureNames order
// and the raw target strings.
type Table struct {
	Features [][]float64
	Targets  []string
}

func (t *Table) Len() int { return len(t.Targets) }

func ReadFile(path string, opts Options) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f, opts)
}

func Read(r io.Reader, opts Options) (*Table, error) {
	if opts.TargetColumn == "" {
		opts.TargetColumn = DefaultTargetColumn
	}
	decoded, err := decoder(r, opts.Encoding)
	if err != nil {
		return nil, err
	}
	br := bufio.NewReader(decoded)

	delim := opts.Delimiter
	if delim == 0 {
		head, err := br.Peek(4096)
		if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
			return nil, err
		}
		delim = detectDelimiter(head)
	}

	reader := csv.NewReader(br)
	reader.Comma = delim
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.New("dataset is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols, err := resolveColumns(header, opts.TargetColumn)
	if err != nil {
		return nil, err
	}

	table := &Table{}
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		line, _ := reader.FieldPos(0)
		row := make([]float64, len(ml.FeatureNames()))
		for i, name := range ml.FeatureNames() {
			raw := strings.TrimSpace(rec[cols.features[i]])
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d column %q: %q is not numeric", line, name, raw)
			}
			row[i] = v
		}
		target := strings.TrimSpace(rec[cols.target])
		if target == "" {
			return nil, fmt.Errorf("line %d: empty %q", line, opts.TargetColumn)
		}
		table.Features = append(table.Features, row)
		table.Targets = append(table.Targets, target)
	}
	if table.Len() == 0 {
		return nil, errors.New("dataset has no rows")
	}
	return table, nil
}

type columns struct {
	features []int
	target   int
}

func resolveColumns(header []string, target string) (columns, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.TrimSpace(h)] = i
	}
	cols := columns{features: make([]int, 0, len(ml.FeatureNames())), target: -1}
	var missing []string
	for _, name := range ml.FeatureNames() {
		i, ok := index[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		cols.features = append(cols.features, i)
	}
	if i, ok := index[target]; ok {
		cols.target = i
	} else {
		missing = append(missing, target)
	}
	if len(missing) > 0 {
		return columns{}, &MissingColumnsError{Columns: missing}
	}
	return cols, nil
}

func detectDelimiter(head []byte) rune {
	if i := bytes.IndexByte(head, '\n'); i >= 0 {
		head = head[:i]
	}
	if bytes.Count(head, []byte{';'}) > bytes.Count(head, []byte{','}) {
		return ';'
	}
	return ','
}

func decoder(r io.Reader, name string) (io.Reader, error) {
	var enc encoding.Encoding = unicode.UTF8
	if name != "" {
		e, err := htmlindex.Get(name)
		if err != nil {
			return nil, fmt.Errorf("unsupported dataset encoding %q: %w", name, err)
		}
		enc = e
	}
	// BOMOverride drops a leading UTF-8 BOM whatever the declared charset.
	return transform.NewReader(r, unicode.BOMOverride(enc.NewDecoder())), nil
}
