package dataset

import (
	"errors"
	"fmt"
	"strings"
)

// Kind is the inferred type of a column.
type Kind string

const (
	KindNumeric     Kind = "numeric"
	KindDatetime    Kind = "datetime"
	KindCategorical Kind = "categorical"
	KindText        Kind = "text"
	KindUnknown     Kind = "unknown"
)

var (
	// ErrUnknownColumn is returned when a column name matches no header.
	ErrUnknownColumn = errors.New("unknown column")
	// ErrNotNumeric is returned when a numeric view is requested of a non-numeric column.
	ErrNotNumeric = errors.New("column is not numeric")
)

// Column describes one header of the dataset.
type Column struct {
	Index   int
	Name    string // header with any unit annotation removed
	Header  string // header as it appears in the file
	Unit    string
	Kind    Kind
	NonNull int
	Missing int
	Unique  int
}

// Record is one coerced row. It is created once by FromTable and never
// changes; accessors return copies.
type Record struct {
	s      *schema
	fields []string
	nums   []float64
	ok     []bool
}

// Float returns the numeric value of the named field. ok is false when the
// column is unknown or not numeric, or the field was empty or malformed.
func (r Record) Float(name string) (float64, bool) {
	if r.s == nil {
		return 0, false
	}
	i, found := r.s.lookup(name)
	if !found || !r.ok[i] {
		return 0, false
	}
	return r.nums[i], true
}

// Text returns the trimmed raw text of the named field.
func (r Record) Text(name string) string {
	if r.s == nil {
		return ""
	}
	i, found := r.s.lookup(name)
	if !found {
		return ""
	}
	return r.fields[i]
}

// Fields returns a copy of the raw row.
func (r Record) Fields() []string {
	out := make([]string, len(r.fields))
	copy(out, r.fields)
	return out
}

type schema struct {
	cols  []Column
	index map[string]int
	// norm holds the source unit of columns whose values are converted on load.
	norm []string
	opt  LoadOptions
}

func newSchema(header []string, opt LoadOptions) *schema {
	s := &schema{
		cols:  make([]Column, len(header)),
		index: make(map[string]int, 2*len(header)),
		norm:  make([]string, len(header)),
		opt:   opt,
	}
	for i, h := range header {
		clean, unit := SplitUnits(h)
		s.cols[i] = Column{Index: i, Name: clean, Header: h, Unit: unit, Kind: KindUnknown}
		for _, key := range []string{strings.ToLower(clean), strings.ToLower(h)} {
			if _, dup := s.index[key]; !dup {
				s.index[key] = i
			}
		}
	}
	return s
}

// lookup matches case-insensitively on the bare name or the full header, so
// "temp", "Temp" and "Temp (°F)" all find a "Temp (°F)" column.
func (s *schema) lookup(name string) (int, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if i, ok := s.index[key]; ok {
		return i, true
	}
	clean, _ := SplitUnits(name)
	i, ok := s.index[strings.ToLower(clean)]
	return i, ok
}

// profile infers each column's kind by the predominant parsed type of its
// non-empty fields and fixes the unit a numeric column is reported in.
func (s *schema) profile(rows [][]string) {
	for j := range s.cols {
		c := &s.cols[j]
		origUnit := c.Unit
		var numCnt, dtCnt, txtCnt int
		seen := make(map[string]struct{})
		short := 0
		for _, row := range rows {
			v := strings.TrimSpace(row[j])
			if v == "" {
				c.Missing++
				continue
			}
			c.NonNull++
			seen[v] = struct{}{}
			if strings.Contains(v, "%") && c.Unit == "" {
				c.Unit = "%"
				origUnit = "%"
			}
			if _, ok := ParseNumber(v, s.opt); ok {
				numCnt++
				continue
			}
			if _, ok := parseTimeMaybe(v); ok {
				dtCnt++
				continue
			}
			txtCnt++
			if len(v) <= 64 {
				short++
			}
		}
		c.Unique = len(seen)
		switch {
		case numCnt >= dtCnt && numCnt >= txtCnt && numCnt > 0:
			c.Kind = KindNumeric
			if s.opt.UnitNormalize && origUnit != "" {
				if _, target, ok := normalizeUnit(0, origUnit, s.opt); ok {
					s.norm[j] = origUnit
					c.Unit = target
				}
			}
		case dtCnt >= txtCnt && dtCnt > 0:
			c.Kind = KindDatetime
		case short > 0:
			c.Kind = KindCategorical
		case txtCnt > 0:
			c.Kind = KindText
		}
	}
}

func (s *schema) record(row []string) Record {
	r := Record{
		s:      s,
		fields: make([]string, len(s.cols)),
		nums:   make([]float64, len(s.cols)),
		ok:     make([]bool, len(s.cols)),
	}
	for j, c := range s.cols {
		v := strings.TrimSpace(row[j])
		r.fields[j] = v
		if c.Kind != KindNumeric {
			continue
		}
		x, ok := ParseNumber(v, s.opt)
		if !ok {
			continue
		}
		if from := s.norm[j]; from != "" {
			x, _, _ = normalizeUnit(x, from, s.opt)
		}
		r.nums[j], r.ok[j] = x, true
	}
	return r
}

// Dataset is an ordered sequence of Records sharing one schema. Records keep
// source row order.
type Dataset struct {
	Name      string
	Sheet     string
	Columns   []Column
	Records   []Record
	Rows      int // data rows in the source
	Processed int // rows kept after MaxRows
	Warnings  []string

	s *schema
}

// FromTable coerces a raw table into a Dataset. The table is not modified.
func FromTable(t *Table, opt LoadOptions) *Dataset {
	s := newSchema(t.Header, opt)
	s.profile(t.Rows)
	ds := &Dataset{
		Name:      t.Name,
		Sheet:     t.Sheet,
		Columns:   append([]Column(nil), s.cols...),
		Records:   mapRows(t.Rows, s.record),
		Rows:      t.Total,
		Processed: len(t.Rows),
		s:         s,
	}
	if ds.Processed < ds.Rows {
		ds.Warnings = append(ds.Warnings, fmt.Sprintf("processed only %d/%d rows due to MaxRows", ds.Processed, ds.Rows))
	}
	return ds
}

func mapRows(rows [][]string, fn func([]string) Record) []Record {
	out := make([]Record, len(rows))
	for i, row := range rows {
		out[i] = fn(row)
	}
	return out
}

// Lookup finds a column by name, ignoring case and any unit annotation.
func (d *Dataset) Lookup(name string) (Column, bool) {
	if d.s == nil {
		return Column{}, false
	}
	i, ok := d.s.lookup(name)
	if !ok {
		return Column{}, false
	}
	return d.s.cols[i], true
}

func (d *Dataset) column(name string) (Column, error) {
	c, ok := d.Lookup(name)
	if !ok {
		return Column{}, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}
	return c, nil
}

func (d *Dataset) numeric(name string) (Column, error) {
	c, err := d.column(name)
	if err != nil {
		return Column{}, err
	}
	if c.Kind != KindNumeric {
		return Column{}, fmt.Errorf("%w: %q is %s", ErrNotNumeric, c.Name, c.Kind)
	}
	return c, nil
}

// Column returns the values of a numeric column from every record that carries one.
func (d *Dataset) Column(name string) ([]float64, error) {
	cols, err := d.Aligned(name)
	if err != nil {
		return nil, err
	}
	return cols[0], nil
}

// Pair returns x and y values from the records that carry both. Records
// missing either field are dropped, not imputed.
func (d *Dataset) Pair(x, y string) ([]float64, []float64, error) {
	cols, err := d.Aligned(x, y)
	if err != nil {
		return nil, nil, err
	}
	return cols[0], cols[1], nil
}

// Aligned returns one slice per named numeric column, keeping only records
// that carry a value for every column so that index i of each slice comes
// from the same record.
func (d *Dataset) Aligned(names ...string) ([][]float64, error) {
	idx := make([]int, len(names))
	for k, n := range names {
		c, err := d.numeric(n)
		if err != nil {
			return nil, err
		}
		idx[k] = c.Index
	}
	out := make([][]float64, len(names))
	for k := range out {
		out[k] = make([]float64, 0, len(d.Records))
	}
next:
	for _, r := range d.Records {
		for _, i := range idx {
			if !r.ok[i] {
				continue next
			}
		}
		for k, i := range idx {
			out[k] = append(out[k], r.nums[i])
		}
	}
	return out, nil
}

// Categories returns the text of the named column for every record.
func (d *Dataset) Categories(name string) ([]string, error) {
	c, err := d.column(name)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(d.Records))
	for i, r := range d.Records {
		out[i] = r.fields[c.Index]
	}
	return out, nil
}

// Labeled pairs a label column with a numeric column, keeping the records
// whose value parsed.
func (d *Dataset) Labeled(label, value string) ([]string, []float64, error) {
	lc, err := d.column(label)
	if err != nil {
		return nil, nil, err
	}
	vc, err := d.numeric(value)
	if err != nil {
		return nil, nil, err
	}
	var labels []string
	var values []float64
	for _, r := range d.Records {
		if !r.ok[vc.Index] {
			continue
		}
		labels = append(labels, r.fields[lc.Index])
		values = append(values, r.nums[vc.Index])
	}
	return labels, values, nil
}

// NumericColumns lists the columns inferred as numeric, in header order.
func (d *Dataset) NumericColumns() []Column {
	var out []Column
	for _, c := range d.Columns {
		if c.Kind == KindNumeric {
			out = append(out, c)
		}
	}
	return out
}

// Samples returns copies of the first n raw rows.
func (d *Dataset) Samples(n int) [][]string {
	if n > len(d.Records) {
		n = len(d.Records)
	}
	if n < 0 {
		n = 0
	}
	out := make([][]string, 0, n)
	for _, r := range d.Records[:n] {
		out = append(out, r.Fields())
	}
	return out
}

// Filter returns a Dataset holding the records keep accepts, in order.
// Records and column descriptions are shared with d, not copied.
func (d *Dataset) Filter(keep func(Record) bool) *Dataset {
	out := &Dataset{Name: d.Name, Sheet: d.Sheet, Columns: d.Columns, Rows: d.Rows, s: d.s}
	for _, r := range d.Records {
		if keep(r) {
			out.Records = append(out.Records, r)
		}
	}
	out.Processed = len(out.Records)
	return out
}
