package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

const fundsCSV = `Name,Gender,Equity (%),Debt,Joined
A,Male,"12,345",10,2020-01-02
B,Female,20,,2020-02-03
C,Male,n/a,30,2020-03-04
D,Female,40,40,2020-04-05
`

func TestParseNumber(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"12,345", 12345, true},
		{"-12,345", -12345, true},
		{"1,234,567.89", 1234567.89, true},
		{"1.234,5", 1234.5, true},
		{"1.234.567", 1234567, true},
		{"3,5", 3.5, true},
		{"1.5", 1.5, true},
		{"45%", 45, true},
		{" 7 ", 7, true},
		{"1e3", 1000, true},
		{"1 234", 1234, true},
		{"", 0, false},
		{"abc", 0, false},
		{"NaN", 0, false},
		{"2020-01-02", 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseNumber(tc.in, LoadOptions{})
		if ok != tc.ok {
			t.Fatalf("ParseNumber(%q) ok = %v, want %v", tc.in, ok, tc.ok)
		}
		if ok && got != tc.want {
			t.Fatalf("ParseNumber(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestLakhGroupingLoadsAsNumbers(t *testing.T) {
	got, ok := ParseNumber("1,03,456", DefaultLoadOptions())
	require.True(t, ok)
	assert.Equal(t, 103456.0, got)

	path := filepath.Join(t.TempDir(), "forest.csv")
	body := "State,TotalForestArea\nMadhya Pradesh,\"77,482\"\nArunachal Pradesh,\"66,688\"\nIndia,\"7,13,789\"\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	ds, err := Load(path, DefaultLoadOptions())
	require.NoError(t, err)
	values, err := ds.Column("TotalForestArea")
	require.NoError(t, err)
	assert.Equal(t, []float64{77482, 66688, 713789}, values)
}

func TestParseNumberExplicitLocale(t *testing.T) {
	opt := LoadOptions{DecimalSeparator: ',', ThousandsSeparator: '.'}
	got, ok := ParseNumber("1.234,5", opt)
	require.True(t, ok)
	assert.Equal(t, 1234.5, got)

	opt = LoadOptions{ThousandsSeparator: ','}
	got, ok = ParseNumber("1,5", opt)
	require.True(t, ok)
	assert.Equal(t, 15.0, got)
}

func TestLoadCSVInfersSchema(t *testing.T) {
	p := writeFile(t, "funds.csv", fundsCSV)
	ds, err := Load(p, DefaultLoadOptions())
	require.NoError(t, err)

	assert.Equal(t, "funds.csv", ds.Name)
	assert.Equal(t, 4, ds.Rows)
	assert.Equal(t, 4, ds.Processed)
	assert.Empty(t, ds.Warnings)

	kinds := map[string]Kind{}
	for _, c := range ds.Columns {
		kinds[c.Name] = c.Kind
	}
	assert.Equal(t, map[string]Kind{
		"Name":   KindCategorical,
		"Gender": KindCategorical,
		"Equity": KindNumeric,
		"Debt":   KindNumeric,
		"Joined": KindDatetime,
	}, kinds)

	eq, ok := ds.Lookup("EQUITY")
	require.True(t, ok)
	assert.Equal(t, "%", eq.Unit)
	assert.Equal(t, "Equity (%)", eq.Header)

	debt, _ := ds.Lookup("debt")
	assert.Equal(t, 1, debt.Missing)
	assert.Equal(t, 3, debt.NonNull)

	names := []string{}
	for _, c := range ds.NumericColumns() {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"Equity", "Debt"}, names)
}

func TestColumnAndPairDropIncompleteRecords(t *testing.T) {
	ds, err := Load(writeFile(t, "funds.csv", fundsCSV), DefaultLoadOptions())
	require.NoError(t, err)

	eq, err := ds.Column("Equity (%)")
	require.NoError(t, err)
	assert.Equal(t, []float64{12345, 20, 40}, eq)

	x, y, err := ds.Pair("equity", "debt")
	require.NoError(t, err)
	assert.Equal(t, []float64{12345, 40}, x)
	assert.Equal(t, []float64{10, 40}, y)
}

func TestColumnErrors(t *testing.T) {
	ds, err := Load(writeFile(t, "funds.csv", fundsCSV), DefaultLoadOptions())
	require.NoError(t, err)

	_, err = ds.Column("nope")
	require.ErrorIs(t, err, ErrUnknownColumn)
	_, _, err = ds.Pair("Equity", "Gender")
	require.ErrorIs(t, err, ErrNotNumeric)
	_, err = ds.Categories("missing")
	require.ErrorIs(t, err, ErrUnknownColumn)
}

func TestRecordAccessors(t *testing.T) {
	ds, err := Load(writeFile(t, "funds.csv", fundsCSV), DefaultLoadOptions())
	require.NoError(t, err)
	require.Len(t, ds.Records, 4)

	v, ok := ds.Records[0].Float("equity")
	assert.True(t, ok)
	assert.Equal(t, 12345.0, v)
	_, ok = ds.Records[2].Float("equity")
	assert.False(t, ok, "malformed field must be absent")
	_, ok = ds.Records[0].Float("gender")
	assert.False(t, ok)
	assert.Equal(t, "Male", ds.Records[0].Text("Gender"))

	fields := ds.Records[0].Fields()
	fields[0] = "changed"
	assert.Equal(t, "A", ds.Records[0].Text("name"))

	var zero Record
	_, ok = zero.Float("x")
	assert.False(t, ok)
}

func TestCategoriesAndLabeled(t *testing.T) {
	ds, err := Load(writeFile(t, "funds.csv", fundsCSV), DefaultLoadOptions())
	require.NoError(t, err)

	cats, err := ds.Categories("gender")
	require.NoError(t, err)
	assert.Equal(t, []string{"Male", "Female", "Male", "Female"}, cats)

	labels, values, err := ds.Labeled("name", "debt")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "C", "D"}, labels)
	assert.Equal(t, []float64{10, 30, 40}, values)
}

func TestUnitNormalization(t *testing.T) {
	p := writeFile(t, "temps.csv", "City,Temp (°F)\nX,212\nY,32\n")
	ds, err := Load(p, DefaultLoadOptions())
	require.NoError(t, err)
	c, ok := ds.Lookup("temp")
	require.True(t, ok)
	assert.Equal(t, "°C", c.Unit)
	vals, err := ds.Column("Temp")
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{100, 0}, vals, 1e-9)

	opt := DefaultLoadOptions()
	opt.UnitNormalize = false
	ds, err = Load(p, opt)
	require.NoError(t, err)
	vals, err = ds.Column("temp")
	require.NoError(t, err)
	assert.Equal(t, []float64{212, 32}, vals)
}

func TestMaxRowsWarns(t *testing.T) {
	opt := DefaultLoadOptions()
	opt.MaxRows = 2
	ds, err := Load(writeFile(t, "funds.csv", fundsCSV), opt)
	require.NoError(t, err)
	assert.Equal(t, 4, ds.Rows)
	assert.Equal(t, 2, ds.Processed)
	require.Len(t, ds.Warnings, 1)
	assert.Contains(t, ds.Warnings[0], "processed only 2/4 rows")
}

func TestTSVAndShortRows(t *testing.T) {
	p := writeFile(t, "data.tsv", "a\tb\n1\t2\n3\n")
	ds, err := Load(p, DefaultLoadOptions())
	require.NoError(t, err)
	a, err := ds.Column("a")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 3}, a)
	b, err := ds.Column("b")
	require.NoError(t, err)
	assert.Equal(t, []float64{2}, b)
}

func TestLoadEmptyFile(t *testing.T) {
	_, err := Load(writeFile(t, "empty.csv", ""), DefaultLoadOptions())
	require.ErrorIs(t, err, ErrEmpty)

	_, err = Load(filepath.Join(t.TempDir(), "missing.csv"), DefaultLoadOptions())
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestFromTableLeavesTableUntouched(t *testing.T) {
	tbl := &Table{Name: "t", Header: []string{"v"}, Rows: [][]string{{" 5 "}, {"6"}}, Total: 2}
	ds := FromTable(tbl, LoadOptions{})
	assert.Equal(t, " 5 ", tbl.Rows[0][0])
	vals, err := ds.Column("v")
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 6}, vals)
	assert.Len(t, ds.Samples(10), 2)
	assert.Empty(t, ds.Samples(-1))
}

func writeWorkbook(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	rows := [][]interface{}{
		{"Region", "Area [km2]", "Forest (%)"},
		{"North", 1200, 35.5},
		{"South", 800, 12},
		{"East", 1500, 48.25},
	}
	if _, err := f.NewSheet("Data"); err != nil {
		t.Fatalf("new sheet: %v", err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		r := row
		if err := f.SetSheetRow("Data", cell, &r); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	if err := f.SetSheetRow("Sheet1", "A1", &[]interface{}{"placeholder"}); err != nil {
		t.Fatalf("set row: %v", err)
	}
	p := filepath.Join(t.TempDir(), "forest.xlsx")
	if err := f.SaveAs(p); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	return p
}

func TestLoadXLSXBySheetName(t *testing.T) {
	p := writeWorkbook(t)
	opt := DefaultLoadOptions()
	opt.SheetName = "data"
	ds, err := Load(p, opt)
	require.NoError(t, err)
	assert.Equal(t, "forest.xlsx (sheet: Data)", ds.Name)
	assert.Equal(t, "Data", ds.Sheet)
	assert.Equal(t, 3, ds.Rows)

	forest, err := ds.Column("forest")
	require.NoError(t, err)
	assert.Equal(t, []float64{35.5, 12, 48.25}, forest)
	area, ok := ds.Lookup("Area")
	require.True(t, ok)
	assert.Equal(t, "km2", area.Unit)
}

func TestLoadXLSXSheetSelectionErrors(t *testing.T) {
	p := writeWorkbook(t)
	opt := DefaultLoadOptions()
	opt.SheetName = "Nope"
	_, err := Load(p, opt)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "Available sheets"), err.Error())

	opt = DefaultLoadOptions()
	opt.SheetIndex = 9
	_, err = Load(p, opt)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")

	opt = DefaultLoadOptions()
	opt.SheetIndex = 2
	ds, err := Load(p, opt)
	require.NoError(t, err)
	assert.Equal(t, "Data", ds.Sheet)
}

func TestFilterSharesSchema(t *testing.T) {
	ds, err := Load(writeFile(t, "funds.csv", fundsCSV), DefaultLoadOptions())
	require.NoError(t, err)
	females := ds.Filter(func(r Record) bool { return r.Text("gender") == "Female" })
	assert.Equal(t, 2, females.Processed)
	debt, err := females.Column("debt")
	require.NoError(t, err)
	assert.Equal(t, []float64{40}, debt)
	assert.Len(t, ds.Records, 4)
}
