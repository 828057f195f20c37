package localize

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseUCSC(t *testing.T) {
	input := "# cytoBand for tests\n" +
		"chr1\t0\t2300000\tp36.33\tgneg\n" +
		"chr1\t2300000\t5400000\tp36.32\tgpos25\n" +
		"\n" +
		"chrX\t0\t4400000\tp22.33\tgneg\n"
	tables, err := ParseUCSC(strings.NewReader(input))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(tables) != 2 {
		t.Fatalf("expected 2 chromosomes, got %d", len(tables))
	}
	chr1 := tables["1"]
	if len(chr1) != 2 {
		t.Fatalf("expected 2 bands on chr1, got %d", len(chr1))
	}
	if chr1[0] != (Band{Label: "p36.33", Start: 0, End: 2300000}) {
		t.Fatalf("unexpected first band: %+v", chr1[0])
	}
	if chr1[1].Label != "p36.32" {
		t.Fatalf("band order not preserved: %+v", chr1)
	}
	if len(tables["X"]) != 1 {
		t.Fatalf("expected chrX band, got %+v", tables["X"])
	}
}

func TestParseUCSCRejectsMalformedRows(t *testing.T) {
	cases := map[string]string{
		"too few fields":    "chr1\t0\t100\n",
		"bad start":         "chr1\tzero\t100\tp1\tgneg\n",
		"bad end":           "chr1\t0\tten\tp1\tgneg\n",
		"reversed interval": "chr1\t200\t100\tp1\tgneg\n",
		"empty chromosome":  "chr\t0\t100\tp1\tgneg\n",
		"empty label":       "chr1\t0\t100\t \tgneg\n",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseUCSC(strings.NewReader(input)); err == nil {
				t.Fatalf("expected parse error for %s", name)
			}
		})
	}
}

func TestLoadUCSC(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cytoband.tsv")
	if err := os.WriteFile(path, []byte("chr11\t0\t2800000\tp15.5\tgneg\n"), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	tables, err := LoadUCSC(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(tables["11"]) != 1 {
		t.Fatalf("expected chr11 band, got %+v", tables)
	}
	if _, err := LoadUCSC(filepath.Join(dir, "missing.tsv")); err == nil {
		t.Fatalf("expected missing file error")
	}
}
