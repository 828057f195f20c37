package localize

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Band is one cytogenetic band boundary: a label plus its interbase span on
// the chromosome. Rows are ordered along the chromosome arm.
type Band struct {
	Label string `json:"label"`
	Start uint64 `json:"start"`
	End   uint64 `json:"end"`
}

// ParseUCSC reads a UCSC cytoBand table (tab-separated rows of
// chrom, start, end, band, stain) and groups the bands per chromosome,
// preserving row order. Chromosome names are normalized by stripping the
// "chr" prefix. Blank lines and #-comments are skipped; the stain column is
// ignored.
func ParseUCSC(r io.Reader) (map[string][]Band, error) {
	out := make(map[string][]Band)
	scanner := bufio.NewScanner(r)
	for lineNum := 1; scanner.Scan(); lineNum++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 4 {
			return nil, fmt.Errorf("line %d: expected at least 4 tab-separated fields, got %d", lineNum, len(fields))
		}
		chromosome := strings.TrimPrefix(fields[0], "chr")
		if chromosome == "" {
			return nil, fmt.Errorf("line %d: empty chromosome name", lineNum)
		}
		start, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: start coordinate: %w", lineNum, err)
		}
		end, err := strconv.ParseUint(fields[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: end coordinate: %w", lineNum, err)
		}
		if start > end {
			return nil, fmt.Errorf("line %d: band %s has start %d > end %d", lineNum, fields[3], start, end)
		}
		label := strings.TrimSpace(fields[3])
		if label == "" {
			return nil, fmt.Errorf("line %d: empty band label", lineNum)
		}
		out[chromosome] = append(out[chromosome], Band{Label: label, Start: start, End: end})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// LoadUCSC parses a UCSC cytoBand file from disk.
func LoadUCSC(path string) (map[string][]Band, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open band table: %w", err)
	}
	defer func() { _ = file.Close() }()
	tables, err := ParseUCSC(file)
	if err != nil {
		return nil, fmt.Errorf("parse band table %s: %w", path, err)
	}
	return tables, nil
}
