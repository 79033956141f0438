package annotation

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ParseLab reads a chord lab file: one "start end label" interval per
// line, whitespace separated. Blank lines and lines starting with '#' are
// skipped. Labels may contain spaces; everything after the end time is the label.
func ParseLab(r io.Reader) (Table, error) {
	var table Table

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 3 {
			return nil, fmt.Errorf("line %d: want \"start end label\", got %q", lineNo, line)
		}
		start, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad start time: %w", lineNo, err)
		}
		if _, err := strconv.ParseFloat(fields[1], 64); err != nil {
			return nil, fmt.Errorf("line %d: bad end time: %w", lineNo, err)
		}

		table = append(table, Entry{Start: start, Label: strings.Join(fields[2:], " ")})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if err := table.Validate(); err != nil {
		return nil, err
	}
	return table, nil
}

// ParseCSV reads "start,label" rows. A first row whose start is not a
// number is treated as a header.
func ParseCSV(r io.Reader) (Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 2
	cr.TrimLeadingSpace = true

	var table Table
	for row := 1; ; row++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		start, err := strconv.ParseFloat(strings.TrimSpace(record[0]), 64)
		if err != nil {
			if row == 1 {
				continue
			}
			return nil, fmt.Errorf("row %d: bad start time: %w", row, err)
		}
		table = append(table, Entry{Start: start, Label: strings.TrimSpace(record[1])})
	}

	if err := table.Validate(); err != nil {
		return nil, err
	}
	return table, nil
}
