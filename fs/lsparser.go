package fs

import (
	"bufio"
	"bytes"
	"path"
	"strconv"
	"strings"
	"time"

	pkgErrors "github.com/pkg/errors"

	"github.com/uob-dice/dice-lib/units"
)

// lsTimeLayout is the layout of the date and time columns produced by
// ls --time-style=long-iso.
const lsTimeLayout = "2006-01-02 15:04"

// Columns of a line of ls -la --time-style=long-iso output.
const (
	lsPermissionsField int = iota
	lsLinksField
	lsOwnerField
	lsGroupField
	lsSizeField
	lsDateField
	lsTimeField
	lsNameField

	lsFieldCount
)

// parseListing parses the output of ls -la --time-style=long-iso for the
// directory dir.
//
// The "total" line and the entries for "." and ".." are skipped, as well as
// empty lines. Names are joined with dir to form full paths.
func parseListing(output []byte, dir string, location *time.Location) ([]ListingRecord, error) {
	records := make([]ListingRecord, 0)

	scanner := bufio.NewScanner(bytes.NewReader(output))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()

		if len(strings.TrimSpace(line)) == 0 || strings.HasPrefix(line, "total ") {
			continue
		}

		record, err := parseListingLine(line, location)
		if err != nil {
			return nil, pkgErrors.Wrapf(err, "line %d", lineNo)
		}

		if record.Name == "." || record.Name == ".." {
			continue
		}
		record.Name = path.Join(dir, record.Name)

		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

func parseListingLine(line string, location *time.Location) (ListingRecord, error) {
	fields, rest := splitFields(line, lsNameField)
	if len(fields) != lsNameField || len(rest) == 0 {
		return ListingRecord{}, pkgErrors.Wrapf(ErrParse, "expected %d columns in %q", lsFieldCount, line)
	}

	size, err := strconv.ParseUint(fields[lsSizeField], 10, 64)
	if err != nil {
		return ListingRecord{}, pkgErrors.Wrapf(ErrParse, "size column %q", fields[lsSizeField])
	}

	modTime, err := time.ParseInLocation(
		lsTimeLayout,
		fields[lsDateField]+" "+fields[lsTimeField],
		location,
	)
	if err != nil {
		return ListingRecord{}, pkgErrors.Wrapf(ErrParse, "date columns %q", fields[lsDateField]+" "+fields[lsTimeField])
	}

	name := rest
	var linkTarget string
	if strings.HasPrefix(fields[lsPermissionsField], "l") {
		if ind := strings.Index(rest, " -> "); ind >= 0 {
			name = rest[:ind]
			linkTarget = rest[ind+len(" -> "):]
		}
	}

	record := ListingRecord{
		Permissions: fields[lsPermissionsField],
		Owner:       fields[lsOwnerField],
		Group:       fields[lsGroupField],
		Size:        size,
		ModTime:     modTime,
		Name:        name,
		LinkTarget:  linkTarget,
	}
	record.ScaledSize, record.ScaledUnit = units.ScaleBytes(size)

	return record, nil
}

// splitFields splits the first n whitespace separated fields off s. rest is
// the remainder of s after the separator following the n-th field, so that
// whitespace within the last column is preserved.
func splitFields(s string, n int) (fields []string, rest string) {
	fields = make([]string, 0, n)

	for len(fields) < n {
		s = strings.TrimLeft(s, " \t")
		if len(s) == 0 {
			return fields, ""
		}

		end := strings.IndexAny(s, " \t")
		if end < 0 {
			fields = append(fields, s)
			return fields, ""
		}

		fields = append(fields, s[:end])
		s = s[end:]
	}

	if len(s) > 0 {
		s = s[1:]
	}

	return fields, s
}
