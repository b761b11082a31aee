package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	csvColumnWebsite = "website"
	csvColumnURL     = "url"
	csvColumnReach   = "reach"

	csvMinimumColumns = 1
)

// ErrEmptyCSV indicates the uploaded CSV contained no outlet rows.
var ErrEmptyCSV = errors.New("report: csv contains no outlet rows")

// OutletInput is one parsed outlet row of a report upload.
type OutletInput struct {
	WebsiteName  string `json:"website_name"`
	PublishedURL string `json:"published_url"`
	Reach        int64  `json:"reach"`
}

// ParseOutletsCSV parses report rows from CSV content. Expected columns are
// website, url, reach; a leading header row matching those names is skipped.
// The URL and reach columns are optional per row, and an unparsable reach
// value is treated as zero rather than failing the upload.
func ParseOutletsCSV(reader io.Reader) ([]OutletInput, error) {
	csvReader := csv.NewReader(reader)
	csvReader.FieldsPerRecord = -1
	csvReader.TrimLeadingSpace = true

	var outlets []OutletInput
	rowIndex := 0
	for {
		record, readErr := csvReader.Read()
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			return nil, fmt.Errorf("report: parse csv row %d: %w", rowIndex+1, readErr)
		}
		rowIndex++

		if rowIndex == 1 && isHeaderRow(record) {
			continue
		}
		if len(record) < csvMinimumColumns {
			continue
		}

		websiteName := strings.TrimSpace(record[0])
		if websiteName == "" {
			continue
		}

		outlet := OutletInput{WebsiteName: websiteName}
		if len(record) > 1 {
			outlet.PublishedURL = strings.TrimSpace(record[1])
		}
		if len(record) > 2 {
			if reachValue, parseErr := strconv.ParseInt(strings.TrimSpace(record[2]), 10, 64); parseErr == nil {
				outlet.Reach = reachValue
			}
		}
		outlets = append(outlets, outlet)
	}

	if len(outlets) == 0 {
		return nil, ErrEmptyCSV
	}
	return outlets, nil
}

func isHeaderRow(record []string) bool {
	if len(record) == 0 {
		return false
	}
	first := strings.ToLower(strings.TrimSpace(record[0]))
	if first != csvColumnWebsite {
		return false
	}
	if len(record) > 1 && strings.ToLower(strings.TrimSpace(record[1])) != csvColumnURL {
		return false
	}
	if len(record) > 2 && strings.ToLower(strings.TrimSpace(record[2])) != csvColumnReach {
		return false
	}
	return true
}
