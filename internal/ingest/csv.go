// Package ingest streams CMS reference-data CSV files into the
// Postgres store. The streaming-reader shape (buffered I/O, BOM skip,
// lazy-quoted variable-width csv.Reader) is the same one the
// hospital-charge CSV loaders use; here it feeds fee-schedule tables
// instead of a charge master.
package ingest

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/gyeh/cms-pricing/internal/domain"
	"github.com/gyeh/cms-pricing/internal/store/pg"
)

// CSVReader streams a reference-data CSV file one row at a time.
type CSVReader struct {
	file    *os.File
	reader  *csv.Reader
	colIdx  map[string]int
	headers []string
}

// NewCSVReader opens path and reads its header row.
func NewCSVReader(path string) (*CSVReader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	buffered := bufio.NewReaderSize(file, 256*1024)
	if bom, err := buffered.Peek(3); err == nil && len(bom) == 3 && bom[0] == 0xEF && bom[1] == 0xBB && bom[2] == 0xBF {
		buffered.Discard(3)
	}

	reader := csv.NewReader(buffered)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("read header row: %w", err)
	}
	colIdx := make(map[string]int, len(headers))
	for i, h := range headers {
		colIdx[strings.ToLower(strings.TrimSpace(h))] = i
	}

	return &CSVReader{file: file, reader: reader, colIdx: colIdx, headers: headers}, nil
}

// Close releases the underlying file.
func (r *CSVReader) Close() error { return r.file.Close() }

func (r *CSVReader) col(record []string, name string) string {
	idx, ok := r.colIdx[name]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

// LoadMPFSRows streams path (expected columns: year, locality_id,
// hcpcs, work_rvu, pe_nonfac_rvu, pe_fac_rvu, malp_rvu, status_code,
// global_days) and upserts every row into the store, returning the
// number of rows written.
func LoadMPFSRows(ctx context.Context, store *pg.Store, path string) (int, error) {
	r, err := NewCSVReader(path)
	if err != nil {
		return 0, err
	}
	defer r.Close()

	count := 0
	for {
		record, err := r.reader.Read()
		if err != nil {
			break
		}

		year, err := strconv.Atoi(r.col(record, "year"))
		if err != nil {
			return count, fmt.Errorf("row %d: invalid year: %w", count+2, err)
		}
		row := domain.MPFSRow{
			Year:        year,
			LocalityID:  r.col(record, "locality_id"),
			HCPCS:       r.col(record, "hcpcs"),
			WorkRVU:     parseFloatOrZero(r.col(record, "work_rvu")),
			PENonFacRVU: parseFloatOrZero(r.col(record, "pe_nonfac_rvu")),
			PEFacRVU:    parseFloatOrZero(r.col(record, "pe_fac_rvu")),
			MalpRVU:     parseFloatOrZero(r.col(record, "malp_rvu")),
			StatusCode:  r.col(record, "status_code"),
			GlobalDays:  r.col(record, "global_days"),
		}
		if err := store.UpsertMPFSRow(ctx, row); err != nil {
			return count, fmt.Errorf("row %d: %w", count+2, err)
		}
		count++
	}
	return count, nil
}

func parseFloatOrZero(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
