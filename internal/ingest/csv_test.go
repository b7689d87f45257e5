package ingest

import (
	"os"
	"path/filepath"
	"testing"
)

func writeMPFSCSV(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "mpfs.csv")

	content := `year,locality_id,hcpcs,work_rvu,pe_nonfac_rvu,pe_fac_rvu,malp_rvu,status_code,global_days
2026,01,99213,0.97,0.68,0.45,0.07,A,XXX
2026,01,99214,1.50,1.02,0.68,0.10,A,XXX
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write MPFS CSV: %v", err)
	}
	return path
}

func TestNewCSVReader_ParsesHeaderCaseInsensitively(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mixed_case.csv")
	content := "Year,Locality_ID,HCPCS\n2026,01,99213\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write mixed-case CSV: %v", err)
	}
	r, err := NewCSVReader(path)
	if err != nil {
		t.Fatalf("NewCSVReader: %v", err)
	}
	defer r.Close()

	if idx, ok := r.colIdx["hcpcs"]; !ok || idx != 2 {
		t.Fatalf("expected HCPCS header indexed as hcpcs at column 2, got %v", r.colIdx)
	}
}

func TestNewCSVReader_SkipsUTF8BOM(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bom.csv")
	content := "\xEF\xBB\xBFyear,locality_id,hcpcs\n2026,01,99213\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write BOM CSV: %v", err)
	}

	r, err := NewCSVReader(path)
	if err != nil {
		t.Fatalf("NewCSVReader: %v", err)
	}
	defer r.Close()

	if idx, ok := r.colIdx["year"]; !ok || idx != 0 {
		t.Fatalf("expected year at column 0 with BOM stripped, got colIdx=%v", r.colIdx)
	}
}

func TestNewCSVReader_MissingFileReturnsError(t *testing.T) {
	_, err := NewCSVReader(filepath.Join(t.TempDir(), "does-not-exist.csv"))
	if err == nil {
		t.Fatal("expected an error opening a missing file")
	}
}

func TestParseFloatOrZero(t *testing.T) {
	cases := map[string]float64{
		"0.97": 0.97,
		"":     0,
		"n/a":  0,
	}
	for in, want := range cases {
		if got := parseFloatOrZero(in); got != want {
			t.Errorf("parseFloatOrZero(%q) = %v, want %v", in, got, want)
		}
	}
}
