package fetch

import (
	"errors"
	"strings"
	"testing"
)

func TestLookup(t *testing.T) {
	ds, err := Lookup("oasis_vbm")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if ds.MaxSubjects != 416 {
		t.Errorf("MaxSubjects = %d, want 416", ds.MaxSubjects)
	}

	if _, err := Lookup("no_such_dataset"); !errors.Is(err, ErrUnknownDataset) {
		t.Errorf("err = %v, want ErrUnknownDataset", err)
	}
}

func TestDatasetFiles(t *testing.T) {
	ds, err := Lookup("oasis_vbm")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}

	files, err := ds.Files(3)
	if err != nil {
		t.Fatalf("Files: %v", err)
	}

	// Three subject maps plus the metadata csv.
	if len(files) != 4 {
		t.Fatalf("len(files) = %d, want 4", len(files))
	}
	if want := "OAS1_0002_MR1/mwrc1OAS1_0002_MR1_mpr_anon_fslswapdim_bet.nii.gz"; files[1] != want {
		t.Errorf("files[1] = %q, want %q", files[1], want)
	}
	if files[3] != "oasis_cross-sectional.csv" {
		t.Errorf("files[3] = %q, want metadata csv", files[3])
	}
}

func TestDatasetFilesNonDartel(t *testing.T) {
	ds, err := Lookup("oasis_vbm_nondartel")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}

	files, err := ds.Files(1)
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if !strings.Contains(files[0], "/mwc1OAS1_") {
		t.Errorf("non-DARTEL map has wrong prefix: %q", files[0])
	}
}

func TestDatasetFilesBounds(t *testing.T) {
	ds, _ := Lookup("oasis_vbm")

	if _, err := ds.Files(0); err == nil {
		t.Error("expected error for zero subjects")
	}
	if _, err := ds.Files(-5); err == nil {
		t.Error("expected error for negative subjects")
	}
	if _, err := ds.Files(ds.MaxSubjects + 1); err == nil {
		t.Error("expected error past the release size")
	}
}

func TestDatasetURLAndKey(t *testing.T) {
	ds := Dataset{Name: "oasis_vbm", BaseURL: "https://example.com/release/"}

	if got, want := ds.URL("a/b.nii.gz"), "https://example.com/release/a/b.nii.gz"; got != want {
		t.Errorf("URL = %q, want %q", got, want)
	}
	if got, want := ds.Key("a/b.nii.gz"), "oasis_vbm/a/b.nii.gz"; got != want {
		t.Errorf("Key = %q, want %q", got, want)
	}
}
