package fetch

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownDataset is returned when a dataset name is not in the
// catalog.
var ErrUnknownDataset = errors.New("fetch: unknown dataset")

// Dataset describes a fetchable dataset release.
type Dataset struct {
	// Name identifies the dataset and prefixes its cache keys.
	Name string

	// BaseURL is the release root all file paths are joined to.
	BaseURL string

	// MaxSubjects is the number of subjects in the release.
	MaxSubjects int

	files func(subjects int) []string
}

// oasisRelease is the size of the OASIS cross-sectional release.
const oasisRelease = 416

var catalog = []Dataset{
	{
		Name:        "oasis_vbm",
		BaseURL:     "https://www.nitrc.org/frs/download.php/6364/archive_dartel",
		MaxSubjects: oasisRelease,
		files:       oasisFiles("mwrc1"),
	},
	{
		Name:        "oasis_vbm_nondartel",
		BaseURL:     "https://www.nitrc.org/frs/download.php/6359/archive",
		MaxSubjects: oasisRelease,
		files:       oasisFiles("mwc1"),
	},
}

// oasisFiles returns the gray matter map layout for an OASIS release.
// The prefix distinguishes the DARTEL-normalized maps (mwrc1) from the
// plain modulated ones (mwc1).
func oasisFiles(prefix string) func(int) []string {
	return func(subjects int) []string {
		files := make([]string, 0, subjects+1)
		for i := 1; i <= subjects; i++ {
			files = append(files, fmt.Sprintf(
				"OAS1_%04d_MR1/%sOAS1_%04d_MR1_mpr_anon_fslswapdim_bet.nii.gz",
				i, prefix, i))
		}
		files = append(files, "oasis_cross-sectional.csv")
		return files
	}
}

// Lookup finds a dataset by name.
func Lookup(name string) (Dataset, error) {
	for _, ds := range catalog {
		if ds.Name == name {
			return ds, nil
		}
	}
	return Dataset{}, fmt.Errorf("%w: %s", ErrUnknownDataset, name)
}

// Names lists the catalog's dataset names.
func Names() []string {
	names := make([]string, len(catalog))
	for i, ds := range catalog {
		names[i] = ds.Name
	}
	return names
}

// Files returns the release-relative paths for the first `subjects`
// subjects plus the shared metadata files.
func (d Dataset) Files(subjects int) ([]string, error) {
	if subjects <= 0 {
		return nil, fmt.Errorf("fetch: subjects must be positive, got %d", subjects)
	}
	if subjects > d.MaxSubjects {
		return nil, fmt.Errorf("fetch: %s has %d subjects, %d requested", d.Name, d.MaxSubjects, subjects)
	}
	return d.files(subjects), nil
}

// URL returns the download URL for a release-relative file path.
func (d Dataset) URL(file string) string {
	return strings.TrimSuffix(d.BaseURL, "/") + "/" + file
}

// Key returns the cache bucket key for a release-relative file path.
func (d Dataset) Key(file string) string {
	return d.Name + "/" + file
}
