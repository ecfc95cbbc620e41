// Package fetch downloads neuroimaging dataset releases into a local
// or shared cache bucket.
//
// Datasets are described by a catalog entry (base URL plus per-subject
// file layout). Fetching skips files already present in the cache,
// downloads the rest over a worker pool with retries, and reports
// per-file progress through the progress package. Interrupted
// downloads leave a partial object behind and are resumed with HTTP
// range requests on the next run.
package fetch
