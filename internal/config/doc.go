// Package config loads CLI configuration from YAML files and
// environment variables.
//
// Precedence, lowest to highest: built-in defaults, config file,
// NILEARN_* environment variables, command-line flags (merged in by
// the caller via Merge).
//
// # Example
//
//	cache: file:///var/lib/nilearn_data
//	dataset: oasis_vbm
//	subjects: 50
//	workers: 4
//	verbosity: 2
//	run_log: /var/lib/nilearn_data/runs.db
//	retry:
//	  attempts: 5
//	  backoff: 1s
//	  max_backoff: 30s
package config
