// Package ncfile defines the view of a NetCDF file that the catalog
// builders need: the time axis and per-variable descriptive attributes.
//
// Actual NetCDF decoding is an external concern. Callers supply an
// Opener backed by whatever reader they use; MemDataset provides an
// in-memory implementation for tests and for pre-extracted metadata.
package ncfile
