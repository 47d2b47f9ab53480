package catalog

import (
	"compress/gzip"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// Row is one entry of the master table. A logical catalog entry (one
// name) may span several rows, one per identity-column combination;
// iterable columns are kept as sorted, deduplicated sets.
type Row struct {
	Name        string
	Model       []string
	Description string
	Realm       []string
	Frequency   []string
	Variable    []string
	Yaml        string
}

// normalize sorts and deduplicates the set-valued columns so that row
// comparison and serialization are order-insensitive.
func (r *Row) normalize() {
	r.Model = dedupe(r.Model)
	r.Realm = dedupe(r.Realm)
	r.Frequency = dedupe(r.Frequency)
	r.Variable = dedupe(r.Variable)
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Catalog is an in-memory master table. Load the on-disk state, merge
// new entries in, then atomically replace the file with Save; the
// table is owned by one reconciliation run at a time.
type Catalog struct {
	rows []Row
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{}
}

// Add appends one row. With overwrite set, every existing row bearing
// the same name is dropped first; a batch therefore passes overwrite
// on its first row only, so re-adding an entry replaces it instead of
// accumulating duplicates.
func (c *Catalog) Add(row Row, overwrite bool) error {
	if row.Name == "" {
		return errors.New("catalog: row has no name")
	}
	row.normalize()
	if overwrite {
		kept := c.rows[:0]
		for _, r := range c.rows {
			if r.Name != row.Name {
				kept = append(kept, r)
			}
		}
		c.rows = kept
	}
	c.rows = append(c.rows, row)
	return nil
}

// AddBatch merges one translated datastore into the table: the first
// row overwrites any previous entry under the same name, the rest of
// the batch appends. Adding the same batch twice leaves the table
// unchanged.
func (c *Catalog) AddBatch(rows []Row) error {
	overwrite := true
	for _, row := range rows {
		if err := c.Add(row, overwrite); err != nil {
			return err
		}
		overwrite = false
	}
	return nil
}

// Rows returns the table in insertion order.
func (c *Catalog) Rows() []Row {
	return c.rows
}

// Names returns the distinct entry names, sorted.
func (c *Catalog) Names() []string {
	seen := make(map[string]bool)
	var names []string
	for _, r := range c.rows {
		if !seen[r.Name] {
			seen[r.Name] = true
			names = append(names, r.Name)
		}
	}
	sort.Strings(names)
	return names
}

// Len returns the number of rows.
func (c *Catalog) Len() int {
	return len(c.rows)
}

// Save writes the table as CSV, compressed when path ends in .gz. The
// file is replaced atomically.
func (c *Catalog) Save(path string) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("catalog: create %s: %w", path, err)
	}
	defer f.Close()

	var out io.Writer = f
	var zw *gzip.Writer
	if strings.HasSuffix(path, ".gz") {
		zw = gzip.NewWriter(f)
		out = zw
	}

	w := csv.NewWriter(out)
	header := append(append([]string{}, CoreColumns...), YamlColumn)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("catalog: write header: %w", err)
	}
	for i := range c.rows {
		if err := w.Write(rowCells(&c.rows[i])); err != nil {
			return fmt.Errorf("catalog: write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("catalog: flush table: %w", err)
	}
	if zw != nil {
		if err := zw.Close(); err != nil {
			return fmt.Errorf("catalog: close gzip: %w", err)
		}
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("catalog: close %s: %w", path, err)
	}
	return os.Rename(tmp, path)
}

// Load reads a saved table, decompressing by extension. A missing
// file yields an empty catalog so first builds need no special case.
func Load(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: open %s: %w", path, err)
	}
	defer f.Close()

	var in io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		zr, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("catalog: open gzip: %w", err)
		}
		defer zr.Close()
		in = zr
	}

	cr := csv.NewReader(in)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("catalog: read header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, col := range header {
		idx[col] = i
	}
	for _, col := range append(append([]string{}, CoreColumns...), YamlColumn) {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("catalog: table %s has no %q column", path, col)
		}
	}

	c := New()
	for {
		cells, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("catalog: read row: %w", err)
		}
		row := Row{
			Name:        cells[idx[NameColumn]],
			Model:       decodeSet(cells[idx[ModelColumn]]),
			Description: cells[idx[DescriptionColumn]],
			Realm:       decodeSet(cells[idx[RealmColumn]]),
			Frequency:   decodeSet(cells[idx[FrequencyColumn]]),
			Variable:    decodeSet(cells[idx[VariableColumn]]),
			Yaml:        cells[idx[YamlColumn]],
		}
		c.rows = append(c.rows, row)
	}
	return c, nil
}

func rowCells(r *Row) []string {
	return []string{
		r.Name,
		encodeSet(r.Model),
		r.Description,
		encodeSet(r.Realm),
		encodeSet(r.Frequency),
		encodeSet(r.Variable),
		r.Yaml,
	}
}

// encodeSet serializes a set-valued cell as a JSON array.
func encodeSet(values []string) string {
	if values == nil {
		values = []string{}
	}
	b, _ := json.Marshal(values)
	return string(b)
}

func decodeSet(cell string) []string {
	if strings.HasPrefix(cell, "[") {
		var values []string
		if err := json.Unmarshal([]byte(cell), &values); err == nil {
			return values
		}
	}
	if cell == "" {
		return nil
	}
	return []string{cell}
}
