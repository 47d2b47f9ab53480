package ncfile

// Axis is a resolved time coordinate. Bounds is nil when the time
// variable carries no usable bounds attribute; when present it holds
// one (lower, upper) pair per time step.
type Axis struct {
	Values   []float64
	Units    string
	Calendar string
	Bounds   [][2]float64
}

// VariableInfo carries the descriptive attributes of one data variable.
type VariableInfo struct {
	Name         string
	LongName     string
	StandardName string
	CellMethods  string
	Units        string
}

// Dataset is the metadata view of one open file.
//
// Close must be safe to call exactly once; holders release the handle
// on every exit path.
type Dataset interface {
	// TimeAxis returns the resolved time coordinate for the named
	// dimension, or (nil, nil) when the dataset has no such dimension.
	TimeAxis(dim string) (*Axis, error)

	// Variables enumerates the data variables and their attributes.
	Variables() []VariableInfo

	Close() error
}

// Opener opens the file at path for metadata extraction.
type Opener func(path string) (Dataset, error)

// MemDataset is an in-memory Dataset.
type MemDataset struct {
	Axes   map[string]*Axis
	Vars   []VariableInfo
	closed bool
}

// TimeAxis returns the axis registered under dim, if any.
func (d *MemDataset) TimeAxis(dim string) (*Axis, error) {
	if ax, ok := d.Axes[dim]; ok {
		return ax, nil
	}
	return nil, nil
}

// Variables returns the registered variables.
func (d *MemDataset) Variables() []VariableInfo {
	return d.Vars
}

// Close marks the dataset closed.
func (d *MemDataset) Close() error {
	d.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (d *MemDataset) Closed() bool {
	return d.closed
}
