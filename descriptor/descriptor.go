package descriptor

// Direction tags an interface as required or provided by its component.
type Direction int

const (
	// Import marks an interface the component requires from its environment.
	Import Direction = iota
	// Export marks an interface the component provides.
	Export
)

func (d Direction) String() string {
	switch d {
	case Import:
		return "import"
	case Export:
		return "export"
	default:
		return "unknown"
	}
}

// ParseDirection maps a raw type tag ("import"/"export") to a Direction.
// The boolean reports whether the tag was recognized.
func ParseDirection(tag string) (Direction, bool) {
	switch tag {
	case "import":
		return Import, true
	case "export":
		return Export, true
	default:
		return Import, false
	}
}

// Param is a named, typed parameter or result of a function. Types are opaque
// WIT type strings; consumers compare counts and names, never parse them.
type Param struct {
	Name string
	Type string
}

// Function describes a single function within an interface.
type Function struct {
	Name    string
	Params  []Param
	Results []Param
}

// Interface describes a named collection of functions, tagged with the
// direction it faces. Name is a namespaced WIT-style identifier such as
// "wasi:http/handler".
type Interface struct {
	Name          string
	Direction     Direction
	InterfaceType string // raw tag as seen by the extraction backend
	Functions     []Function
}

// Component describes one discovered component binary. Name is unique within
// a discovery session; Path identifies the physical file when known.
type Component struct {
	Name         string
	Path         string
	Description  string
	Interfaces   []Interface
	Dependencies []string
}

// Exports returns the component's export-direction interfaces.
func (c *Component) Exports() []Interface {
	return c.byDirection(Export)
}

// Imports returns the component's import-direction interfaces.
func (c *Component) Imports() []Interface {
	return c.byDirection(Import)
}

func (c *Component) byDirection(d Direction) []Interface {
	var out []Interface
	for _, iface := range c.Interfaces {
		if iface.Direction == d {
			out = append(out, iface)
		}
	}
	return out
}

// FunctionCount returns the total number of functions across all interfaces.
func (c *Component) FunctionCount() int {
	n := 0
	for _, iface := range c.Interfaces {
		n += len(iface.Functions)
	}
	return n
}

// Clone returns a deep copy. The watcher hands clones to callers so registry
// state can never be mutated through a returned descriptor.
func (c *Component) Clone() *Component {
	if c == nil {
		return nil
	}
	out := &Component{
		Name:        c.Name,
		Path:        c.Path,
		Description: c.Description,
	}
	if c.Interfaces != nil {
		out.Interfaces = make([]Interface, len(c.Interfaces))
		for i, iface := range c.Interfaces {
			out.Interfaces[i] = iface.Clone()
		}
	}
	if c.Dependencies != nil {
		out.Dependencies = append([]string(nil), c.Dependencies...)
	}
	return out
}

// Clone returns a deep copy of the interface.
func (i Interface) Clone() Interface {
	out := i
	if i.Functions != nil {
		out.Functions = make([]Function, len(i.Functions))
		for j, f := range i.Functions {
			out.Functions[j] = f.Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the function.
func (f Function) Clone() Function {
	out := f
	if f.Params != nil {
		out.Params = append([]Param(nil), f.Params...)
	}
	if f.Results != nil {
		out.Results = append([]Param(nil), f.Results...)
	}
	return out
}
