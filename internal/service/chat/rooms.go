package chat

// Directory is the fixed set of valid room names. It is immutable for the
// process lifetime; routers consult it before touching any membership state.
type Directory struct {
	names []string
	valid map[string]struct{}
}

// NewDirectory builds a directory from the configured room names. Blank
// entries are skipped; duplicates collapse to one room.
func NewDirectory(names []string) *Directory {
	d := &Directory{
		names: make([]string, 0, len(names)),
		valid: make(map[string]struct{}, len(names)),
	}
	for _, name := range names {
		if name == "" {
			continue
		}
		if _, ok := d.valid[name]; ok {
			continue
		}
		d.valid[name] = struct{}{}
		d.names = append(d.names, name)
	}
	return d
}

// IsValid reports whether name is one of the configured rooms.
func (d *Directory) IsValid(name string) bool {
	_, ok := d.valid[name]
	return ok
}

// Names returns the room names in configuration order.
func (d *Directory) Names() []string {
	return append([]string(nil), d.names...)
}
