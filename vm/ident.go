package vm

// IdentTable interns identifier names to small dense ids.
//
// Globals and message names share one table: the front-end resolves every
// identifier through it before code reaches the compiler, and
// RegisterHandler interns message names through it. The core itself only
// ever sees the ids.
type IdentTable struct {
	byName map[string]int
	byID   []string
}

// NewIdentTable creates an empty identifier table.
func NewIdentTable() *IdentTable {
	return &IdentTable{
		byName: make(map[string]int),
		byID:   make([]string, 0, 64),
	}
}

// Intern returns the id for name, assigning the next id if it is new.
func (t *IdentTable) Intern(name string) int {
	if id, ok := t.byName[name]; ok {
		return id
	}
	id := len(t.byID)
	t.byName[name] = id
	t.byID = append(t.byID, name)
	return id
}

// Lookup returns the id for name, or -1 if it was never interned.
func (t *IdentTable) Lookup(name string) int {
	if id, ok := t.byName[name]; ok {
		return id
	}
	return -1
}

// Name returns the name for id, or "" if id is invalid.
func (t *IdentTable) Name(id int) string {
	if id < 0 || id >= len(t.byID) {
		return ""
	}
	return t.byID[id]
}

// Len returns the number of interned identifiers.
func (t *IdentTable) Len() int {
	return len(t.byID)
}
