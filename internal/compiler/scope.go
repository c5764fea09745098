package compiler

// scope tracks names that templates introduce, like v-for aliases and slot
// props. Those never resolve against the component instance.
type scope struct {
	parent *scope
	names  map[string]bool
}

func newScope() *scope {
	return &scope{names: map[string]bool{}}
}

// With returns a child scope that also holds the names
func (s *scope) With(names ...string) *scope {
	if len(names) == 0 {
		return s
	}
	child := &scope{parent: s, names: make(map[string]bool, len(names))}
	for _, name := range names {
		child.names[name] = true
	}
	return child
}

func (s *scope) Has(name string) bool {
	for sc := s; sc != nil; sc = sc.parent {
		if sc.names[name] {
			return true
		}
	}
	return false
}

// Prefixes is true when the name resolves against the component instance
func (s *scope) Prefixes(name string) bool {
	return !s.Has(name) && !globals[name]
}

var globals = map[string]bool{
	"Infinity":           true,
	"undefined":          true,
	"NaN":                true,
	"isFinite":           true,
	"isNaN":              true,
	"parseFloat":         true,
	"parseInt":           true,
	"decodeURI":          true,
	"decodeURIComponent": true,
	"encodeURI":          true,
	"encodeURIComponent": true,
	"Math":               true,
	"Number":             true,
	"Date":               true,
	"Array":              true,
	"Object":             true,
	"Boolean":            true,
	"String":             true,
	"RegExp":             true,
	"Map":                true,
	"Set":                true,
	"JSON":               true,
	"Intl":               true,
	"BigInt":             true,
	"console":            true,
	"Error":              true,
	"Symbol":             true,
	"require":            true,
}
