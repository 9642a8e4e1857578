package docsync

import "strings"

// Address identifies a declaration by its nesting path of names from the
// module root. The module itself is the single-element empty-string address,
// which cannot collide with a real declaration name.
type Address []string

// RootAddress returns the address of the module root.
func RootAddress() Address {
	return Address{""}
}

// Key returns the dotted form used as the mapping key and in diagnostics.
// Python identifiers cannot contain dots, so the form is unambiguous; the
// root key is the empty string.
func (a Address) Key() string {
	return strings.Join(a, ".")
}

func (a Address) String() string {
	return a.Key()
}

// nameStack tracks the current nesting path during a single traversal.
// Each traversal owns its stack; addresses recorded into a mapping are
// snapshots, never references to the live stack.
type nameStack struct {
	names []string
}

func (s *nameStack) push(name string) {
	s.names = append(s.names, name)
}

func (s *nameStack) pop() {
	s.names = s.names[:len(s.names)-1]
}

func (s *nameStack) snapshot() Address {
	out := make(Address, len(s.names))
	copy(out, s.names)
	return out
}
