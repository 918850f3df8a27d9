package engine

import "sort"

// Library is an opaque handle to script source loaded by a compiler
// backend, identified by name. Handles compare by name so a library
// loaded once is never referenced into the same session twice.
type Library interface {
	Name() string
}

// References is a de-duplicated set of library source paths plus
// loaded library handles. The zero value is an empty, usable set.
// Union and Except are pure; the unexported mutators are reserved for
// the session state that exclusively owns its copy.
type References struct {
	paths map[string]struct{}
	libs  map[string]Library
}

// NewReferences builds a reference set from source paths and
// already-loaded library handles. Duplicates collapse.
func NewReferences(paths []string, libs ...Library) References {
	r := References{}
	for _, p := range paths {
		r.addPath(p)
	}
	for _, l := range libs {
		r.addLibrary(l)
	}
	return r
}

// Union returns a new set containing everything in r and o.
func (r References) Union(o References) References {
	out := References{}
	for p := range r.paths {
		out.addPath(p)
	}
	for p := range o.paths {
		out.addPath(p)
	}
	for _, l := range r.libs {
		out.addLibrary(l)
	}
	for _, l := range o.libs {
		out.addLibrary(l)
	}
	return out
}

// Except returns a new set containing the elements of r not present
// in o. This is the delta an executor still has to apply.
func (r References) Except(o References) References {
	out := References{}
	for p := range r.paths {
		if _, ok := o.paths[p]; !ok {
			out.addPath(p)
		}
	}
	for name, l := range r.libs {
		if _, ok := o.libs[name]; !ok {
			out.addLibrary(l)
		}
	}
	return out
}

// Equal reports whether both sets hold the same paths and the same
// library names.
func (r References) Equal(o References) bool {
	if len(r.paths) != len(o.paths) || len(r.libs) != len(o.libs) {
		return false
	}
	for p := range r.paths {
		if _, ok := o.paths[p]; !ok {
			return false
		}
	}
	for name := range r.libs {
		if _, ok := o.libs[name]; !ok {
			return false
		}
	}
	return true
}

// Empty reports whether the set holds no paths and no libraries.
func (r References) Empty() bool {
	return len(r.paths) == 0 && len(r.libs) == 0
}

// Paths returns the source paths in sorted order.
func (r References) Paths() []string {
	out := make([]string, 0, len(r.paths))
	for p := range r.paths {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Libraries returns the library handles sorted by name.
func (r References) Libraries() []Library {
	out := make([]Library, 0, len(r.libs))
	for _, l := range r.libs {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

func (r *References) addPath(p string) {
	if p == "" {
		return
	}
	if r.paths == nil {
		r.paths = make(map[string]struct{})
	}
	r.paths[p] = struct{}{}
}

func (r *References) addLibrary(l Library) {
	if l == nil {
		return
	}
	if r.libs == nil {
		r.libs = make(map[string]Library)
	}
	r.libs[l.Name()] = l
}
