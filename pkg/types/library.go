package types

// Library is the provenance of linked IDs.
type Library struct {
	Name     string
	Filepath string
	// Parent is the library that first pulled this one in indirectly, nil
	// when it is linked directly.
	Parent *Library
	// TempIndex is scratch storage for level computations.
	TempIndex int
}

func (l *Library) String() string {
	if l == nil {
		return "<local>"
	}
	return l.Name
}
