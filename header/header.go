package header

import "strings"

// Var is one entry of the Variables block: the declared position, the
// simulator-assigned name, and the physical kind string (verbatim, e.g.
// "time", "voltage", "device_current").
type Var struct {
	Index int
	Name  string
	Type  string
}

// Attr is a header key/value pair the parser does not interpret, preserved
// with its original casing and order (Offset, Backannotation, vendor
// extensions).
type Attr struct {
	Key   string
	Value string
}

// Flags is the parsed "Flags:" token set. Tokens are matched
// case-insensitively; anything unrecognized lands in Unknown verbatim and
// is otherwise ignored.
type Flags struct {
	Complex    bool
	Forward    bool
	Backward   bool
	Stepped    bool
	FastAccess bool
	Double     bool
	Unknown    []string
}

// ParseFlags parses the space-separated Flags token set.
func ParseFlags(s string) Flags {
	var f Flags
	for _, tok := range strings.Fields(s) {
		switch strings.ToLower(tok) {
		case "real":
			f.Complex = false
		case "complex":
			f.Complex = true
		case "forward":
			f.Forward = true
		case "backward":
			f.Backward = true
		case "stepped":
			f.Stepped = true
		case "fastaccess":
			f.FastAccess = true
		case "double":
			f.Double = true
		default:
			f.Unknown = append(f.Unknown, tok)
		}
	}
	return f
}

// String reassembles the token set in canonical order, keeping unknown
// tokens verbatim at the end.
func (f Flags) String() string {
	toks := make([]string, 0, 4+len(f.Unknown))
	if f.Complex {
		toks = append(toks, "complex")
	} else {
		toks = append(toks, "real")
	}
	if f.Forward {
		toks = append(toks, "forward")
	}
	if f.Backward {
		toks = append(toks, "backward")
	}
	if f.Double {
		toks = append(toks, "double")
	}
	if f.Stepped {
		toks = append(toks, "stepped")
	}
	if f.FastAccess {
		toks = append(toks, "fastaccess")
	}
	toks = append(toks, f.Unknown...)
	return strings.Join(toks, " ")
}

// Header is the parsed metadata block of a raw file.
type Header struct {
	Title    string
	Date     string
	Plotname string
	Command  string
	Flags    Flags
	NVars    int
	NPoints  int
	Vars     []Var
	Extra    []Attr

	// BodyMarker is "Binary:" or "Values:". BodyOffset is the byte offset
	// of the first body byte in the original (possibly UTF-16) stream.
	BodyMarker string
	BodyOffset int64

	// Encoding is the detected header text encoding.
	Encoding Encoding
}

// Binary reports whether the body marker announces a binary body.
func (h *Header) Binary() bool {
	return h.BodyMarker == MarkerBinary
}

// Var looks up a declared variable by name, case-insensitively.
func (h *Header) Var(name string) (Var, bool) {
	for _, v := range h.Vars {
		if strings.EqualFold(v.Name, name) {
			return v, true
		}
	}
	return Var{}, false
}

// VarNames returns the declared variable names in header order.
func (h *Header) VarNames() []string {
	names := make([]string, len(h.Vars))
	for i, v := range h.Vars {
		names[i] = v.Name
	}
	return names
}

// Get returns the value of an uninterpreted header attribute,
// case-insensitively.
func (h *Header) Get(key string) (string, bool) {
	for _, a := range h.Extra {
		if strings.EqualFold(a.Key, key) {
			return a.Value, true
		}
	}
	return "", false
}
