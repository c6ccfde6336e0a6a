package spiceraw

// Kind identifies the numeric representation of a decoded series.
type Kind uint8

const (
	KindFloat32 Kind = iota
	KindFloat64
	KindComplex128
)

var kindNames = [...]string{
	KindFloat32:    "float32",
	KindFloat64:    "float64",
	KindComplex128: "complex128",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Width returns the element width in bytes in a binary body.
func (k Kind) Width() int {
	switch k {
	case KindFloat32:
		return 4
	case KindComplex128:
		return 16
	default:
		return 8
	}
}

// IsComplex reports whether elements are (real, imaginary) pairs.
func (k Kind) IsComplex() bool { return k == KindComplex128 }
