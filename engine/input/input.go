package input

// Key identifies the keys the demo reacts to. Every other key maps to KeyOther.
type Key int

const (
	KeyOther Key = iota
	KeySpace
	KeyR
	KeyEscape
)

func (k Key) String() string {
	switch k {
	case KeySpace:
		return "space"
	case KeyR:
		return "r"
	case KeyEscape:
		return "escape"
	default:
		return "other"
	}
}
