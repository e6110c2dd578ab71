package engine

// Key is a keyboard key the frame driver reacts to. Keys outside this set are ignored.
type Key int

const (
	KeyUnknown Key = iota
	KeyEscape
	KeyW
	KeyA
	KeyS
	KeyD
	KeyQ
	KeyE
	KeyR
	KeyF
	KeyF8
	KeyF11

	KeyCount
)

var keyNames = [KeyCount]string{
	KeyUnknown: "Unknown",
	KeyEscape:  "Escape",
	KeyW:       "W",
	KeyA:       "A",
	KeyS:       "S",
	KeyD:       "D",
	KeyQ:       "Q",
	KeyE:       "E",
	KeyR:       "R",
	KeyF:       "F",
	KeyF8:      "F8",
	KeyF11:     "F11",
}

func (k Key) String() string {
	if k < 0 || k >= KeyCount {
		return keyNames[KeyUnknown]
	}
	return keyNames[k]
}

// KeyTable holds the held state of every Key. The zero value has every key released.
type KeyTable [KeyCount]bool

func (t *KeyTable) Set(key Key, pressed bool) {
	if key <= KeyUnknown || key >= KeyCount {
		return
	}
	t[key] = pressed
}

func (t *KeyTable) Pressed(key Key) bool {
	if key <= KeyUnknown || key >= KeyCount {
		return false
	}
	return t[key]
}
