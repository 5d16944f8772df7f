package common

// Key codes delivered by window key callbacks. They are GLFW key codes; printable keys use their
// upper-case ASCII value.
const (
	KeySpace     = 32
	KeyMinus     = 45
	KeyEqual     = 61
	KeyC         = 67
	KeyI         = 73
	KeyJ         = 74
	KeyR         = 82
	KeyBackspace = 259
	KeyEsc       = 256

	Key1 = 49
	Key2 = 50
	Key3 = 51

	KeyRight = 262
	KeyLeft  = 263
	KeyDown  = 264
	KeyUp    = 265
)
