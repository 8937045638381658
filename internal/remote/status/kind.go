package status

import "fmt"

// Category is the broad class a Kind belongs to.
type Category int

const (
	// CategoryGeneric is the root of the tree.
	CategoryGeneric Category = iota
	// CategoryClient covers transport and argument failures raised by the
	// API library on the client side.
	CategoryClient
	// CategoryStandard covers the standard device and debugger status codes.
	CategoryStandard
	// CategoryFunction covers errors specific to one API function.
	CategoryFunction
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryGeneric:
		return "generic"
	case CategoryClient:
		return "client"
	case CategoryStandard:
		return "standard"
	case CategoryFunction:
		return "function"
	default:
		return "unknown"
	}
}

// Kind is one node of the error taxonomy.
//
// Kinds are compared by identity. They also satisfy the error interface so
// they can be used as errors.Is targets.
type Kind struct {
	name     string
	code     int32
	hasCode  bool
	message  string
	category Category
	parent   *Kind
}

func newKind(parent *Kind, name string, code int32, message string) *Kind {
	k := &Kind{
		name:    name,
		code:    code,
		hasCode: true,
		message: message,
		parent:  parent,
	}
	if parent != nil {
		k.category = parent.category
	}
	return k
}

func newGroup(parent *Kind, name, message string) *Kind {
	return &Kind{
		name:     name,
		message:  message,
		category: parent.category,
		parent:   parent,
	}
}

// Name returns the identifier of the kind, e.g. "TargetRunning".
func (k *Kind) Name() string { return k.name }

// Code returns the status code of the kind. ok is false for grouping kinds.
func (k *Kind) Code() (code int32, ok bool) { return k.code, k.hasCode }

// Message returns the default human readable message.
func (k *Kind) Message() string { return k.message }

// Category returns the category of the kind.
func (k *Kind) Category() Category { return k.category }

// Parent returns the enclosing kind, or nil for the root.
func (k *Kind) Parent() *Kind { return k.parent }

// IsGroup reports whether the kind only groups other kinds.
func (k *Kind) IsGroup() bool { return !k.hasCode }

// Within reports whether k equals ancestor or descends from it.
func (k *Kind) Within(ancestor *Kind) bool {
	for cur := k; cur != nil; cur = cur.parent {
		if cur == ancestor {
			return true
		}
	}
	return false
}

// Error implements error so a Kind can be used with errors.Is.
func (k *Kind) Error() string { return k.message }

// String returns the name and code of the kind.
func (k *Kind) String() string {
	if !k.hasCode {
		return k.name
	}
	return fmt.Sprintf("%s(%s)", k.name, FormatCode(k.code))
}

// New creates an Error of this kind carrying the kind's own code.
// An empty msg selects the default message.
func (k *Kind) New(op, msg string) *Error {
	if msg == "" {
		msg = k.message
	}
	return &Error{Kind: k, Code: k.code, Message: msg, Op: op}
}

// Local creates an Error of this kind for a failure detected before any
// remote call was issued.
func (k *Kind) Local(op, format string, args ...any) *Error {
	return &Error{Kind: k, Code: k.code, Message: fmt.Sprintf(format, args...), Op: op, Local: true}
}

// FormatCode renders codes at or above 0x1000 in hex and everything else in
// decimal, matching how the API manual lists them.
func FormatCode(code int32) string {
	if code >= 0x1000 {
		return fmt.Sprintf("0x%04x", code)
	}
	return fmt.Sprintf("%d", code)
}
