// Package recovery decides what the tokeniser does after a syntax error.
package recovery

// Strategy is consulted once per syntax error.
type Strategy interface {
	OnError(err error, location Location) Action
}

// Location describes where an error was raised. Object is only meaningful
// when InObject is set.
type Location struct {
	ByteOffset int64
	ObjectNum  uint32
	ObjectGen  uint32
	InObject   bool
	Component  string
}

type Action int

const (
	// ActionFail returns the error to the caller.
	ActionFail Action = iota
	// ActionSkip drops the damaged object and resumes after its endobj.
	ActionSkip
	// ActionWarn reports the error like ActionFail but marks it as expected.
	ActionWarn
)

func (a Action) String() string {
	switch a {
	case ActionFail:
		return "fail"
	case ActionSkip:
		return "skip"
	case ActionWarn:
		return "warn"
	}
	return "unknown"
}
