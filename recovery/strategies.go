package recovery

import "fmt"

// StrictStrategy fails on the first error.
type StrictStrategy struct{}

func NewStrictStrategy() *StrictStrategy {
	return &StrictStrategy{}
}

func (s *StrictStrategy) OnError(err error, location Location) Action {
	return ActionFail
}

// LenientStrategy skips damaged objects and keeps every error it saw.
// Limit bounds the number of skips; zero means unbounded.
type LenientStrategy struct {
	Errors []error
	Limit  int
}

func NewLenientStrategy() *LenientStrategy {
	return &LenientStrategy{}
}

func (s *LenientStrategy) OnError(err error, location Location) Action {
	if location.InObject {
		err = fmt.Errorf("[%s] object %d %d, offset %d: %w", location.Component, location.ObjectNum, location.ObjectGen, location.ByteOffset, err)
	} else {
		err = fmt.Errorf("[%s] offset %d: %w", location.Component, location.ByteOffset, err)
	}
	s.Errors = append(s.Errors, err)
	if s.Limit > 0 && len(s.Errors) > s.Limit {
		return ActionFail
	}
	return ActionSkip
}
