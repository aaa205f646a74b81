package exec

import (
	"fmt"

	"github.com/johnsiilver/calloptions"
)

type execOptions struct {
	onPanic func(*PanicError)
}

// Option is an option for New().
type Option interface {
	execFunc()
}

// WithPanicHandler installs f as the handler for futures that panic during a
// poll. Without a handler, a panicking future takes the Executor's polling
// goroutine (and therefore the program) down. With one, the panic is
// recovered, f is called, and the task is abandoned: its Handle never
// becomes done, so waiters should use a Context with a deadline. This can
// be used as a:
// - Option
func WithPanicHandler(f func(*PanicError)) interface {
	Option
	calloptions.CallOption
} {
	return struct {
		Option
		calloptions.CallOption
	}{
		CallOption: calloptions.New(
			func(a any) error {
				switch t := a.(type) {
				case *execOptions:
					t.onPanic = f
					return nil
				}
				return fmt.Errorf("WithPanicHandler can only be used with Option")
			},
		),
	}
}
