package panicker

import (
	"fmt"

	"github.com/pingcap/log"
	"go.uber.org/zap"
)

// Panicker is invoked when a component detects an invariant violation it
// cannot recover from. Implementations must not return control to normal
// operation: continuing with corrupted state could hand out wrong commit or
// abort decisions.
type Panicker interface {
	Panic(msg string, cause error)
}

// SystemExitPanicker terminates the process. This is the implementation
// production servers wire in.
type SystemExitPanicker struct{}

func (SystemExitPanicker) Panic(msg string, cause error) {
	log.Fatal("fatal invariant violation", zap.String("msg", msg), zap.Error(cause))
}

// RuntimePanicker escalates by panicking on the calling goroutine. Used in
// tests and embedded setups where killing the whole process is not wanted.
type RuntimePanicker struct{}

func (RuntimePanicker) Panic(msg string, cause error) {
	panic(fmt.Sprintf("%s: %v", msg, cause))
}
