package dispatch

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

// safeCall invokes fn and converts any panic into an error, so a single
// misbehaving generator cannot bring down the dispatch loop (spec.md
// §4.E step 2: "log and continue on generator error").
func safeCall(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("dispatch: recovered from generator panic")
			err = fmt.Errorf("dispatch: generator panicked: %v", r)
		}
	}()
	return fn()
}
