// Package testing puts the ledger binaries into test mode. Test packages that
// exercise a main function import it for its side effect.
package testing

import (
	"os"
	"sync"
)

// ModeEnv is the variable app.InTestMode reads.
const ModeEnv = "LEDGER_TEST_MODE"

var once sync.Once

// Enable sets ModeEnv unless the caller already chose a value.
func Enable() {
	once.Do(func() {
		if os.Getenv(ModeEnv) == "" {
			_ = os.Setenv(ModeEnv, "1")
		}
	})
}

func init() {
	Enable()
}
