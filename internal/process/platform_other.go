//go:build !unix

package process

import "os"

// Windows cannot deliver a terminate signal to a child, so it is killed
// immediately. Its argument encoding also mangles non-ASCII paths.
var terminateSignal = os.Kill

const needsASCIIPath = true
