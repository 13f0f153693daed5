package affinity

import (
	"bytes"
	"runtime"
	"strconv"
)

// goid returns the current goroutine's id by parsing the runtime.Stack
// header line ("goroutine N [running]:"). It backs OnLoop only and is
// never on the dispatch hot path.
func goid() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	fields := bytes.Fields(buf[:n])
	if len(fields) < 2 {
		return 0
	}
	id, err := strconv.ParseUint(string(fields[1]), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
