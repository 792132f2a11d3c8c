package backend

import "io"

// maxResponseSize bounds backend body reads so a misbehaving backend cannot
// exhaust memory. Ticket lists are far below it.
const maxResponseSize int64 = 64 << 20

func readResponse(body io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(body, maxResponseSize))
}
