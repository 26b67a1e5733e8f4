package namingserver

import "io"

// readOnlyBody/writeOnlyBody adapt a bare io.Reader (request body) or
// io.Writer (response writer) into the io.ReadWriter a StreamFactory
// expects, mirroring beanserver's stream.go for the same reason: a
// given handler's Stream only ever exercises one direction.
type readOnlyBody struct{ io.Reader }

func (readOnlyBody) Write([]byte) (int, error) { return 0, io.ErrClosedPipe }

type writeOnlyBody struct{ io.Writer }

func (writeOnlyBody) Read([]byte) (int, error) { return 0, io.EOF }
