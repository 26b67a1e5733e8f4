package beanserver

import "io"

// readOnlyBody/writeOnlyBody adapt a bare io.Reader (request body) or
// io.Writer (response writer) into the io.ReadWriter a StreamFactory
// expects, for the common case where only one direction is ever
// exercised by a given handler's Stream.
type readOnlyBody struct{ io.Reader }

func (readOnlyBody) Write([]byte) (int, error) { return 0, io.ErrClosedPipe }

type writeOnlyBody struct{ io.Writer }

func (writeOnlyBody) Read([]byte) (int, error) { return 0, io.EOF }
