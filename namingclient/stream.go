package namingclient

import "io"

// writeOnly/readOnly adapt a bare io.Writer or io.Reader into the
// io.ReadWriter a StreamFactory expects, mirroring beanclient's
// stream.go for the same reason: request and response bodies here are
// always one-directional.
type writeOnly struct{ io.Writer }

func (writeOnly) Read([]byte) (int, error) { return 0, io.EOF }

type readOnly struct{ io.Reader }

func (readOnly) Write([]byte) (int, error) { return 0, io.ErrClosedPipe }

func asWriter(w io.Writer) io.ReadWriter { return writeOnly{w} }
func asReader(r io.Reader) io.ReadWriter { return readOnly{r} }
