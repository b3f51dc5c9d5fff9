package io2

type Reader interface {
	Read(p []byte) (int, error)
}

type Writer interface {
	Write(p []byte) (int, error)
}

type Closer interface {
	Close() error
}

type ReadCloser interface {
	Reader
	Closer
}

// ReadWriteCloser nests one embedded interface inside another.
type ReadWriteCloser interface {
	ReadCloser
	Writer
}

type MyFile struct{}

func (f MyFile) Read(p []byte) (int, error) {
	return 0, nil
}

func (f MyFile) Close() error {
	return nil
}

type LogFile struct {
	MyFile
}

func (f LogFile) Write(p []byte) (int, error) {
	return len(p), nil
}
