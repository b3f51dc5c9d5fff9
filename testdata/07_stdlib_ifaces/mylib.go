package mylib

type MyError struct {
	Msg string
}

func (e MyError) Error() string {
	return e.Msg
}

// WrappedError is an error through MyError and adds Unwrap.
type WrappedError struct {
	MyError
	Cause error
}

func (e WrappedError) Unwrap() error {
	return e.Cause
}

type Pretty struct {
	Name string
}

func (p Pretty) String() string {
	return p.Name
}

type Bytes struct{}

func (Bytes) Read(p []byte) (int, error) {
	return 0, nil
}
