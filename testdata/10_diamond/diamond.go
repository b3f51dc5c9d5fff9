package diamond

type Saver interface {
	Save() error
}

type Loader interface {
	Load() error
}

// Persister reaches Saver and Loader by embedding both.
type Persister interface {
	Saver
	Loader
}

type Base struct{}

func (Base) Save() error {
	return nil
}

type DB struct {
	Base
}

func (DB) Load() error {
	return nil
}
