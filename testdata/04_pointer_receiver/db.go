package db

type Closer interface {
	Close() error
}

type Connection struct {
	dsn string
}

func (c *Connection) Close() error {
	return nil
}

// Pool embeds by pointer, so Close is in its value method set.
type Pool struct {
	*Connection
	size int
}

// Tx embeds by value and only closes through a pointer.
type Tx struct {
	Connection
}
