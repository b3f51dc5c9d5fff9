package tree

type Closer interface {
	Close() error
}

// Node and Tree embed each other, which is legal through pointers.
type Node struct {
	*Tree
	name string
}

func (Node) Close() error {
	return nil
}

type Tree struct {
	*Node
}

// Leaf hangs off the cycle without being part of it.
type Leaf struct {
	*Node
}
