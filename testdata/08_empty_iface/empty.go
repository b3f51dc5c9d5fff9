package empty

type Anything interface{}

type Thing struct{}
