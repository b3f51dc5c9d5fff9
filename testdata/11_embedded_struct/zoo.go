package zoo

type Named interface {
	Name() string
}

type Walker interface {
	Walk()
}

type Pet interface {
	Named
	Walker
}

type Animal struct{}

func (Animal) Name() string { return "animal" }

type Dog struct {
	Animal
	Breed string
}

func (Dog) Walk() {}

type Puppy struct {
	*Dog
}

type Rock struct{}
