package internal

type walker interface {
	walk()
}

type Runner interface {
	Run()
}

type dog struct{}

func (dog) walk() {}
func (dog) Run()  {}

// Puppy embeds an unexported parent, which is dropped unless unexported
// names are included.
type Puppy struct {
	dog
}

type Cat struct{}

func (Cat) Run() {}
