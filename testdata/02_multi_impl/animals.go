package animals

type Speaker interface {
	Speak() string
}

type Dog struct{}

func (Dog) Speak() string { return "woof" }

type Cat struct{}

func (Cat) Speak() string { return "meow" }

// Puppy speaks through its embedded Dog.
type Puppy struct {
	Dog
	Name string
}

// Fish implements nothing.
type Fish struct{}
