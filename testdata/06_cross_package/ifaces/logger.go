package ifaces

type Logger interface {
	Log(msg string)
}

type LevelLogger interface {
	Logger
	Level() int
}
