package impl

import "example.com/testmod/ifaces"

var _ ifaces.Logger = ConsoleLogger{}

type ConsoleLogger struct{}

func (ConsoleLogger) Log(msg string) {}
