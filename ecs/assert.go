package ecs

import "fmt"

// contract panics with an ecs-prefixed diagnostic when cond is false and
// contract checks are compiled in.
func contract(cond bool, format string, args ...any) {
	if checkContracts && !cond {
		panic("ecs: " + fmt.Sprintf(format, args...))
	}
}
