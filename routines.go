package main

import (
	"fmt"
	"log"
	"os"
	"runtime"
)

// Run starts f on its own goroutine. A panic inside f takes the process
// down after printing the stack instead of dying silently mid-batch.
func Run(f func()) {
	go func() {
		defer Recover()
		f()
	}()
}

func Recover() {
	if r := recover(); r != nil {
		HandlePanic(r)
	}
}

func HandlePanic(panic any) {
	defer os.Exit(1)

	buf := make([]byte, 100000)
	n := runtime.Stack(buf, false)
	buf = buf[:n]

	log.Printf("panic: %v\n\n%s\n", panic, string(buf))
}

func PanicF(format string, a ...any) {
	panic(fmt.Sprintf(format, a...))
}
