package main

import (
	"github.com/eleven-am/classwatch/internal/bootstrap"
)

// @title ClassWatch Supervision API
// @version 1.0.0
// @description Live teaching-session supervision engine

// @BasePath /v1

func main() {
	bootstrap.Run()
}
