package main

import (
	"os"

	"github.com/sirupsen/logrus"
)

func main() {
	log := logrus.New()
	log.Formatter = &logrus.TextFormatter{ForceColors: true}

	if err := run(os.Args[1:], log); err != nil {
		log.Errorf("clipboard: %v", err)
		os.Exit(1)
	}
}
