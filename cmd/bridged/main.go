package main

import (
	"log"
	"os"

	"github.com/toolbridge/bridge"
)

func main() {
	if err := bridge.Run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}
