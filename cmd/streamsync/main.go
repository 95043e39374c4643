// Package main is the entry point of the StreamSync room service.
package main

import (
	"log"

	"github.com/ZiadHesham225/StreamSync-sub001/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
