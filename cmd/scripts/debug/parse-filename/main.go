package main

import (
	"fmt"
	"os"

	"github.com/comicden/comicden/pkg/scanner"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Println("go run ./cmd/scripts/debug/parse-filename <filename.cbz>")
		os.Exit(1)
	}

	filename := os.Args[1]
	volume, chapter := scanner.ParseNumbering(filename)

	fmt.Printf("Series: %s\n", scanner.SeriesNameFromFilename(filename))
	if volume != nil {
		fmt.Printf("Volume: %g\n", *volume)
	} else {
		fmt.Println("Volume: none")
	}
	if chapter != nil {
		fmt.Printf("Chapter: %g\n", *chapter)
	} else {
		fmt.Println("Chapter: none")
	}
}
