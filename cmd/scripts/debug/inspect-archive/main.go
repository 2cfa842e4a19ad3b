package main

import (
	"fmt"
	"os"

	"github.com/comicden/comicden/pkg/archive"
	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

func main() {
	log := logger.New()

	var opts struct {
		ThumbnailOutput string `short:"o" long:"thumbnail-output" description:"A path to output the rendered thumbnail"`
		Width           int    `long:"width" default:"225" description:"Thumbnail width in pixels"`
		Height          int    `long:"height" default:"350" description:"Thumbnail height in pixels"`
		Quality         int    `long:"quality" default:"70" description:"JPEG quality"`
		Format          string `long:"format" default:"best" description:"Thumbnail format (jpeg, png, best)"`
	}

	args, err := flags.Parse(&opts)
	if err != nil {
		log.Err(err).Fatal("flags parse error")
	}

	if len(args) != 1 {
		fmt.Println("go run ./cmd/scripts/debug/inspect-archive <path/to/file.cbz>")
		os.Exit(1)
	}

	result := archive.Inspect(args[0], &archive.ThumbnailOptions{
		Width:   opts.Width,
		Height:  opts.Height,
		Quality: opts.Quality,
		Format:  opts.Format,
	})
	if result.Err != "" {
		log.Err(errors.New(result.Err)).Fatal("inspect error")
	}

	fmt.Printf("Pages: %d\nThumbnail Ext: %s\nThumbnail Size: %d bytes\nBytes Saved: %d\n", result.Pages, result.ThumbnailExt, len(result.ThumbnailData), result.BytesSaved)

	if opts.ThumbnailOutput != "" && result.ThumbnailData != nil {
		if err := os.WriteFile(opts.ThumbnailOutput, result.ThumbnailData, 0644); err != nil { //nolint:gosec
			log.Err(err).Fatal("file write error")
		}
	}
}
