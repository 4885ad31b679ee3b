package cmd

import (
	"errors"
	"fmt"

	"github.com/AnyUserName/sizefit/internal/search"
	"github.com/dustin/go-humanize"
)

// formatBytes renders b with SI units, matching the 1 KB = 1000 B target.
func formatBytes(b int64) string {
	if b < 0 {
		return "-" + humanize.Bytes(uint64(-b))
	}
	return humanize.Bytes(uint64(b))
}

func truncPath(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return "..." + s[len(s)-max+3:]
}

// UserMessage turns an error into the one-line message shown to the user.
func UserMessage(err error) string {
	var ce *search.CodecError
	switch {
	case errors.As(err, &ce):
		return fmt.Sprintf("the codec failed at quality %.2f: %v", float64(ce.Quality), ce.Err)
	case errors.Is(err, search.ErrInvalidImage):
		return fmt.Sprintf("the input is not a usable image: %v", err)
	case errors.Is(err, search.ErrInvalidTarget):
		return fmt.Sprintf("the target size must be a positive number of kilobytes: %v", err)
	case errors.Is(err, search.ErrNoViableQuality):
		return "no quality setting produced an output"
	}
	return err.Error()
}
