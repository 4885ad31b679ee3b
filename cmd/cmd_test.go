package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/AnyUserName/sizefit/internal/search"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writePNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 48, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 48; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 5), G: uint8((x * y) % 256), B: uint8(y * 5), A: 255})
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestCompressThenVerify(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.png")
	writePNG(t, in)
	out := filepath.Join(dir, "out.jpg")
	rep := filepath.Join(dir, "run.json")

	stdout, err := execute(t, "compress", in,
		"--target", "3", "--out", out, "--report", rep, "--trace", "--no-progress")
	require.NoError(t, err)
	require.Contains(t, stdout, "sizefit compress complete")
	require.FileExists(t, out)

	stdout, err = execute(t, "verify", rep)
	require.NoError(t, err)
	require.Contains(t, stdout, "Report is valid")

	// Corrupt the output; verify must now fail.
	require.NoError(t, os.WriteFile(out, []byte("tampered"), 0o644))
	stdout, err = execute(t, "verify", rep)
	require.Error(t, err)
	require.Contains(t, stdout, "size mismatch")
}

func TestProfilesListing(t *testing.T) {
	stdout, err := execute(t, "profiles")
	require.NoError(t, err)
	require.Contains(t, stdout, "* default")
	require.Contains(t, stdout, "robust")
}

func TestCodecsListing(t *testing.T) {
	stdout, err := execute(t, "codecs")
	require.NoError(t, err)
	require.Contains(t, stdout, "jpeg   ✓ available")
}

func TestUserMessage(t *testing.T) {
	cases := map[string]error{
		"not a usable image": fmt.Errorf("x: %w", search.ErrInvalidImage),
		"positive number":    fmt.Errorf("x: %w", search.ErrInvalidTarget),
		"codec failed":       fmt.Errorf("x: %w", &search.CodecError{Quality: 0.5, Err: errors.New("boom")}),
		"no quality setting": search.ErrNoViableQuality,
		"something else":     errors.New("something else"),
	}
	for want, err := range cases {
		require.Contains(t, UserMessage(err), want)
	}
}
