package imageio

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/AnyUserName/sizefit/internal/search"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func alphaGradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 220, G: 60, B: 30, A: uint8(x * 255 / w)})
		}
	}
	return img
}

// pngHeader returns a PNG signature followed by a lone IHDR chunk.
func pngHeader(width, height uint32) []byte {
	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")

	body := make([]byte, 0, 17)
	body = append(body, "IHDR"...)
	body = binary.BigEndian.AppendUint32(body, width)
	body = binary.BigEndian.AppendUint32(body, height)
	body = append(body, 8, 6, 0, 0, 0)

	binary.Write(&buf, binary.BigEndian, uint32(13))
	buf.Write(body)
	binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(body))
	return buf.Bytes()
}

func TestDecodeBytes_JPEG(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}))

	src, err := DecodeBytes(buf.Bytes(), DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, "jpeg", src.Format)
	require.Equal(t, "ycbcr", src.PixelFormat)
	require.Equal(t, 40, src.Width)
	require.Equal(t, 30, src.Height)
	require.Equal(t, int64(buf.Len()), src.Size)
	require.False(t, src.HasAlpha)
}

func TestDecodeBytes_FlattensAlpha(t *testing.T) {
	data := encodePNG(t, alphaGradient(16, 8))

	src, err := DecodeBytes(data, Options{Background: color.White})
	require.NoError(t, err)
	require.Equal(t, "png", src.Format)
	require.True(t, src.HasAlpha, "reports the input's alpha")
	require.False(t, HasAlpha(src.Image), "flattened output is opaque")

	// Fully transparent column becomes the background.
	r, g, b, _ := src.Image.At(0, 0).RGBA()
	require.Equal(t, [3]uint32{0xffff, 0xffff, 0xffff}, [3]uint32{r, g, b})
}

func TestDecodeBytes_KeepsAlphaWithoutBackground(t *testing.T) {
	src, err := DecodeBytes(encodePNG(t, alphaGradient(16, 8)), Options{})
	require.NoError(t, err)
	require.True(t, HasAlpha(src.Image))
}

func TestDecodeBytes_Invalid(t *testing.T) {
	cases := map[string][]byte{
		"empty":     nil,
		"garbage":   []byte("definitely not an image"),
		"oversized": pngHeader(MaxDimension+1, 10),
		"too many":  pngHeader(MaxDimension, MaxDimension),
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			src, err := DecodeBytes(data, DefaultOptions())
			require.Nil(t, src)
			require.ErrorIs(t, err, search.ErrInvalidImage)
		})
	}
}

func TestDecodeFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "in.png")
	require.NoError(t, os.WriteFile(path, encodePNG(t, image.NewGray(image.Rect(0, 0, 5, 7))), 0o644))

	src, err := DecodeFile(path, DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, "gray", src.PixelFormat)
	require.Equal(t, 5, src.Width)

	_, err = DecodeFile(filepath.Join(dir, "missing.png"), DefaultOptions())
	require.ErrorIs(t, err, search.ErrInvalidImage)
}

func TestDecode_Reader(t *testing.T) {
	src, err := Decode(bytes.NewReader(encodePNG(t, alphaGradient(4, 4))), DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, 4, src.Height)
}

func TestHasAlpha(t *testing.T) {
	opaque := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for i := 3; i < len(opaque.Pix); i += 4 {
		opaque.Pix[i] = 255
	}
	require.False(t, HasAlpha(opaque))
	require.True(t, HasAlpha(alphaGradient(4, 4)))
	require.False(t, HasAlpha(image.NewYCbCr(image.Rect(0, 0, 8, 8), image.YCbCrSubsampleRatio420)))
	require.False(t, HasAlpha(image.NewGray(image.Rect(0, 0, 8, 8))))

	pal := image.NewPaletted(image.Rect(0, 0, 2, 2), color.Palette{color.Transparent, color.Black})
	require.True(t, HasAlpha(pal))

	// A translucent palette entry no pixel uses is not transparency.
	for i := range pal.Pix {
		pal.Pix[i] = 1
	}
	require.False(t, HasAlpha(pal))
	pal.SetColorIndex(1, 1, 0)
	require.True(t, HasAlpha(pal))
}

func TestDecodeBytes_UnusedTransparentPaletteEntry(t *testing.T) {
	pal := image.NewPaletted(image.Rect(0, 0, 6, 6), color.Palette{color.Transparent, color.White, color.Black})
	for i := range pal.Pix {
		pal.Pix[i] = uint8(1 + i%2)
	}

	src, err := DecodeBytes(encodePNG(t, pal), Options{})
	require.NoError(t, err)
	require.Equal(t, "paletted", src.PixelFormat)
	require.False(t, src.HasAlpha)
}
