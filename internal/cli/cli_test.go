package cli

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTestImage writes a solid PNG of the given size and returns its path
func writeTestImage(t *testing.T, dir, name string, width, height int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	blue := color.RGBA{0, 0, 255, 255}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, blue)
		}
	}
	buf := &bytes.Buffer{}
	require.NoError(t, png.Encode(buf, img))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCMD()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "none.toml"), "--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func decodeFile(t *testing.T, path string) (image.Image, string) {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, format, err := image.Decode(f)
	require.NoError(t, err)
	return img, format
}

func TestShrink(t *testing.T) {
	testCases := []struct {
		name           string
		width, height  int
		expectedWidth  int
		expectedHeight int
	}{
		{"landscape", 400, 200, 200, 100},
		{"portrait", 200, 600, 100, 300},
		{"fits", 80, 60, 80, 60},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			inDir := t.TempDir()
			outDir := t.TempDir()
			input := writeTestImage(t, inDir, tc.name+".png", tc.width, tc.height)

			_, err := run(t, "shrink", "--max-width", "100", "--max-height", "100", "--out-dir", outDir, input)
			require.NoError(t, err)

			img, format := decodeFile(t, filepath.Join(outDir, tc.name+".jpg"))
			assert.Equal(t, "jpeg", format)
			assert.Equal(t, tc.expectedWidth, img.Bounds().Dx())
			assert.Equal(t, tc.expectedHeight, img.Bounds().Dy())
		})
	}
}

func TestShrinkManyAsPNG(t *testing.T) {
	inDir := t.TempDir()
	outDir := t.TempDir()
	var inputs []string
	for _, name := range []string{"a.png", "b.png", "c.png"} {
		inputs = append(inputs, writeTestImage(t, inDir, name, 300, 300))
	}

	args := append([]string{"shrink", "--format", "png", "--jobs", "2", "--max-width", "100", "--max-height", "100", "--out-dir", outDir}, inputs...)
	_, err := run(t, args...)
	require.NoError(t, err)

	for _, name := range []string{"a.png", "b.png", "c.png"} {
		img, format := decodeFile(t, filepath.Join(outDir, name))
		assert.Equal(t, "png", format)
		assert.Equal(t, image.Rect(0, 0, 100, 100), img.Bounds())
	}
}

func TestShrinkFailures(t *testing.T) {
	inDir := t.TempDir()
	good := writeTestImage(t, inDir, "good.png", 10, 10)
	bad := filepath.Join(inDir, "bad.png")
	require.NoError(t, os.WriteFile(bad, []byte("not an image"), 0644))

	outDir := t.TempDir()
	_, err := run(t, "shrink", "--out-dir", outDir, good, bad, filepath.Join(inDir, "missing.png"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 of 3 images")

	_, err = os.Stat(filepath.Join(outDir, "good.jpg"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(outDir, "bad.jpg"))
	assert.True(t, os.IsNotExist(err))
}

func TestShrinkSameOutputName(t *testing.T) {
	inDir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(inDir, "a"), 0755))
	require.NoError(t, os.Mkdir(filepath.Join(inDir, "b"), 0755))
	first := writeTestImage(t, filepath.Join(inDir, "a"), "x.png", 400, 400)
	second := writeTestImage(t, filepath.Join(inDir, "b"), "x.png", 40, 40)

	outDir := t.TempDir()
	_, err := run(t, "shrink", "--jobs", "2", "--max-width", "100", "--max-height", "100", "--out-dir", outDir, first, second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 images")

	// The first input keeps the output
	img, format := decodeFile(t, filepath.Join(outDir, "x.jpg"))
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, image.Rect(0, 0, 100, 100), img.Bounds())
}

func TestShrinkRefusesToOverwriteInput(t *testing.T) {
	dir := t.TempDir()
	input := writeTestImage(t, dir, "same.png", 10, 10)
	_, err := run(t, "shrink", "--format", "png", "--out-dir", dir, input)
	assert.Error(t, err)
}

func TestShrinkInvalidConfig(t *testing.T) {
	_, err := run(t, "shrink", "--quality", "0", "x.png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration error")
}

func TestProbe(t *testing.T) {
	dir := t.TempDir()
	input := writeTestImage(t, dir, "wide.png", 4000, 2000)

	out, err := run(t, "probe", "--max-width", "1000", "--max-height", "1000", input)
	require.NoError(t, err)
	assert.Contains(t, out, "png 4000x2000 sample 2 -> 2000x1000")

	_, err = run(t, "probe", filepath.Join(dir, "missing.png"))
	assert.Error(t, err)
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bitmaptool.toml")

	out, err := run(t, "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "max_width = 1024")

	_, err = run(t, "config", "init", path)
	assert.Error(t, err)

	_, err = run(t, "config", "init", "--force", path)
	assert.NoError(t, err)
}

func TestConfigFileIsUsed(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "bitmaptool.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("[decode]\nmax_width = 50\nmax_height = 50\n"), 0644))
	input := writeTestImage(t, dir, "big.png", 200, 200)

	cmd := NewRootCMD()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetArgs([]string{"--config", cfgPath, "--log-level", "error", "probe", input})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "200x200 sample 4 -> 50x50")
}
