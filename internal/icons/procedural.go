package icons

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"

	"cardvault/internal/cards"
	"cardvault/internal/logging"
	"cardvault/internal/vaulterr"
)

// Scheme parameterizes a procedurally generated icon set.
type Scheme struct {
	Background color.RGBA
	Accent     color.RGBA
}

// DefaultScheme is the steel-blue palette of the built-in default set.
var DefaultScheme = Scheme{
	Background: color.RGBA{R: 70, G: 130, B: 180, A: 255},
	Accent:     color.RGBA{R: 255, G: 255, B: 255, A: 255},
}

// InstallProcedural generates a themed icon set at every supported size.
func (r *Registry) InstallProcedural(name string, scheme Scheme) error {
	setDir := filepath.Join(r.dir, name)
	if err := os.MkdirAll(setDir, 0o755); err != nil {
		return vaulterr.Wrap(vaulterr.ErrIO, "icons", "generate", "create icon set directory", err)
	}
	for _, size := range Sizes {
		img := drawThemedIcon(size, scheme)
		if err := writePNG(filepath.Join(setDir, fmt.Sprintf("%d.png", size)), img); err != nil {
			os.RemoveAll(setDir)
			return err
		}
	}
	r.logger.Info("icon set generated", logging.String("name", name))
	return r.Refresh()
}

// ensureDefault writes the built-in book icons for any missing default size.
func (r *Registry) ensureDefault() error {
	setDir := filepath.Join(r.dir, cards.DefaultIconSet)
	if err := os.MkdirAll(setDir, 0o755); err != nil {
		return vaulterr.Wrap(vaulterr.ErrIO, "icons", "default", "create default icon directory", err)
	}
	for _, size := range Sizes {
		path := filepath.Join(setDir, fmt.Sprintf("%d.png", size))
		if _, err := os.Stat(path); err == nil {
			continue
		}
		if err := writePNG(path, drawBookIcon(size)); err != nil {
			return err
		}
	}
	return nil
}

// drawBookIcon renders the default motif: an open book on a steel-blue
// background with a spine line a quarter of the way in.
func drawBookIcon(size int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(DefaultScheme.Background), image.Point{}, draw.Src)

	margin := size / 8
	bookWidth := size - 2*margin
	bookHeight := bookWidth * 4 / 5
	bookX := margin
	bookY := (size - bookHeight) / 2
	book := image.Rect(bookX, bookY, bookX+bookWidth, bookY+bookHeight)

	outline := color.RGBA{R: 50, G: 50, B: 50, A: 255}
	stroke := max(1, size/64)
	fillRect(img, book, outline)
	fillRect(img, book.Inset(stroke), color.RGBA{R: 255, G: 255, B: 255, A: 255})

	spineX := bookX + bookWidth/4
	spineW := max(1, size/32)
	fillRect(img, image.Rect(spineX, bookY, spineX+spineW, bookY+bookHeight), color.RGBA{R: 200, G: 200, B: 200, A: 255})
	return img
}

// drawThemedIcon renders an accent disc centered on the scheme background.
func drawThemedIcon(size int, scheme Scheme) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(scheme.Background), image.Point{}, draw.Src)

	margin := size / 6
	radius := float64(size)/2 - float64(margin)
	cx := float64(size) / 2
	cy := float64(size) / 2
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx := float64(x) + 0.5 - cx
			dy := float64(y) + 0.5 - cy
			if dx*dx+dy*dy <= radius*radius {
				img.SetRGBA(x, y, scheme.Accent)
			}
		}
	}
	return img
}

func fillRect(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	draw.Draw(img, r, image.NewUniform(c), image.Point{}, draw.Src)
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return vaulterr.Wrap(vaulterr.ErrIO, "icons", "write", "create icon file", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return vaulterr.Wrap(vaulterr.ErrIO, "icons", "write", "encode icon", err)
	}
	if err := f.Close(); err != nil {
		return vaulterr.Wrap(vaulterr.ErrIO, "icons", "write", "close icon file", err)
	}
	return nil
}
