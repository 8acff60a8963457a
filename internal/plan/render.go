package plan

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"parkshare/internal/domain"
)

const labelRadius = 18

// RenderAnnotated draws every stored label as a white circle with a black
// number over the plan image and writes the result as PNG to outPath.
func (s *Store) RenderAnnotated(planImage, outPath string) error {
	labels, err := s.Load()
	if err != nil {
		return err
	}

	f, err := os.Open(planImage)
	if err != nil {
		return fmt.Errorf("plan: open image: %w", err)
	}
	defer f.Close()
	src, err := png.Decode(f)
	if err != nil {
		return fmt.Errorf("plan: decode image: %w", err)
	}

	img := image.NewRGBA(src.Bounds())
	draw.Draw(img, img.Bounds(), src, src.Bounds().Min, draw.Src)

	for _, lab := range labels {
		drawCircle(img, lab.X, lab.Y, labelRadius)
		drawNumber(img, lab)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("plan: create output dir: %w", err)
	}
	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("plan: create output: %w", err)
	}
	defer out.Close()
	if err := png.Encode(out, img); err != nil {
		return fmt.Errorf("plan: encode output: %w", err)
	}
	return nil
}

// drawCircle fills a translucent white disc with a 2px black outline.
func drawCircle(img *image.RGBA, cx, cy, r int) {
	fill := color.RGBA{255, 255, 255, 220}
	ring := color.RGBA{0, 0, 0, 255}
	for y := cy - r; y <= cy+r; y++ {
		for x := cx - r; x <= cx+r; x++ {
			dx, dy := x-cx, y-cy
			d2 := dx*dx + dy*dy
			switch {
			case d2 > r*r:
			case d2 >= (r-2)*(r-2):
				img.Set(x, y, ring)
			default:
				img.Set(x, y, fill)
			}
		}
	}
}

func drawNumber(img *image.RGBA, lab domain.PlanLabel) {
	text := fmt.Sprintf("%d", lab.N)
	face := basicfont.Face7x13
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.RGBA{0, 0, 0, 255}),
		Face: face,
	}
	w := d.MeasureString(text)
	d.Dot = fixed.Point26_6{
		X: fixed.I(lab.X) - w/2,
		Y: fixed.I(lab.Y + face.Height/2 - 2),
	}
	d.DrawString(text)
}
