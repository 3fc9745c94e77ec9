package catalogue

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/sharpie/internal/quiz"
)

const (
	sampleSourceID = "sample"
	sampleWidth    = 11
	sampleHeight   = 17
)

var (
	paper = color.RGBA{R: 0xF2, G: 0xE8, B: 0xD0, A: 0xFF}
	ink   = color.RGBA{R: 0x3B, G: 0x2A, B: 0x1A, A: 0xFF}
)

// WriteSample creates a starter catalogue in dir with generated placeholder
// images for every letter. An existing manifest is kept unless force is set.
func WriteSample(dir string, force bool) error {
	manifest := filepath.Join(dir, ManifestName)
	if !force {
		if _, err := os.Stat(manifest); err == nil {
			return fmt.Errorf("catalogue already exists: %s (use --force to overwrite)", manifest)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat catalogue: %w", err)
		}
	}

	cat := Catalogue{
		Sets: []quiz.GraphSet{
			{ID: "minuscules", Name: "Minuscules", Enabled: true},
			{ID: "majuscules", Name: "Majuscules"},
		},
		Sources: []Source{
			{ID: sampleSourceID, Title: "Generated sample letters"},
		},
	}
	for r := 'a'; r <= 'z'; r++ {
		g, err := writeSampleGraph(dir, "minuscules", r)
		if err != nil {
			return err
		}
		cat.Sets[0].Graphs = append(cat.Sets[0].Graphs, g)
	}
	for r := 'A'; r <= 'Z'; r++ {
		g, err := writeSampleGraph(dir, "majuscules", r)
		if err != nil {
			return err
		}
		cat.Sets[1].Graphs = append(cat.Sets[1].Graphs, g)
	}

	data, err := yaml.Marshal(&cat)
	if err != nil {
		return fmt.Errorf("failed to encode catalogue: %w", err)
	}
	header := []byte("# Sharpie graph catalogue. Image paths are relative to this file.\n")
	if err := os.WriteFile(manifest, append(header, data...), 0o644); err != nil {
		return fmt.Errorf("failed to write catalogue: %w", err)
	}
	return nil
}

func writeSampleGraph(dir, setID string, r rune) (quiz.Graph, error) {
	rel := setID + "/" + string(r) + ".png"
	path := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return quiz.Graph{}, fmt.Errorf("failed to create image dir: %w", err)
	}
	if err := writeLetterPNG(path, r); err != nil {
		return quiz.Graph{}, err
	}
	return quiz.Graph{Char: string(r), Image: rel, Source: sampleSourceID}, nil
}

func writeLetterPNG(path string, r rune) error {
	img := image.NewRGBA(image.Rect(0, 0, sampleWidth, sampleHeight))
	for y := 0; y < sampleHeight; y++ {
		for x := 0; x < sampleWidth; x++ {
			img.Set(x, y, paper)
		}
	}
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(ink),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(2, 13),
	}
	d.DrawString(string(r))

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create image: %w", err)
	}
	if err := png.Encode(file, img); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to encode image: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close image: %w", err)
	}
	return nil
}
