// Package imagefx применяет к изображению один из фиксированного набора эффектов.
package imagefx

import (
	"bytes"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/disintegration/imaging"

	"github.com/GoArmGo/PhotoShare/internal/apperror"
)

// Effect — имя эффекта, как его передаёт клиент.
type Effect string

const (
	Grayscale      Effect = "grayscale"
	Invert         Effect = "invert"
	Blur           Effect = "blur"
	Sharpen        Effect = "sharpen"
	FlipHorizontal Effect = "flip_horizontal"
	FlipVertical   Effect = "flip_vertical"
	Rotate90       Effect = "rotate_90"
)

var effects = map[Effect]func(image.Image) *image.NRGBA{
	Grayscale:      imaging.Grayscale,
	Invert:         imaging.Invert,
	Blur:           func(img image.Image) *image.NRGBA { return imaging.Blur(img, 2.0) },
	Sharpen:        func(img image.Image) *image.NRGBA { return imaging.Sharpen(img, 1.5) },
	FlipHorizontal: imaging.FlipH,
	FlipVertical:   imaging.FlipV,
	Rotate90:       imaging.Rotate90,
}

// ParseEffect проверяет имя эффекта.
func ParseEffect(name string) (Effect, error) {
	e := Effect(name)
	if _, ok := effects[e]; !ok {
		return "", apperror.Validation("effect", fmt.Sprintf("unknown effect %q", name))
	}
	return e, nil
}

// Transformer декодирует изображение, применяет эффект и кодирует
// результат в исходном формате.
type Transformer struct {
	logger *slog.Logger
}

func NewTransformer(logger *slog.Logger) *Transformer {
	return &Transformer{logger: logger}
}

func (t *Transformer) Apply(data []byte, effect Effect) ([]byte, error) {
	fn, ok := effects[effect]
	if !ok {
		return nil, apperror.Validation("effect", fmt.Sprintf("unknown effect %q", effect))
	}
	return t.process(data, string(effect), fn)
}

// AvatarSize — сторона квадратного аватара в пикселях.
const AvatarSize = 250

// Avatar обрезает изображение по центру до квадрата AvatarSize x AvatarSize.
func (t *Transformer) Avatar(data []byte) ([]byte, error) {
	return t.process(data, "avatar", func(img image.Image) *image.NRGBA {
		return imaging.Fill(img, AvatarSize, AvatarSize, imaging.Center, imaging.Lanczos)
	})
}

// process декодирует изображение, применяет fn и кодирует результат в исходном формате.
func (t *Transformer) process(data []byte, op string, fn func(image.Image) *image.NRGBA) ([]byte, error) {
	start := time.Now()

	_, formatName, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, apperror.Validation("image", "file is not a supported image")
	}
	format, err := imaging.FormatFromExtension(formatName)
	if err != nil {
		return nil, fmt.Errorf("unsupported image format %q: %w", formatName, err)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, fn(img), format, imaging.JPEGQuality(90)); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}

	t.logger.Info("image processed",
		"operation", op,
		"format", formatName,
		"bytes_in", len(data),
		"bytes_out", buf.Len(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}
