package computer

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"

	_ "image/jpeg" // drivers may produce JPEG screenshots

	"golang.org/x/image/draw"

	"github.com/screenpilot/screenpilot/model"
)

// maxLogicalSide caps the auto-computed logical canvas so screenshots stay
// within the model's supported image size.
const maxLogicalSide = 2048

var (
	// ErrNoScreenshot is returned when coordinate translation is attempted
	// before any screenshot has established the real screen dimensions.
	ErrNoScreenshot = errors.New("no screenshot taken yet, real dimensions unknown")

	// ErrInvalidScreenshot is returned when a driver screenshot decodes to
	// zero-sized dimensions.
	ErrInvalidScreenshot = errors.New("screenshot has invalid dimensions")

	// ErrInvalidDimensions is returned when the scale ratio is not positive.
	ErrInvalidDimensions = errors.New("scale ratio is not positive")
)

// Scaler wraps a Computer, rescaling screenshots to a fixed logical canvas
// and translating logical action coordinates back to real screen coordinates.
//
// The translation ratio derives from the most recent screenshot's real
// dimensions. If the real screen is resized between a screenshot and a
// subsequent action, translated coordinates will be wrong; callers that
// resize must take a fresh screenshot first.
//
// Scaler is not safe for concurrent use; a single agent loop owns it.
type Scaler struct {
	inner Computer

	logicalW int
	logicalH int

	// Real dimensions recorded by the most recent screenshot; zero until
	// the first screenshot.
	realW int
	realH int
}

// NewScaler wraps a driver with an auto-computed logical canvas: the driver's
// real dimensions scaled so the longer side fits maxLogicalSide.
func NewScaler(inner Computer) *Scaler {
	return &Scaler{inner: inner}
}

// NewScalerWithDimensions wraps a driver with a fixed logical canvas.
func NewScalerWithDimensions(inner Computer, width, height int) *Scaler {
	return &Scaler{inner: inner, logicalW: width, logicalH: height}
}

// Environment reports the wrapped driver's environment.
func (s *Scaler) Environment() model.Environment {
	return s.inner.Environment()
}

// Dimensions returns the logical canvas size, computing and caching it from
// the driver's real dimensions on first use.
func (s *Scaler) Dimensions(ctx context.Context) (int, int, error) {
	if s.logicalW > 0 && s.logicalH > 0 {
		return s.logicalW, s.logicalH, nil
	}

	width, height, err := s.inner.Dimensions(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("driver dimensions: %w", err)
	}
	if width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("driver reported %dx%d: %w", width, height, ErrInvalidDimensions)
	}

	longest := width
	if height > longest {
		longest = height
	}
	if longest <= maxLogicalSide {
		s.logicalW, s.logicalH = width, height
	} else {
		scale := float64(maxLogicalSide) / float64(longest)
		s.logicalW = int(float64(width) * scale)
		s.logicalH = int(float64(height) * scale)
	}
	return s.logicalW, s.logicalH, nil
}

// Screenshot captures the real screen, records its dimensions, and returns a
// base64 PNG resized onto the logical canvas. The image is scaled with a
// uniform ratio and letterboxed with black, never stretched, so the output
// is always exactly the logical dimensions.
func (s *Scaler) Screenshot(ctx context.Context) (string, error) {
	encoded, err := s.inner.Screenshot(ctx)
	if err != nil {
		return "", err
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("decode screenshot base64: %w", err)
	}
	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("decode screenshot image: %w", err)
	}

	bounds := src.Bounds()
	realW, realH := bounds.Dx(), bounds.Dy()
	if realW <= 0 || realH <= 0 {
		return "", fmt.Errorf("%dx%d: %w", realW, realH, ErrInvalidScreenshot)
	}
	s.realW, s.realH = realW, realH

	logicalW, logicalH, err := s.Dimensions(ctx)
	if err != nil {
		return "", err
	}

	ratio := scaleRatio(logicalW, logicalH, realW, realH)
	if ratio <= 0 {
		return "", ErrInvalidDimensions
	}
	scaledW := int(float64(realW) * ratio)
	scaledH := int(float64(realH) * ratio)

	canvas := image.NewRGBA(image.Rect(0, 0, logicalW, logicalH))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
	draw.CatmullRom.Scale(canvas, image.Rect(0, 0, scaledW, scaledH), src, bounds, draw.Src, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return "", fmt.Errorf("encode scaled screenshot: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// ToRealCoords translates a logical-canvas point to real screen coordinates
// using the ratio from the most recent screenshot.
func (s *Scaler) ToRealCoords(x, y int) (int, int, error) {
	if s.realW <= 0 || s.realH <= 0 {
		return 0, 0, ErrNoScreenshot
	}
	logicalW, logicalH := s.logicalW, s.logicalH
	if logicalW <= 0 || logicalH <= 0 {
		// Screenshot sets logical dimensions before recording real ones.
		return 0, 0, ErrNoScreenshot
	}
	ratio := scaleRatio(logicalW, logicalH, s.realW, s.realH)
	if ratio <= 0 {
		return 0, 0, ErrInvalidDimensions
	}
	return int(float64(x) / ratio), int(float64(y) / ratio), nil
}

func scaleRatio(logicalW, logicalH, realW, realH int) float64 {
	rw := float64(logicalW) / float64(realW)
	rh := float64(logicalH) / float64(realH)
	if rh < rw {
		return rh
	}
	return rw
}

// Click translates the point and delegates.
func (s *Scaler) Click(ctx context.Context, x, y int, button string) error {
	rx, ry, err := s.ToRealCoords(x, y)
	if err != nil {
		return err
	}
	return s.inner.Click(ctx, rx, ry, button)
}

// DoubleClick translates the point and delegates.
func (s *Scaler) DoubleClick(ctx context.Context, x, y int) error {
	rx, ry, err := s.ToRealCoords(x, y)
	if err != nil {
		return err
	}
	return s.inner.DoubleClick(ctx, rx, ry)
}

// Move translates the point and delegates.
func (s *Scaler) Move(ctx context.Context, x, y int) error {
	rx, ry, err := s.ToRealCoords(x, y)
	if err != nil {
		return err
	}
	return s.inner.Move(ctx, rx, ry)
}

// Scroll translates the reference point and delegates. Scroll deltas are
// passed through unscaled.
func (s *Scaler) Scroll(ctx context.Context, x, y, scrollX, scrollY int) error {
	rx, ry, err := s.ToRealCoords(x, y)
	if err != nil {
		return err
	}
	return s.inner.Scroll(ctx, rx, ry, scrollX, scrollY)
}

// Type delegates unchanged; no coordinates involved.
func (s *Scaler) Type(ctx context.Context, text string) error {
	return s.inner.Type(ctx, text)
}

// Keypress delegates unchanged; no coordinates involved.
func (s *Scaler) Keypress(ctx context.Context, keys []string) error {
	return s.inner.Keypress(ctx, keys)
}

// Drag translates every path point and delegates.
func (s *Scaler) Drag(ctx context.Context, path []model.Point) error {
	translated := make([]model.Point, len(path))
	for i, p := range path {
		rx, ry, err := s.ToRealCoords(p.X, p.Y)
		if err != nil {
			return err
		}
		translated[i] = model.Point{X: rx, Y: ry}
	}
	return s.inner.Drag(ctx, translated)
}

// Wait delegates unchanged.
func (s *Scaler) Wait(ctx context.Context, ms int) error {
	return s.inner.Wait(ctx, ms)
}

// Verify Scaler implements Computer.
var _ Computer = (*Scaler)(nil)
