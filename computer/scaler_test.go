package computer

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/screenpilot/screenpilot/model"
)

// fakeScreen is a scripted Computer that returns a solid white screenshot of
// a fixed size and records the coordinates it receives.
type fakeScreen struct {
	width  int
	height int

	screenshot string

	clicks   []model.Point
	dragPath []model.Point
	scrolls  [][4]int
}

func newFakeScreen(t *testing.T, width, height int) *fakeScreen {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.White)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode fake screenshot: %v", err)
	}
	return &fakeScreen{
		width:      width,
		height:     height,
		screenshot: base64.StdEncoding.EncodeToString(buf.Bytes()),
	}
}

func (f *fakeScreen) Environment() model.Environment { return model.EnvironmentBrowser }

func (f *fakeScreen) Dimensions(ctx context.Context) (int, int, error) {
	return f.width, f.height, nil
}

func (f *fakeScreen) Screenshot(ctx context.Context) (string, error) {
	return f.screenshot, nil
}

func (f *fakeScreen) Click(ctx context.Context, x, y int, button string) error {
	f.clicks = append(f.clicks, model.Point{X: x, Y: y})
	return nil
}

func (f *fakeScreen) DoubleClick(ctx context.Context, x, y int) error {
	f.clicks = append(f.clicks, model.Point{X: x, Y: y})
	return nil
}

func (f *fakeScreen) Move(ctx context.Context, x, y int) error {
	f.clicks = append(f.clicks, model.Point{X: x, Y: y})
	return nil
}

func (f *fakeScreen) Scroll(ctx context.Context, x, y, scrollX, scrollY int) error {
	f.scrolls = append(f.scrolls, [4]int{x, y, scrollX, scrollY})
	return nil
}

func (f *fakeScreen) Type(ctx context.Context, text string) error       { return nil }
func (f *fakeScreen) Keypress(ctx context.Context, keys []string) error { return nil }
func (f *fakeScreen) Wait(ctx context.Context, ms int) error            { return nil }

func (f *fakeScreen) Drag(ctx context.Context, path []model.Point) error {
	f.dragPath = path
	return nil
}

func decodeScreenshot(t *testing.T, encoded string) image.Image {
	t.Helper()
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		t.Fatalf("decode base64: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	return img
}

func TestDimensionsAutoScale(t *testing.T) {
	tests := []struct {
		name  string
		realW int
		realH int
		wantW int
		wantH int
	}{
		{name: "small screen unchanged", realW: 800, realH: 600, wantW: 800, wantH: 600},
		{name: "wide screen capped", realW: 3840, realH: 1080, wantW: 2048, wantH: 576},
		{name: "tall screen capped", realW: 1080, realH: 3840, wantW: 576, wantH: 2048},
		{name: "at the cap unchanged", realW: 2048, realH: 1152, wantW: 2048, wantH: 1152},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scaler := NewScaler(newFakeScreen(t, tt.realW, tt.realH))
			w, h, err := scaler.Dimensions(context.Background())
			if err != nil {
				t.Fatalf("Dimensions: %v", err)
			}
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("got %dx%d, want %dx%d", w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestScreenshotLetterbox(t *testing.T) {
	// Real 1920x1080 onto a fixed 1024x768 canvas: the width ratio wins,
	// the image scales to 1024x576, and the bottom band is black padding.
	screen := newFakeScreen(t, 1920, 1080)
	scaler := NewScalerWithDimensions(screen, 1024, 768)

	encoded, err := scaler.Screenshot(context.Background())
	if err != nil {
		t.Fatalf("Screenshot: %v", err)
	}
	img := decodeScreenshot(t, encoded)

	bounds := img.Bounds()
	if bounds.Dx() != 1024 || bounds.Dy() != 768 {
		t.Fatalf("canvas is %dx%d, want 1024x768", bounds.Dx(), bounds.Dy())
	}

	// Inside the scaled content the white source must survive.
	r, g, b, _ := img.At(100, 100).RGBA()
	if r < 0xf000 || g < 0xf000 || b < 0xf000 {
		t.Errorf("content pixel is (%d,%d,%d), want white", r, g, b)
	}

	// Below the 576-pixel content band only black padding remains.
	r, g, b, _ = img.At(100, 700).RGBA()
	if r != 0 || g != 0 || b != 0 {
		t.Errorf("padding pixel is (%d,%d,%d), want black", r, g, b)
	}
}

func TestToRealCoordsRoundTrip(t *testing.T) {
	screen := newFakeScreen(t, 1920, 1080)
	scaler := NewScalerWithDimensions(screen, 1024, 768)

	if _, err := scaler.Screenshot(context.Background()); err != nil {
		t.Fatalf("Screenshot: %v", err)
	}

	// ratio = min(1024/1920, 768/1080) = 8/15
	tests := []struct {
		x, y         int
		wantX, wantY int
	}{
		{x: 0, y: 0, wantX: 0, wantY: 0},
		{x: 512, y: 288, wantX: 960, wantY: 540},
		{x: 1024, y: 576, wantX: 1920, wantY: 1080},
		{x: 8, y: 8, wantX: 15, wantY: 15},
	}

	for _, tt := range tests {
		gotX, gotY, err := scaler.ToRealCoords(tt.x, tt.y)
		if err != nil {
			t.Fatalf("ToRealCoords(%d,%d): %v", tt.x, tt.y, err)
		}
		if gotX != tt.wantX || gotY != tt.wantY {
			t.Errorf("ToRealCoords(%d,%d) = (%d,%d), want (%d,%d)",
				tt.x, tt.y, gotX, gotY, tt.wantX, tt.wantY)
		}
	}
}

func TestToRealCoordsBeforeScreenshot(t *testing.T) {
	scaler := NewScaler(newFakeScreen(t, 1920, 1080))

	if _, _, err := scaler.ToRealCoords(10, 10); !errors.Is(err, ErrNoScreenshot) {
		t.Errorf("ToRealCoords error = %v, want ErrNoScreenshot", err)
	}
	if err := scaler.Click(context.Background(), 10, 10, "left"); !errors.Is(err, ErrNoScreenshot) {
		t.Errorf("Click error = %v, want ErrNoScreenshot", err)
	}
}

func TestDragTranslatesEveryPoint(t *testing.T) {
	// Real 2048x1536 onto 1024x768 gives an exact ratio of 0.5.
	screen := newFakeScreen(t, 2048, 1536)
	scaler := NewScalerWithDimensions(screen, 1024, 768)

	if _, err := scaler.Screenshot(context.Background()); err != nil {
		t.Fatalf("Screenshot: %v", err)
	}

	path := []model.Point{{X: 10, Y: 10}, {X: 20, Y: 30}, {X: 100, Y: 50}}
	if err := scaler.Drag(context.Background(), path); err != nil {
		t.Fatalf("Drag: %v", err)
	}

	want := []model.Point{{X: 20, Y: 20}, {X: 40, Y: 60}, {X: 200, Y: 100}}
	if len(screen.dragPath) != len(want) {
		t.Fatalf("driver got %d points, want %d", len(screen.dragPath), len(want))
	}
	for i, p := range screen.dragPath {
		if p != want[i] {
			t.Errorf("point %d = %+v, want %+v", i, p, want[i])
		}
	}
}

func TestScrollTranslatesReferenceOnly(t *testing.T) {
	screen := newFakeScreen(t, 2048, 1536)
	scaler := NewScalerWithDimensions(screen, 1024, 768)

	if _, err := scaler.Screenshot(context.Background()); err != nil {
		t.Fatalf("Screenshot: %v", err)
	}

	if err := scaler.Scroll(context.Background(), 100, 200, 0, -120); err != nil {
		t.Fatalf("Scroll: %v", err)
	}
	if len(screen.scrolls) != 1 {
		t.Fatalf("driver got %d scrolls, want 1", len(screen.scrolls))
	}
	got := screen.scrolls[0]
	if got != [4]int{200, 400, 0, -120} {
		t.Errorf("scroll = %v, want [200 400 0 -120]", got)
	}
}

func TestScreenshotRejectsGarbage(t *testing.T) {
	screen := newFakeScreen(t, 100, 100)
	scaler := NewScaler(screen)

	screen.screenshot = "not base64!!!"
	if _, err := scaler.Screenshot(context.Background()); err == nil {
		t.Error("expected error for invalid base64")
	}

	screen.screenshot = base64.StdEncoding.EncodeToString([]byte("not an image"))
	if _, err := scaler.Screenshot(context.Background()); err == nil {
		t.Error("expected error for undecodable image bytes")
	}
}
