package textrecog

import (
	"context"
	"image"
	"testing"
)

func TestDefaultEngineIsNoop(t *testing.T) {
	res, err := DefaultEngine().Recognize(context.Background(), Input{
		Image: image.NewRGBA(image.Rect(0, 0, 10, 10)),
	})
	if err != nil {
		t.Fatalf("noop engine errored: %v", err)
	}
	if res.Text != "" || res.Confidence != 0 {
		t.Errorf("noop engine returned %+v", res)
	}
}

func TestCropRegion(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 100, 80))
	crop, ok := CropRegion(img, image.Rect(10, 10, 50, 40))
	if !ok {
		t.Fatal("in-bounds crop rejected")
	}
	b := crop.Bounds()
	if b.Dx() != 40 || b.Dy() != 30 {
		t.Errorf("crop size %dx%d, want 40x30", b.Dx(), b.Dy())
	}
}

func TestCropRegionClampsToBounds(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 100, 80))
	crop, ok := CropRegion(img, image.Rect(90, 70, 200, 200))
	if !ok {
		t.Fatal("partially overlapping crop rejected")
	}
	b := crop.Bounds()
	if b.Dx() != 10 || b.Dy() != 10 {
		t.Errorf("clamped crop %dx%d, want 10x10", b.Dx(), b.Dy())
	}
}

func TestCropRegionOutsideImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 100, 80))
	if _, ok := CropRegion(img, image.Rect(200, 200, 300, 300)); ok {
		t.Error("disjoint crop accepted")
	}
}
