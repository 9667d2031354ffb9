package geometry

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

const tolerance = 1e-6

func TestMapToReference_Halving(t *testing.T) {
	image := NewBoundingBox(0, 0, 100, 200)
	pdf := NewBoundingBox(0, 0, 50, 100)

	got, err := MapToReference(NewBoundingBox(10, 20, 30, 40), image, pdf)
	if err != nil {
		t.Fatalf("MapToReference() error = %v", err)
	}

	assertBoxNear(t, got, NewBoundingBox(5, 10, 15, 20))
}

func TestMapToReference_OffsetAndScale(t *testing.T) {
	image := NewBoundingBox(100, 50, 300, 250)
	pdf := NewBoundingBox(72, 400, 172, 500)

	// Top-left quarter of the image frame lands on the top-left quarter of the PDF frame
	got, err := MapToReference(NewBoundingBox(100, 50, 200, 150), image, pdf)
	if err != nil {
		t.Fatalf("MapToReference() error = %v", err)
	}

	assertBoxNear(t, got, NewBoundingBox(72, 400, 122, 450))
}

func TestMapToReference_ZeroExtent(t *testing.T) {
	tests := []struct {
		name   string
		source BoundingBox
		target BoundingBox
	}{
		{"zero width source", NewBoundingBox(5, 0, 5, 10), NewBoundingBox(0, 0, 10, 10)},
		{"zero height source", NewBoundingBox(0, 5, 10, 5), NewBoundingBox(0, 0, 10, 10)},
		{"zero width target", NewBoundingBox(0, 0, 10, 10), NewBoundingBox(3, 0, 3, 10)},
		{"zero height target", NewBoundingBox(0, 0, 10, 10), NewBoundingBox(0, 7, 10, 7)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MapToReference(NewBoundingBox(1, 1, 2, 2), tt.source, tt.target)
			if !errors.Is(err, ErrUndefinedMapping) {
				t.Errorf("error = %v, want ErrUndefinedMapping", err)
			}

			if _, err := NewMapper(tt.source, tt.target); !errors.Is(err, ErrUndefinedMapping) {
				t.Errorf("NewMapper() error = %v, want ErrUndefinedMapping", err)
			}
		})
	}
}

func TestMapper_RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 500; i++ {
		source := randomFrame(rng)
		target := randomFrame(rng)

		m, err := NewMapper(source, target)
		if err != nil {
			t.Fatalf("NewMapper() error = %v", err)
		}

		cell := randomBox(rng)
		back := m.Inverse().Map(m.Map(cell))
		assertBoxNear(t, back, cell)
	}
}

func TestFlipY(t *testing.T) {
	box := NewBoundingBox(10, 20, 30, 60)

	flipped := FlipY(box, 792)
	assertBoxNear(t, flipped, NewBoundingBox(10, 732, 30, 772))

	if !flipped.Valid() {
		t.Error("flipped box should remain valid")
	}

	assertBoxNear(t, FlipY(flipped, 792), box)
}

func randomFrame(rng *rand.Rand) BoundingBox {
	x0 := rng.Float64()*500 - 250
	y0 := rng.Float64()*500 - 250
	return NewBoundingBox(x0, y0, x0+1+rng.Float64()*800, y0+1+rng.Float64()*800)
}

func assertBoxNear(t *testing.T, got, want BoundingBox) {
	t.Helper()

	g, w := got.Slice(), want.Slice()
	for i := range g {
		if math.Abs(g[i]-w[i]) > tolerance {
			t.Fatalf("box = %v, want %v", got, want)
		}
	}
}
