package video

import "testing"

func solidFrame(width, height int, b, g, r byte) Frame {
	pix := make([]byte, width*height*Channels)
	for i := 0; i < len(pix); i += Channels {
		pix[i], pix[i+1], pix[i+2] = b, g, r
	}
	return Frame{Width: width, Height: height, Pix: pix}
}

func TestResizeWithPadLetterboxesWideFrames(t *testing.T) {
	dst := make([]float32, 4*4*Channels)
	resizeWithPad(solidFrame(8, 4, 10, 20, 30), 4, 4, dst)

	at := func(y, x, c int) float32 { return dst[(y*4+x)*Channels+c] }
	for x := range 4 {
		for _, y := range []int{0, 3} {
			if at(y, x, 0) != 0 || at(y, x, 1) != 0 || at(y, x, 2) != 0 {
				t.Fatalf("expected zero padding at row %d col %d", y, x)
			}
		}
		for _, y := range []int{1, 2} {
			if at(y, x, 0) != float32(10)/255 || at(y, x, 2) != float32(30)/255 {
				t.Fatalf("expected scaled content at row %d col %d, got %v %v", y, x, at(y, x, 0), at(y, x, 2))
			}
		}
	}
}

func TestResizeWithPadPillarboxesTallFrames(t *testing.T) {
	dst := make([]float32, 6*6*Channels)
	resizeWithPad(solidFrame(2, 6, 255, 255, 255), 6, 6, dst)

	at := func(y, x int) float32 { return dst[(y*6+x)*Channels] }
	for y := range 6 {
		for x := range 6 {
			inside := x >= 2 && x < 4
			if inside && at(y, x) != 1 {
				t.Fatalf("expected content at (%d,%d), got %v", y, x, at(y, x))
			}
			if !inside && at(y, x) != 0 {
				t.Fatalf("expected padding at (%d,%d), got %v", y, x, at(y, x))
			}
		}
	}
}

func TestResizeWithPadKeepsSubByteBlends(t *testing.T) {
	// One dark and one barely lit pixel, upscaled 2x in both directions.
	src := Frame{Width: 2, Height: 1, Pix: []byte{0, 0, 0, 1, 1, 1}}
	dst := make([]float32, 2*4*Channels)
	resizeWithPad(src, 2, 4, dst)

	blended := false
	for _, v := range dst {
		if v < 0 || v > float32(1)/255 {
			t.Fatalf("value %v outside the source range", v)
		}
		if v > 0 && v < float32(1)/255 {
			blended = true
		}
	}
	if !blended {
		t.Fatalf("expected interpolated values between 8-bit steps, got %v", dst)
	}
}

func TestResizeWithPadIdentityIsExact(t *testing.T) {
	frames := IndexedFrames(1, 5, 3)
	dst := make([]float32, 5*3*Channels)
	resizeWithPad(frames[0], 3, 5, dst)
	for i, v := range frames[0].Pix {
		if dst[i] != float32(v)/255 {
			t.Fatalf("value %d: got %v want %v", i, dst[i], float32(v)/255)
		}
	}
}

func TestReverseChannels(t *testing.T) {
	data := []float32{1, 2, 3, 4, 5, 6}
	reverseChannels(data)
	want := []float32{3, 2, 1, 6, 5, 4}
	for i := range want {
		if data[i] != want[i] {
			t.Fatalf("got %v want %v", data, want)
		}
	}
}
