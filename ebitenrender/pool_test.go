package ebitenrender

import "testing"

func TestNextPowerOfTwo(t *testing.T) {
	tests := []struct {
		input, want int
	}{
		{0, 1},
		{1, 1},
		{2, 2},
		{3, 4},
		{5, 8},
		{127, 128},
		{129, 256},
		{1000, 1024},
	}
	for _, tt := range tests {
		if got := nextPowerOfTwo(tt.input); got != tt.want {
			t.Errorf("nextPowerOfTwo(%d) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestPoolAcquireReturnsPow2(t *testing.T) {
	var pool imagePool
	img := pool.acquire(100, 50)
	defer pool.release(img)

	b := img.Bounds()
	if b.Dx() != 128 || b.Dy() != 64 {
		t.Errorf("acquired %dx%d, want 128x64", b.Dx(), b.Dy())
	}
	if v := view(img, 100, 50).Bounds(); v.Dx() != 100 || v.Dy() != 50 {
		t.Errorf("view is %v", v)
	}
}

func TestPoolReleaseAndReacquire(t *testing.T) {
	var pool imagePool
	a := pool.acquire(64, 64)
	pool.release(a)

	b := pool.acquire(60, 33)
	if a != b {
		t.Error("expected the released image back for a size in the same bucket")
	}
	c := pool.acquire(32, 32)
	if c == b {
		t.Error("different buckets should return different images")
	}
	if pool.live != 2 {
		t.Errorf("live = %d, want 2", pool.live)
	}
	pool.release(b)
	pool.release(c)
	if pool.live != 0 {
		t.Errorf("live = %d after release, want 0", pool.live)
	}
}

func TestPoolReleaseNilNoPanic(t *testing.T) {
	var pool imagePool
	pool.release(nil)
}

func TestPoolPurge(t *testing.T) {
	var pool imagePool
	a := pool.acquire(16, 16)
	pool.release(a)
	pool.purge()
	if len(pool.buckets) != 0 {
		t.Errorf("%d buckets left after purge", len(pool.buckets))
	}
	if b := pool.acquire(16, 16); b == a {
		t.Error("purged image was handed out again")
	}
}
