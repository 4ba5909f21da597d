package floatimg

import (
	"runtime"
	"sync"
)

// ParallelRows splits [0, height) into contiguous chunks and runs fn on each
// chunk from its own goroutine. Callers use it for elementwise per-pixel
// passes (filtering, warping, coefficient computation) that carry no
// cross-row state, so results are identical to a sequential loop.
func ParallelRows(height int, fn func(y0, y1 int)) {
	workers := runtime.GOMAXPROCS(0)
	if workers > height {
		workers = height
	}
	if workers <= 1 {
		fn(0, height)
		return
	}

	chunk := (height + workers - 1) / workers
	var wg sync.WaitGroup
	for y0 := 0; y0 < height; y0 += chunk {
		y1 := y0 + chunk
		if y1 > height {
			y1 = height
		}
		wg.Add(1)
		go func(y0, y1 int) {
			defer wg.Done()
			fn(y0, y1)
		}(y0, y1)
	}
	wg.Wait()
}
