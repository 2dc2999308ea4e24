package field

import "sync"

var (
	hOnce sync.Once
	hGen  Point

	tOnce sync.Once
	tGen  Point
)

// H is the second Pedersen generator, hash_to_point(G) per spec.md §3.
// Computed once under sync.Once and read-only thereafter, matching the
// engine's process-wide generator-cache policy (spec.md §5, §9).
func H() Point {
	hOnce.Do(func() {
		gBytes := BasePoint().Bytes()
		hGen = HashToPoint(gBytes[:])
	})
	return hGen
}

// T is the third generator used only by TCLSAG (spec.md §3), domain
// separated from H by a distinct tag so the two hash_to_point calls can
// never collide.
func T() Point {
	tOnce.Do(func() {
		gBytes := BasePoint().Bytes()
		tGen = HashToPoint([]byte("TCLSAG_T_generator"), gBytes[:])
	})
	return tGen
}
