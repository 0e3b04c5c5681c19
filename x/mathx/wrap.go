package mathx

// Modular is the set of counter register widths.
type Modular interface {
	~uint8 | ~uint16 | ~uint32
}

// FullScale returns the all-ones value of T.
func FullScale[T Modular]() T { return ^T(0) }

// WrapDelta returns the signed shortest-path distance from prev to cur on a
// counter that wraps modulo 2^bits(T). Steps of exactly half the range are
// reported as negative.
func WrapDelta[T Modular](prev, cur T) int64 {
	d := cur - prev
	if d > FullScale[T]()/2 {
		return int64(d) - int64(FullScale[T]()) - 1
	}
	return int64(d)
}
