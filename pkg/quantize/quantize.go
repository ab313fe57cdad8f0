// Package quantize implements the scalar int8 quantizer used by the HNSW
// index's dual-precision storage mode.
//
// Train derives a per-dimension min/scale pair from a sample of vectors.
// Once an hnsw index is given those Params through EnableDualPrecision, it
// stores every inserted vector's quantized u8 form next to its f32 form.
// The index's traversal and its re-ranking both compute f32 distances; the
// quantized form is stored but not read during search. Nothing in this
// module calls Train outside tests, so collections run without it.
package quantize

import "math"

// Params is the trained per-dimension affine quantization: a value v at
// dimension i is quantized as round((v - Min[i]) / Scale[i]) and dequantized
// as Min[i] + float32(q)*Scale[i]. Scale is chosen so the full [0,255] u8
// range covers the observed min..max for that dimension.
type Params struct {
	Min   []float32
	Scale []float32
}

// Train derives Params from a sample of vectors, all of the same dimension.
// It is the caller's responsibility to pick a representative sample; Train
// itself does no sampling.
func Train(vectors [][]float32) Params {
	if len(vectors) == 0 {
		return Params{}
	}
	dim := len(vectors[0])

	mins := make([]float32, dim)
	maxs := make([]float32, dim)
	for i := 0; i < dim; i++ {
		mins[i] = vectors[0][i]
		maxs[i] = vectors[0][i]
	}

	for _, vec := range vectors[1:] {
		for i := 0; i < dim && i < len(vec); i++ {
			if vec[i] < mins[i] {
				mins[i] = vec[i]
			}
			if vec[i] > maxs[i] {
				maxs[i] = vec[i]
			}
		}
	}

	scale := make([]float32, dim)
	for i := 0; i < dim; i++ {
		spread := maxs[i] - mins[i]
		if spread == 0 {
			// constant dimension: any fixed scale works, pick 1 to avoid a
			// division by zero on Encode/Decode.
			scale[i] = 1
			continue
		}
		scale[i] = spread / 255
	}

	return Params{Min: mins, Scale: scale}
}

// Encode quantizes vec into a caller-supplied u8 buffer of the same length.
// Values outside the trained [min, max] range are clamped rather than
// wrapped, since a later batch may legitimately contain outliers the
// original training sample did not see.
func (p Params) Encode(vec []float32, out []byte) {
	for i, v := range vec {
		if i >= len(p.Min) {
			break
		}
		q := (v - p.Min[i]) / p.Scale[i]
		if q < 0 {
			q = 0
		}
		if q > 255 {
			q = 255
		}
		out[i] = byte(math.Round(float64(q)))
	}
}

// EncodeAlloc is Encode, allocating the output buffer.
func (p Params) EncodeAlloc(vec []float32) []byte {
	out := make([]byte, len(vec))
	p.Encode(vec, out)
	return out
}

// Decode dequantizes a u8 buffer back into a caller-supplied f32 buffer. The
// result is an approximation of the original vector, not a roundtrip-exact
// copy; callers needing exact values must keep the original f32 form
// (which dual-precision mode always does, alongside the quantized form).
func (p Params) Decode(q []byte, out []float32) {
	for i, b := range q {
		if i >= len(p.Min) {
			break
		}
		out[i] = p.Min[i] + float32(b)*p.Scale[i]
	}
}

// AsymmetricDistance computes a distance between a full-precision query
// vector and a quantized stored vector without fully dequantizing the
// stored side: each quantized component is dequantized on the fly and
// compared against the query component. pkg/hnsw does not call it: its
// traversal computes f32 distances even in dual-precision mode.
func (p Params) AsymmetricDistance(query []float32, quantized []byte) float64 {
	var sum float64
	n := len(query)
	if len(quantized) < n {
		n = len(quantized)
	}
	for i := 0; i < n; i++ {
		dq := p.Min[i] + float32(quantized[i])*p.Scale[i]
		diff := float64(query[i]) - float64(dq)
		sum += diff * diff
	}
	return math.Sqrt(sum)
}
