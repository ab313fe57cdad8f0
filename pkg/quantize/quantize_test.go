package quantize

import (
	"math"
	"testing"
)

func TestTrainAndEncodeDecodeRoundtrip(t *testing.T) {
	vectors := [][]float32{
		{0.0, -1.0, 10.0},
		{1.0, 1.0, 20.0},
		{0.5, 0.0, 15.0},
	}
	p := Train(vectors)

	for _, v := range vectors {
		enc := p.EncodeAlloc(v)
		dec := make([]float32, len(v))
		p.Decode(enc, dec)

		for i := range v {
			// quantization error should stay within one quantization step
			step := p.Scale[i]
			if step == 0 {
				step = 1
			}
			if math.Abs(float64(dec[i]-v[i])) > float64(step)+1e-3 {
				t.Errorf("dim %d: original %f, decoded %f, step %f", i, v[i], dec[i], step)
			}
		}
	}
}

func TestEncodeClampsOutOfRangeValues(t *testing.T) {
	p := Train([][]float32{{0}, {10}})
	out := make([]byte, 1)

	p.Encode([]float32{-100}, out)
	if out[0] != 0 {
		t.Errorf("expected clamp to 0, got %d", out[0])
	}

	p.Encode([]float32{1000}, out)
	if out[0] != 255 {
		t.Errorf("expected clamp to 255, got %d", out[0])
	}
}

func TestTrainConstantDimensionDoesNotDivideByZero(t *testing.T) {
	p := Train([][]float32{{5, 1}, {5, 2}})
	if p.Scale[0] != 1 {
		t.Errorf("expected fallback scale 1 for constant dimension, got %f", p.Scale[0])
	}
	out := p.EncodeAlloc([]float32{5, 1})
	if out[0] != 0 {
		t.Errorf("expected constant dim to encode to the min (0), got %d", out[0])
	}
}

func TestAsymmetricDistanceMatchesDequantizedEuclidean(t *testing.T) {
	vectors := [][]float32{{1, 2, 3}, {4, 5, 6}, {2, 2, 2}}
	p := Train(vectors)
	stored := p.EncodeAlloc([]float32{4, 5, 6})
	query := []float32{4, 5, 6}

	got := p.AsymmetricDistance(query, stored)
	if got > 1.0 {
		t.Errorf("expected near-zero distance for close match, got %f", got)
	}

	dec := make([]float32, len(stored))
	p.Decode(stored, dec)
	var sum float64
	for i := range query {
		diff := float64(query[i]) - float64(dec[i])
		sum += diff * diff
	}
	if want := math.Sqrt(sum); math.Abs(got-want) > 1e-5 {
		t.Errorf("expected %f (Euclidean distance to the decoded vector), got %f", want, got)
	}
}

func TestTrainEmptyReturnsZeroValue(t *testing.T) {
	p := Train(nil)
	if p.Min != nil || p.Scale != nil {
		t.Errorf("expected zero-value Params for empty input, got %+v", p)
	}
}
