package core

import (
	"errors"

	"adalight/protocol"
)

var ErrEdgeOutOfRange = errors.New("edge index outside frame buffer")

// Edge names one side of the physical LED layout
type Edge uint8

const (
	EdgeLeft Edge = iota
	EdgeRight
	EdgeTop
	EdgeBottom

	EdgeCount = 4
)

func (e Edge) String() string {
	switch e {
	case EdgeLeft:
		return "left"
	case EdgeRight:
		return "right"
	case EdgeTop:
		return "top"
	case EdgeBottom:
		return "bottom"
	default:
		return "unknown"
	}
}

// EdgeIndices holds the frame buffer position sampled for each edge
type EdgeIndices [EdgeCount]int

// EdgeSamples holds one normalised colour per edge
type EdgeSamples [EdgeCount]protocol.Pixel

// Validate checks every index against a buffer of n pixels
func (idx EdgeIndices) Validate(n int) error {
	for _, i := range idx {
		if i < 0 || i >= n {
			return ErrEdgeOutOfRange
		}
	}
	return nil
}

// ExtractEdges samples the configured positions and normalises them.
// It has no state: the same buffer contents always give the same samples.
func ExtractEdges(fb *protocol.FrameBuffer, idx EdgeIndices) EdgeSamples {
	var samples EdgeSamples
	for e, i := range idx {
		samples[e] = Normalize(fb.At(i))
	}
	return samples
}

// Packed returns the samples as display colours
func (s EdgeSamples) Packed() [EdgeCount]RGB565 {
	var out [EdgeCount]RGB565
	for e, p := range s {
		out[e] = PackRGB565(p)
	}
	return out
}
