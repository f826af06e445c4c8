// Package pattern renders test images for the host sender.
package pattern

import (
	"fmt"
	"math"

	"adalight/core"
	"adalight/protocol"
)

// Func fills dst with the image for the given frame number
type Func func(frame int, dst []protocol.Pixel)

// Names lists the patterns Lookup understands
var Names = []string{"solid", "off", "rainbow", "chase", "edges"}

// Lookup returns the named pattern. c is the base colour for solid and
// chase, edges the indices highlighted by the edges pattern.
func Lookup(name string, c protocol.Pixel, edges core.EdgeIndices) (Func, error) {
	switch name {
	case "solid":
		return Solid(c), nil
	case "off":
		return Solid(protocol.Black), nil
	case "rainbow":
		return Rainbow(0.01), nil
	case "chase":
		return Chase(c, 3), nil
	case "edges":
		return EdgeMarkers(edges), nil
	}
	return nil, fmt.Errorf("unknown pattern %q", name)
}

// Solid paints every pixel c
func Solid(c protocol.Pixel) Func {
	return func(_ int, dst []protocol.Pixel) {
		for i := range dst {
			dst[i] = c
		}
	}
}

// Rainbow spreads one hue cycle over the strip and rotates it by step
// per frame
func Rainbow(step float64) Func {
	return func(frame int, dst []protocol.Pixel) {
		phase := float64(frame) * step
		for i := range dst {
			h := math.Mod(float64(i)/float64(len(dst))+phase, 1.0)
			r, g, b := hsvToRGB(h, 1.0, 1.0)
			dst[i] = protocol.Pixel{R: byte(r * 255), G: byte(g * 255), B: byte(b * 255)}
		}
	}
}

// Chase runs a block of width pixels along a black strip
func Chase(c protocol.Pixel, width int) Func {
	return func(frame int, dst []protocol.Pixel) {
		n := len(dst)
		start := frame % n
		for i := range dst {
			dst[i] = protocol.Black
		}
		for k := 0; k < width && k < n; k++ {
			dst[(start+k)%n] = c
		}
	}
}

// EdgeColors is the marker colour for each edge: red left, green right,
// blue top, white bottom
var EdgeColors = [core.EdgeCount]protocol.Pixel{
	core.EdgeLeft:   {R: 255},
	core.EdgeRight:  {G: 255},
	core.EdgeTop:    {B: 255},
	core.EdgeBottom: {R: 255, G: 255, B: 255},
}

// EdgeMarkers lights only the sampled LEDs, each in its EdgeColors entry,
// so the readout on the device can be checked against the strip
func EdgeMarkers(edges core.EdgeIndices) Func {
	return func(_ int, dst []protocol.Pixel) {
		for i := range dst {
			dst[i] = protocol.Black
		}
		for e, i := range edges {
			if i >= 0 && i < len(dst) {
				dst[i] = EdgeColors[e]
			}
		}
	}
}

// ParseColor reads r,g,b or #rrggbb
func ParseColor(s string) (protocol.Pixel, error) {
	var r, g, b uint8
	if _, err := fmt.Sscanf(s, "#%02x%02x%02x", &r, &g, &b); err == nil {
		return protocol.Pixel{R: r, G: g, B: b}, nil
	}
	if _, err := fmt.Sscanf(s, "%d,%d,%d", &r, &g, &b); err == nil {
		return protocol.Pixel{R: r, G: g, B: b}, nil
	}
	return protocol.Black, fmt.Errorf("bad colour %q: want r,g,b or #rrggbb", s)
}

func hsvToRGB(h, s, v float64) (float64, float64, float64) {
	i := int(h * 6.0)
	f := h*6.0 - float64(i)
	p := v * (1.0 - s)
	q := v * (1.0 - f*s)
	t := v * (1.0 - (1.0-f)*s)
	switch i % 6 {
	case 0:
		return v, t, p
	case 1:
		return q, v, p
	case 2:
		return p, v, t
	case 3:
		return p, q, v
	case 4:
		return t, p, v
	default:
		return v, p, q
	}
}
