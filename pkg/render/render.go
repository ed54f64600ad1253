// Package render draws the two PNGs cmd/visualize produces for one
// query: a map of the route overlaid on the graph's nodes and edges,
// and an elevation profile comparing the target curve against the
// route's actual curve. It is built on gonum.org/v1/plot/plotter,
// grounded on the dsp/window/cmd/leakage plotting pattern in this
// project's dependency corpus, in place of the donor's HTML/JS
// comparison map.
package render

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"elevroute/pkg/graph"
	"elevroute/pkg/profile"
	"elevroute/pkg/route"
)

var (
	colorGraphEdge = color.RGBA{R: 0xc0, G: 0xc0, B: 0xc0, A: 0xff}
	colorRoute     = color.RGBA{R: 0xd6, G: 0x28, B: 0x28, A: 0xff}
	colorSeed      = color.RGBA{R: 0x20, G: 0x80, B: 0x20, A: 0xff}
	colorTarget    = color.RGBA{B: 0xd0, A: 0xff}
	colorActual    = color.RGBA{R: 0xd6, G: 0x28, B: 0x28, A: 0xff}
)

// MapOptions configures SaveMap.
type MapOptions struct {
	CenterX, CenterY float64
	Radius           float64
	WidthCM          float64
	HeightCM         float64
}

func (o MapOptions) dims() (w, h vg.Length) {
	width, height := o.WidthCM, o.HeightCM
	if width <= 0 {
		width = 20
	}
	if height <= 0 {
		height = 20
	}
	return vg.Length(width) * vg.Centimeter, vg.Length(height) * vg.Centimeter
}

// SaveMap draws every edge of g as a thin grey segment, the search disk
// as a light circle outline, and the route r (if non-nil) as a bold
// overlaid polyline, and saves the result as a PNG at path.
func SaveMap(g *graph.Graph, r *route.Route, opts MapOptions, path string) error {
	p := plot.New()
	p.Title.Text = "Route map"
	p.X.Label.Text = "x (m)"
	p.Y.Label.Text = "y (m)"

	for e := int32(0); e < int32(g.NumEdges()); e++ {
		u, v := g.EdgeFromTo(e)
		ux, uy := g.NodeXY(u)
		vx, vy := g.NodeXY(v)
		line, err := plotter.NewLine(plotter.XYs{{X: ux, Y: uy}, {X: vx, Y: vy}})
		if err != nil {
			return fmt.Errorf("render: edge %d: %w", e, err)
		}
		line.Color = colorGraphEdge
		line.Width = vg.Points(0.5)
		p.Add(line)
	}

	if opts.Radius > 0 {
		disk, err := diskOutline(opts.CenterX, opts.CenterY, opts.Radius, 64)
		if err != nil {
			return fmt.Errorf("render: search disk: %w", err)
		}
		disk.Color = colorSeed
		disk.Width = vg.Points(1)
		p.Add(disk)
	}

	if r != nil && len(r.Edges) > 0 {
		routeLine, err := routePolyline(g, r)
		if err != nil {
			return fmt.Errorf("render: route polyline: %w", err)
		}
		routeLine.Color = colorRoute
		routeLine.Width = vg.Points(2.5)
		p.Add(routeLine)
	}

	w, h := opts.dims()
	return p.Save(w, h, path)
}

// diskOutline builds a closed polyline approximating the circle of the
// given radius centered at (cx, cy) with n segments.
func diskOutline(cx, cy, radius float64, n int) (*plotter.Line, error) {
	pts := make(plotter.XYs, n+1)
	for i := 0; i <= n; i++ {
		theta := 2 * math.Pi * float64(i) / float64(n)
		pts[i] = plotter.XY{X: cx + radius*math.Cos(theta), Y: cy + radius*math.Sin(theta)}
	}
	return plotter.NewLine(pts)
}

// routePolyline walks r's edges in traversal order, trimming the first
// and last at their fractional anchors, and returns the resulting
// polyline in map coordinates.
func routePolyline(g *graph.Graph, r *route.Route) (*plotter.Line, error) {
	pts := make(plotter.XYs, 0, len(r.Edges)+1)
	for i, e := range r.Edges {
		u, v := g.EdgeFromTo(e)
		ux, uy := g.NodeXY(u)
		vx, vy := g.NodeXY(v)

		t0, t1 := 0.0, 1.0
		if i == 0 {
			t0 = r.StartFraction
		}
		if i == len(r.Edges)-1 {
			t1 = r.EndFraction
		}

		if i == 0 {
			pts = append(pts, plotter.XY{X: ux + t0*(vx-ux), Y: uy + t0*(vy-uy)})
		}
		pts = append(pts, plotter.XY{X: ux + t1*(vx-ux), Y: uy + t1*(vy-uy)})
	}
	return plotter.NewLine(pts)
}

// ProfileOptions configures SaveProfile.
type ProfileOptions struct {
	WidthCM, HeightCM float64
}

func (o ProfileOptions) dims() (w, h vg.Length) {
	width, height := o.WidthCM, o.HeightCM
	if width <= 0 {
		width = 24
	}
	if height <= 0 {
		height = 12
	}
	return vg.Length(width) * vg.Centimeter, vg.Length(height) * vg.Centimeter
}

// SaveProfile draws the target profile and the route's actual profile
// on shared axes and saves the comparison as a PNG at path.
func SaveProfile(target, actual *profile.Profile, opts ProfileOptions, path string) error {
	p := plot.New()
	p.Title.Text = "Elevation profile"
	p.X.Label.Text = "distance (m)"
	p.Y.Label.Text = "elevation change (m)"
	p.Add(plotter.NewGrid())

	targetLine, err := plotter.NewLine(profileXYs(target))
	if err != nil {
		return fmt.Errorf("render: target profile: %w", err)
	}
	targetLine.Color = colorTarget
	targetLine.Width = vg.Points(2)

	actualLine, err := plotter.NewLine(profileXYs(actual))
	if err != nil {
		return fmt.Errorf("render: actual profile: %w", err)
	}
	actualLine.Color = colorActual
	actualLine.Width = vg.Points(2)

	p.Add(targetLine, actualLine)
	p.Legend.Add("target", targetLine)
	p.Legend.Add("actual", actualLine)
	p.Legend.Top = true

	w, h := opts.dims()
	return p.Save(w, h, path)
}

// profileXYs samples a Profile on its own default uniform grid,
// producing a smooth polyline for plotting. Unlike profile.Sample (which
// returns z values only, for the cost integrals), this pairs each
// sample with its own s so the final point lands exactly at Length()
// even when that isn't a multiple of step.
func profileXYs(p *profile.Profile) plotter.XYs {
	length := p.Length()
	step := profile.DefaultStep(length)

	var xys plotter.XYs
	for s := 0.0; s < length; s += step {
		xys = append(xys, plotter.XY{X: s, Y: p.At(s)})
	}
	xys = append(xys, plotter.XY{X: length, Y: p.At(length)})
	return xys
}
