package game

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// PuckSpec describes one puck of a board layout.
type PuckSpec struct {
	Kind   PuckKind `json:"kind" yaml:"kind"`
	Color  string   `json:"color" yaml:"color"`
	X      float64  `json:"x" yaml:"x"`
	Z      float64  `json:"z" yaml:"z"`
	Radius float64  `json:"radius,omitempty" yaml:"radius,omitempty"`
	Height float64  `json:"height,omitempty" yaml:"height,omitempty"`
}

// Layout is the starting arrangement of a board.
type Layout struct {
	Name  string     `json:"name" yaml:"name"`
	Pucks []PuckSpec `json:"pucks" yaml:"pucks"`
}

var colorByKind = map[PuckKind]string{
	KindStriker: "#e6d3a3",
	KindWhite:   "#f4efe6",
	KindBlack:   "#2b2b2b",
	KindQueen:   "#c0392b",
}

// StandardLayout returns the carrom opening: queen in the middle, an inner
// ring of six and an outer ring of twelve alternating white and black, and
// the striker on the near baseline.
func StandardLayout() Layout {
	pucks := []PuckSpec{
		{Kind: KindQueen, X: 0, Z: 0},
	}

	gap := 0.02
	inner := 2*PuckRadius + gap
	for i := 0; i < 6; i++ {
		a := float64(i) * math.Pi / 3
		kind := KindWhite
		if i%2 == 1 {
			kind = KindBlack
		}
		pucks = append(pucks, PuckSpec{Kind: kind, X: inner * math.Cos(a), Z: inner * math.Sin(a)})
	}

	outer := 2 * inner
	for i := 0; i < 12; i++ {
		a := float64(i) * math.Pi / 6
		kind := KindBlack
		if i%2 == 1 {
			kind = KindWhite
		}
		pucks = append(pucks, PuckSpec{Kind: kind, X: outer * math.Cos(a), Z: outer * math.Sin(a)})
	}

	pucks = append(pucks, PuckSpec{Kind: KindStriker, X: 0, Z: 3.5, Radius: StrikerRadius})

	l := Layout{Name: "standard", Pucks: pucks}
	l.applyDefaults()
	return l
}

// LoadLayout reads a YAML layout from r.
func LoadLayout(r io.Reader) (Layout, error) {
	var l Layout
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&l); err != nil {
		return Layout{}, fmt.Errorf("decode layout: %w", err)
	}
	l.applyDefaults()
	if err := l.Validate(); err != nil {
		return Layout{}, err
	}
	return l, nil
}

// LoadLayoutFile reads a YAML layout from path. An empty path yields the
// standard layout.
func LoadLayoutFile(path string) (Layout, error) {
	if path == "" {
		return StandardLayout(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return Layout{}, fmt.Errorf("open layout: %w", err)
	}
	defer f.Close()
	return LoadLayout(f)
}

func (l *Layout) applyDefaults() {
	for i := range l.Pucks {
		s := &l.Pucks[i]
		if s.Radius == 0 {
			s.Radius = PuckRadius
		}
		if s.Height == 0 {
			s.Height = PuckHeight
		}
		if s.Color == "" {
			s.Color = colorByKind[s.Kind]
		}
	}
}

// Validate rejects layouts a board could not start from.
func (l Layout) Validate() error {
	if len(l.Pucks) == 0 {
		return errors.New("layout has no pucks")
	}
	for i, s := range l.Pucks {
		switch s.Kind {
		case KindStriker, KindWhite, KindBlack, KindQueen:
		default:
			return fmt.Errorf("puck %d: unknown kind %q", i, s.Kind)
		}
		if s.Radius <= 0 || s.Height <= 0 {
			return fmt.Errorf("puck %d: radius and height must be positive", i)
		}
		if math.Abs(s.X) > BoundaryHalfExtent || math.Abs(s.Z) > BoundaryHalfExtent {
			return fmt.Errorf("puck %d: position (%.2f, %.2f) outside the board", i, s.X, s.Z)
		}
	}
	return nil
}

// Build creates the pucks for a new board. Ids follow layout order.
func (l Layout) Build() []*Puck {
	pucks := make([]*Puck, len(l.Pucks))
	for i, s := range l.Pucks {
		pucks[i] = NewPuck(i, s.Kind, s.Color, s.X, s.Z, s.Radius, s.Height)
	}
	return pucks
}
