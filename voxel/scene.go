package voxel

import (
	"errors"
	"fmt"
	"io"

	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/df-mc/dragonfly/server/world"
	"gopkg.in/yaml.v3"
)

// Scene describes a Memory world in YAML.
//
//	dimension: overworld
//	range: [-64, 319]
//	fills:
//	  - {from: [-10, 63, -10], to: [10, 63, 10], material: solid}
type Scene struct {
	Dimension string `yaml:"dimension"`
	Range     [2]int `yaml:"range"`
	Fills     []Fill `yaml:"fills"`
}

// Fill sets every block in the box spanned by From and To to Material. Later fills overwrite earlier ones.
type Fill struct {
	From     [3]int `yaml:"from"`
	To       [3]int `yaml:"to"`
	Material string `yaml:"material"`
}

// DecodeScene reads a Scene from r. Missing fields take the values of the overworld.
func DecodeScene(r io.Reader) (Scene, error) {
	s := Scene{Dimension: "overworld", Range: [2]int{world.Overworld.Range()[0], world.Overworld.Range()[1]}}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return s, fmt.Errorf("decode scene: %w", err)
	}
	return s, nil
}

// Build returns the dimension of the scene and a Memory holding its blocks.
func (s Scene) Build() (world.Dimension, *Memory, error) {
	dim, ok := dimensions[s.Dimension]
	if !ok {
		return nil, nil, fmt.Errorf("unknown dimension %q", s.Dimension)
	}
	if s.Range[0] > s.Range[1] {
		return nil, nil, fmt.Errorf("invalid range %v", s.Range)
	}
	m := NewMemory(cube.Range{s.Range[0], s.Range[1]})
	for i, f := range s.Fills {
		mat, ok := ParseMaterial(f.Material)
		if !ok {
			return nil, nil, fmt.Errorf("fill %d: unknown material %q", i, f.Material)
		}
		m.Fill(cube.Pos(f.From), cube.Pos(f.To), mat)
	}
	return dim, m, nil
}

var dimensions = map[string]world.Dimension{
	"overworld": world.Overworld,
	"nether":    world.Nether,
	"end":       world.End,
}
