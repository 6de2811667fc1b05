package nif

import (
	"fmt"

	"github.com/niflab/nifopt/pkg/math"
)

// replaceBlockList rewrites a reference list, substituting old with
// new or dropping the entry when new is nil.
func replaceBlockList(list []Block, old, new Block) []Block {
	changed := false
	for _, b := range list {
		if b == old {
			changed = true
			break
		}
	}
	if !changed {
		return list
	}
	out := make([]Block, 0, len(list))
	for _, b := range list {
		if b == old {
			if new != nil {
				out = append(out, new)
			}
			continue
		}
		out = append(out, b)
	}
	return out
}

// ObjectNET is the common core of named blocks: a name, extra data
// references, and the head of the time controller chain.
type ObjectNET struct {
	Name      string
	ExtraData []Block
	Ctrl      Block // head of the controller chain, or nil
}

// Net returns the embedded named core.
func (o *ObjectNET) Net() *ObjectNET { return o }

func (o *ObjectNET) refs() []Block {
	refs := make([]Block, 0, len(o.ExtraData)+1)
	refs = append(refs, o.ExtraData...)
	if o.Ctrl != nil {
		refs = append(refs, o.Ctrl)
	}
	return refs
}

func (o *ObjectNET) replaceLink(old, new Block) {
	o.ExtraData = replaceBlockList(o.ExtraData, old, new)
	if o.Ctrl == old {
		o.Ctrl = new
	}
}

// FindExtraData returns the first extra data block of the given kind
// whose name matches, or nil.
func (o *ObjectNET) FindExtraData(name string, kind Kind) Block {
	for _, ed := range o.ExtraData {
		if ed.Kind() != kind {
			continue
		}
		if named, ok := ed.(NamedBlock); ok && named.Net().Name == name {
			return ed
		}
	}
	return nil
}

// AVObject adds scene placement, render properties, and an optional
// collision object to the named core.
type AVObject struct {
	ObjectNET
	Flags       uint16
	Translation math.Vec3
	Rotation    [9]float32
	Scale       float32
	Properties  []Block
	Collision   Block // *CollisionObject
}

// AV returns the embedded scene-object core.
func (a *AVObject) AV() *AVObject { return a }

func (a *AVObject) refs() []Block {
	refs := a.ObjectNET.refs()
	refs = append(refs, a.Properties...)
	if a.Collision != nil {
		refs = append(refs, a.Collision)
	}
	return refs
}

func (a *AVObject) replaceLink(old, new Block) {
	a.ObjectNET.replaceLink(old, new)
	a.Properties = replaceBlockList(a.Properties, old, new)
	if a.Collision == old {
		a.Collision = new
	}
}

// Node is a grouping block with children and dynamic effects.
type Node struct {
	AVObject
	Children []Block
	Effects  []Block
}

func (n *Node) Kind() Kind { return KindNode }

func (n *Node) Refs() []Block {
	refs := n.AVObject.refs()
	refs = append(refs, n.Children...)
	refs = append(refs, n.Effects...)
	return refs
}

func (n *Node) ReplaceLink(old, new Block) error {
	n.AVObject.replaceLink(old, new)
	n.Children = replaceBlockList(n.Children, old, new)
	n.Effects = replaceBlockList(n.Effects, old, new)
	return nil
}

// Geometry is the common core of triangle-based shapes.
type Geometry struct {
	AVObject
	Data Block // TriBasedData
	Skin *SkinInstance
}

func (g *Geometry) refs() []Block {
	refs := g.AVObject.refs()
	if g.Data != nil {
		refs = append(refs, g.Data)
	}
	if g.Skin != nil {
		refs = append(refs, g.Skin)
	}
	return refs
}

func (g *Geometry) replaceLink(old, new Block) error {
	g.AVObject.replaceLink(old, new)
	if g.Data == old {
		if new == nil {
			g.Data = nil
		} else if _, ok := new.(TriBasedData); !ok {
			return fmt.Errorf("%s data: %w", new.Kind(), ErrBadReplacement)
		} else {
			g.Data = new
		}
	}
	if g.Skin != nil && Block(g.Skin) == old {
		switch s := new.(type) {
		case nil:
			g.Skin = nil
		case *SkinInstance:
			g.Skin = s
		default:
			return fmt.Errorf("%s skin: %w", new.Kind(), ErrBadReplacement)
		}
	}
	return nil
}

// GeomData returns the geometry payload, or nil when detached.
func (g *Geometry) GeomData() TriBasedData {
	if g.Data == nil {
		return nil
	}
	return g.Data.(TriBasedData)
}

// TriShape is a geometry block holding an independent triangle list.
type TriShape struct {
	Geometry
}

func (s *TriShape) Kind() Kind                      { return KindTriShape }
func (s *TriShape) Refs() []Block                   { return s.Geometry.refs() }
func (s *TriShape) ReplaceLink(old, new Block) error { return s.Geometry.replaceLink(old, new) }

// TriStrips is a geometry block holding triangle strips.
type TriStrips struct {
	Geometry
}

func (s *TriStrips) Kind() Kind                      { return KindTriStrips }
func (s *TriStrips) Refs() []Block                   { return s.Geometry.refs() }
func (s *TriStrips) ReplaceLink(old, new Block) error { return s.Geometry.replaceLink(old, new) }

// Color3 is an RGB material color.
type Color3 struct {
	R, G, B float32
}

// MaterialProperty holds surface shading state.
type MaterialProperty struct {
	ObjectNET
	Ambient    Color3
	Diffuse    Color3
	Specular   Color3
	Emissive   Color3
	Glossiness float32
	Alpha      float32
}

func (p *MaterialProperty) Kind() Kind    { return KindMaterialProperty }
func (p *MaterialProperty) Refs() []Block { return p.ObjectNET.refs() }
func (p *MaterialProperty) ReplaceLink(old, new Block) error {
	p.ObjectNET.replaceLink(old, new)
	return nil
}

// TexDesc describes one texture slot of a texturing property.
type TexDesc struct {
	Source   *SourceTexture
	UVSet    uint32
	ClampMode, FilterMode uint32
}

// TexturingProperty assigns textures to a shape.
type TexturingProperty struct {
	ObjectNET
	ApplyMode uint32
	Textures  []TexDesc
}

func (p *TexturingProperty) Kind() Kind { return KindTexturingProperty }

func (p *TexturingProperty) Refs() []Block {
	refs := p.ObjectNET.refs()
	for _, t := range p.Textures {
		if t.Source != nil {
			refs = append(refs, t.Source)
		}
	}
	return refs
}

func (p *TexturingProperty) ReplaceLink(old, new Block) error {
	p.ObjectNET.replaceLink(old, new)
	for i := range p.Textures {
		src := p.Textures[i].Source
		if src == nil || Block(src) != old {
			continue
		}
		switch s := new.(type) {
		case nil:
			p.Textures[i].Source = nil
		case *SourceTexture:
			p.Textures[i].Source = s
		default:
			return fmt.Errorf("%s texture source: %w", new.Kind(), ErrBadReplacement)
		}
	}
	return nil
}

// AlphaProperty controls alpha blending and testing.
type AlphaProperty struct {
	ObjectNET
	BlendFlags uint16
	Threshold  uint8
}

func (p *AlphaProperty) Kind() Kind    { return KindAlphaProperty }
func (p *AlphaProperty) Refs() []Block { return p.ObjectNET.refs() }
func (p *AlphaProperty) ReplaceLink(old, new Block) error {
	p.ObjectNET.replaceLink(old, new)
	return nil
}

// ShaderProperty carries engine shader state. Instances encode
// per-object simulation state, so structurally identical shader
// properties must never be merged.
type ShaderProperty struct {
	ObjectNET
	ShaderFlags uint32
}

func (p *ShaderProperty) Kind() Kind    { return KindShaderProperty }
func (p *ShaderProperty) Refs() []Block { return p.ObjectNET.refs() }
func (p *ShaderProperty) ReplaceLink(old, new Block) error {
	p.ObjectNET.replaceLink(old, new)
	return nil
}

// SourceTexture references an external texture file.
type SourceTexture struct {
	ObjectNET
	FileName   string
	PixelLayout uint32
	UseMipmaps  uint32
}

func (t *SourceTexture) Kind() Kind    { return KindSourceTexture }
func (t *SourceTexture) Refs() []Block { return t.ObjectNET.refs() }
func (t *SourceTexture) ReplaceLink(old, new Block) error {
	t.ObjectNET.replaceLink(old, new)
	return nil
}

// ControllerBase is the common core of time controllers. Next chains
// to the following controller (a forward reference); Target points
// back at the controlled block and is excluded from traversal.
type ControllerBase struct {
	Next      Block // next controller in the chain
	Target    Block // controlled block (back-pointer)
	Frequency float32
	Phase     float32
	StartTime float32
	StopTime  float32
}

// Controller returns the embedded controller core.
func (c *ControllerBase) Controller() *ControllerBase { return c }

func (c *ControllerBase) refs() []Block {
	if c.Next != nil {
		return []Block{c.Next}
	}
	return nil
}

func (c *ControllerBase) replaceLink(old, new Block) {
	if c.Next == old {
		c.Next = new
	}
	if c.Target == old {
		c.Target = new
	}
}

// TimeController is a generic animation controller.
type TimeController struct {
	ControllerBase
	Data Block // *KeyframeData, or nil
}

func (c *TimeController) Kind() Kind { return KindTimeController }

func (c *TimeController) Refs() []Block {
	refs := c.ControllerBase.refs()
	if c.Data != nil {
		refs = append(refs, c.Data)
	}
	return refs
}

func (c *TimeController) ReplaceLink(old, new Block) error {
	c.ControllerBase.replaceLink(old, new)
	if c.Data == old {
		c.Data = new
	}
	return nil
}

// GeomMorpherController animates a geometry through morph targets.
type GeomMorpherController struct {
	ControllerBase
	Data *MorphData
}

func (c *GeomMorpherController) Kind() Kind { return KindGeomMorpherController }

func (c *GeomMorpherController) Refs() []Block {
	refs := c.ControllerBase.refs()
	if c.Data != nil {
		refs = append(refs, c.Data)
	}
	return refs
}

func (c *GeomMorpherController) ReplaceLink(old, new Block) error {
	c.ControllerBase.replaceLink(old, new)
	if c.Data != nil && Block(c.Data) == old {
		switch d := new.(type) {
		case nil:
			c.Data = nil
		case *MorphData:
			c.Data = d
		default:
			return fmt.Errorf("%s morph data: %w", new.Kind(), ErrBadReplacement)
		}
	}
	return nil
}

// Morph is one morph target: a displacement vector per vertex.
type Morph struct {
	Name    string
	Vectors []math.Vec3
}

// MorphData holds the morph targets of a morpher controller.
type MorphData struct {
	NumVertices int
	Morphs      []Morph
}

func (d *MorphData) Kind() Kind                       { return KindMorphData }
func (d *MorphData) Refs() []Block                    { return nil }
func (d *MorphData) ReplaceLink(old, new Block) error { return nil }

// BinaryExtraData is an opaque named binary payload attached to a
// block (tangent space data lives here).
type BinaryExtraData struct {
	ObjectNET
	Data []byte
}

func (d *BinaryExtraData) Kind() Kind    { return KindBinaryExtraData }
func (d *BinaryExtraData) Refs() []Block { return d.ObjectNET.refs() }
func (d *BinaryExtraData) ReplaceLink(old, new Block) error {
	d.ObjectNET.replaceLink(old, new)
	return nil
}

// TextKey is a timed annotation in an animation track.
type TextKey struct {
	Time  float32
	Value string
}

// TextKeyExtraData holds timed text annotations.
type TextKeyExtraData struct {
	ObjectNET
	TextKeys []TextKey
}

func (d *TextKeyExtraData) Kind() Kind    { return KindTextKeyExtraData }
func (d *TextKeyExtraData) Refs() []Block { return d.ObjectNET.refs() }
func (d *TextKeyExtraData) ReplaceLink(old, new Block) error {
	d.ObjectNET.replaceLink(old, new)
	return nil
}

// PaletteEntry names a scene object for animation retargeting.
type PaletteEntry struct {
	Name     string
	AVObject Block // back-pointer into the scene
}

// AVObjectPalette maps names to scene objects.
type AVObjectPalette struct {
	Objects []PaletteEntry
}

func (p *AVObjectPalette) Kind() Kind    { return KindAVObjectPalette }
func (p *AVObjectPalette) Refs() []Block { return nil }

func (p *AVObjectPalette) ReplaceLink(old, new Block) error {
	out := p.Objects[:0]
	for _, e := range p.Objects {
		if e.AVObject == old {
			if new == nil {
				continue
			}
			e.AVObject = new
		}
		out = append(out, e)
	}
	p.Objects = out
	return nil
}

// PSysMeshEmitter emits particles from the surface of scene meshes.
// Its presence disables document-wide merging: merged geometry would
// change the particle system's behavior.
type PSysMeshEmitter struct {
	ObjectNET
	EmitterMeshes []Block // back-pointers into the scene
}

func (e *PSysMeshEmitter) Kind() Kind    { return KindPSysMeshEmitter }
func (e *PSysMeshEmitter) Refs() []Block { return e.ObjectNET.refs() }
func (e *PSysMeshEmitter) ReplaceLink(old, new Block) error {
	e.ObjectNET.replaceLink(old, new)
	e.EmitterMeshes = replaceBlockList(e.EmitterMeshes, old, new)
	return nil
}
