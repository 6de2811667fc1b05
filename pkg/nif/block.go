// Package nif models a NIF scene graph as a closed set of typed
// blocks, and implements the graph mutations used by the optimizer:
// stable traversal, global reference replacement, precision-quantized
// content hashing, and geometry rewriting under an index remap.
//
// Loading and saving the container format is out of scope; an external
// loader builds the Graph and persists it afterwards.
package nif

import (
	"errors"
	"fmt"
)

// Kind tags every block type in the model. The set is closed: every
// kind must wire its reference fields into Refs and ReplaceLink, so a
// newly added kind that is not handled fails at compile time rather
// than corrupting a graph at run time.
type Kind int

const (
	KindNode Kind = iota
	KindTriShape
	KindTriStrips
	KindTriShapeData
	KindTriStripsData
	KindMaterialProperty
	KindTexturingProperty
	KindAlphaProperty
	KindShaderProperty
	KindSourceTexture
	KindTimeController
	KindGeomMorpherController
	KindMorphData
	KindSkinInstance
	KindSkinData
	KindSkinPartition
	KindBinaryExtraData
	KindTextKeyExtraData
	KindKeyframeData
	KindAVObjectPalette
	KindPSysMeshEmitter
	KindCollisionObject
	KindRigidBody
	KindMoppShape
	KindPackedTriShape
	KindPackedTriData
	KindBoxShape
	KindConvexTransformShape
)

// String returns the NIF-style block type name.
func (k Kind) String() string {
	switch k {
	case KindNode:
		return "NiNode"
	case KindTriShape:
		return "NiTriShape"
	case KindTriStrips:
		return "NiTriStrips"
	case KindTriShapeData:
		return "NiTriShapeData"
	case KindTriStripsData:
		return "NiTriStripsData"
	case KindMaterialProperty:
		return "NiMaterialProperty"
	case KindTexturingProperty:
		return "NiTexturingProperty"
	case KindAlphaProperty:
		return "NiAlphaProperty"
	case KindShaderProperty:
		return "BSShaderProperty"
	case KindSourceTexture:
		return "NiSourceTexture"
	case KindTimeController:
		return "NiTimeController"
	case KindGeomMorpherController:
		return "NiGeomMorpherController"
	case KindMorphData:
		return "NiMorphData"
	case KindSkinInstance:
		return "NiSkinInstance"
	case KindSkinData:
		return "NiSkinData"
	case KindSkinPartition:
		return "NiSkinPartition"
	case KindBinaryExtraData:
		return "NiBinaryExtraData"
	case KindTextKeyExtraData:
		return "NiTextKeyExtraData"
	case KindKeyframeData:
		return "NiKeyframeData"
	case KindAVObjectPalette:
		return "NiDefaultAVObjectPalette"
	case KindPSysMeshEmitter:
		return "NiPSysMeshEmitter"
	case KindCollisionObject:
		return "bhkCollisionObject"
	case KindRigidBody:
		return "bhkRigidBody"
	case KindMoppShape:
		return "bhkMoppBvTreeShape"
	case KindPackedTriShape:
		return "bhkPackedNiTriStripsShape"
	case KindPackedTriData:
		return "hkPackedNiTriStripsData"
	case KindBoxShape:
		return "bhkBoxShape"
	case KindConvexTransformShape:
		return "bhkConvexTransformShape"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ErrBadReplacement is returned when a global replace would assign a
// block to a typed field that cannot hold it. Silently skipping would
// corrupt the graph, so this is fatal.
var ErrBadReplacement = errors.New("replacement block has incompatible type")

// Block is a typed node in the scene graph. References are shared:
// any block may have many referrers, and no block owns another.
type Block interface {
	Kind() Kind

	// Refs returns the forward (child) references, in field order.
	// Traversal follows Refs only; back-pointers such as controller
	// targets are excluded to keep traversal acyclic.
	Refs() []Block

	// ReplaceLink repoints every reference field (forward or back)
	// holding old to new. A nil new removes the entry from list
	// fields and clears single-target fields.
	ReplaceLink(old, new Block) error
}

// NamedBlock is implemented by every block carrying the common named
// core (name, extra data, controller chain).
type NamedBlock interface {
	Block
	Net() *ObjectNET
}

// AVBlock is implemented by scene-placed blocks (nodes and geometry).
type AVBlock interface {
	NamedBlock
	AV() *AVObject
}

// ControllerBlock is implemented by every time controller kind.
type ControllerBlock interface {
	Block
	Controller() *ControllerBase
}
