// Package descriptor packs the geometry of a residue pair into a single
// 32 bit integer. A descriptor holds the two residue types, a quantized
// distance between the backbone points of the residues, a quantized distance
// between their side-chain points and a quantized angle between the two
// backbone to side-chain vectors.
//
// Residue types are stored in canonical order (see motif.ResidueType.Less).
// When the residues had to be swapped to reach canonical order, the flip bit
// is set. Index lookups ignore the flip bit (see Key), but it is kept so that
// a descriptor can be decoded into the residue order it was computed from.
package descriptor

import (
	"fmt"
	"math"

	"github.com/TuftsBCB/motif"
)

// Descriptor is a packed residue pair descriptor. It should be treated as an
// opaque value; use Fields or Raw to decode it.
type Descriptor uint32

// Field widths and offsets, from the least significant bit.
const (
	typeBits  = 6
	binBits   = 6
	angleBits = 5

	type1Shift     = 0
	type2Shift     = type1Shift + typeBits
	backboneShift  = type2Shift + typeBits
	sideChainShift = backboneShift + binBits
	angleShift     = sideChainShift + binBits
	ambiguousShift = angleShift + angleBits
	flipShift      = ambiguousShift + 1

	typeMask  = 1<<typeBits - 1
	binMask   = 1<<binBits - 1
	angleMask = 1<<angleBits - 1

	ambiguousBit Descriptor = 1 << ambiguousShift
	flipBit      Descriptor = 1 << flipShift
)

// Quantization parameters. Distances are measured in Angstroms and angles in
// degrees.
const (
	DistanceWidth = 1.0
	AngleWidth    = 20.0

	MaxDistanceBin = binMask
	MaxAngleBin    = 9
)

// DistanceBin maps a distance to its bin. Distances beyond the last bin are
// put in the last bin.
func DistanceBin(d float64) int {
	return clampBin(d/DistanceWidth, MaxDistanceBin)
}

// AngleBin maps an angle in degrees (in the range [0, 180]) to its bin.
func AngleBin(degrees float64) int {
	return clampBin(degrees/AngleWidth, MaxAngleBin)
}

func clampBin(v float64, max int) int {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	b := int(math.Floor(v))
	if b > max {
		return max
	}
	return b
}

// Fields are the decoded values of a descriptor.
type Fields struct {
	Type1, Type2 motif.ResidueType
	Backbone     int
	SideChain    int
	Angle        int
}

// Encode packs the fields given into a descriptor. The residue types are
// swapped if necessary to put them in canonical order, in which case the
// flip bit is set. Bins out of range are clamped.
func Encode(t1, t2 motif.ResidueType, backbone, sideChain, angle int) Descriptor {
	var d Descriptor
	if t2.Less(t1) {
		t1, t2 = t2, t1
		d |= flipBit
	}
	if t1 == t2 {
		d |= ambiguousBit
	}
	d |= Descriptor(t1&typeMask) << type1Shift
	d |= Descriptor(t2&typeMask) << type2Shift
	d |= Descriptor(clampInt(backbone, MaxDistanceBin)) << backboneShift
	d |= Descriptor(clampInt(sideChain, MaxDistanceBin)) << sideChainShift
	d |= Descriptor(clampInt(angle, MaxAngleBin)) << angleShift
	return d
}

// EncodeFields is like Encode, but takes its arguments from f.
func EncodeFields(f Fields) Descriptor {
	return Encode(f.Type1, f.Type2, f.Backbone, f.SideChain, f.Angle)
}

func clampInt(v, max int) int {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}

// Fields returns the canonical fields of the descriptor.
func (d Descriptor) Fields() Fields {
	return Fields{
		Type1:     motif.ResidueType((d >> type1Shift) & typeMask),
		Type2:     motif.ResidueType((d >> type2Shift) & typeMask),
		Backbone:  int((d >> backboneShift) & binMask),
		SideChain: int((d >> sideChainShift) & binMask),
		Angle:     int((d >> angleShift) & angleMask),
	}
}

// Raw returns the fields in the residue order the descriptor was encoded
// from. It undoes the swap recorded by the flip bit, so that
// EncodeFields(d.Raw()) == d.
func (d Descriptor) Raw() Fields {
	f := d.Fields()
	if d.Flipped() {
		f.Type1, f.Type2 = f.Type2, f.Type1
	}
	return f
}

// Flipped returns true if the residues were swapped during encoding.
func (d Descriptor) Flipped() bool {
	return d&flipBit != 0
}

// Ambiguous returns true if both residues have the same type, in which case
// the descriptor matches the residue pair in either order.
func (d Descriptor) Ambiguous() bool {
	return d&ambiguousBit != 0
}

// Key returns the descriptor with the flip bit cleared. Keys are what an
// index is keyed by.
func (d Descriptor) Key() Descriptor {
	return d &^ flipBit
}

func (d Descriptor) String() string {
	f := d.Fields()
	s := fmt.Sprintf("%s-%s/%d/%d/%d",
		f.Type1, f.Type2, f.Backbone, f.SideChain, f.Angle)
	if d.Flipped() {
		s += "/flip"
	}
	return s
}
