package motif

import (
	"fmt"
	"math"
	"strings"

	"github.com/TuftsBCB/structure"
)

// ContentType distinguishes experimentally determined structures from
// computational models. It is stored per structure in an index and used as a
// search space filter.
type ContentType uint8

const (
	Experimental ContentType = iota
	Computational
)

func (ct ContentType) String() string {
	switch ct {
	case Experimental:
		return "experimental"
	case Computational:
		return "computational"
	}
	panic(fmt.Sprintf("Unknown content type: %d", ct))
}

// ParseContentType is the inverse of ContentType.String.
func ParseContentType(s string) (ContentType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "experimental":
		return Experimental, nil
	case "computational":
		return Computational, nil
	}
	return 0, fmt.Errorf("Unrecognized content type '%s'.", s)
}

// Transform is a 4x4 homogeneous transformation matrix in row major order.
// The last row is always (0, 0, 0, 1) for rigid transformations.
type Transform [4][4]float64

// Identity returns the identity transformation.
func Identity() Transform {
	return Transform{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	}
}

// Apply transforms a single point.
func (m Transform) Apply(c structure.Coords) structure.Coords {
	return structure.Coords{
		X: m[0][0]*c.X + m[0][1]*c.Y + m[0][2]*c.Z + m[0][3],
		Y: m[1][0]*c.X + m[1][1]*c.Y + m[1][2]*c.Z + m[1][3],
		Z: m[2][0]*c.X + m[2][1]*c.Y + m[2][2]*c.Z + m[2][3],
	}
}

// IsIdentity returns true when every entry of m is within tol of the
// corresponding entry of the identity matrix.
func (m Transform) IsIdentity(tol float64) bool {
	id := Identity()
	for i := range m {
		for j := range m[i] {
			if math.Abs(m[i][j]-id[i][j]) > tol {
				return false
			}
		}
	}
	return true
}

func (m Transform) String() string {
	rows := make([]string, 4)
	for i, row := range m {
		rows[i] = fmt.Sprintf("%.4f,%.4f,%.4f,%.4f",
			row[0], row[1], row[2], row[3])
	}
	return strings.Join(rows, ";")
}

// Operator is a named symmetry operation used to generate a biological
// assembly from the asymmetric unit of a structure.
type Operator struct {
	Id     string
	Matrix Transform
}

// Structure is a set of residues read from a single entry of a structure
// archive. Residues are stored in file order and are addressed by their
// position in Residues throughout the search (the "residue index").
type Structure struct {
	Id       string
	Assembly string
	Content  ContentType
	Residues []*Residue
}

// Expand returns a new structure containing the residues of s followed by
// one transformed copy of every residue for each operator given. Operators
// with the identity id are skipped, since the residues of s already are the
// identity copy.
func (s *Structure) Expand(assembly string, ops []Operator) *Structure {
	expanded := &Structure{
		Id:       s.Id,
		Assembly: assembly,
		Content:  s.Content,
		Residues: make([]*Residue, len(s.Residues), len(s.Residues)*(1+len(ops))),
	}
	copy(expanded.Residues, s.Residues)
	for _, op := range ops {
		if op.Id == IdentityOperator {
			continue
		}
		for _, r := range s.Residues {
			expanded.Residues = append(expanded.Residues, r.Transformed(op))
		}
	}
	return expanded
}

// Find returns the index of the residue in s with the given chain, sequence
// number, insertion code and operator. An empty operator matches the
// identity operator. If no such residue exists, -1 is returned.
func (s *Structure) Find(chain string, seqNum int, insCode byte, operator string) int {
	if operator == "" {
		operator = IdentityOperator
	}
	if insCode == ' ' {
		insCode = 0
	}
	for i, r := range s.Residues {
		ic := r.InsCode
		if ic == ' ' {
			ic = 0
		}
		if r.Chain == chain && r.SeqNum == seqNum && ic == insCode &&
			r.Operator == operator {
			return i
		}
	}
	return -1
}

// Select returns the residues at the indices given, in that order.
// An index out of range results in an InvalidQueryError.
func (s *Structure) Select(indices []int) ([]*Residue, error) {
	residues := make([]*Residue, len(indices))
	for i, ri := range indices {
		if ri < 0 || ri >= len(s.Residues) {
			return nil, invalidf(
				"Residue index %d is out of range for structure '%s' "+
					"with %d residues.", ri, s.Id, len(s.Residues))
		}
		residues[i] = s.Residues[ri]
	}
	return residues, nil
}

func (s *Structure) String() string {
	if s.Assembly != "" {
		return fmt.Sprintf("%s (assembly %s, %d residues)",
			s.Id, s.Assembly, len(s.Residues))
	}
	return fmt.Sprintf("%s (%d residues)", s.Id, len(s.Residues))
}
