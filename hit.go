package motif

import (
	"fmt"
	"strings"
)

// Hit is a single occurrence of a motif in a structure. The residues are in
// the same order as the residues of the query, so that Residues[i] is the
// residue matched to the i'th query residue.
//
// Transform maps the query onto the matched residues.
type Hit struct {
	StructureId string
	Assembly    string
	Residues    []ResidueIdentifier
	RMSD        float64
	Transform   Transform
}

// Types returns the residue types of the matched residues.
func (h Hit) Types() []ResidueType {
	types := make([]ResidueType, len(h.Residues))
	for i, r := range h.Residues {
		types[i] = r.Type
	}
	return types
}

// Labels returns the residue identifiers of the hit joined by commas.
func (h Hit) Labels() string {
	labels := make([]string, len(h.Residues))
	for i, r := range h.Residues {
		labels[i] = r.String()
	}
	return strings.Join(labels, ",")
}

// Less orders hits by RMSD, then by structure identifier and finally by
// residue labels.
func (h Hit) Less(h2 Hit) bool {
	if h.RMSD != h2.RMSD {
		return h.RMSD < h2.RMSD
	}
	if h.StructureId != h2.StructureId {
		return h.StructureId < h2.StructureId
	}
	return h.Labels() < h2.Labels()
}

func (h Hit) String() string {
	id := h.StructureId
	if h.Assembly != "" {
		id = fmt.Sprintf("%s-%s", h.StructureId, h.Assembly)
	}
	return fmt.Sprintf("%s\t%0.4f\t%s", id, h.RMSD, h.Labels())
}
