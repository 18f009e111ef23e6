package motif

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
)

// Kinds of definition files understood by OpenDefinition.
const (
	kindResidueMotif = "residue-motif"
)

// Definition describes a motif by naming the structure it was taken from,
// the residues making up the motif and, optionally, residue types that may
// be substituted at particular positions of the motif.
//
// A definition is resolved against the structure it names with Resolve.
type Definition struct {
	Structure string
	Assembly  string `json:",omitempty"`
	Residues  []Selector
	Exchanges []Exchange `json:",omitempty"`
}

// Selector picks a single residue out of a structure by its label.
type Selector struct {
	Chain    string
	SeqNum   int
	InsCode  string `json:",omitempty"`
	Operator string `json:",omitempty"`
}

func (sel Selector) insCode() byte {
	if len(sel.InsCode) == 0 {
		return 0
	}
	return sel.InsCode[0]
}

func (sel Selector) String() string {
	s := fmt.Sprintf("%s:%d%s", sel.Chain, sel.SeqNum, sel.InsCode)
	if sel.Operator != "" && sel.Operator != IdentityOperator {
		s += "[" + sel.Operator + "]"
	}
	return s
}

// Exchange lists residue types (by three letter code) that may be matched
// at the motif position given (starting from 0) in addition to the type of
// the residue at that position.
type Exchange struct {
	Position int
	Types    []string
}

// OpenDefinition reads a motif definition from the reader provided.
func OpenDefinition(r io.Reader) (*Definition, error) {
	type jsonDefinition struct {
		Kind       string
		Definition json.RawMessage
	}

	var jsondef jsonDefinition
	dec := json.NewDecoder(r)
	if err := dec.Decode(&jsondef); err != nil {
		return nil, err
	}
	if jsondef.Kind != kindResidueMotif {
		return nil, fmt.Errorf("Unrecognized motif definition kind '%s'.",
			jsondef.Kind)
	}

	var def *Definition
	dec = json.NewDecoder(bytes.NewReader(jsondef.Definition))
	if err := dec.Decode(&def); err != nil {
		return nil, err
	}
	if def == nil {
		return nil, fmt.Errorf("Corrupt motif definition. No definition found.")
	}
	return def, nil
}

// SaveDefinition writes the motif definition given to the writer provided.
func SaveDefinition(w io.Writer, def *Definition) error {
	return niceJson(w, map[string]interface{}{
		"Kind":       kindResidueMotif,
		"Definition": def,
	})
}

// Resolve returns the residues of the structure given that are selected by
// this definition, in the order they are listed in the definition.
// An InvalidQueryError is returned when a selector doesn't match any residue
// or when a residue is selected more than once.
func (def *Definition) Resolve(s *Structure) ([]*Residue, error) {
	if len(def.Residues) == 0 {
		return nil, invalidf("The motif definition for '%s' selects no residues.",
			def.Structure)
	}

	seen := make(map[int]bool, len(def.Residues))
	residues := make([]*Residue, len(def.Residues))
	for i, sel := range def.Residues {
		ri := s.Find(sel.Chain, sel.SeqNum, sel.insCode(), sel.Operator)
		if ri < 0 {
			return nil, invalidf("Residue %s does not exist in structure '%s'.",
				sel, s.Id)
		}
		if seen[ri] {
			return nil, invalidf("Residue %s is selected more than once.", sel)
		}
		seen[ri] = true
		residues[i] = s.Residues[ri]
	}
	return residues, nil
}

// ExchangeTypes converts the exchanges of this definition to a map from
// motif position to residue types. An InvalidQueryError is returned for
// unknown residue types or positions outside the motif.
func (def *Definition) ExchangeTypes() (map[int][]ResidueType, error) {
	if len(def.Exchanges) == 0 {
		return nil, nil
	}
	exchanges := make(map[int][]ResidueType, len(def.Exchanges))
	for _, ex := range def.Exchanges {
		if ex.Position < 0 || ex.Position >= len(def.Residues) {
			return nil, invalidf("Exchange position %d is not in the range "+
				"[0, %d).", ex.Position, len(def.Residues))
		}
		for _, code := range ex.Types {
			t, ok := ResidueTypeFromThree(code)
			if !ok {
				return nil, invalidf("Unknown residue type '%s' in exchange "+
					"for position %d.", code, ex.Position)
			}
			exchanges[ex.Position] = append(exchanges[ex.Position], t)
		}
	}
	for pos := range exchanges {
		types := exchanges[pos]
		sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	}
	return exchanges, nil
}

// niceJson is a convenience function for encoding a JSON value and writing
// it with `json.Indent`.
func niceJson(w io.Writer, v interface{}) error {
	raw, dst := new(bytes.Buffer), new(bytes.Buffer)

	enc := json.NewEncoder(raw)
	if err := enc.Encode(v); err != nil {
		return err
	}
	if err := json.Indent(dst, raw.Bytes(), "", "\t"); err != nil {
		return err
	}
	_, err := io.Copy(w, dst)
	return err
}
