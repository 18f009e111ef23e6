package structio

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/BurntSushi/cif"

	"github.com/TuftsBCB/motif"
)

// ReadAssembly reads a structure like ReadFile and expands it into the
// biological assembly with the identifier given, using the REMARK 350 BIOMT
// records of PDB files or the pdbx_struct_assembly_gen and
// pdbx_struct_oper_list categories of PDBx/mmCIF files.
//
// Operators are applied to every chain, and the residues read from the file
// are always the identity copy. When the file does not describe the
// assembly, the structure is returned unexpanded. An empty assembly is the
// same as ReadFile.
func ReadAssembly(fpath, assembly string) (*motif.Structure, error) {
	if assembly == "" {
		return ReadFile(fpath)
	}

	var s *motif.Structure
	var ops []motif.Operator
	if isCIF(fpath) {
		e, err := readCIF(fpath)
		if err != nil {
			return nil, err
		}
		s = fromEntry(e, fpath)
		if ops, err = cifOperators(e.CIF, assembly); err != nil {
			return nil, fmt.Errorf("Could not read assembly '%s' of '%s': %s",
				assembly, fpath, err)
		}
	} else {
		var err error
		if s, err = ReadFile(fpath); err != nil {
			return nil, err
		}
		f, err := open(fpath)
		if err != nil {
			return nil, err
		}
		ops, err = pdbOperators(f, assembly)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("Could not read assembly '%s' of '%s': %s",
				assembly, fpath, err)
		}
	}
	if len(ops) == 0 {
		return s, nil
	}
	return s.Expand(assembly, ops), nil
}

// pdbOperators reads the BIOMT operators of a biomolecule from the
// REMARK 350 records of a PDB file.
func pdbOperators(r io.Reader, assembly string) ([]motif.Operator, error) {
	var ids []string
	matrices := make(map[string]*motif.Transform)

	current := ""
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "REMARK 350") {
			continue
		}
		rest := strings.TrimSpace(line[10:])
		if strings.HasPrefix(rest, "BIOMOLECULE:") {
			current = strings.TrimSpace(rest[len("BIOMOLECULE:"):])
			continue
		}
		if current != assembly || !strings.HasPrefix(rest, "BIOMT") {
			continue
		}

		fields := strings.Fields(rest)
		if len(fields) < 6 || len(fields[0]) != 6 {
			return nil, fmt.Errorf("Invalid BIOMT record '%s'.", line)
		}
		row := int(fields[0][5] - '1')
		if row < 0 || row > 2 {
			return nil, fmt.Errorf("Invalid BIOMT row in '%s'.", line)
		}
		id := fields[1]
		m, ok := matrices[id]
		if !ok {
			identity := motif.Identity()
			m = &identity
			matrices[id] = m
			ids = append(ids, id)
		}
		for col := 0; col < 4; col++ {
			v, err := strconv.ParseFloat(fields[2+col], 64)
			if err != nil {
				return nil, fmt.Errorf("Invalid BIOMT value in '%s': %s",
					line, err)
			}
			m[row][col] = v
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	ops := make([]motif.Operator, len(ids))
	for i, id := range ids {
		ops[i] = motif.Operator{Id: id, Matrix: *matrices[id]}
	}
	return identityFirst(ops)
}

// cifOperators reads the operators generating an assembly from a PDBx/mmCIF
// data block.
func cifOperators(b *cif.DataBlock, assembly string) ([]motif.Operator, error) {
	assemblyIds := cifColumn(b, "pdbx_struct_assembly_gen.assembly_id")
	exprs := cifColumn(b, "pdbx_struct_assembly_gen.oper_expression")
	if len(assemblyIds) != len(exprs) {
		return nil, fmt.Errorf("Malformed pdbx_struct_assembly_gen category.")
	}

	var want []string
	for i, id := range assemblyIds {
		if id != assembly {
			continue
		}
		ids, err := operatorExpression(exprs[i])
		if err != nil {
			return nil, err
		}
		want = append(want, ids...)
	}
	if len(want) == 0 {
		return nil, nil
	}

	operIds := cifColumn(b, "pdbx_struct_oper_list.id")
	matrices := make(map[string]motif.Transform, len(operIds))
	for k, id := range operIds {
		m := motif.Identity()
		for row := 0; row < 3; row++ {
			for col := 0; col < 4; col++ {
				tag := fmt.Sprintf("pdbx_struct_oper_list.matrix[%d][%d]",
					row+1, col+1)
				if col == 3 {
					tag = fmt.Sprintf("pdbx_struct_oper_list.vector[%d]", row+1)
				}
				vals := cifColumn(b, tag)
				if len(vals) != len(operIds) {
					return nil, fmt.Errorf("Missing values for '%s'.", tag)
				}
				v, err := strconv.ParseFloat(vals[k], 64)
				if err != nil {
					return nil, fmt.Errorf("Invalid value for '%s' of "+
						"operator '%s': %s", tag, id, err)
				}
				m[row][col] = v
			}
		}
		matrices[id] = m
	}

	seen := make(map[string]bool, len(want))
	var ops []motif.Operator
	for _, id := range want {
		if seen[id] {
			continue
		}
		seen[id] = true
		m, ok := matrices[id]
		if !ok {
			return nil, fmt.Errorf("Unknown operator '%s'.", id)
		}
		ops = append(ops, motif.Operator{Id: id, Matrix: m})
	}
	return identityFirst(ops)
}

// operatorExpression returns the operator identifiers of an expression such
// as "1", "1,2,5", "1-4" or "(1-60)". Products of expressions (for example
// "(1-60)(61-88)") are not supported.
func operatorExpression(expr string) ([]string, error) {
	expr = strings.TrimSpace(expr)
	if strings.Count(expr, "(") > 1 {
		return nil, fmt.Errorf("Operator expression '%s' is not supported.",
			expr)
	}
	expr = strings.Trim(expr, "()'\"")

	var ids []string
	for _, part := range strings.Split(expr, ",") {
		part = strings.TrimSpace(part)
		lo, hi, isRange := strings.Cut(part, "-")
		if !isRange {
			if part != "" {
				ids = append(ids, part)
			}
			continue
		}
		a, err1 := strconv.Atoi(lo)
		b, err2 := strconv.Atoi(hi)
		if err1 != nil || err2 != nil || b < a {
			return nil, fmt.Errorf("Invalid operator range '%s'.", part)
		}
		for k := a; k <= b; k++ {
			ids = append(ids, strconv.Itoa(k))
		}
	}
	return ids, nil
}

// identityFirst relabels operators whose matrix is the identity with the
// identity operator, and rejects operators that only share its identifier.
func identityFirst(ops []motif.Operator) ([]motif.Operator, error) {
	for i := range ops {
		isIdentity := ops[i].Matrix.IsIdentity(1e-6)
		switch {
		case isIdentity:
			ops[i].Id = motif.IdentityOperator
		case ops[i].Id == motif.IdentityOperator:
			return nil, fmt.Errorf("Operator '%s' is not the identity.",
				ops[i].Id)
		}
	}
	return ops, nil
}

// cifColumn returns the values of a tag whether it is in a loop or a
// single item.
func cifColumn(b *cif.DataBlock, tag string) []string {
	if loop, ok := b.Loops[tag]; ok {
		return loop.Get(tag).Strings()
	}
	v, ok := b.Items[tag]
	if !ok {
		return nil
	}
	switch raw := v.Raw().(type) {
	case string:
		return []string{raw}
	case int:
		return []string{strconv.Itoa(raw)}
	case float64:
		return []string{strconv.FormatFloat(raw, 'f', -1, 64)}
	}
	return nil
}
