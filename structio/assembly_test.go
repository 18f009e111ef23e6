package structio

import (
	"context"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/BurntSushi/cif"

	"github.com/TuftsBCB/motif"
	"github.com/TuftsBCB/motif/internal/fixture"
)

var biomt = []string{
	"REMARK 350 BIOMOLECULE: 1",
	"REMARK 350 APPLY THE FOLLOWING TO CHAINS: A",
	"REMARK 350   BIOMT1   1  1.000000  0.000000  0.000000        0.00000",
	"REMARK 350   BIOMT2   1  0.000000  1.000000  0.000000        0.00000",
	"REMARK 350   BIOMT3   1  0.000000  0.000000  1.000000        0.00000",
	"REMARK 350   BIOMT1   2  1.000000  0.000000  0.000000        0.00000",
	"REMARK 350   BIOMT2   2  0.000000  1.000000  0.000000        0.00000",
	"REMARK 350   BIOMT3   2  0.000000  0.000000  1.000000       12.00000",
	"REMARK 350 BIOMOLECULE: 2",
	"REMARK 350   BIOMT1   1  1.000000  0.000000  0.000000        0.00000",
	"REMARK 350   BIOMT2   1  0.000000  1.000000  0.000000        0.00000",
	"REMARK 350   BIOMT3   1  0.000000  0.000000  1.000000        0.00000",
}

func TestReadAssembly(t *testing.T) {
	want, _ := fixture.Motif()
	n := len(want.Residues)
	dir := t.TempDir()
	fpath := filepath.Join(dir, "1mot.pdb.gz")
	writePDB(t, fpath, want, "1MOT", biomt...)

	got, err := ReadAssembly(fpath, "1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Assembly != "1" || len(got.Residues) != 2*n {
		t.Fatalf("Expected assembly '1' with %d residues but got %s.", 2*n, got)
	}
	for k, r := range got.Residues[n:] {
		orig := got.Residues[k]
		if r.Operator != "2" || r.Label() != orig.Label() {
			t.Fatalf("Expected a copy of %s by operator '2' but got %s.", orig, r)
		}
		if dz := r.Backbone.Z - orig.Backbone.Z; math.Abs(dz-12) > 1e-3 {
			t.Fatalf("Expected the copy moved by 12 along z but got %f.", dz)
		}
	}

	// Biomolecule 2 is the identity alone.
	got, err = ReadAssembly(fpath, "2")
	if err != nil {
		t.Fatal(err)
	}
	if got.Assembly != "2" || len(got.Residues) != n {
		t.Fatalf("Expected assembly '2' with %d residues but got %s.", n, got)
	}

	for _, assembly := range []string{"7", ""} {
		got, err := ReadAssembly(fpath, assembly)
		if err != nil {
			t.Fatal(err)
		}
		if got.Assembly != "" || len(got.Residues) != n {
			t.Fatalf("Expected the asymmetric unit for assembly '%s' but "+
				"got %s.", assembly, got)
		}
	}

	d := Dir{Root: dir, Assembly: "1"}
	s, err := d.ReadStructure(context.Background(), "1mot")
	if err != nil {
		t.Fatal(err)
	}
	if s.Assembly != "1" || len(s.Residues) != 2*n {
		t.Fatalf("Expected assembly '1' with %d residues but got %s.", 2*n, s)
	}
	if s.Find("A", want.Residues[0].SeqNum, 0, "2") != n {
		t.Fatalf("Expected to find the copy of the first residue at %d.", n)
	}
}

func TestPDBOperatorsErrors(t *testing.T) {
	tests := []string{
		"REMARK 350 BIOMOLECULE: 1\nREMARK 350   BIOMT4   1  1.0  0.0  0.0  0.0\n",
		"REMARK 350 BIOMOLECULE: 1\nREMARK 350   BIOMT1   1  1.0  x  0.0  0.0\n",
		"REMARK 350 BIOMOLECULE: 1\nREMARK 350   BIOMT1   1  1.0\n",
		// Operator "1" moves the asymmetric unit.
		"REMARK 350 BIOMOLECULE: 1\nREMARK 350   BIOMT1   1  1.0  0.0  0.0  3.0\n",
	}
	for _, test := range tests {
		if _, err := pdbOperators(strings.NewReader(test), "1"); err == nil {
			t.Fatalf("Expected an error for:\n%s", test)
		}
	}
}

const operCIF = `data_test
#
loop_
_pdbx_struct_assembly_gen.assembly_id
_pdbx_struct_assembly_gen.oper_expression
_pdbx_struct_assembly_gen.asym_id_list
1 '1,2' A
2 '(3-4)' A
#
loop_
_pdbx_struct_oper_list.id
_pdbx_struct_oper_list.type
_pdbx_struct_oper_list.matrix[1][1]
_pdbx_struct_oper_list.matrix[1][2]
_pdbx_struct_oper_list.matrix[1][3]
_pdbx_struct_oper_list.vector[1]
_pdbx_struct_oper_list.matrix[2][1]
_pdbx_struct_oper_list.matrix[2][2]
_pdbx_struct_oper_list.matrix[2][3]
_pdbx_struct_oper_list.vector[2]
_pdbx_struct_oper_list.matrix[3][1]
_pdbx_struct_oper_list.matrix[3][2]
_pdbx_struct_oper_list.matrix[3][3]
_pdbx_struct_oper_list.vector[3]
1 'identity operation'         1.0 0.0 0.0 0.0  0.0 1.0 0.0 0.0  0.0 0.0 1.0 0.0
2 'crystal symmetry operation' 1.0 0.0 0.0 0.0  0.0 1.0 0.0 0.0  0.0 0.0 1.0 12.0
3 'crystal symmetry operation' -1.0 0.0 0.0 0.0  0.0 -1.0 0.0 0.0  0.0 0.0 1.0 0.0
4 'crystal symmetry operation' 1.0 0.0 0.0 5.0  0.0 1.0 0.0 0.0  0.0 0.0 1.0 0.0
#
`

func TestCIFOperators(t *testing.T) {
	cf, err := cif.Read(strings.NewReader(operCIF))
	if err != nil {
		t.Fatal(err)
	}
	if len(cf.Blocks) != 1 {
		t.Fatalf("Expected 1 data block but got %d.", len(cf.Blocks))
	}
	var block *cif.DataBlock
	for _, b := range cf.Blocks {
		block = b
	}

	ops, err := cifOperators(block, "1")
	if err != nil {
		t.Fatal(err)
	}
	if len(ops) != 2 || ops[0].Id != motif.IdentityOperator || ops[1].Id != "2" {
		t.Fatalf("Expected operators '1' and '2' but got %v.", ops)
	}
	if ops[1].Matrix[2][3] != 12 || !ops[0].Matrix.IsIdentity(0) {
		t.Fatalf("Expected a shift of 12 along z but got %s.", ops[1].Matrix)
	}

	ops, err = cifOperators(block, "2")
	if err != nil {
		t.Fatal(err)
	}
	if len(ops) != 2 || ops[0].Id != "3" || ops[1].Id != "4" {
		t.Fatalf("Expected operators '3' and '4' but got %v.", ops)
	}
	if ops[0].Matrix[0][0] != -1 || ops[1].Matrix[0][3] != 5 {
		t.Fatalf("Expected the matrices of operators '3' and '4' but got %v.",
			ops)
	}

	if ops, err := cifOperators(block, "3"); err != nil || ops != nil {
		t.Fatalf("Expected no operators for an unknown assembly but got "+
			"%v (%v).", ops, err)
	}
}

func TestOperatorExpression(t *testing.T) {
	tests := []struct {
		expr string
		want string
	}{
		{"1", "1"},
		{"1,2,5", "1,2,5"},
		{"(1-4)", "1,2,3,4"},
		{"1-3,P", "1,2,3,P"},
	}
	for _, test := range tests {
		got, err := operatorExpression(test.expr)
		if err != nil {
			t.Fatal(err)
		}
		if strings.Join(got, ",") != test.want {
			t.Fatalf("Expected [%s] for '%s' but got %v.", test.want, test.expr, got)
		}
	}
	for _, expr := range []string{"(1-60)(61-88)", "4-2", "a-b"} {
		if _, err := operatorExpression(expr); err == nil {
			t.Fatalf("Expected an error for '%s'.", expr)
		}
	}
}
