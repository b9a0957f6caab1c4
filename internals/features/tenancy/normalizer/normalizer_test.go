package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_DataScienceSynonyms(t *testing.T) {
	variants := []string{
		"CSE(DS)", "CSE (DS)", "CSDS", "CSE-DS", "DS", "cse(ds)", " CSE ( DS ) ",
		"CSE_DS", "cse-ds", "CSE(DATA SCIENCE)", "Data Science", "CSEDS",
	}
	for _, v := range variants {
		assert.Equal(t, CanonicalDataScience, Normalize(v), "variant %q", v)
	}
}

func TestNormalize_GenericRule(t *testing.T) {
	cases := map[string]string{
		"cse":        "CSE",
		"E C E":      "ECE",
		"(mech)":     "MECH",
		"Phys-2":     "PHYS-2",
		"bio tech 1": "BIOTECH1",
		"IT":         "IT",
	}
	for in, want := range cases {
		assert.Equal(t, want, Normalize(in), "input %q", in)
	}
}

func TestNormalize_EmptyPassThrough(t *testing.T) {
	assert.Equal(t, "", Normalize(""))
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"", "CSE(DS)", "cse (ds)", "ds", "Phys", "a(b)c d", "ECE", "x-y_z", "((  ))", "çse", "ǅ",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestIsNormalized(t *testing.T) {
	assert.True(t, IsNormalized("CSEDS"))
	assert.True(t, IsNormalized("PHYS"))
	assert.True(t, IsNormalized(""))
	assert.False(t, IsNormalized("CSE(DS)"))
	assert.False(t, IsNormalized("cse"))
	assert.False(t, IsNormalized("CSDS"))
}

func TestIsRecognizedAndValid(t *testing.T) {
	assert.True(t, IsRecognized("CSEDS"))
	assert.False(t, IsRecognized("CSE(DS)"))
	assert.False(t, IsRecognized("PHYS"))

	assert.True(t, IsValidDepartment("CSE (DS)"))
	assert.True(t, IsValidDepartment("ece"))
	assert.False(t, IsValidDepartment(""))
	assert.False(t, IsValidDepartment("PHYS"))
}

func TestIsProvisionable(t *testing.T) {
	assert.True(t, IsProvisionable("PHYS"))
	assert.True(t, IsProvisionable("CSE-2"))
	assert.False(t, IsProvisionable(""))
	assert.False(t, IsProvisionable("cse"))
	assert.False(t, IsProvisionable("CSE;DROP"))
	assert.False(t, IsProvisionable("ABCDEFGHIJABCDEFGHIJABCDEFGHIJX"))
}

func TestKnown_AllNormalizedAndRecognized(t *testing.T) {
	keys := Known()
	assert.Len(t, keys, 8)
	for _, k := range keys {
		assert.True(t, IsNormalized(k), k)
		assert.True(t, IsRecognized(k), k)
	}
}
