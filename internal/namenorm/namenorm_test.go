package namenorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_CommaForm(t *testing.T) {
	assert.Equal(t, "Doe, Jane", Normalize("Doe,   Jane"))
}

func TestNormalize_FirstLast(t *testing.T) {
	assert.Equal(t, "Doe, Jane", Normalize("Jane Doe"))
}

func TestNormalize_FirstMiddleLast(t *testing.T) {
	assert.Equal(t, "Doe, Jane Marie", Normalize("Jane Marie Doe"))
}

func TestNormalize_CompoundSurnamePrefix(t *testing.T) {
	assert.Equal(t, "van Der Berg, Jane", Normalize("Jane van Der Berg"))
}

func TestNormalize_HyphenatedSurnamePreserved(t *testing.T) {
	assert.Equal(t, "Smith-Jones, Anna", Normalize("Anna Smith-Jones"))
}

func TestNormalize_SingleToken(t *testing.T) {
	assert.Equal(t, "Cher", Normalize("Cher"))
}

func TestNormalize_Empty(t *testing.T) {
	assert.Equal(t, "", Normalize(""))
	assert.Equal(t, "", Normalize("   "))
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{"Jane Doe", "Doe, Jane", "Jane van Der Berg", "Cher", ""}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		assert.Equal(t, once, twice, "input %q", in)
	}
}
