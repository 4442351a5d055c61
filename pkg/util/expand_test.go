package util

import (
	"testing"

	. "github.com/onsi/gomega"
)

func TestExpandVars(t *testing.T) {
	RegisterTestingT(t)

	vars := map[string]string{"name": "World", "tone": "formal"}
	Expect(ExpandVars("Greet ${name} in a $tone tone", vars)).To(Equal("Greet World in a formal tone"))
}

func TestExpandVarsKeepsUnknownReferences(t *testing.T) {
	RegisterTestingT(t)

	Expect(ExpandVars("Hello ${missing}", map[string]string{})).To(Equal("Hello ${missing}"))
	Expect(ExpandVars("Hello $missing", nil)).To(Equal("Hello ${missing}"))
}

func TestExpandVarsNoReferences(t *testing.T) {
	RegisterTestingT(t)

	Expect(ExpandVars("plain prompt", map[string]string{"name": "World"})).To(Equal("plain prompt"))
}
