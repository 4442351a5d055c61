package util

import (
	"fmt"
	"os"
)

// ExpandVars substitutes $name and ${name} references in s from vars.
// Unknown names are left in place so typos surface in the rendered prompt.
func ExpandVars(s string, vars map[string]string) string {
	return os.Expand(s, func(name string) string {
		if v, ok := vars[name]; ok {
			return v
		}
		return fmt.Sprintf("${%s}", name)
	})
}
