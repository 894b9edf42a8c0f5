package repo

import "strings"

// reservedRefChars are disallowed anywhere in a ref name component.
const reservedRefChars = `\~^:?*[`

// ValidateRefName checks name against the ref-name rules: reject empty
// names, a ".lock" suffix, components that start or end with ".", ".."
// anywhere, empty path components, control characters, the reserved
// character set, "@{" sequences, and names with fewer than two
// slash-separated components. The gitcore update-ref and symbolic-ref
// commands call it; pkg/refs updates and pkg/revision resolution do not.
func ValidateRefName(name string) error {
	if name == "" {
		return &InvalidRefNameError{Name: name, Reason: "empty"}
	}
	if strings.HasSuffix(name, ".lock") {
		return &InvalidRefNameError{Name: name, Reason: "ends with .lock"}
	}
	if strings.Contains(name, "..") {
		return &InvalidRefNameError{Name: name, Reason: "contains .."}
	}
	if strings.Contains(name, "@{") {
		return &InvalidRefNameError{Name: name, Reason: "contains @{"}
	}
	for _, c := range name {
		if c <= 0x20 || c == 0x7f {
			return &InvalidRefNameError{Name: name, Reason: "contains a control character"}
		}
		if strings.ContainsRune(reservedRefChars, c) {
			return &InvalidRefNameError{Name: name, Reason: "contains a reserved character"}
		}
	}

	components := strings.Split(name, "/")
	if len(components) < 2 {
		return &InvalidRefNameError{Name: name, Reason: "requires at least two slash-separated components"}
	}
	for _, part := range components {
		if part == "" {
			return &InvalidRefNameError{Name: name, Reason: "contains an empty path component"}
		}
		if strings.HasPrefix(part, ".") || strings.HasSuffix(part, ".") {
			return &InvalidRefNameError{Name: name, Reason: "a component starts or ends with '.'"}
		}
	}
	return nil
}
