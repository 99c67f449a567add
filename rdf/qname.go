package rdf

// isQNameLocal reports whether value can be written as the local part of a
// prefixed name. The check is deliberately narrower than the Turtle grammar:
// a trailing '.' is rejected so that statements stay unambiguous.
func isQNameLocal(value string) bool {
	if value == "" {
		return false
	}
	for i := 0; i < len(value); i++ {
		ch := value[i]
		if i == 0 {
			if !isNameStartChar(ch) && !(ch >= '0' && ch <= '9') {
				return false
			}
		} else if !isNameChar(ch) {
			return false
		}
	}
	return value[len(value)-1] != '.'
}

func isNameStartChar(ch byte) bool {
	return (ch >= 'A' && ch <= 'Z') || (ch >= 'a' && ch <= 'z') || ch == '_'
}

func isNameChar(ch byte) bool {
	return isNameStartChar(ch) || (ch >= '0' && ch <= '9') || ch == '-' || ch == '.'
}
