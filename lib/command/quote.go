package command

import "strings"

// Quote renders argv for display. Arguments made only of [A-Za-z0-9_./=@%-] are
// printed bare; everything else is double-quoted with inner quotes escaped.
func Quote(args []string) string {
	parts := make([]string, 0, len(args))
	for _, a := range args {
		if needsQuoting(a) {
			parts = append(parts, quote(a))
		} else {
			parts = append(parts, a)
		}
	}
	return strings.Join(parts, " ")
}

func needsQuoting(s string) bool {
	if s == "" {
		return true
	}
	for i := 0; i < len(s); i++ {
		if !safeByte(s[i]) {
			return true
		}
	}
	return false
}

func safeByte(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '_', '.', '/', '=', '@', '%', '-':
		return true
	}
	return false
}

func quote(s string) string {
	b := strings.Builder{}
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		if s[i] == '"' {
			b.WriteString(`\"`)
		} else {
			b.WriteByte(s[i])
		}
	}
	b.WriteByte('"')
	return b.String()
}
