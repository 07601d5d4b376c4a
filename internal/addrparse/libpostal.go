//go:build libpostal

package addrparse

import (
	"strings"

	postal "github.com/openvenues/gopostal/parser"
)

const backend = "libpostal"

var parserOptions = postal.ParserOptions{Language: "pt", Country: "br"}

func parse(text string) Address {
	parts := make(map[string]string)
	for _, c := range postal.ParseAddressOptions(text, parserOptions) {
		parts[c.Label] = c.Value
	}

	var complement []string
	for _, label := range []string{"unit", "level", "entrance", "staircase"} {
		if v := parts[label]; v != "" {
			complement = append(complement, v)
		}
	}
	return fromComponents(parts["road"], parts["house_number"], strings.Join(complement, " "))
}
