package qrcatalog

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// The QR renderer behind the catalog links writes every module as an 8x8 px
// instance of a single shape definition, e.g.
//
//	<defs><rect id="r0" width="8" height="8"/></defs>
//	<use x="16" y="24" xlink:href="#r0"/>
const (
	ModulePixelSize = 8
	DefaultShapeRef = "#r0"
)

// Module is one dark cell of the QR matrix, addressed by column and row.
type Module struct {
	Col int
	Row int
}

// ModuleSet holds the dark modules of a QR matrix without duplicates.
type ModuleSet map[Module]struct{}

func NewModuleSet(modules ...Module) ModuleSet {
	s := make(ModuleSet, len(modules))
	for _, m := range modules {
		s.Add(m)
	}
	return s
}

func (s ModuleSet) Add(m Module) {
	s[m] = struct{}{}
}

func (s ModuleSet) Has(m Module) bool {
	_, ok := s[m]
	return ok
}

func (s ModuleSet) Len() int {
	return len(s)
}

// Sorted returns the modules in row-major order so that anything drawn or
// written from the set is deterministic.
func (s ModuleSet) Sorted() []Module {
	out := make([]Module, 0, len(s))
	for m := range s {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Row != out[j].Row {
			return out[i].Row < out[j].Row
		}
		return out[i].Col < out[j].Col
	})
	return out
}

// Bounds returns the number of columns and rows needed to hold every module.
func (s ModuleSet) Bounds() (cols, rows int) {
	for m := range s {
		cols = max(cols, m.Col+1)
		rows = max(rows, m.Row+1)
	}
	return cols, rows
}

// ExtractModules recovers the dark modules from a QR fragment that uses the
// default "#r0" shape reference. Absent or malformed markup yields an empty set.
func ExtractModules(fragment string) ModuleSet {
	return ExtractModulesWithRef(fragment, DefaultShapeRef)
}

// ExtractModulesWithRef is ExtractModules for renderers that name their shared
// module shape something other than "#r0".
func ExtractModulesWithRef(fragment, ref string) ModuleSet {
	modules := NewModuleSet()
	if !strings.Contains(fragment, ref) {
		return modules
	}

	z := html.NewTokenizer(strings.NewReader(fragment))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			// io.EOF or a read error, either way there is nothing left to scan
			return modules
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}

		name, hasAttr := z.TagName()
		if string(name) != "use" || !hasAttr {
			continue
		}

		if m, ok := readUseTag(z, ref); ok {
			modules.Add(m)
		}
	}
}

func readUseTag(z *html.Tokenizer, ref string) (Module, bool) {
	x, y := -1, -1
	hrefMatches := false

	for moreAttr := true; moreAttr; {
		var key, val []byte
		key, val, moreAttr = z.TagAttr()
		switch string(key) {
		case "x":
			x = parsePixelOffset(string(val))
		case "y":
			y = parsePixelOffset(string(val))
		case "xlink:href", "href":
			hrefMatches = string(val) == ref
		}
	}

	if !hrefMatches || x < 0 || y < 0 {
		return Module{}, false
	}

	// Offsets are non-negative so integer division floors.
	return Module{Col: x / ModulePixelSize, Row: y / ModulePixelSize}, true
}

// parsePixelOffset accepts plain decimal digits only, returning -1 otherwise.
func parsePixelOffset(s string) int {
	if s == "" {
		return -1
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return -1
		}
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return -1
	}
	return v
}

// EncodeModules writes modules back out in the compact shape-reference
// dialect that ExtractModules reads.
func EncodeModules(modules ModuleSet) string {
	cols, rows := modules.Bounds()
	width, height := cols*ModulePixelSize, rows*ModulePixelSize
	id := strings.TrimPrefix(DefaultShapeRef, "#")

	var sb strings.Builder
	fmt.Fprintf(&sb, `<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" width="%d" height="%d" viewBox="0 0 %d %d">`, width, height, width, height)
	fmt.Fprintf(&sb, `<defs><rect id="%s" width="%d" height="%d" fill="#000000"/></defs>`, id, ModulePixelSize, ModulePixelSize)
	fmt.Fprintf(&sb, `<rect x="0" y="0" width="%d" height="%d" fill="#ffffff"/>`, width, height)
	for _, m := range modules.Sorted() {
		fmt.Fprintf(&sb, `<use x="%d" y="%d" xlink:href="%s"/>`, m.Col*ModulePixelSize, m.Row*ModulePixelSize, DefaultShapeRef)
	}
	sb.WriteString(`</svg>`)

	return sb.String()
}
