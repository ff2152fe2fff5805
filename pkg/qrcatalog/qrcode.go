package qrcatalog

import (
	"fmt"
	"html"

	"github.com/skip2/go-qrcode"
)

// ModulesFromContent encodes content as a QR code and returns its dark
// modules, with the quiet zone removed so the top left finder starts at (0,0).
func ModulesFromContent(content string, level qrcode.RecoveryLevel) (ModuleSet, error) {
	q, err := qrcode.New(content, level)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR code: %w", err)
	}
	q.DisableBorder = true

	modules := NewModuleSet()
	for row, line := range q.Bitmap() {
		for col, dark := range line {
			if dark {
				modules.Add(Module{Col: col, Row: row})
			}
		}
	}

	return modules, nil
}

// BuildProductPage renders a minimal product page in the shape the scraper
// expects: a table whose first cell holds the code, followed by the QR as an
// inline svg of <use> elements.
func BuildProductPage(code, name string, modules ModuleSet) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>%[2]s</title></head>
<body>
<h1>%[2]s</h1>
<table>
<tr><th>Codigo</th></tr>
<tr><td>%[1]s</td><td>%[2]s</td></tr>
</table>
%[3]s
</body>
</html>
`, html.EscapeString(code), html.EscapeString(name), EncodeModules(modules))
}
