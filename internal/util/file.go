package util

import (
	"fmt"
	"time"
)

// Example output for "catalogo_3x4.pdf": "21313123123_catalogo_3x4.pdf"
func AddUniquePrefixToFileName(fileName string) string {
	uniquePrefix := fmt.Sprintf("%d", time.Now().UnixNano())
	return fmt.Sprintf("%s_%s", uniquePrefix, fileName)
}
