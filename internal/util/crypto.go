package util

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// No 0/O or 1/I so codes survive being read off a printed label
const codeAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

// GenerateCode returns n random characters safe to print on a label.
func GenerateCode(n int) (string, error) {
	code, err := gonanoid.Generate(codeAlphabet, n)
	if err != nil {
		return "", err
	}
	return code, nil
}
