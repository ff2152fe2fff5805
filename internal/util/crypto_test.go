package util

import (
	"strings"
	"testing"
)

func TestGenerateCode(t *testing.T) {
	tests := []struct {
		name    string
		n       int
		wantErr bool
	}{
		{"Generate 4 characters", 4, false},
		{"Generate 10 characters", 10, false},
		{"Generate negative characters", -1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GenerateCode(tt.n)
			if (err != nil) != tt.wantErr {
				t.Errorf("GenerateCode() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				return
			}
			if len(got) != tt.n {
				t.Errorf("GenerateCode() got = %v, want length %v", got, tt.n)
			}
			for _, r := range got {
				if !strings.ContainsRune(codeAlphabet, r) {
					t.Errorf("GenerateCode() got unexpected character %q", r)
				}
			}
		})
	}
}
