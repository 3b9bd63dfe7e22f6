package credentials

import (
	"regexp"
	"strconv"
	"testing"
)

var sixDigits = regexp.MustCompile(`^\d{6}$`)

func TestGenerateOTPCode(t *testing.T) {
	tests := []struct {
		name       string
		iterations int
	}{
		{
			name:       "codes are six digits in range",
			iterations: 1000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen := make(map[string]bool)
			for i := 0; i < tt.iterations; i++ {
				code, err := GenerateOTPCode()
				if err != nil {
					t.Fatalf("GenerateOTPCode() error = %v", err)
				}

				if !sixDigits.MatchString(code) {
					t.Fatalf("code %q does not match ^\\d{6}$", code)
				}

				n, _ := strconv.Atoi(code)
				if n < MinOTPCode || n > MaxOTPCode {
					t.Fatalf("code %d not in range [%d, %d]", n, MinOTPCode, MaxOTPCode)
				}
				seen[code] = true
			}

			// 1000 draws from 900000 values should almost never collide much
			if len(seen) < tt.iterations-10 {
				t.Errorf("only %d distinct codes in %d draws", len(seen), tt.iterations)
			}
		})
	}
}
