package doctor

import (
	"testing"
)

func TestParseMajorMinor(t *testing.T) {
	tests := []struct {
		name      string
		ver       string
		wantMajor int
		wantMinor int
		wantErr   bool
	}{
		{"simple", "15.0", 15, 0, false},
		{"with patch", "15.1.0", 15, 1, false},
		{"single number", "15", 0, 0, true},
		{"empty", "", 0, 0, true},
		{"bad major", "abc.1", 0, 0, true},
		{"bad minor", "15.xyz", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			major, minor, err := parseMajorMinor(tt.ver)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseMajorMinor(%q) = (%d,%d,nil); want error", tt.ver, major, minor)
				}

				return
			}

			if err != nil {
				t.Fatalf("parseMajorMinor(%q) error: %v", tt.ver, err)
			}

			if major != tt.wantMajor || minor != tt.wantMinor {
				t.Fatalf("parseMajorMinor(%q) = (%d,%d); want (%d,%d)",
					tt.ver, major, minor, tt.wantMajor, tt.wantMinor)
			}
		})
	}
}

func TestCheckUnicodeTables(t *testing.T) {
	tests := []struct {
		classes, norm string
		wantErr       bool
	}{
		{"15.0.0", "15.0.0", false},
		{"13.0.0", "15.0.0", false},
		{"15.0.0", "14.9.0", true},
		{"x.y", "15.0.0", true},
		{"15.0.0", "", true},
	}

	for _, tt := range tests {
		err := checkUnicodeTables(tt.classes, tt.norm)
		if (err != nil) != tt.wantErr {
			t.Errorf("checkUnicodeTables(%q, %q) = %v; wantErr %v", tt.classes, tt.norm, err, tt.wantErr)
		}
	}
}
