package tile

import "testing"

func TestGridParser(t *testing.T) {
	tests := []struct {
		name  string
		file  string
		pos   Position
		label string
		ok    bool
	}{
		{"basic", "abc_Grid[@0 0].jpg", Position{0, 0}, "", true},
		{"multi digit", "abc_Grid[@12 3].tif", Position{12, 3}, "", true},
		{"element label", "abc_Grid[@2 1]_Si.tif", Position{2, 1}, "Si", true},
		{"uppercase ext", "abc_Grid[@1 1].TIF", Position{1, 1}, "", true},
		{"png", "specimen_Grid[@0 2].png", Position{0, 2}, "", true},
		{"no grid marker", "abc-1408-17.jpg", Position{}, "", false},
		{"not an image", "abc_Grid[@0 0].txt", Position{}, "", false},
		{"random file", "notes.md", Position{}, "", false},
	}

	var p GridParser
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos, label, ok := p.Parse(tt.file)
			if ok != tt.ok {
				t.Fatalf("Parse(%q) ok = %v, want %v", tt.file, ok, tt.ok)
			}
			if !ok {
				return
			}
			if pos != tt.pos {
				t.Errorf("Parse(%q) pos = %v, want %v", tt.file, pos, tt.pos)
			}
			if label != tt.label {
				t.Errorf("Parse(%q) label = %q, want %q", tt.file, label, tt.label)
			}
		})
	}
}

func TestSequentialParser(t *testing.T) {
	p := SequentialParser{Cols: 3}

	tests := []struct {
		file string
		pos  Position
		ok   bool
	}{
		{"abc-1408-1.jpg", Position{0, 0}, true},
		{"abc-1408-3.jpg", Position{0, 2}, true},
		{"abc-1408-4.jpg", Position{1, 0}, true},
		{"abc-1408-9.jpg", Position{2, 2}, true},
		{"abc-1408-0.jpg", Position{}, false},   // indices are 1-based
		{"abc_Grid[@0 0].jpg", Position{}, false}, // grid convention, no trailing index
	}

	for _, tt := range tests {
		pos, _, ok := p.Parse(tt.file)
		if ok != tt.ok {
			t.Errorf("Parse(%q) ok = %v, want %v", tt.file, ok, tt.ok)
			continue
		}
		if ok && pos != tt.pos {
			t.Errorf("Parse(%q) pos = %v, want %v", tt.file, pos, tt.pos)
		}
	}
}

func TestSequentialParserZeroCols(t *testing.T) {
	p := SequentialParser{}
	if _, _, ok := p.Parse("abc-1.jpg"); ok {
		t.Error("parser with zero columns should never match")
	}
}
