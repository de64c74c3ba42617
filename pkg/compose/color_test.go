package compose

import (
	"image/color"
	"testing"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    color.RGBA
		wantErr bool
	}{
		{in: "#000000", want: color.RGBA{0, 0, 0, 255}},
		{in: "#ffffff", want: color.RGBA{255, 255, 255, 255}},
		{in: "#282828", want: color.RGBA{0x28, 0x28, 0x28, 255}},
		{in: "#1A2b3C", want: color.RGBA{0x1a, 0x2b, 0x3c, 255}},
		{in: "#fff", want: color.RGBA{255, 255, 255, 255}},
		{in: "#a3f", want: color.RGBA{0xaa, 0x33, 0xff, 255}},
		{in: "282828", wantErr: true},
		{in: "#28282", wantErr: true},
		{in: "#28282828", wantErr: true},
		{in: "#gg0000", wantErr: true},
		{in: "#", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseColor(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseColor(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if got != tt.want {
				t.Errorf("ParseColor(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
