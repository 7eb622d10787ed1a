package errors

import (
	"testing"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"http", "http://imaginationsquared.com", false},
		{"https with path", "https://example.com/gallery/", false},

		{"empty", "", true},
		{"no scheme", "imaginationsquared.com", true},
		{"ftp", "ftp://example.com", true},
		{"no host", "http://", true},
		{"bad escape", "http://example.com/%zz", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidInput) {
				t.Errorf("ValidateURL(%q) code = %v", tt.input, GetCode(err))
			}
		})
	}
}

func TestValidatePagePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"absolute path", "/grid.html", false},
		{"relative path", "grid.html", false},
		{"nested", "/gallery/grid.html", false},

		{"empty", "", true},
		{"traversal", "/../etc/passwd", true},
		{"full url", "http://other.example/grid.html", true},
		{"protocol relative", "//other.example/grid.html", true},
		{"newline", "/grid\n.html", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePagePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePagePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "allsquares", false},
		{"with dash", "all-squares_2", false},

		{"empty", "", true},
		{"slash", "out/allsquares", true},
		{"backslash", `out\allsquares`, true},
		{"hidden", ".allsquares", true},
		{"control", "all\x00squares", true},
		{"too long", string(make([]rune, 201)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
