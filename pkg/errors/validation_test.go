package errors

import (
	"strings"
	"testing"
)

func TestValidateCoordinate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"full", "org.example:app:1.0.0-beta:sources:zip", false},
		{"version-less", "org.example:app", false},
		{"padded", "  org.example:app:1.0  ", false},

		{"missing artifact", "org.example", true},
		{"bad version", "org.example:app:one", true},
		{"slash in group", "org/example:app:1.0", true},
		{"traversal", "..:app:1.0", true},
		{"space in artifact", "org.example:my app:1.0", true},
		{"too many segments", "a:b:1:c:d:e", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := ValidateCoordinate(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateCoordinate(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidCoordinate) {
				t.Errorf("ValidateCoordinate(%q) returned wrong error code: %v", tt.input, err)
			}
			if err == nil && d.Artifact != "app" {
				t.Errorf("ValidateCoordinate(%q) = %+v", tt.input, d)
			}
		})
	}
}

func TestValidateRepositoryName(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"central", false},
		{"my-mirror.2", false},
		{"", true},
		{"-leading", true},
		{"has space", true},
		{strings.Repeat("a", 65), true},
	}
	for _, tt := range tests {
		err := ValidateRepositoryName(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateRepositoryName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"https", "https://repo1.maven.org/maven2/", false},
		{"http", "http://localhost:8080", false},
		{"s3", "s3://bucket/prefix", false},
		{"file", "file:///home/me/.m2/repository", false},
		{"plain path", "../local-repo", false},

		{"empty", "", true},
		{"ftp", "ftp://example.com", true},
		{"control char", "repo\x01", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "libs/x.jar", false},
		{"valid absolute", "/opt/libs", false},
		{"valid parent", "../shared/libs", false},

		{"empty", "", true},
		{"blank", "   ", true},
		{"too long", strings.Repeat("a", 600), true},
		{"null byte", "foo\x00bar", true},
		{"control char", "foo\x01bar", true},
		{"newline", "foo\nbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidPath) {
				t.Errorf("ValidatePath(%q) returned wrong error code: %v", tt.input, err)
			}
		})
	}
}

func TestValidateRelativePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "bld-wrapper", false},
		{"valid with dots", "v1.2.3/file.jar", false},
		{"dotted name", "a..b", false},

		{"absolute path", "/etc/passwd", true},
		{"path traversal", "../../../etc/passwd", true},
		{"path traversal middle", "foo/../bar", true},
		{"backslash", "foo\\bar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRelativePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRelativePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestErrorCodesAreUnique(t *testing.T) {
	codes := []Code{
		ErrCodeInvalidInput,
		ErrCodeInvalidCoordinate,
		ErrCodeInvalidConfig,
		ErrCodeInvalidPath,
		ErrCodeNotFound,
		ErrCodeVersionUnresolved,
		ErrCodeNetwork,
		ErrCodeCacheState,
		ErrCodeCanceled,
		ErrCodeInternal,
	}

	seen := make(map[Code]bool)
	for _, code := range codes {
		if seen[code] {
			t.Errorf("Duplicate error code: %s", code)
		}
		seen[code] = true
	}
}
