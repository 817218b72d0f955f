package models

import "testing"

func TestCapabilityBundle_Has(t *testing.T) {
	b := NewBundle(CapReadFile, CapListDirectory)

	tests := []struct {
		cap  Capability
		want bool
	}{
		{CapReadFile, true},
		{CapListDirectory, true},
		{CapWriteFile, false},
		{CapExecuteCode, false},
		{Capability("network"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.cap), func(t *testing.T) {
			if got := b.Has(tt.cap); got != tt.want {
				t.Errorf("Has(%q) = %v, want %v", tt.cap, got, tt.want)
			}
		})
	}
}

func TestCapabilityBundle_ZeroValue(t *testing.T) {
	var b CapabilityBundle
	if !b.IsEmpty() {
		t.Error("zero bundle should be empty")
	}
	if b.Len() != 0 {
		t.Errorf("zero bundle Len() = %d, want 0", b.Len())
	}
	if b.String() != "" {
		t.Errorf("zero bundle String() = %q, want empty", b.String())
	}
}

func TestCapabilityBundle_StringIsCanonical(t *testing.T) {
	// Insertion order and duplicates do not matter.
	b := NewBundle(CapExecuteCode, CapReadFile, CapReadFile, CapWriteFile)
	if got, want := b.String(), "read_file,write_file,execute_code"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if b.Len() != 3 {
		t.Errorf("Len() = %d, want 3", b.Len())
	}
}

func TestParseBundle(t *testing.T) {
	tests := []struct {
		name    string
		tokens  []string
		want    string
		wantErr bool
	}{
		{"read only", []string{"read_file", "list_directory"}, "read_file,list_directory", false},
		{"mixed case and spaces", []string{" Write_File ", "EXECUTE_CODE"}, "write_file,execute_code", false},
		{"empty", nil, "", false},
		{"unknown token", []string{"read_file", "network"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseBundle(tt.tokens)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseBundle() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got.String() != tt.want {
				t.Errorf("ParseBundle() = %q, want %q", got.String(), tt.want)
			}
		})
	}
}

func TestCapabilityBundle_TextRoundTrip(t *testing.T) {
	in := NewBundle(CapReadFile, CapExecuteCode)
	text, err := in.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText() error = %v", err)
	}

	var out CapabilityBundle
	if err := out.UnmarshalText(text); err != nil {
		t.Fatalf("UnmarshalText() error = %v", err)
	}
	if out != in {
		t.Errorf("round trip = %q, want %q", out, in)
	}

	if err := out.UnmarshalText([]byte("read_file,bogus")); err == nil {
		t.Error("UnmarshalText() should reject unknown tokens")
	}
}
