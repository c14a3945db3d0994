package flagx

import (
	"os"
	"reflect"
	"testing"
)

func TestFilterArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		args    []string
		allowed []string
		want    []string
	}{
		{
			name:    "separate flag and value",
			args:    []string{"-s", "secret", "-x", "other"},
			allowed: []string{"-s"},
			want:    []string{"-s", "secret"},
		},
		{
			name:    "combined flag=value",
			args:    []string{"--secret=abc", "--other=def"},
			allowed: []string{"--secret"},
			want:    []string{"--secret=abc"},
		},
		{
			name:    "flag followed by another flag keeps no value",
			args:    []string{"-a", "-d", "dsn"},
			allowed: []string{"-a", "-d"},
			want:    []string{"-a", "-d", "dsn"},
		},
		{
			name:    "nothing allowed",
			args:    []string{"-s", "secret"},
			allowed: nil,
			want:    []string{},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := FilterArgs(tt.args, tt.allowed)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("FilterArgs() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestJsonConfigFlags(t *testing.T) {
	origArgs := os.Args
	defer func() { os.Args = origArgs }()

	os.Args = []string{"server", "-c", "conf.json", "-a", ":5000"}
	if got := JsonConfigFlags(); got != "conf.json" {
		t.Fatalf("expected conf.json, got %q", got)
	}

	os.Args = []string{"server", "-a", ":5000"}
	if got := JsonConfigFlags(); got != "" {
		t.Fatalf("expected empty path, got %q", got)
	}
}
