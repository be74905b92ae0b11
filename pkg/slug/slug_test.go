package slug

import (
	"strings"
	"testing"
)

func TestMake(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{name: "punctuation and spaces collapse", title: "Hello, World! 2024", want: "hello-world-2024"},
		{name: "already clean", title: "golang", want: "golang"},
		{name: "uppercase lowered", title: "DevBlog Rocks", want: "devblog-rocks"},
		{name: "leading and trailing junk stripped", title: "  --Hello--  ", want: "hello"},
		{name: "run of separators becomes one hyphen", title: "a  ...  b", want: "a-b"},
		{name: "digits kept", title: "Go 1.22 released", want: "go-1-22-released"},
		{name: "empty title", title: "", want: ""},
		{name: "only punctuation", title: "?!&", want: ""},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := Make(test.title)
			if got != test.want {
				t.Errorf("Make(%q) = %q, want %q", test.title, got, test.want)
			}
			if strings.HasPrefix(got, "-") || strings.HasSuffix(got, "-") {
				t.Errorf("Make(%q) = %q has a leading or trailing hyphen", test.title, got)
			}
			if strings.Contains(got, "--") {
				t.Errorf("Make(%q) = %q contains a hyphen run", test.title, got)
			}
			if got != strings.ToLower(got) {
				t.Errorf("Make(%q) = %q is not lowercase", test.title, got)
			}
		})
	}
}
