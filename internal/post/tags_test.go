package post

import (
	"reflect"
	"testing"
)

func TestExtractTags(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"no tags here", nil},
		{"loving the #sunrise this #Morning", []string{"sunrise", "morning"}},
		{"#dup #dup #DUP", []string{"dup"}},
		{"#with_underscore_123 ok", []string{"with_underscore_123"}},
	}
	for _, tc := range cases {
		got := ExtractTags(tc.in)
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("ExtractTags(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
