package slug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMake(t *testing.T) {
	testCases := []struct {
		in   string
		want string
	}{
		{in: "Foo", want: "foo"},
		{in: "Lambda Expressions", want: "lambda-expressions"},
		{in: "  std::optional<T>  ", want: "stdoptionalt"},
		{in: "constexpr if / else", want: "constexpr-if--else"},
		{in: "_Static_assert", want: "_static_assert"},
		{in: "Ranges-v3 Über", want: "ranges-v3-über"},
		{in: "!!!", want: ""},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, Make(tc.in))
		})
	}
}

func TestSlugger_DeduplicatesWithinDocument(t *testing.T) {
	s := NewSlugger()
	assert.Equal(t, "example", s.Slug("Example"))
	assert.Equal(t, "example-1", s.Slug("Example"))
	assert.Equal(t, "example-2", s.Slug("example"))

	// A heading that literally reads "Example 3" must not be handed out twice.
	assert.Equal(t, "example-3", s.Slug("Example 3"))
	assert.Equal(t, "example-4", s.Slug("Example"))

	fresh := NewSlugger()
	assert.Equal(t, "example", fresh.Slug("Example"))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "foo-bar", Normalize(" Foo-Bar "))
}
