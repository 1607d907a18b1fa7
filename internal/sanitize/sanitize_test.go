package sanitize_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/victornm/quizforge/internal/sanitize"
)

func TestText(t *testing.T) {
	tests := map[string]struct {
		in   string
		want string
	}{
		"plain text passes through": {
			in:   "What is the capital of France?",
			want: "What is the capital of France?",
		},

		"html is escaped": {
			in:   `<b>bold</b> & "quoted"`,
			want: "&lt;b&gt;bold&lt;/b&gt; &amp; &#34;quoted&#34;",
		},

		"script block is stripped before escaping": {
			in:   `before<script>alert("x")</script>after`,
			want: "beforeafter",
		},

		"script tag with attributes is stripped": {
			in:   `a<script type="text/javascript" src="evil.js"></script>b`,
			want: "ab",
		},

		"dangling script tag is stripped": {
			in:   "a<script>b",
			want: "ab",
		},

		"case insensitive": {
			in:   "a<SCRIPT>x</SCRIPT>b",
			want: "ab",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitize.Text(tt.in))
		})
	}
}

func TestText_CapsLength(t *testing.T) {
	long := strings.Repeat("a", sanitize.MaxFieldLen+500)
	got := sanitize.Text(long)
	assert.Len(t, got, sanitize.MaxFieldLen)
}

func TestTextN(t *testing.T) {
	assert.Equal(t, "abc", sanitize.TextN("abcdef", 3))
	assert.Equal(t, "abc", sanitize.TextN("abc", 100))
}
