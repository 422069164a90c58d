package frontmatter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplit_NoFrontmatter_ReturnsBodyOnly(t *testing.T) {
	input := []byte("# Title\n\nHello\n")

	fm, body, had, err := Split(input)
	require.NoError(t, err)
	require.False(t, had)
	require.Empty(t, fm)
	require.Equal(t, input, body)
}

func TestSplit_YAMLFrontmatter_SplitsFrontmatterAndBody(t *testing.T) {
	input := []byte("---\nkey: value\n---\n# Title\n")

	fm, body, had, err := Split(input)
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("key: value\n"), fm)
	require.Equal(t, []byte("# Title\n"), body)
}

func TestSplit_MissingClosingDelimiter_ReturnsError(t *testing.T) {
	input := []byte("---\nkey: value\n# Title\n")

	_, _, had, err := Split(input)
	require.Error(t, err)
	require.False(t, had)
	require.True(t, errors.Is(err, ErrMissingClosingDelimiter))
}

func TestSplit_CRLF_SplitsFrontmatterAndBody(t *testing.T) {
	input := []byte("---\r\nkey: value\r\n---\r\n# Title\r\n")

	fm, body, had, err := Split(input)
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("key: value\r\n"), fm)
	require.Equal(t, []byte("# Title\r\n"), body)
}

func TestSplit_EmptyFrontmatterBlock_SplitsAsHadWithEmptyFrontmatter(t *testing.T) {
	input := []byte("---\n---\n# Title\n")

	fm, body, had, err := Split(input)
	require.NoError(t, err)
	require.True(t, had)
	require.Empty(t, fm)
	require.Equal(t, []byte("# Title\n"), body)
}

func TestSplit_ClosingDelimiterAtEOF_YieldsEmptyBody(t *testing.T) {
	input := []byte("---\ntitle: Hello\n---")

	fm, body, had, err := Split(input)
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("title: Hello\n"), fm)
	require.Empty(t, body)
}

func TestSplit_DelimiterNotAtTop_TreatedAsBody(t *testing.T) {
	input := []byte("# Title\n---\nkey: value\n---\n")

	fm, body, had, err := Split(input)
	require.NoError(t, err)
	require.False(t, had)
	require.Empty(t, fm)
	require.Equal(t, input, body)
}

func TestParseYAML_ValidYAML_ReturnsMap(t *testing.T) {
	fm := []byte("title: Hello\ntags:\n  - one\n")

	fields, err := ParseYAML(fm)
	require.NoError(t, err)
	require.Equal(t, "Hello", fields["title"])
	require.Equal(t, []any{"one"}, fields["tags"])
}

func TestParseYAML_Empty_ReturnsEmptyMap(t *testing.T) {
	fields, err := ParseYAML(nil)
	require.NoError(t, err)
	require.Empty(t, fields)
}

func TestParseYAML_InvalidYAML_ReturnsError(t *testing.T) {
	_, err := ParseYAML([]byte(": not yaml"))
	require.Error(t, err)
}

func TestParse_CombinesSplitAndParseYAML(t *testing.T) {
	input := []byte("---\ntitle: Hello\ndraft: true\n---\nBody text.\n")

	fields, body, err := Parse(input)
	require.NoError(t, err)
	require.Equal(t, "Hello", fields["title"])
	require.Equal(t, true, fields["draft"])
	require.Equal(t, []byte("Body text.\n"), body)
}

func TestParse_NoBlock_ReturnsEmptyFieldsAndFullBody(t *testing.T) {
	input := []byte("Body only.\n")

	fields, body, err := Parse(input)
	require.NoError(t, err)
	require.Empty(t, fields)
	require.Equal(t, input, body)
}

func TestParse_UnclosedBlock_PropagatesDelimiterError(t *testing.T) {
	_, _, err := Parse([]byte("---\ntitle: Hello\nBody without close\n"))
	require.ErrorIs(t, err, ErrMissingClosingDelimiter)
}

func TestParse_NonMappingBlock_ReturnsError(t *testing.T) {
	_, _, err := Parse([]byte("---\n- just\n- a list\n---\nBody\n"))
	require.Error(t, err)
}
