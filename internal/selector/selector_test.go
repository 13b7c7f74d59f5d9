package selector

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestSelect_RoundRobinCycle(t *testing.T) {
	s := New(t.TempDir(), nil)
	v := List("A", "B", "C")

	var got []string
	for i := 0; i < 4; i++ {
		pick, err := s.Select(v, "Paavo", "assign/assigned_to", true)
		require.NoError(t, err)
		got = append(got, pick)
	}
	assert.Equal(t, []string{"A", "B", "C", "A"}, got)
}

func TestSelect_KeysAndRobotsAreIndependent(t *testing.T) {
	s := New(t.TempDir(), nil)
	v := List("A", "B")

	first, _ := s.Select(v, "Paavo", "r1/f", true)
	other, _ := s.Select(v, "Paavo", "r2/f", true)
	robot, _ := s.Select(v, "Other", "r1/f", true)
	second, _ := s.Select(v, "Paavo", "r1/f", true)

	assert.Equal(t, "A", first)
	assert.Equal(t, "A", other)
	assert.Equal(t, "A", robot)
	assert.Equal(t, "B", second)
}

func TestSelect_CorruptStateStartsOver(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(StateFile(dir, "Paavo"), []byte("::: not yaml ["), 0o644))

	s := New(dir, nil)
	pick, err := s.Select(List("A", "B"), "Paavo", "k", true)
	require.NoError(t, err)
	assert.Equal(t, "A", pick)

	pick, err = s.Select(List("A", "B"), "Paavo", "k", true)
	require.NoError(t, err)
	assert.Equal(t, "B", pick)
}

func TestSelect_StaleIndexStaysInRange(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(StateFile(dir, "Paavo"), []byte("k: 7\n"), 0o644))

	s := New(dir, nil)
	pick, err := s.Select(List("A", "B", "C"), "Paavo", "k", true)
	require.NoError(t, err)
	assert.Equal(t, "C", pick)

	require.NoError(t, os.WriteFile(StateFile(dir, "Paavo"), []byte("k: -5\n"), 0o644))
	pick, err = s.Select(List("A", "B", "C"), "Paavo", "k", true)
	require.NoError(t, err)
	assert.Equal(t, "A", pick)
}

func TestSelect_ScalarAndRandom(t *testing.T) {
	s := New(t.TempDir(), nil)
	pick, err := s.Select(Scalar("fixed"), "Paavo", "k", true)
	require.NoError(t, err)
	assert.Equal(t, "fixed", pick)

	s.IntN = func(n int) int { return n - 1 }
	pick, err = s.Select(List("A", "B", "C"), "Paavo", "k", false)
	require.NoError(t, err)
	assert.Equal(t, "C", pick)

	_, err = s.Select(List(), "Paavo", "k", false)
	assert.Error(t, err)
}

func TestValue_UnmarshalYAML(t *testing.T) {
	var doc struct {
		A Value `yaml:"a"`
		B Value `yaml:"b"`
		C Value `yaml:"c"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("a: hello\nb: [x, 2, y]\nc: 5\n"), &doc))
	assert.Equal(t, Scalar("hello"), doc.A)
	assert.Equal(t, List("x", "2", "y"), doc.B)
	assert.Equal(t, "5", doc.C.Scalar)
	assert.False(t, doc.C.IsList())
}

func TestPeek_DoesNotAdvance(t *testing.T) {
	s := New(t.TempDir(), nil)
	v := List("A", "B", "C")

	for i := 0; i < 3; i++ {
		pick, err := s.Peek(v, "Paavo", "k", true)
		require.NoError(t, err)
		assert.Equal(t, "A", pick)
	}
	pick, err := s.Select(v, "Paavo", "k", true)
	require.NoError(t, err)
	assert.Equal(t, "A", pick)
	pick, err = s.Peek(v, "Paavo", "k", true)
	require.NoError(t, err)
	assert.Equal(t, "B", pick)
}
