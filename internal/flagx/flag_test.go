package flagx

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs_KeepsAllowedFlagWithSeparateValue(t *testing.T) {
	args := []string{"-d", "postgres://localhost/app", "-z", "nope"}
	got := FilterArgs(args, []string{"-d"})
	assert.Equal(t, []string{"-d", "postgres://localhost/app"}, got)
}

func TestFilterArgs_KeepsEqualsForm(t *testing.T) {
	args := []string{"--config=conf.json", "-x=1"}
	got := FilterArgs(args, []string{"--config"})
	assert.Equal(t, []string{"--config=conf.json"}, got)
}

func TestFilterArgs_FlagWithoutValue(t *testing.T) {
	args := []string{"-v", "-d", "dsn"}
	got := FilterArgs(args, []string{"-v"})
	assert.Equal(t, []string{"-v"}, got)
}

func TestFilterArgs_EmptyInput(t *testing.T) {
	got := FilterArgs(nil, []string{"-d"})
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestJSONConfigFlags_ReadsShortAndLongForms(t *testing.T) {
	origArgs := os.Args
	defer func() { os.Args = origArgs }()

	os.Args = []string{"app", "-c", "conf.json"}
	assert.Equal(t, "conf.json", JSONConfigFlags())

	os.Args = []string{"app", "-config=other.json"}
	assert.Equal(t, "other.json", JSONConfigFlags())

	os.Args = []string{"app"}
	assert.Equal(t, "", JSONConfigFlags())
}
