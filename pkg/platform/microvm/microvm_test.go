package microvm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewFailsWithoutKVMOrPepita(t *testing.T) {
	// This sandbox has neither /dev/kvm nor a pepita binary on PATH, so
	// construction must fail fast with an actionable diagnostic rather
	// than succeed and fail later inside Spawn.
	if _, err := New(); err == nil {
		t.Skip("host provides /dev/kvm and pepita; preflight success is also valid")
	}
}

func TestItoa(t *testing.T) {
	cases := []struct {
		n    uint32
		want string
	}{
		{0, "0"}, {3, "3"}, {42, "42"}, {1000, "1000"},
	}
	for _, c := range cases {
		t.Run(c.want, func(t *testing.T) {
			assert.Equal(t, c.want, itoa(c.n))
		})
	}
}
