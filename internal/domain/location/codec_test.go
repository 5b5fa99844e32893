package location

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildCode(t *testing.T) {
	t.Run("joins five parts with the delimiter", func(t *testing.T) {
		code, err := BuildCode(Parts{Area: "A", Row: "01", Bay: "01", Level: "1", Position: "A"})

		require.NoError(t, err)
		assert.Equal(t, "A-01-01-1-A", code)
	})

	t.Run("fails when a part is empty", func(t *testing.T) {
		_, err := BuildCode(Parts{Area: "A", Row: "", Bay: "01", Level: "1", Position: "A"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "five location parts")
	})

	t.Run("fails when a part contains the delimiter", func(t *testing.T) {
		_, err := BuildCode(Parts{Area: "A-B", Row: "01", Bay: "01", Level: "1", Position: "A"})

		require.Error(t, err)
	})
}

func TestParseCode(t *testing.T) {
	t.Run("splits a canonical code into parts", func(t *testing.T) {
		parts, err := ParseCode("A-01-01-1-A")

		require.NoError(t, err)
		assert.Equal(t, Parts{Area: "A", Row: "01", Bay: "01", Level: "1", Position: "A"}, parts)
	})

	t.Run("fails with too few tokens", func(t *testing.T) {
		_, err := ParseCode("A-01-01-1")

		require.Error(t, err)
	})

	t.Run("fails with too many tokens", func(t *testing.T) {
		_, err := ParseCode("A-01-01-1-A-B")

		require.Error(t, err)
	})

	t.Run("fails with an empty token", func(t *testing.T) {
		_, err := ParseCode("A--01-1-A")

		require.Error(t, err)
	})
}

func TestCodeRoundTrip(t *testing.T) {
	cases := []Parts{
		{Area: "A", Row: "01", Bay: "01", Level: "1", Position: "A"},
		{Area: "RCV", Row: "12", Bay: "03", Level: "4", Position: "B2"},
		{Area: "z9", Row: "x", Bay: "y", Level: "0", Position: "q"},
	}

	for _, parts := range cases {
		code, err := BuildCode(parts)
		require.NoError(t, err)

		parsed, err := ParseCode(code)
		require.NoError(t, err)
		assert.Equal(t, parts, parsed)

		rebuilt, err := BuildCode(parsed)
		require.NoError(t, err)
		assert.Equal(t, code, rebuilt)
	}
}

func TestNewLocation(t *testing.T) {
	orgID := uuid.New()

	t.Run("derives the canonical code", func(t *testing.T) {
		loc, err := NewLocation(orgID, Parts{Area: "A", Row: "01", Bay: "01", Level: "1", Position: "A"}, "Aisle A", "blue")

		require.NoError(t, err)
		assert.Equal(t, "A-01-01-1-A", loc.Code)
		assert.Equal(t, orgID, loc.OrganizationID)
		assert.Equal(t, "Aisle A", loc.DisplayName)
	})

	t.Run("rejects invalid parts", func(t *testing.T) {
		loc, err := NewLocation(orgID, Parts{}, "", "")

		require.Error(t, err)
		assert.Nil(t, loc)
	})

	t.Run("rejects nil organization", func(t *testing.T) {
		_, err := NewLocation(uuid.Nil, Parts{Area: "A", Row: "1", Bay: "1", Level: "1", Position: "1"}, "", "")

		require.Error(t, err)
	})
}
