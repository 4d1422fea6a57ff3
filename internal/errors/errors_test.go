package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapKeepsKind(t *testing.T) {
	err := Wrap(NewDuplicateTypeName("Role", "a.yaml#/", "b.yaml#/keys/role"), "converting b.yaml")

	assert.True(t, Is(err, ErrDuplicateTypeName))
	assert.False(t, Is(err, ErrUnresolvedTypeReference))

	var dup *DuplicateTypeNameError
	require.True(t, As(err, &dup))
	assert.Equal(t, "Role", dup.Name)
	assert.Equal(t, "a.yaml#/", dup.First)
	assert.Equal(t, "b.yaml#/keys/role", dup.Second)
	assert.Contains(t, err.Error(), "converting b.yaml")
}

func TestHintsAttached(t *testing.T) {
	err := NewConflictingOptionality("user.yaml#/keys/name", "required field allows undefined")

	assert.True(t, Is(err, ErrConflictingOptionality))
	hints := GetAllHints(err)
	require.Len(t, hints, 1)
	assert.Contains(t, hints[0], "required")
}

func TestUnresolvedMessage(t *testing.T) {
	tests := []struct {
		name      string
		locations []string
		want      string
	}{
		{"single", []string{"a.yaml#/keys/x"}, `unresolved type reference: "Item" referenced from a.yaml#/keys/x`},
		{"several", []string{"a.yaml#/", "b.yaml#/"}, `unresolved type reference: "Item" referenced from a.yaml#/, b.yaml#/`},
		{"none", nil, `unresolved type reference: "Item" referenced from unknown location`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := &UnresolvedTypeReferenceError{Name: "Item", Locations: tt.locations}
			assert.Equal(t, tt.want, err.Error())
		})
	}
}

func TestAmbiguousArrayShape(t *testing.T) {
	var err error = &AmbiguousArrayShapeError{Location: "list.yaml#/"}
	assert.True(t, Is(fmt.Errorf("wrapped: %w", err), ErrAmbiguousArrayShape))
	assert.Contains(t, err.Error(), "list.yaml#/")
}
