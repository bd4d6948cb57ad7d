package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionHoldsOneIdentity(t *testing.T) {
	sess := NewSession()
	_, ok := sess.CurrentUser()
	assert.False(t, ok)

	sess.Start(User{ID: "u1", FullName: "Ahmed Ali"})
	sess.Start(User{ID: "u2", FullName: "Sara Omar"})

	current, ok := sess.CurrentUser()
	assert.True(t, ok)
	assert.Equal(t, "u2", current.ID)
	assert.True(t, sess.Holds("u2"))
	assert.False(t, sess.Holds("u1"))

	sess.Clear()
	sess.Clear()
	_, ok = sess.CurrentUser()
	assert.False(t, ok)

	var nilSession *Session
	nilSession.Clear()
	assert.False(t, nilSession.Holds("u1"))
}
