package core

import (
	"crypto/rand"
)

// Invite codes exclude look-alike characters (0/O, 1/l/I) so they survive
// being read out loud. 52^8 possible codes keeps the collision retry loop
// in InvitesService.AllocateCode terminating in practice.
const (
	inviteCodeAlphabet = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ2345"
	inviteCodeLength   = 8
)

// NewInviteCode generates a random short invite code. Uniqueness is not
// guaranteed here; callers must check the store for collisions.
func NewInviteCode() string {
	buf := make([]byte, inviteCodeLength)
	if _, err := rand.Read(buf); err != nil {
		panic("invite code entropy source failed: " + err.Error())
	}

	for i, b := range buf {
		buf[i] = inviteCodeAlphabet[int(b)%len(inviteCodeAlphabet)]
	}
	return string(buf)
}
