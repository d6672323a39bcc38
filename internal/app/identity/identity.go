package identity

import "tradepost/internal/domain/user"

// Principal is the verified identity supplied by the authentication
// layer. It is passed explicitly into every privileged operation instead
// of being smuggled through a mutable request object, and is trusted
// without re-validation.
type Principal struct {
	ID        user.ID
	Name      string
	Email     string
	AvatarURL string
}

func (p Principal) Valid() bool {
	return p.ID != ""
}
