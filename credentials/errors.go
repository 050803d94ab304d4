package credentials

import "github.com/MrEthical07/reelauth"

// ErrDuplicateIdentifier is returned by Create when the identifier is taken.
// It is [reelauth.ErrAccountExists], so Engine.Register reports it unchanged.
var ErrDuplicateIdentifier = reelauth.ErrAccountExists
