package constants

import "time"

const (
	BlacklistKeyPrefix    = "identity_link:blacklist"
	ExchangeRateKeyPrefix = "identity_link:rl:exchange"
	ResetRateKeyPrefix    = "identity_link:rl:reset"
	AutoLinkLockKey       = "identity_link:lock:autolink"

	AutoLinkLockTTL = 30 * time.Minute
)
