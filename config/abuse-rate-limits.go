package config

import "api/services/abuselimiter"

// Abuse limiter policies per sensitive action. Each one nests the burst
// window inside the long window: rapid-fire abuse earns a short block,
// sustained abuse a long one.
var (
	// ForgotPasswordRateLimit: 3 requests within 6 minutes earns a 1 hour
	// block; 5 within 15 minutes earns a 24 hour block.
	ForgotPasswordRateLimit = abuselimiter.Config{
		TempBlockAttempts: 3,
		TempBlockRange:    360,
		TempBlockDuration: 3600,
		BlockRetryLimit:   5,
		BlockRange:        900,
		BlockDuration:     86400,
	}

	// LoginRateLimit tolerates more attempts than the reset flow since
	// typos are common, but still locks out sustained guessing for a day.
	LoginRateLimit = abuselimiter.Config{
		TempBlockAttempts: 5,
		TempBlockRange:    300,
		TempBlockDuration: 900,
		BlockRetryLimit:   15,
		BlockRange:        3600,
		BlockDuration:     86400,
	}

	// NewsletterSubscribeRateLimit keeps signup bots from hammering the
	// confirmation mailer.
	NewsletterSubscribeRateLimit = abuselimiter.Config{
		TempBlockAttempts: 3,
		TempBlockRange:    600,
		TempBlockDuration: 1800,
		BlockRetryLimit:   6,
		BlockRange:        3600,
		BlockDuration:     43200,
	}

	// SupportRequestRateLimit throttles the contact form mailer.
	SupportRequestRateLimit = abuselimiter.Config{
		TempBlockAttempts: 5,
		TempBlockRange:    600,
		TempBlockDuration: 1800,
		BlockRetryLimit:   10,
		BlockRange:        3600,
		BlockDuration:     43200,
	}
)
