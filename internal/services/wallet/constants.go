package wallet

import "time"

// Default configuration values
const (
	DefaultCurrency = "NGN"
	DefaultTimeout  = 30 * time.Second
)
