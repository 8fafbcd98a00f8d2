package config

import "time"

// UI and Display Constants
const (
	// Pagination
	GiftsPerPage      = 5
	OfferCardsPerPage = 10

	// Colors
	ErrorColor   = 0xFF0000
	SuccessColor = 0x00FF00
	InfoColor    = 0x0099FF
	WarningColor = 0xFFAA00

	EmbedDefaultColor = 0x2B2D31

	// Trade status colors
	TradePendingColor   = 0xFFD700
	TradeActiveColor    = 0x3498DB
	TradeCompletedColor = 0x2ECC71
	TradeCancelledColor = 0xE74C3C
	TradeRejectedColor  = 0x992D22
	GiftColor           = 0xE91E63
)

// Timeouts
const (
	DefaultQueryTimeout     = 30 * time.Second
	CommandExecutionTimeout = 10 * time.Second
	SlowCommandThreshold    = 2 * time.Second
	NetworkDialTimeout      = 5 * time.Second
	ShutdownTimeout         = 10 * time.Second
	PresenceTimeout         = 5 * time.Second
	AutocompleteTimeout     = 2 * time.Second
)

// Cache settings
const (
	DMChannelCacheSize = 1024
	AutocompleteLimit  = 25
)
