package trade

import "errors"

// Class groups trade errors by how callers should report them.
type Class int

const (
	// ClassUnknown covers infrastructure failures (store, network).
	ClassUnknown Class = iota
	// ClassUser is a precondition violation reported verbatim to the caller.
	ClassUser
	// ClassIntegrity aborts a settlement and cancels the negotiation.
	ClassIntegrity
)

// Error is a trade failure with a stable code and a user facing message.
type Error struct {
	Code    string
	Message string
	Class   Class
}

func (e *Error) Error() string {
	return e.Message
}

func userErr(code, msg string) *Error {
	return &Error{Code: code, Message: msg, Class: ClassUser}
}

func integrityErr(code, msg string) *Error {
	return &Error{Code: code, Message: msg, Class: ClassIntegrity}
}

var (
	ErrCardNotFound         = userErr("card_not_found", "card not found in your collection")
	ErrInsufficientFunds    = userErr("insufficient_funds", "you don't have enough of that resource")
	ErrOfferFull            = userErr("offer_full", "your side of the trade is full")
	ErrDuplicateInOffer     = userErr("duplicate_in_offer", "this card is already in the trade")
	ErrNotInOffer           = userErr("not_in_offer", "card not found in your trade items")
	ErrAlreadyClosed        = userErr("already_closed", "you've already closed your side of the trade")
	ErrNoActiveSession      = userErr("no_active_session", "you don't have an active trade session")
	ErrTradeNotActive       = userErr("trade_not_active", "this trade is not active")
	ErrSelfTrade            = userErr("self_trade", "you can't trade with yourself")
	ErrBotRecipient         = userErr("bot_recipient", "you can't trade or gift with a bot")
	ErrAlreadyTrading       = userErr("already_trading", "there's already an active trade involving one of you")
	ErrAlreadyInvited       = userErr("already_invited", "there's already a pending trade invitation between you and this user")
	ErrNoPendingInvite      = userErr("no_pending_invite", "you don't have any pending trade invitations")
	ErrInvalidAmount        = userErr("invalid_amount", "amount must be positive")
	ErrInvalidResource      = userErr("invalid_resource", "invalid resource type, use gold or shards")
	ErrSettlementInProgress = userErr("settlement_in_progress", "both sides are closed, the trade is being finalized")
	ErrSelfGift             = userErr("self_gift", "you can't gift items to yourself")
	ErrNothingOffered       = userErr("nothing_offered", "you must gift at least one item (card, gold, or shards)")
	ErrGiftNotFound         = userErr("gift_not_found", "this gift doesn't exist or has already been opened")
	ErrNotRecipient         = userErr("not_recipient", "this gift is not for you")
	ErrInvalidGiftNumber    = userErr("invalid_gift_number", "invalid gift number")

	ErrEmptyTrade           = integrityErr("empty_trade", "trade cannot be empty")
	ErrRevalidationFailed   = integrityErr("revalidation_failed", "offered items are no longer available")
	ErrSettlementIncomplete = integrityErr("settlement_incomplete", "settlement could not be fully persisted")
)

// ClassOf reports the class of err, looking through wrapped errors.
func ClassOf(err error) Class {
	var te *Error
	if errors.As(err, &te) {
		return te.Class
	}
	return ClassUnknown
}
