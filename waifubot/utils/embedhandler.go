package utils

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/ellavondegurechaff/waifubot/waifubot/config"
	"github.com/ellavondegurechaff/waifubot/waifubot/trade"
)

// ResponseHandler provides standardized response methods for commands
type ResponseHandler struct{}

var EH = &ResponseHandler{}

// ErrorType represents different categories of errors for consistent handling
type ErrorType int

const (
	// UserError - User input issues, validation failures, parameter problems
	UserError ErrorType = iota
	// SystemError - Database failures, network issues, internal server errors
	SystemError
	// NotFoundError - Requested resources don't exist
	NotFoundError
	// BusinessLogicError - Trade rule violations, settlement failures
	BusinessLogicError
)

func getErrorPrefix(errorType ErrorType) string {
	switch errorType {
	case UserError:
		return "⚠️"
	case SystemError:
		return "🔧"
	case NotFoundError:
		return "🔍"
	case BusinessLogicError:
		return "❌"
	}
	return "❌"
}

func getErrorColor(errorType ErrorType) int {
	switch errorType {
	case UserError, BusinessLogicError:
		return config.WarningColor
	case NotFoundError:
		return config.InfoColor
	}
	return config.ErrorColor
}

// CreateErrorEmbed creates a standard ephemeral error embed
func (h *ResponseHandler) CreateErrorEmbed(event *handler.CommandEvent, message string) error {
	return h.CreateClassifiedError(event, SystemError, message)
}

// CreateSuccessEmbed creates a standard success embed
func (h *ResponseHandler) CreateSuccessEmbed(event *handler.CommandEvent, message string) error {
	return event.CreateMessage(discord.MessageCreate{
		Embeds: []discord.Embed{{
			Description: "✅ " + message,
			Color:       config.SuccessColor,
		}},
	})
}

// CreateInfoEmbed creates an ephemeral info embed
func (h *ResponseHandler) CreateInfoEmbed(event *handler.CommandEvent, message string) error {
	return event.CreateMessage(discord.MessageCreate{
		Embeds: []discord.Embed{{
			Description: message,
			Color:       config.InfoColor,
		}},
		Flags: discord.MessageFlagEphemeral,
	})
}

// CreateClassifiedError creates an ephemeral error response for the given category
func (h *ResponseHandler) CreateClassifiedError(event *handler.CommandEvent, errorType ErrorType, message string) error {
	return event.CreateMessage(discord.MessageCreate{
		Embeds: []discord.Embed{{
			Description: getErrorPrefix(errorType) + " " + message,
			Color:       getErrorColor(errorType),
		}},
		Flags: discord.MessageFlagEphemeral,
	})
}

// HandleTradeError answers a failed trade or gift command. Infrastructure
// failures are logged and hidden from the user.
func (h *ResponseHandler) HandleTradeError(event *handler.CommandEvent, err error) error {
	errorType, message := ClassifyTradeError(err)
	if errorType == SystemError {
		slog.Error("Trade command failed",
			slog.String("type", "trade"),
			slog.String("user_id", event.User().ID.String()),
			slog.Any("error", err))
	}
	return h.CreateClassifiedError(event, errorType, message)
}

// ClassifyTradeError maps a trade error to a response category and text.
func ClassifyTradeError(err error) (ErrorType, string) {
	switch trade.ClassOf(err) {
	case trade.ClassUser:
		if errors.Is(err, trade.ErrNoActiveSession) || errors.Is(err, trade.ErrNoPendingInvite) ||
			errors.Is(err, trade.ErrGiftNotFound) || errors.Is(err, trade.ErrCardNotFound) ||
			errors.Is(err, trade.ErrNotInOffer) {
			return NotFoundError, capitalize(err.Error())
		}
		return UserError, capitalize(err.Error())
	case trade.ClassIntegrity:
		return BusinessLogicError, fmt.Sprintf("Trade failed: %s. The trade has been cancelled.", err.Error())
	}
	return SystemError, "Something went wrong, please try again later."
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
