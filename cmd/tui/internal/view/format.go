package view

import (
	"context"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/heshbon/internal/transaction"
)

const storeTimeout = 5 * time.Second

var (
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	faintStyle   = lipgloss.NewStyle().Faint(true)
)

// FormatAmount formats an amount stored as cents into a human-readable string.
func FormatAmount(cents int64) string {
	return transaction.FormatCents(cents)
}

// FormatSigned formats a transaction amount with its direction as the sign.
func FormatSigned(t transaction.Transaction) string {
	return FormatAmount(transaction.SignedAmount(t))
}

// StoreCtx returns a context with a standard timeout for rule store operations.
func StoreCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), storeTimeout)
}

func activeStyle(s string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Render(s)
}
