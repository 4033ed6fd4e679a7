package wrap

import (
	"github.com/vadiminshakov/wrapsim/internal/domain"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	msgEnterAmount         = "Enter %s amount"
	msgInsufficientBalance = "Insufficient %s balance"
)

func init() {
	translations := map[language.Tag][2]string{
		language.German:  {"%s-Betrag eingeben", "Unzureichendes %s-Guthaben"},
		language.Spanish: {"Introduce la cantidad de %s", "Saldo de %s insuficiente"},
		language.French:  {"Saisissez un montant en %s", "Solde %s insuffisant"},
	}
	for tag, msgs := range translations {
		if err := message.SetString(tag, msgEnterAmount, msgs[0]); err != nil {
			panic(err)
		}
		if err := message.SetString(tag, msgInsufficientBalance, msgs[1]); err != nil {
			panic(err)
		}
	}
}

// ErrorText renders the input error for the chain's native and wrapped symbols.
// It returns an empty string for WrapInputNoError.
func ErrorText(inputErr domain.WrapInputError, chainID int64, lang language.Tag) string {
	var nativeSymbol, wrappedSymbol string
	if native, ok := domain.NativeCurrency(chainID); ok {
		nativeSymbol = native.Symbol
	}
	if wrapped, ok := domain.WrappedNative(chainID); ok {
		wrappedSymbol = wrapped.Symbol
	}

	p := message.NewPrinter(lang)
	switch inputErr {
	case domain.WrapInputEnterNativeAmount:
		return p.Sprintf(msgEnterAmount, nativeSymbol)
	case domain.WrapInputEnterWrappedAmount:
		return p.Sprintf(msgEnterAmount, wrappedSymbol)
	case domain.WrapInputInsufficientNativeBalance:
		return p.Sprintf(msgInsufficientBalance, nativeSymbol)
	case domain.WrapInputInsufficientWrappedBalance:
		return p.Sprintf(msgInsufficientBalance, wrappedSymbol)
	default:
		return ""
	}
}
