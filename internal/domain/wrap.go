package domain

// WrapType classifies a currency pair.
type WrapType int

const (
	WrapTypeNotApplicable WrapType = iota
	WrapTypeWrap
	WrapTypeUnwrap
)

// String returns the string representation of the wrap type
func (w WrapType) String() string {
	switch w {
	case WrapTypeNotApplicable:
		return "not_applicable"
	case WrapTypeWrap:
		return "wrap"
	case WrapTypeUnwrap:
		return "unwrap"
	default:
		return "unknown"
	}
}

// WrapInputError is the user-correctable validation state of a wrap input.
type WrapInputError int

const (
	// WrapInputNoError is an explicit variant, compare against it instead of relying on the zero value.
	WrapInputNoError WrapInputError = iota
	WrapInputEnterNativeAmount
	WrapInputEnterWrappedAmount
	WrapInputInsufficientNativeBalance
	WrapInputInsufficientWrappedBalance
)

// IsError reports whether the input blocks execution.
func (e WrapInputError) IsError() bool {
	return e != WrapInputNoError
}

func (e WrapInputError) String() string {
	switch e {
	case WrapInputNoError:
		return "no_error"
	case WrapInputEnterNativeAmount:
		return "enter_native_amount"
	case WrapInputEnterWrappedAmount:
		return "enter_wrapped_amount"
	case WrapInputInsufficientNativeBalance:
		return "insufficient_native_balance"
	case WrapInputInsufficientWrappedBalance:
		return "insufficient_wrapped_balance"
	default:
		return "unknown"
	}
}
