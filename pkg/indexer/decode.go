package indexer

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	apperrors "github.com/chainsafe/bridge-analytics/pkg/app/errors"
)

// ErrMissingField is wrapped by DecodeFailure when a field is absent or null.
var ErrMissingField = errors.New("field missing or null")

// String returns field as a string. Numbers keep their exact textual form;
// absent or null fields yield "".
func (r Record) String(field string) string {
	switch v := r[field].(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// Bool returns field as a bool; anything but a JSON true is false.
func (r Record) Bool(field string) bool {
	v, ok := r[field].(bool)
	return ok && v
}

// Decimal coerces field to an arbitrary-precision number. Hasura serialises
// numeric(78,0) columns either as JSON numbers or as strings; both are accepted.
func (r Record) Decimal(field string) (decimal.Decimal, error) {
	var (
		d   decimal.Decimal
		err error
	)
	switch v := r[field].(type) {
	case nil:
		return decimal.Zero, apperrors.DecodeFailure(ErrMissingField, field)
	case json.Number:
		d, err = decimal.NewFromString(v.String())
	case string:
		d, err = decimal.NewFromString(v)
	case float64:
		d = decimal.NewFromFloat(v)
	default:
		err = fmt.Errorf("unsupported type %T", v)
	}
	if err != nil {
		return decimal.Zero, apperrors.DecodeFailure(err, field)
	}
	return d, nil
}

// Int coerces field to an integer. Non-integral values are a decode failure.
func (r Record) Int(field string) (int64, error) {
	d, err := r.Decimal(field)
	if err != nil {
		return 0, err
	}
	if !d.IsInteger() {
		return 0, apperrors.DecodeFailure(fmt.Errorf("%s is not an integer", d.String()), field)
	}
	return d.IntPart(), nil
}

// Amount coerces an on-chain token amount: a non-negative integer of any size.
func (r Record) Amount(field string) (decimal.Decimal, error) {
	d, err := r.Decimal(field)
	if err != nil {
		return decimal.Zero, err
	}
	if !d.IsInteger() {
		return decimal.Zero, apperrors.DecodeFailure(fmt.Errorf("%s is not an integer", d.String()), field)
	}
	if d.IsNegative() {
		return decimal.Zero, apperrors.DecodeFailure(fmt.Errorf("%s is negative", d.String()), field)
	}
	return d, nil
}

// NullAmount is Amount with the failure folded into Valid=false.
func (r Record) NullAmount(field string) decimal.NullDecimal {
	d, err := r.Amount(field)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

// NormalizeAddress returns the EIP-55 checksum form of a hex EVM address and
// leaves anything else (non-EVM identifiers, bytes32 values) untouched.
func NormalizeAddress(s string) string {
	if common.IsHexAddress(s) {
		return common.HexToAddress(s).Hex()
	}
	return s
}
