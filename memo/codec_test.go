package memo

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestEncodeRegister_TrimsAlias(t *testing.T) {
	got, err := EncodeRegister("  demo01 \t")
	require.NoError(t, err)
	require.Equal(t, "alias:demo01", got)
}

func TestEncodeRegister_RejectsEmpty(t *testing.T) {
	for _, in := range []string{"", "   ", "\n\t"} {
		_, err := EncodeRegister(in)
		require.ErrorIs(t, err, ErrInvalidInput, "input %q", in)
	}
}

func TestEncodeConfirm_KeepsWhitespace(t *testing.T) {
	got, err := EncodeConfirm(" demo01", "demo02 ")
	require.NoError(t, err)
	require.Equal(t, "confirm: demo01->demo02 ", got)
}

func TestEncodeConfirm_RejectsMissingSide(t *testing.T) {
	_, err := EncodeConfirm("x", "")
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = EncodeConfirm("", "y")
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestDecode_NotRecognized(t *testing.T) {
	for _, in := range []string{
		"",
		"hello",
		"Alias:demo",
		"alias:",
		"alias:   ",
		"alias:\t",
		"confirm:",
		"confirm:demo01",
		"confirm:->demo02",
		"confirm:demo01->",
		" alias:demo",
	} {
		_, ok := Decode(in)
		require.False(t, ok, "input %q", in)
	}
}

func TestDecode_SplitsAtFirstSeparator(t *testing.T) {
	op, ok := Decode("confirm:a->b->c")
	require.True(t, ok)
	require.Equal(t, Confirm("a", "b->c"), op)
}

func TestOperationEncode(t *testing.T) {
	got, err := Register("demo01").Encode()
	require.NoError(t, err)
	require.Equal(t, "alias:demo01", got)

	got, err = Confirm("demo01", "demo02").Encode()
	require.NoError(t, err)
	require.Equal(t, "confirm:demo01->demo02", got)

	_, err = Operation{}.Encode()
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestHasSeparator(t *testing.T) {
	require.True(t, HasSeparator("a->b"))
	require.False(t, HasSeparator("a-b>"))
}

func TestRegisterRoundTrip(t *testing.T) {
	rapid.Check(t, func(r *rapid.T) {
		alias := rapid.String().Draw(r, "alias")
		if strings.TrimSpace(alias) == "" {
			r.Skip("blank alias")
		}

		encoded, err := EncodeRegister(alias)
		require.NoError(r, err)

		op, ok := Decode(encoded)
		require.True(r, ok)
		require.Equal(r, Register(strings.TrimSpace(alias)), op)
	})
}

func TestConfirmRoundTrip(t *testing.T) {
	rapid.Check(t, func(r *rapid.T) {
		from := rapid.StringMatching(`[a-zA-Z0-9_ .-]{1,24}`).Draw(r, "from")
		to := rapid.StringMatching(`[a-zA-Z0-9_ .>-]{1,24}`).Draw(r, "to")
		if HasSeparator(from) || HasSeparator(to) {
			r.Skip("separator in alias")
		}

		encoded, err := EncodeConfirm(from, to)
		require.NoError(r, err)

		op, ok := Decode(encoded)
		require.True(r, ok)
		require.Equal(r, Confirm(from, to), op)
	})
}

func TestDecode_NeverPanics(t *testing.T) {
	rapid.Check(t, func(r *rapid.T) {
		raw := rapid.String().Draw(r, "memo")
		op, ok := Decode(raw)
		if !ok {
			require.Equal(r, Operation{}, op)
			return
		}
		require.True(r, strings.HasPrefix(raw, RegisterPrefix) || strings.HasPrefix(raw, ConfirmPrefix))
	})
}
