package ethunit_test

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heart2help/fundclient/pkg/ethunit"
)

func TestDecodeName(t *testing.T) {
	t.Parallel()

	t.Run("it passes a textual value through unchanged", func(t *testing.T) {
		t.Parallel()

		name, err := ethunit.DecodeName("Relief Fund")

		require.NoError(t, err)
		assert.Equal(t, "Relief Fund", name)
	})

	t.Run("it strips zero padding from a 32-byte buffer", func(t *testing.T) {
		t.Parallel()

		name, err := ethunit.DecodeName(paddedName("Relief Fund"))

		require.NoError(t, err)
		assert.Equal(t, "Relief Fund", name)
	})

	t.Run("it accepts a 32-byte slice", func(t *testing.T) {
		t.Parallel()

		buf := paddedName("Water Wells")
		name, err := ethunit.DecodeName(buf[:])

		require.NoError(t, err)
		assert.Equal(t, "Water Wells", name)
	})

	t.Run("when the byte layout is malformed", func(t *testing.T) {
		t.Parallel()

		testCases := []struct {
			name string
			raw  any
		}{
			{name: "wrong width", raw: []byte("short")},
			{name: "interior NUL", raw: interiorNUL()},
			{name: "invalid UTF-8", raw: invalidUTF8()},
			{name: "unsupported representation", raw: 42},
		}

		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				t.Parallel()

				_, err := ethunit.DecodeName(tc.raw)

				assert.ErrorIs(t, err, ethunit.ErrBadName)
			})
		}
	})
}

func TestDisplayAmount(t *testing.T) {
	t.Parallel()

	t.Run("it renders wei as decimal ether", func(t *testing.T) {
		t.Parallel()

		testCases := []struct {
			name string
			wei  *big.Int
			want string
		}{
			{name: "whole ether", wei: eth("1"), want: "1.0"},
			{name: "fractional", wei: eth("2.5"), want: "2.5"},
			{name: "zero", wei: big.NewInt(0), want: "0.0"},
			{name: "one wei", wei: big.NewInt(1), want: "0.000000000000000001"},
			{name: "sub-ether", wei: eth("0.005"), want: "0.005"},
		}

		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				t.Parallel()

				got, err := ethunit.DisplayAmount(tc.wei)

				require.NoError(t, err)
				assert.Equal(t, tc.want, got)
			})
		}
	})

	t.Run("it fails on a missing value", func(t *testing.T) {
		t.Parallel()

		_, err := ethunit.DisplayAmount(nil)

		assert.ErrorIs(t, err, ethunit.ErrMissingValue)
	})

	t.Run("it falls back instead of failing in the defensive form", func(t *testing.T) {
		t.Parallel()

		got, reason := ethunit.DisplayAmountOr(nil, "0.0")

		assert.Equal(t, "0.0", got, "Fallback must render, never a crash")
		assert.ErrorIs(t, reason, ethunit.ErrMissingValue, "Reason travels with the fallback")

		got, reason = ethunit.DisplayAmountOr(big.NewInt(-1), "0.0")

		assert.Equal(t, "0.0", got)
		assert.ErrorIs(t, reason, ethunit.ErrInvalidAmount)
	})
}

func TestParseAmount(t *testing.T) {
	t.Parallel()

	t.Run("it parses decimal ether into wei", func(t *testing.T) {
		t.Parallel()

		testCases := []struct {
			input string
			want  *big.Int
		}{
			{input: "2.5", want: eth("2.5")},
			{input: "1", want: eth("1")},
			{input: ".5", want: eth("0.5")},
			{input: "0.000000000000000001", want: big.NewInt(1)},
			{input: " 3 ", want: eth("3")},
		}

		for _, tc := range testCases {
			t.Run(tc.input, func(t *testing.T) {
				t.Parallel()

				got, err := ethunit.ParseAmount(tc.input)

				require.NoError(t, err)
				assert.Zero(t, tc.want.Cmp(got), "want %s, got %s", tc.want, got)
			})
		}
	})

	t.Run("it rejects anything that is not a positive finite decimal", func(t *testing.T) {
		t.Parallel()

		inputs := []string{"", "0", "0.0", "-1", "abc", "1.2.3", "1e18", "0.0000000000000000001", "+2"}

		for _, input := range inputs {
			t.Run("input "+input, func(t *testing.T) {
				t.Parallel()

				_, err := ethunit.ParseAmount(input)

				assert.ErrorIs(t, err, ethunit.ErrInvalidAmount)
			})
		}
	})

	t.Run("it round-trips display amounts back to the same wei", func(t *testing.T) {
		t.Parallel()

		samples := []*big.Int{
			big.NewInt(1),
			eth("0.005"),
			eth("1"),
			eth("2.5"),
			eth("123456.789"),
		}

		for _, wei := range samples {
			display, err := ethunit.DisplayAmount(wei)
			require.NoError(t, err)

			back, err := ethunit.ParseAmount(display)
			require.NoError(t, err)
			assert.Zero(t, wei.Cmp(back), "%s did not round-trip (got %s)", wei, back)
		}
	})
}

func TestDeadlineTime(t *testing.T) {
	t.Parallel()

	t.Run("it converts epoch seconds", func(t *testing.T) {
		t.Parallel()

		deadline, err := ethunit.DeadlineTime(big.NewInt(1756300800))

		require.NoError(t, err)
		assert.Equal(t, time.Unix(1756300800, 0), deadline)
	})

	t.Run("it rejects missing and out-of-range values", func(t *testing.T) {
		t.Parallel()

		_, err := ethunit.DeadlineTime(nil)
		assert.ErrorIs(t, err, ethunit.ErrMissingValue)

		_, err = ethunit.DeadlineTime(big.NewInt(-1))
		assert.ErrorIs(t, err, ethunit.ErrBadDeadline)

		huge := new(big.Int).Lsh(big.NewInt(1), 80)
		_, err = ethunit.DeadlineTime(huge)
		assert.ErrorIs(t, err, ethunit.ErrBadDeadline)
	})
}

func TestShortAddress(t *testing.T) {
	t.Parallel()

	addr := common.HexToAddress("0x71C7656EC7ab88b098defB751B7401B5f6d8976F")

	assert.Equal(t, "0x71C7...976F", ethunit.ShortAddress(addr))
}

// Test helpers
// ------------

func eth(display string) *big.Int {
	wei, err := ethunit.ParseAmount(display)
	if err != nil {
		panic(err)
	}
	return wei
}

func paddedName(name string) [32]byte {
	var buf [32]byte
	copy(buf[:], name)
	return buf
}

func interiorNUL() [32]byte {
	var buf [32]byte
	copy(buf[:], "bad\x00name")
	return buf
}

func invalidUTF8() [32]byte {
	var buf [32]byte
	copy(buf[:], []byte{0xff, 0xfe, 'x'})
	return buf
}
