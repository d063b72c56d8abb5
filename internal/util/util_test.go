package util_test

import (
	"testing"

	"qris-pay-bot/internal/util"

	"github.com/stretchr/testify/assert"
)

func TestFormatRupiah(t *testing.T) {
	cases := map[int64]string{
		0:         "0",
		999:       "999",
		1000:      "1.000",
		10000:     "10.000",
		100000:    "100.000",
		1500000:   "1.500.000",
		-25000:    "-25.000",
		123456789: "123.456.789",
	}
	for in, want := range cases {
		assert.Equal(t, want, util.FormatRupiah(in))
	}
}
