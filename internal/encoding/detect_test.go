package encoding_test

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/MrJamesThe3rd/heshbon/internal/encoding"
)

func TestNewUTF8Reader_UTF8Passthrough(t *testing.T) {
	input := "תאריך,תיאור הפעולה,חובה,זכות\n06/03/24,ישראכרט,\"2,300.00\",\n"
	r, err := encoding.NewUTF8Reader(bytes.NewReader([]byte(input)))
	require.NoError(t, err)

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, input, string(got))
}

func TestNewUTF8Reader_UTF8LongerThanPeekWindow(t *testing.T) {
	// Hebrew letters are two bytes wide, so the peek window ends mid-rune.
	input := "x" + strings.Repeat("א", 3000)
	r, err := encoding.NewUTF8Reader(strings.NewReader(input))
	require.NoError(t, err)

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, input, string(got))
}

func TestNewUTF8Reader_Hebrew8Bit(t *testing.T) {
	line := "תאריך,תיאור הפעולה,פרטים,אסמכתא,חובה,זכות,יתרה\n" +
		"06/03/24,העברה מחשבון אחר של הלקוח,משכורת חודשית מהמעסיק,12345,,1000,5000\n" +
		"07/03/24,תשלום חשבון חשמל לבית,הוראת קבע חודשית לחברת החשמל,12346,300,,4700\n"
	utf8CSV := strings.Repeat(line, 5)

	encoded, err := charmap.Windows1255.NewEncoder().Bytes([]byte(utf8CSV))
	require.NoError(t, err)

	r, err := encoding.NewUTF8Reader(bytes.NewReader(encoded))
	require.NoError(t, err)

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, utf8CSV, string(got))
}

func TestNewUTF8Reader_UTF8BOM(t *testing.T) {
	bom := []byte{0xEF, 0xBB, 0xBF}
	content := []byte("תאריך,סכום\n")
	input := append(bom, content...)

	r, err := encoding.NewUTF8Reader(bytes.NewReader(input))
	require.NoError(t, err)

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "תאריך,סכום\n", string(got))
}
