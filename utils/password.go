package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/gosimple/unidecode"
)

const passwordAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// LobbyPassword returns n random characters from [A-Z0-9].
func LobbyPassword(n int) string {
	out := make([]byte, n)
	max := big.NewInt(int64(len(passwordAlphabet)))
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic(fmt.Sprintf("crypto/rand failed: %v", err))
		}
		out[i] = passwordAlphabet[idx.Int64()]
	}
	return string(out)
}

// LobbyName is the display name of a game's lobby, e.g. "Inhouse #42". The
// in-game lobby browser only renders ASCII, so the prefix is transliterated.
func LobbyName(prefix string, gameID uint) string {
	return fmt.Sprintf("%s #%d", unidecode.Unidecode(prefix), gameID)
}
