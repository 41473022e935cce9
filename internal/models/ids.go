package models

import (
	"bytes"
	"math/big"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// CompareMessageIDs orders two server message ids. It only answers when both ids
// share an orderable scheme: decimal integers compare numerically and ObjectIDs
// compare by their bytes, which lead with the creation time. Anything else, temp
// ids included, reports ok == false.
func CompareMessageIDs(a, b string) (cmp int, ok bool) {
	if x, okx := new(big.Int).SetString(a, 10); okx {
		if y, oky := new(big.Int).SetString(b, 10); oky {
			return x.Cmp(y), true
		}
		return 0, false
	}

	x, err := bson.ObjectIDFromHex(a)
	if err != nil {
		return 0, false
	}
	y, err := bson.ObjectIDFromHex(b)
	if err != nil {
		return 0, false
	}
	return bytes.Compare(x[:], y[:]), true
}
