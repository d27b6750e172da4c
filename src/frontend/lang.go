package frontend

import "fmt"

// itemNames provides print friendly names of the non-punctuation item types.
var itemNames = [...]string{
	itemEOF:    "EOF",
	itemError:  "ERROR",
	itemWord:   "WORD",
	itemLocal:  "LOCAL",
	itemGlobal: "GLOBAL",
	itemNumber: "NUMBER",
	itemString: "STRING",
	itemMeta:   "META",
}

// String returns the print friendly name of the item type. Punctuation is returned as the quoted rune.
func (t itemType) String() string {
	if int(t) < len(itemNames) {
		return itemNames[t]
	}
	return fmt.Sprintf("%q", rune(t))
}
