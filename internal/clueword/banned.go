package clueword

// English words are refused as clues whatever the target is.
var bannedEnglish = map[string]struct{}{
	"the": {}, "and": {}, "or": {}, "of": {}, "to": {}, "in": {}, "is": {},
	"it": {}, "you": {}, "that": {}, "he": {}, "she": {}, "was": {}, "for": {},
	"on": {}, "are": {}, "with": {}, "as": {}, "his": {}, "they": {}, "be": {},
	"at": {}, "one": {}, "have": {}, "this": {}, "from": {}, "by": {}, "hot": {},
	"word": {}, "but": {}, "what": {}, "some": {}, "we": {}, "can": {}, "out": {},
	"other": {}, "were": {}, "all": {}, "there": {}, "when": {}, "up": {},
	"use": {}, "your": {}, "how": {}, "said": {}, "an": {}, "each": {},
	"which": {}, "do": {}, "their": {}, "time": {}, "if": {}, "will": {},
	"way": {}, "about": {}, "many": {}, "then": {}, "them": {}, "write": {},
	"would": {}, "like": {}, "so": {}, "these": {}, "her": {}, "long": {},
	"make": {}, "thing": {}, "see": {}, "him": {}, "two": {}, "has": {},
	"look": {}, "more": {}, "day": {}, "could": {}, "go": {}, "come": {},
	"did": {}, "number": {}, "sound": {}, "no": {}, "most": {}, "people": {},
	"my": {}, "over": {}, "know": {}, "water": {}, "than": {}, "call": {},
	"first": {}, "who": {}, "may": {}, "down": {}, "side": {}, "been": {},
	"now": {}, "find": {}, "yes": {}, "cat": {}, "dog": {}, "sun": {},
	"money": {}, "love": {}, "house": {}, "car": {}, "food": {}, "good": {},
	"bad": {}, "big": {}, "small": {}, "red": {}, "blue": {}, "green": {},
	"black": {}, "white": {}, "brand": {}, "market": {}, "book": {}, "music": {},
}

func IsBanned(word string) bool {
	_, ok := bannedEnglish[Normalize(word)]
	return ok
}
