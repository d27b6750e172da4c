package frontend

import "strings"

// digits is the set of decimal digits.
const digits = "0123456789"

// nameRunes is the set of runes allowed in names and words after the first rune.
const nameRunes = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789_.$"

// punctuation is the set of runes emitted as single rune items.
const punctuation = "(){}[],=:<>"

// lexGlobal starts the lexing process and serves as the default state.
func lexGlobal(l *lexer) stateFunc {
	for {
		r := l.next()
		switch {
		case isAlpha(r) || r == '_':
			// Keyword, type, opcode or label.
			return lexWord
		case isDigit(r):
			// Number.
			return lexNumber
		case r == '-' && isDigit(l.peek()):
			// Negative number.
			return lexNumber
		case r == '-' && strings.HasPrefix(l.input[l.pos:], "inf"):
			// Negative infinity.
			l.pos += len("inf")
			l.emit(itemNumber)
		case r == '%':
			return lexName(itemLocal)
		case r == '@':
			return lexName(itemGlobal)
		case r == '!':
			return lexName(itemMeta)
		case r == '\n':
			// Newline.
			l.ignore()
			l.line++
			l.startOnLine = 1
		case isSpace(r):
			// Ignore whitespace. Newlines are caught before whitespaces.
			l.ignore()
		case r == '"':
			// String.
			return lexString
		case r == ';':
			// Ignore comments until end of line.
			for c := l.peek(); c != '\n' && c != eof; c = l.peek() {
				l.next()
			}
			l.ignore()
		case r == eof:
			// End of file: stop the state machine.
			l.emit(itemEOF)
			return nil
		case strings.ContainsRune(punctuation, r):
			// Let parser use character as is.
			l.emit(itemType(r))
		default:
			return l.errorf("unexpected character %q", r)
		}
	}
}

// lexWord scans the input string for keywords, types, opcodes and labels.
func lexWord(l *lexer) stateFunc {
	// We know that the currently scanned rune is an alphabetic character.
	l.acceptRun(nameRunes)
	l.emit(itemWord)
	return lexGlobal
}

// lexName returns a state that scans a name following the sigil that was just consumed. The emitted value
// includes the sigil.
func lexName(typ itemType) stateFunc {
	return func(l *lexer) stateFunc {
		if l.acceptRun(nameRunes) == 0 {
			return l.errorf("expected name after %q", l.input[l.start:l.pos])
		}
		l.emit(typ)
		return lexGlobal
	}
}

// lexNumber scans the input stream for an integer or floating point number, with optional fraction and
// exponent. The first digit or the minus sign has been consumed already.
func lexNumber(l *lexer) stateFunc {
	// Scan integer part.
	l.acceptRun(digits)

	// Check for decimal.
	if l.accept(".") {
		l.acceptRun(digits)
	}

	// Check for exponent.
	if l.accept("eE") {
		l.accept("+-")
		if l.acceptRun(digits) == 0 {
			return l.errorf("malformed exponent in %q", l.input[l.start:l.pos])
		}
	}
	if r := l.peek(); isAlpha(r) {
		return l.errorf("unexpected %q after number %q", r, l.input[l.start:l.pos])
	}
	l.emit(itemNumber)
	return lexGlobal
}

// lexString scans a string literal from the input stream. Escaped runes, such as \", are kept as is.
func lexString(l *lexer) stateFunc {
	// By this point we're in the string. Accept anything until the next unescaped '"' appears.
	l.ignore()
	for {
		switch l.next() {
		case eof, '\n':
			return l.errorf("unclosed string literal")
		case '\\':
			l.next()
		case '"':
			// Found string termination.
			l.backup()
			l.emit(itemString)
			l.next()
			l.ignore()
			return lexGlobal
		}
	}
}

// ----------------------------
// ----- Helper functions -----
// ----------------------------

// isAlpha return true if rune r is an alphabetic character in the set [a-zA-Z].
func isAlpha(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// isDigit return true if rune r is a digit in the range [0-9].
func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// isSpace return true if rune r is a whitespace character.
func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\f' || r == '\r'
}
