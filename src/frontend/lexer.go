// This lexer is based on Rob Pike's talk on Go scanners.
// Link to the talk on YouTube: https://www.youtube.com/watch?v=HxaD_trXwRE
// Link to presentation slides: https://talks.golang.org/2011/lex.slide#1
//
// The lexer uses state functions stateFunc to define the lexer state. A state scans one kind of lexeme and returns
// the state that scans the next one. Items are emitted on a channel, so the lexer runs concurrently with whoever
// consumes the items.

package frontend

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// stateFunc defines the state of the lexer.
type stateFunc func(*lexer) stateFunc

// itemType is used to differentiate different tokens scanned by the lexer. Punctuation is emitted with the
// punctuation rune as item type.
type itemType int

// item contains a lexeme scanned by the lexer and its position in the source stream.
type item struct {
	typ  itemType // Token type to emit.
	val  string   // Value of token.
	line int      // Line of token in source stream.
	pos  int      // Start position on current line of token in source stream.
}

// lexer is a lexical type that traverse a source stream character by character and emits lexemes.
type lexer struct {
	input       string        // The source stream of characters to scan for lexemes.
	start       int           // The starting position of the current token.
	pos         int           // The current position of the scanner in the source stream.
	width       int           // The width of the currently scanned rune/character in bytes.
	line        int           // The current line in the source stream. Not zero-indexed.
	startOnLine int           // The start position of the current token on the current line. Not zero-indexed.
	state       stateFunc     // The start state of the lexer.
	items       chan item     // A channel for emitting item tokens.
	done        chan struct{} // Closed by the consumer to stop the lexer early.
	stopped     bool          // Set when the consumer has stopped the lexer.
}

// ---------------------
// ----- Constants -----
// ---------------------

const eof = 0 // Same as '\0' for null-terminated C strings.

const (
	itemEOF    itemType = iota
	itemError           // Lexical error. The value holds the message.
	itemWord            // Keyword, type, opcode, flag, predicate or block label.
	itemLocal           // Function local name: %name.
	itemGlobal          // Function name: @name.
	itemNumber          // Integer or floating point literal.
	itemString          // Contents of a string literal, still escaped.
	itemMeta            // Metadata kind: !name.
)

// --------------------------
// ----- Item functions -----
// --------------------------

// String returns a print friendly string representation of the item.
func (i item) String() string {
	switch i.typ {
	case itemEOF:
		return "EOF"
	case itemError:
		return fmt.Sprintf("%s [ERROR]", i.val)
	}
	if len(i.val) > 10 {
		return fmt.Sprintf("%.10q... (line %d:%d)", i.val, i.line, i.pos)
	}
	return fmt.Sprintf("%q (line %d:%d)", i.val, i.line, i.pos)
}

// ---------------------------
// ----- Lexer functions -----
// ---------------------------

// newLexer creates and returns a pointer to a new lexer.
func newLexer(src string, start stateFunc) *lexer {
	return &lexer{
		input:       src,
		line:        1,
		startOnLine: 1,
		state:       start,
		items:       make(chan item, 2),
		done:        make(chan struct{}),
	}
}

// run traverses the input stream of the lexer, emitting tokens on the lexer's items channel until the input is
// exhausted, an error is found or the consumer stops the lexer.
func (l *lexer) run() {
	defer close(l.items)
	for state := l.state; state != nil && !l.stopped; {
		state = state(l)
	}
}

// stop tells the lexer that no more items will be read.
func (l *lexer) stop() {
	close(l.done)
}

// emit sends an item of type typ back to the caller.
func (l *lexer) emit(typ itemType) {
	l.send(item{
		typ:  typ,
		val:  l.input[l.start:l.pos],
		line: l.line,
		pos:  l.startOnLine,
	})
	l.startOnLine += len(l.input[l.start:l.pos])
	l.start = l.pos
}

// send delivers it to the consumer, unless the consumer has stopped the lexer.
func (l *lexer) send(it item) {
	if l.stopped {
		return
	}
	select {
	case l.items <- it:
	case <-l.done:
		l.stopped = true
	}
}

// next returns the next rune in the input. The use of runes makes the lexer UTF-8 compatible.
func (l *lexer) next() (r rune) {
	if l.pos >= len(l.input) {
		l.width = 0
		return eof
	}
	r, l.width = utf8.DecodeRuneInString(l.input[l.pos:])
	l.pos += l.width
	return r
}

// ignore skips over the pending input before this point.
func (l *lexer) ignore() {
	l.startOnLine += len(l.input[l.start:l.pos])
	l.start = l.pos
}

// backup steps back one rune. Should only be called once per call of next.
func (l *lexer) backup() {
	if l.pos > l.start {
		l.pos -= l.width
	}
}

// peek returns, but does not consume, the next rune in the input.
func (l *lexer) peek() rune {
	r := l.next()
	l.backup()
	return r
}

// accept consumes the next rune if it's from the set of valid characters defined by the valid string.
func (l *lexer) accept(valid string) bool {
	if strings.IndexRune(valid, l.next()) >= 0 {
		return true
	}
	l.backup()
	return false
}

// acceptRun consumes a sequence of runes from the set of valid characters defined by the valid string. Returns
// the number of consumed runes.
func (l *lexer) acceptRun(valid string) int {
	n := 0
	for strings.IndexRune(valid, l.next()) >= 0 {
		n++
	}
	l.backup()
	return n
}

// nextItem returns the next item from the input. Once the lexer has finished, nextItem returns EOF items.
func (l *lexer) nextItem() item {
	return <-l.items
}

// errorf emits an error token and terminates the scan by passing back a nil pointer that will be the next state,
// terminating l.run.
func (l *lexer) errorf(format string, args ...interface{}) stateFunc {
	l.send(item{
		typ:  itemError,
		val:  fmt.Sprintf("line %d:%d: ", l.line, l.startOnLine) + fmt.Sprintf(format, args...),
		line: l.line,
		pos:  l.startOnLine,
	})
	return nil
}
