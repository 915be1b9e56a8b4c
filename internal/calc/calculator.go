package calc

import (
	"strconv"
	"strings"
	"sync"

	"golang.org/x/text/language"

	"github.com/dukerupert/sutradhaar/internal/apperr"
)

// ErrorDisplay is what the result line shows when evaluation fails.
const ErrorDisplay = "Error"

// MaxHistory bounds the kept history entries.
const MaxHistory = 50

// MaxExpression bounds the length of a typed expression in bytes.
const MaxExpression = 512

// Display is what the calculator screen shows.
type Display struct {
	Expression string   `json:"expression"`
	Result     string   `json:"result"`
	History    []string `json:"history"`
}

// Calculator is one user's calculator: the expression being typed, the
// last result, and a history that lives only in memory.
type Calculator struct {
	mu         sync.Mutex
	lang       language.Tag
	expression string
	result     string
	value      float64
	hasValue   bool
	history    []string
}

// New creates an empty Calculator formatting results for lang.
func New(lang language.Tag) *Calculator {
	return &Calculator{lang: lang}
}

func validToken(token string) bool {
	if token == "" {
		return false
	}
	for _, r := range token {
		if !strings.ContainsRune("0123456789.+-*/() ", r) {
			return false
		}
	}
	return true
}

// Input appends token to the expression. Typing after a result continues
// from that result; typing after an error starts over.
func (c *Calculator) Input(token string) (Display, error) {
	if !validToken(token) {
		return c.Display(), apperr.Validation("calculator input", "unsupported key")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	var next string
	switch {
	case c.hasValue:
		next = strconv.FormatFloat(c.value, 'f', -1, 64) + token
	case c.result != "":
		next = token
	default:
		next = c.expression + token
	}
	if len(next) > MaxExpression {
		return c.displayLocked(), apperr.Validation("calculator input", "expression too long")
	}
	c.expression = next
	c.result = ""
	c.hasValue = false
	return c.displayLocked(), nil
}

// Backspace drops the last character, or clears the screen after a result.
func (c *Calculator) Backspace() Display {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.result != "" {
		c.expression, c.result, c.hasValue = "", "", false
	} else if n := len(c.expression); n > 0 {
		c.expression = c.expression[:n-1]
	}
	return c.displayLocked()
}

func (c *Calculator) Clear() Display {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expression, c.result, c.hasValue = "", "", false
	return c.displayLocked()
}

// Calculate evaluates the expression. Failures show ErrorDisplay and are
// not recorded in the history.
func (c *Calculator) Calculate() Display {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, err := Evaluate(c.expression)
	if err != nil {
		c.result = ErrorDisplay
		c.hasValue = false
		return c.displayLocked()
	}
	c.value = v
	c.hasValue = true
	c.result = FormatIn(c.lang, v)
	c.history = append([]string{c.expression + " = " + c.result}, c.history...)
	if len(c.history) > MaxHistory {
		c.history = c.history[:MaxHistory]
	}
	return c.displayLocked()
}

// History is most recent first.
func (c *Calculator) History() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string{}, c.history...)
}

func (c *Calculator) RemoveHistory(i int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i < 0 || i >= len(c.history) {
		return apperr.NotFound("remove history", "history entry not found")
	}
	c.history = append(c.history[:i:i], c.history[i+1:]...)
	return nil
}

func (c *Calculator) ClearHistory() {
	c.mu.Lock()
	c.history = nil
	c.mu.Unlock()
}

func (c *Calculator) Display() Display {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.displayLocked()
}

func (c *Calculator) displayLocked() Display {
	return Display{
		Expression: c.expression,
		Result:     c.result,
		History:    append([]string{}, c.history...),
	}
}
